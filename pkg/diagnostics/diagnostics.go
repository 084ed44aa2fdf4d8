// Package diagnostics provides the structured per-command tracing the
// ActiveSync core needs to debug client-specific sync failures: WBXML hex
// dumps and sync-state transition logs, split into a dedicated zerolog
// stream the way the teacher splits its worker-pool logging
// (adapter/in/worker/worker_pool.go) from its HTTP request logging
// (pkg/logger).
package diagnostics

import (
	"encoding/hex"

	"github.com/rs/zerolog"
)

// Tracer is the entry point for per-request diagnostics. A nil *Tracer is
// valid and every method becomes a no-op, so command handlers never need
// to guard against diagnostics being unconfigured.
type Tracer struct {
	log zerolog.Logger
}

// New wraps a zerolog.Logger as a Tracer.
func New(log zerolog.Logger) *Tracer {
	return &Tracer{log: log.With().Str("component", "diagnostics").Logger()}
}

// Command starts a trace scoped to one ActiveSync command invocation. A
// nil Tracer yields a CommandTrace whose methods are all no-ops.
func (t *Tracer) Command(principalID int64, deviceID, cmd string) *CommandTrace {
	if t == nil {
		return &CommandTrace{}
	}
	return &CommandTrace{t: t, principalID: principalID, deviceID: deviceID, cmd: cmd}
}

// CommandTrace accumulates diagnostics for a single command handler call.
type CommandTrace struct {
	t           *Tracer
	principalID int64
	deviceID    string
	cmd         string
}

func (c *CommandTrace) fields() *zerolog.Event {
	return c.t.log.Debug().
		Int64("principal_id", c.principalID).
		Str("device_id", c.deviceID).
		Str("cmd", c.cmd)
}

// WBXMLIn dumps the decoded request body as hex, for reproducing a
// client's exact bytes when diagnosing a malformed-input report.
func (c *CommandTrace) WBXMLIn(body []byte) {
	if c == nil || c.t == nil {
		return
	}
	c.fields().Str("wbxml_in", hex.EncodeToString(body)).Msg("decoded request")
}

// WBXMLOut dumps the exact bytes sent back to the client.
func (c *CommandTrace) WBXMLOut(body []byte) {
	if c == nil || c.t == nil {
		return
	}
	c.fields().Str("wbxml_out", hex.EncodeToString(body)).Msg("encoded response")
}

// StateTransition logs a SyncState field change (e.g. CurrentSyncKey
// advancing), the trace the original Python implementation relied on
// instead of assertions to catch key-progression bugs in the field.
func (c *CommandTrace) StateTransition(collectionID, field, from, to string) {
	if c == nil || c.t == nil {
		return
	}
	c.t.log.Info().
		Int64("principal_id", c.principalID).
		Str("device_id", c.deviceID).
		Str("collection_id", collectionID).
		Str("field", field).
		Str("from", from).
		Str("to", to).
		Msg("sync state transition")
}

// Event logs a free-form diagnostic note (loop detection, cache hits, ...).
func (c *CommandTrace) Event(msg string, kv map[string]any) {
	if c == nil || c.t == nil {
		return
	}
	e := c.fields()
	for k, v := range kv {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

// Error logs a command failure.
func (c *CommandTrace) Error(err error) {
	if c == nil || c.t == nil || err == nil {
		return
	}
	c.t.log.Error().
		Int64("principal_id", c.principalID).
		Str("device_id", c.deviceID).
		Str("cmd", c.cmd).
		Err(err).
		Msg("command failed")
}
