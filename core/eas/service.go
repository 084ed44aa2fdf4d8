// Package eas implements the ActiveSync command handlers (spec.md §4.5):
// Provision, FolderSync, Sync, GetItemEstimate, Ping and ItemOperations.
// Every handler depends only on core/port/out interfaces, following the
// teacher repository's hexagonal convention of services built against
// ports rather than concrete adapters.
package eas

import (
	"time"

	"easgateway/core/eas/synclock"
	"easgateway/core/mime"
	"easgateway/core/port/out"
	"easgateway/pkg/diagnostics"
)

// ResponseCacheTTL bounds how long an emitted WBXML batch is kept around
// for idempotent resend (spec.md §4.3). A client that goes quiet for
// longer than this is expected to have moved on or reconnected with a
// fresh Sync, at which point deterministic reconstruction from
// SyncState.PendingItemIDs is the fallback path anyway.
const ResponseCacheTTL = 10 * time.Minute

// Service wires the command handlers to their collaborators. It holds no
// per-request state; every method takes a RequestContext.
type Service struct {
	Devices    out.DeviceRepository
	SyncStates out.SyncStateRepository
	Folders    out.FolderRepository
	MailStore  out.MailStore
	Notifier   out.ChangeNotifier
	Auth       out.AuthRepository
	Responses  out.ResponseCache

	Locks *synclock.Keyed
	MIME  *mime.Builder
	Trace *diagnostics.Tracer
}

// NewService constructs a Service from its ports. Locks/MIME/Trace default
// to ready-to-use zero-configuration instances when nil, matching the
// teacher's pattern of forgiving constructors for optional collaborators.
func NewService(devices out.DeviceRepository, states out.SyncStateRepository, folders out.FolderRepository, store out.MailStore, notifier out.ChangeNotifier, auth out.AuthRepository, responses out.ResponseCache, locks *synclock.Keyed, builder *mime.Builder, trace *diagnostics.Tracer) *Service {
	if locks == nil {
		locks = synclock.New()
	}
	if builder == nil {
		builder = mime.NewBuilder()
	}
	return &Service{
		Devices:    devices,
		SyncStates: states,
		Folders:    folders,
		MailStore:  store,
		Notifier:   notifier,
		Auth:       auth,
		Responses:  responses,
		Locks:      locks,
		MIME:       builder,
		Trace:      trace,
	}
}
