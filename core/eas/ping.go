package eas

import (
	"context"
	"time"

	"easgateway/core/port/in"
)

// Default and ceiling heartbeat bounds (spec.md §4.5.5), mirroring the
// Z-Push-derived defaults the strategy package uses for window sizes:
// permissive enough for real clients, bounded enough that a misbehaving
// one can't pin a connection open indefinitely.
const (
	MinHeartbeatSeconds     = 60
	DefaultHeartbeatSeconds = 300
	MaxHeartbeatSeconds     = 3540
)

// Ping implements the long-poll wakeup command. It never holds a synclock:
// the wait itself can take minutes, and holding a per-collection lock that
// long would starve any Sync call against the same collection for the
// duration.
func (s *Service) Ping(ctx context.Context, rc in.RequestContext, req in.PingRequest) (in.PingResult, error) {
	trace := s.Trace.Command(rc.Principal.ID, rc.Device.DeviceID, "Ping")

	interval := req.HeartbeatInterval
	switch {
	case interval <= 0:
		interval = DefaultHeartbeatSeconds
	case interval < MinHeartbeatSeconds:
		interval = MinHeartbeatSeconds
	case interval > MaxHeartbeatSeconds:
		interval = MaxHeartbeatSeconds
	}

	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(interval)*time.Second)
	defer cancel()

	changed, err := s.Notifier.Wait(waitCtx, rc.Principal.ID, rc.Device.DeviceID, req.CollectionIDs)
	if err != nil && waitCtx.Err() == nil {
		return in.PingResult{}, err
	}

	if len(changed) == 0 {
		trace.Event("ping timed out", map[string]any{"heartbeat": interval})
		return in.PingResult{Status: "1"}, nil
	}

	trace.Event("ping changed", map[string]any{"collections": changed})
	return in.PingResult{Status: "2", ChangedCollections: changed}, nil
}
