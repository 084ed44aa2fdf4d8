package eas

import (
	"context"
	"fmt"

	"easgateway/core/domain"
	"easgateway/core/port/in"
)

// GetItemEstimate reports the pending change count per collection without
// mutating any SyncState (spec.md §4.5.4) — no synclock is held because
// nothing here writes. A collection whose SyncKey doesn't match the
// stored CurrentSyncKey/PendingSyncKey gets Status=4 and no Estimate,
// mirroring Sync's own invalid-key handling (domain.KeyInvalid) without
// resetting state: GetItemEstimate is read-only by contract.
func (s *Service) GetItemEstimate(ctx context.Context, rc in.RequestContext, req in.GetItemEstimateRequest) (in.GetItemEstimateResult, error) {
	trace := s.Trace.Command(rc.Principal.ID, rc.Device.DeviceID, "GetItemEstimate")

	results := make([]in.GetItemEstimateCollectionResult, 0, len(req.Collections))
	for _, cr := range req.Collections {
		state, err := s.SyncStates.Get(ctx, rc.Principal.ID, rc.Device.DeviceID, cr.CollectionID)
		if err != nil {
			return in.GetItemEstimateResult{}, fmt.Errorf("eas: load sync state for estimate on collection %s: %w", cr.CollectionID, err)
		}
		if state == nil {
			state = domain.NewSyncState(rc.Principal.ID, rc.Device.DeviceID, cr.CollectionID)
		}
		if state.ValidateClientKey(cr.SyncKey) == domain.KeyInvalid {
			trace.Event("invalid estimate sync key", map[string]any{"collection_id": cr.CollectionID, "client_key": cr.SyncKey})
			results = append(results, in.GetItemEstimateCollectionResult{CollectionID: cr.CollectionID, Status: "4"})
			continue
		}

		count, err := s.MailStore.CountChanges(ctx, rc.Principal.ID, cr.CollectionID, state.LastAckedItemID, ackedSlice(state.AckedItemIDs))
		if err != nil {
			return in.GetItemEstimateResult{}, fmt.Errorf("eas: count changes for collection %s: %w", cr.CollectionID, err)
		}
		results = append(results, in.GetItemEstimateCollectionResult{CollectionID: cr.CollectionID, Status: "1", Estimate: count})
	}

	trace.Event("item estimate", map[string]any{"collections": len(req.Collections)})
	return in.GetItemEstimateResult{Collections: results}, nil
}
