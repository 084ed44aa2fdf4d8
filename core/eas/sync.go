package eas

import (
	"context"
	"fmt"
	"sort"

	"easgateway/core/domain"
	"easgateway/core/eas/synclock"
	"easgateway/core/port/in"
	"easgateway/pkg/diagnostics"
)

// Sync implements the core two-phase-commit state machine (spec.md §4.5.3,
// §3). Each collection in the request is handled independently, serialized
// by its own synclock key so a slow collection never blocks a sibling.
func (s *Service) Sync(ctx context.Context, rc in.RequestContext, req in.SyncRequest) (in.SyncResult, error) {
	trace := s.Trace.Command(rc.Principal.ID, rc.Device.DeviceID, "Sync")

	result := in.SyncResult{Collections: make([]in.SyncCollectionResult, 0, len(req.Collections))}
	for _, cr := range req.Collections {
		cres, err := s.syncCollection(ctx, rc, trace, cr)
		if err != nil {
			return in.SyncResult{}, err
		}
		result.Collections = append(result.Collections, cres)
	}
	return result, nil
}

func (s *Service) syncCollection(ctx context.Context, rc in.RequestContext, trace *diagnostics.CommandTrace, cr in.SyncCollectionRequest) (in.SyncCollectionResult, error) {
	unlock := s.Locks.Lock(synclock.Key(rc.Principal.ID, rc.Device.DeviceID, cr.CollectionID))
	defer unlock()

	state, err := s.SyncStates.Get(ctx, rc.Principal.ID, rc.Device.DeviceID, cr.CollectionID)
	if err != nil {
		return in.SyncCollectionResult{}, fmt.Errorf("eas: load sync state for collection %s: %w", cr.CollectionID, err)
	}
	if state == nil {
		state = domain.NewSyncState(rc.Principal.ID, rc.Device.DeviceID, cr.CollectionID)
	}

	switch state.ValidateClientKey(cr.SyncKey) {
	case domain.KeyReset:
		// spec.md §8 scenarios (a)/(b): the 0->1 exchange must actually
		// advance SyncKey to "1", with Outlook's empty response or
		// iOS/Android's immediate item batch — so reset state here and
		// fall through into the same empty-initial/item-projection logic
		// below instead of returning, the same shape foldersync.go uses.
		state.Reset()

	case domain.KeyResend:
		// Idempotent resend (spec §4.3 invariant 5): the client never saw the
		// previous response, so deterministically reconstruct the same
		// batch from PendingItemIDs rather than advance any state.
		return s.resendPending(ctx, rc, state, cr)

	case domain.KeyInvalid:
		// spec.md §8 scenario (d): an unrecognized key resets state (current
		// -> "0", acked cleared) in addition to the in-band Status 3, so the
		// client's mandated "restart with SyncKey 0" actually lands on a
		// clean server-side state instead of a stale one.
		state.Reset()
		if err := s.SyncStates.Save(ctx, state); err != nil {
			return in.SyncCollectionResult{}, fmt.Errorf("eas: save reset-on-invalid sync state for collection %s: %w", cr.CollectionID, err)
		}
		trace.Event("invalid sync key", map[string]any{"collection_id": cr.CollectionID, "client_key": cr.SyncKey})
		return in.SyncCollectionResult{CollectionID: cr.CollectionID, Status: "3"}, nil

	case domain.KeyAdvance:
		if state.HasPending {
			// The client presented CurrentSyncKey instead of PendingSyncKey:
			// it never received (or discarded) the last staged batch.
			state.DiscardPending()
		}
	}

	isInitialSync := cr.SyncKey == domain.ResetSyncKey || (state.LastAckedItemID == 0 && len(state.AckedItemIDs) == 0)

	// A request that isn't asking for changes just wants its Status/SyncKey
	// confirmed — but the 0->1 exchange always needs the full
	// empty-initial/item-projection treatment below, GetChanges or not;
	// spec §8 scenarios (a)/(b) never skip it for SyncKey="0".
	if !cr.GetChanges && !isInitialSync {
		return in.SyncCollectionResult{CollectionID: cr.CollectionID, Status: "1", SyncKey: state.CurrentSyncKey}, nil
	}

	if rc.Strategy.NeedsEmptyInitialResponse(cr.SyncKey) {
		nextKey := nextSyncKey(state.CurrentSyncKey)
		state.StageBatch(nextKey, nil, state.LastAckedItemID)
		state.ConfirmPending()
		if err := s.SyncStates.Save(ctx, state); err != nil {
			return in.SyncCollectionResult{}, fmt.Errorf("eas: save empty-initial sync state for collection %s: %w", cr.CollectionID, err)
		}
		trace.StateTransition(cr.CollectionID, "current_sync_key", cr.SyncKey, nextKey)
		return in.SyncCollectionResult{CollectionID: cr.CollectionID, Status: "1", SyncKey: nextKey}, nil
	}

	windowSize := clampWindowSize(cr.WindowSize, rc.Strategy)
	excludeIDs := ackedSlice(state.AckedItemIDs)
	page, err := s.MailStore.ListChanges(ctx, rc.Principal.ID, cr.CollectionID, state.LastAckedItemID, excludeIDs, windowSize)
	if err != nil {
		return in.SyncCollectionResult{}, fmt.Errorf("eas: list changes for collection %s: %w", cr.CollectionID, err)
	}

	bodyType, requestedTrunc := selectBodyPreference(rc.Strategy, cr.BodyPreferences)
	projected := make([]in.ProjectedItem, 0, len(page.Items))
	itemIDs := make([]int64, 0, len(page.Items))
	for _, item := range page.Items {
		body, err := s.prepareBody(item, bodyType, requestedTrunc, rc.Strategy, isInitialSync)
		if err != nil {
			return in.SyncCollectionResult{}, err
		}
		projected = append(projected, in.ProjectedItem{Item: item, Body: body})
		itemIDs = append(itemIDs, item.ID)
	}

	nextKey := nextSyncKey(state.CurrentSyncKey)
	state.StageBatch(nextKey, itemIDs, page.MaxItemID)

	if rc.Strategy.UsesPendingConfirmation() {
		// Leave CurrentSyncKey untouched until the client comes back
		// presenting PendingSyncKey (Sync invariant 2/3); iOS/Android both
		// confirm on the very next request.
		if err := s.SyncStates.Save(ctx, state); err != nil {
			return in.SyncCollectionResult{}, fmt.Errorf("eas: save pending sync state for collection %s: %w", cr.CollectionID, err)
		}
	} else {
		// Outlook never re-presents the pending key: commit unilaterally.
		state.ConfirmPending()
		if err := s.SyncStates.Save(ctx, state); err != nil {
			return in.SyncCollectionResult{}, fmt.Errorf("eas: save confirmed sync state for collection %s: %w", cr.CollectionID, err)
		}
	}

	trace.StateTransition(cr.CollectionID, "pending_sync_key", cr.SyncKey, nextKey)
	return in.SyncCollectionResult{
		CollectionID:  cr.CollectionID,
		Status:        "1",
		SyncKey:       nextKey,
		Items:         projected,
		MoreAvailable: page.MoreAvailable,
	}, nil
}

// resendPending reconstructs the exact batch already staged as
// state.PendingSyncKey, for a client that re-presents CurrentSyncKey
// because it never received the previous response. The ResponseCache
// (adapter/in/http) is responsible for short-circuiting to the exact cached
// bytes before this path is even reached; this is the correctness fallback
// when no cache entry survives.
func (s *Service) resendPending(ctx context.Context, rc in.RequestContext, state *domain.SyncState, cr in.SyncCollectionRequest) (in.SyncCollectionResult, error) {
	ids := make([]int64, 0, len(state.PendingItemIDs))
	for id := range state.PendingItemIDs {
		ids = append(ids, id)
	}
	// Map iteration order is random; sort ascending so two resends of the
	// same pending batch reconstruct items in identical order and produce
	// byte-identical WBXML (spec §8 invariant 5), matching the ascending
	// order ListChanges itself guarantees for a freshly computed batch.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	items := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		item, err := s.MailStore.FetchItem(ctx, rc.Principal.ID, cr.CollectionID, id)
		if err != nil {
			return in.SyncCollectionResult{}, fmt.Errorf("eas: refetch pending item %d for collection %s: %w", id, cr.CollectionID, err)
		}
		items = append(items, item)
	}

	bodyType, requestedTrunc := selectBodyPreference(rc.Strategy, cr.BodyPreferences)
	projected := make([]in.ProjectedItem, 0, len(items))
	for _, item := range items {
		body, err := s.prepareBody(item, bodyType, requestedTrunc, rc.Strategy, false)
		if err != nil {
			return in.SyncCollectionResult{}, err
		}
		projected = append(projected, in.ProjectedItem{Item: item, Body: body})
	}

	return in.SyncCollectionResult{
		CollectionID: cr.CollectionID,
		Status:       "1",
		SyncKey:      state.PendingSyncKey,
		Items:        projected,
	}, nil
}

// ResponseCacheKey builds the ResponseCache key for a (device, collection,
// sync key) triple, shared with the dispatcher so it can check the cache
// before calling into Sync at all.
func ResponseCacheKey(principalID int64, deviceID, collectionID, syncKey string) string {
	return fmt.Sprintf("eas:resp:%d:%s:%s:%s", principalID, deviceID, collectionID, syncKey)
}

func ackedSlice(acked map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(acked))
	for id := range acked {
		ids = append(ids, id)
	}
	return ids
}
