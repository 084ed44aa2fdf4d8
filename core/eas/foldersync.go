package eas

import (
	"context"
	"fmt"

	"easgateway/core/domain"
	"easgateway/core/eas/synclock"
	"easgateway/core/port/in"
)

// FolderSync implements the folder hierarchy sync (spec.md §4.5.2). The
// hierarchy itself is static per principal (SPEC_FULL.md §C), so this
// handler's only real job is driving the FolderSync SyncKey through the
// same reset/advance/resend state machine Sync uses for items, scoped to
// the synthetic RootCollectionID.
func (s *Service) FolderSync(ctx context.Context, rc in.RequestContext, req in.FolderSyncRequest) (in.FolderSyncResult, error) {
	trace := s.Trace.Command(rc.Principal.ID, rc.Device.DeviceID, "FolderSync")

	unlock := s.Locks.Lock(synclock.Key(rc.Principal.ID, rc.Device.DeviceID, domain.RootCollectionID))
	defer unlock()

	state, err := s.SyncStates.Get(ctx, rc.Principal.ID, rc.Device.DeviceID, domain.RootCollectionID)
	if err != nil {
		return in.FolderSyncResult{}, fmt.Errorf("eas: load folder sync state: %w", err)
	}
	if state == nil {
		state = domain.NewSyncState(rc.Principal.ID, rc.Device.DeviceID, domain.RootCollectionID)
	}

	switch state.ValidateClientKey(req.SyncKey) {
	case domain.KeyReset:
		state.Reset()
		state.FolderSyncAttempts++
		trace.Event("folder sync reset", map[string]any{"attempts": state.FolderSyncAttempts})
	case domain.KeyResend:
		// The client never saw the previous batch's confirmation; resend the
		// exact same SyncKey rather than minting a new one.
		state.FolderSyncAttempts = 0
	case domain.KeyAdvance:
		state.FolderSyncAttempts = 0
	case domain.KeyInvalid:
		state.Reset()
		if err := s.SyncStates.Save(ctx, state); err != nil {
			return in.FolderSyncResult{}, fmt.Errorf("eas: save reset-on-invalid folder sync state: %w", err)
		}
		trace.Event("invalid folder sync key", map[string]any{"client_key": req.SyncKey})
		return in.FolderSyncResult{Status: "3"}, nil
	}

	folders, err := s.Folders.ListFolders(ctx, rc.Principal.ID)
	if err != nil {
		return in.FolderSyncResult{}, fmt.Errorf("eas: list folders for principal %d: %w", rc.Principal.ID, err)
	}

	var nextKey string
	if state.HasPending && req.SyncKey == state.PendingSyncKey {
		nextKey = state.PendingSyncKey
	} else {
		nextKey = nextSyncKey(state.CurrentSyncKey)
		state.StageBatch(nextKey, nil, 0)
	}
	// FolderSync has no client strategy requiring two-phase confirmation
	// before the hierarchy is visible; commit immediately, the same way
	// Sync does for clients with UsesPendingConfirmation()==false.
	state.ConfirmPending()

	trace.StateTransition(domain.RootCollectionID, "folder_sync_key", req.SyncKey, nextKey)
	if err := s.SyncStates.Save(ctx, state); err != nil {
		return in.FolderSyncResult{}, fmt.Errorf("eas: save folder sync state: %w", err)
	}

	return in.FolderSyncResult{Status: "1", SyncKey: nextKey, Folders: folders}, nil
}
