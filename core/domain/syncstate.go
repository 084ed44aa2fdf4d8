package domain

// ResetSyncKey is the client-sent sentinel meaning "no prior state".
const ResetSyncKey = "0"

// SyncState is the per-(Device, Collection) record described in spec.md §3.
// Mutation is confined to a single command-handler invocation per request;
// callers are expected to hold the keyed lock from core/eas/synclock for the
// duration of load-modify-store.
type SyncState struct {
	PrincipalID int64
	DeviceID    string
	CollectionID string

	// CurrentSyncKey is the last key successfully confirmed by the client.
	CurrentSyncKey string
	// LastAckedItemID is the highest item id ever included in a confirmed batch.
	LastAckedItemID int64
	// AckedItemIDs is the set of item ids ever included in confirmed batches,
	// kept because item ids are not assumed monotonic (spec §6.5).
	AckedItemIDs map[int64]struct{}

	// Pending batch fields — nil/zero when no batch awaits confirmation.
	PendingSyncKey    string
	PendingItemIDs    map[int64]struct{}
	PendingMaxItemID  int64
	HasPending        bool

	// FolderSyncAttempts counts consecutive FolderSync("0") requests, for
	// loop diagnostics (spec §4.5.2); a FolderSync presenting the current or
	// pending key sets it back to zero. Sync requests do not touch it.
	FolderSyncAttempts int
}

// NewSyncState returns the zero-value state for a freshly seen (device, collection).
func NewSyncState(principalID int64, deviceID, collectionID string) *SyncState {
	return &SyncState{
		PrincipalID:    principalID,
		DeviceID:       deviceID,
		CollectionID:   collectionID,
		CurrentSyncKey: ResetSyncKey,
		AckedItemIDs:   make(map[int64]struct{}),
	}
}

// ValidateClientKey classifies an incoming client SyncKey against invariant 1
// (spec §3): it is either a reset, a normal advance, or a resend of the last
// issued (but unconfirmed) batch. Anything else is invalid.
type KeyClass int

const (
	KeyInvalid KeyClass = iota
	KeyReset
	KeyAdvance
	KeyResend
)

func (s *SyncState) ValidateClientKey(clientKey string) KeyClass {
	switch {
	case clientKey == ResetSyncKey:
		return KeyReset
	case clientKey == s.CurrentSyncKey:
		return KeyAdvance
	case s.HasPending && clientKey == s.PendingSyncKey:
		return KeyResend
	default:
		return KeyInvalid
	}
}

// StageBatch sets the pending fields, replacing any prior pending batch
// (invariant 2: at most one pending batch at a time).
func (s *SyncState) StageBatch(newSyncKey string, itemIDs []int64, maxItemID int64) {
	ids := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = struct{}{}
	}
	s.PendingSyncKey = newSyncKey
	s.PendingItemIDs = ids
	s.PendingMaxItemID = maxItemID
	s.HasPending = true
}

// ConfirmPending moves the pending batch into current state (invariant 3):
// current_sync_key <- pending_sync_key, pending cleared, acked unioned with pending.
func (s *SyncState) ConfirmPending() {
	if !s.HasPending {
		return
	}
	if s.AckedItemIDs == nil {
		s.AckedItemIDs = make(map[int64]struct{})
	}
	for id := range s.PendingItemIDs {
		s.AckedItemIDs[id] = struct{}{}
	}
	if s.PendingMaxItemID > s.LastAckedItemID {
		s.LastAckedItemID = s.PendingMaxItemID
	}
	s.CurrentSyncKey = s.PendingSyncKey
	s.clearPending()
}

// DiscardPending clears a stale pending batch (invariant 4: the client never
// saw it, because it re-presented CurrentSyncKey instead of PendingSyncKey).
func (s *SyncState) DiscardPending() {
	s.clearPending()
}

func (s *SyncState) clearPending() {
	s.PendingSyncKey = ""
	s.PendingItemIDs = nil
	s.PendingMaxItemID = 0
	s.HasPending = false
}

// Reset wipes all fields to their initial values (invariant 5: client SyncKey
// "0" resets everything for this (Device, Collection)).
func (s *SyncState) Reset() {
	s.CurrentSyncKey = ResetSyncKey
	s.LastAckedItemID = 0
	s.AckedItemIDs = make(map[int64]struct{})
	s.clearPending()
}

// IsAcked reports whether an item id has ever been included in a confirmed batch.
func (s *SyncState) IsAcked(itemID int64) bool {
	_, ok := s.AckedItemIDs[itemID]
	return ok
}
