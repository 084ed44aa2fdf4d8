package domain

// PendingBatch is the transient result of projecting items for a Sync
// response. It is committed to SyncState via StageBatch only when the
// client strategy requires two-phase confirmation; otherwise the handler
// commits it immediately.
type PendingBatch struct {
	SyncKey       string
	Items         []Item
	ItemIDs       []int64
	MaxItemID     int64
	MoreAvailable bool
	WBXML         []byte // the exact bytes emitted, kept for idempotent resend
}
