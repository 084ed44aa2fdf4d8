package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"easgateway/core/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SyncStateAdapter implements out.SyncStateRepository using PostgreSQL.
// AckedItemIDs/PendingItemIDs are stored as int64[] columns via
// github.com/lib/pq.Array, the same way the teacher persists Postgres
// array columns (worker_attachment_adapter.go).
type SyncStateAdapter struct {
	db *sqlx.DB
}

// NewSyncStateAdapter creates a new SyncStateAdapter.
func NewSyncStateAdapter(db *sqlx.DB) *SyncStateAdapter {
	return &SyncStateAdapter{db: db}
}

type syncStateEntity struct {
	PrincipalID     int64         `db:"principal_id"`
	DeviceID        string        `db:"device_id"`
	CollectionID    string        `db:"collection_id"`
	CurrentSyncKey  string        `db:"current_sync_key"`
	LastAckedItemID int64         `db:"last_acked_item_id"`
	AckedItemIDs    pq.Int64Array `db:"acked_item_ids"`

	PendingSyncKey   sql.NullString `db:"pending_sync_key"`
	PendingItemIDs   pq.Int64Array  `db:"pending_item_ids"`
	PendingMaxItemID int64          `db:"pending_max_item_id"`
	HasPending       bool           `db:"has_pending"`

	FolderSyncAttempts int `db:"folder_sync_attempts"`
}

func (e *syncStateEntity) toDomain() *domain.SyncState {
	s := &domain.SyncState{
		PrincipalID:        e.PrincipalID,
		DeviceID:           e.DeviceID,
		CollectionID:       e.CollectionID,
		CurrentSyncKey:     e.CurrentSyncKey,
		LastAckedItemID:    e.LastAckedItemID,
		AckedItemIDs:       sliceToSet(e.AckedItemIDs),
		PendingMaxItemID:   e.PendingMaxItemID,
		HasPending:         e.HasPending,
		FolderSyncAttempts: e.FolderSyncAttempts,
	}
	if e.PendingSyncKey.Valid {
		s.PendingSyncKey = e.PendingSyncKey.String
	}
	if e.HasPending {
		s.PendingItemIDs = sliceToSet(e.PendingItemIDs)
	}
	return s
}

func sliceToSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func setToSlice(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Get loads the SyncState for a (principal, device, collection) triple, or
// nil for a collection never synced before.
func (a *SyncStateAdapter) Get(ctx context.Context, principalID int64, deviceID, collectionID string) (*domain.SyncState, error) {
	var entity syncStateEntity
	query := `
		SELECT principal_id, device_id, collection_id, current_sync_key, last_acked_item_id,
		       acked_item_ids, pending_sync_key, pending_item_ids, pending_max_item_id,
		       has_pending, folder_sync_attempts
		FROM eas_sync_states
		WHERE principal_id = $1 AND device_id = $2 AND collection_id = $3
	`
	if err := a.db.GetContext(ctx, &entity, query, principalID, deviceID, collectionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("persistence: get sync state for collection %s: %w", collectionID, err)
	}
	return entity.toDomain(), nil
}

// Save upserts the full SyncState row. Callers are expected to hold
// core/eas/synclock for the (device, collection) key across the
// preceding Get, matching the load-modify-store contract out.SyncStateRepository
// documents.
func (a *SyncStateAdapter) Save(ctx context.Context, state *domain.SyncState) error {
	var pendingSyncKey sql.NullString
	if state.PendingSyncKey != "" {
		pendingSyncKey = sql.NullString{String: state.PendingSyncKey, Valid: true}
	}

	query := `
		INSERT INTO eas_sync_states (
			principal_id, device_id, collection_id, current_sync_key, last_acked_item_id,
			acked_item_ids, pending_sync_key, pending_item_ids, pending_max_item_id,
			has_pending, folder_sync_attempts
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (principal_id, device_id, collection_id) DO UPDATE SET
			current_sync_key     = EXCLUDED.current_sync_key,
			last_acked_item_id   = EXCLUDED.last_acked_item_id,
			acked_item_ids       = EXCLUDED.acked_item_ids,
			pending_sync_key     = EXCLUDED.pending_sync_key,
			pending_item_ids     = EXCLUDED.pending_item_ids,
			pending_max_item_id  = EXCLUDED.pending_max_item_id,
			has_pending          = EXCLUDED.has_pending,
			folder_sync_attempts = EXCLUDED.folder_sync_attempts
	`
	_, err := a.db.ExecContext(ctx, query,
		state.PrincipalID, state.DeviceID, state.CollectionID, state.CurrentSyncKey, state.LastAckedItemID,
		pq.Array(setToSlice(state.AckedItemIDs)), pendingSyncKey, pq.Array(setToSlice(state.PendingItemIDs)), state.PendingMaxItemID,
		state.HasPending, state.FolderSyncAttempts,
	)
	if err != nil {
		return fmt.Errorf("persistence: save sync state for collection %s: %w", state.CollectionID, err)
	}
	return nil
}
