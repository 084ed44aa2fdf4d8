// Package mailstore implements the Mail Store Adapter (spec.md GLOSSARY):
// item metadata lives in Postgres, bodies live in MongoDB
// (adapter/out/mongodb pattern, gzip-compressed above a size threshold),
// and body reads go through a sony/gobreaker circuit breaker the way the
// teacher wraps its external Gmail API calls (worker_gmail_adapter.go);
// metadata queries do not.
package mailstore

import (
	"context"
	"fmt"
	"time"

	"easgateway/core/domain"

	"github.com/jmoiron/sqlx"
)

// metadataStore reads item metadata (everything but the body) from
// PostgreSQL, ordered by id for deterministic windowing.
type metadataStore struct {
	db *sqlx.DB
}

func newMetadataStore(db *sqlx.DB) *metadataStore {
	return &metadataStore{db: db}
}

type itemMetaEntity struct {
	ID         int64  `db:"id"`
	Subject    string `db:"subject"`
	FromAddr   string `db:"from_addr"`
	ToAddr     string `db:"to_addr"`
	ReceivedAt string `db:"received_at"`
	Read       bool   `db:"read"`
}

func (e *itemMetaEntity) toDomain() domain.Item {
	t, _ := time.Parse(time.RFC3339Nano, e.ReceivedAt)
	return domain.Item{
		ID:         e.ID,
		Subject:    e.Subject,
		From:       e.FromAddr,
		To:         e.ToAddr,
		ReceivedAt: t,
		Read:       e.Read,
	}
}

// list returns up to windowSize items in collectionID with id > afterItemID
// and not present in excludeIDs, ordered ascending. The NOT IN clause
// covers items already acked in an earlier batch whose id happens to be
// smaller than a later one (spec §6.5: ids are not assumed monotonic).
func (m *metadataStore) list(ctx context.Context, principalID int64, collectionID string, afterItemID int64, excludeIDs []int64, windowSize int) ([]itemMetaEntity, bool, error) {
	query := `
		SELECT id, subject, from_addr, to_addr, received_at::text AS received_at, read
		FROM eas_items
		WHERE principal_id = $1 AND collection_id = $2 AND id > $3 AND NOT (id = ANY($4))
		ORDER BY id ASC
		LIMIT $5
	`
	var entities []itemMetaEntity
	if err := m.db.SelectContext(ctx, &entities, query, principalID, collectionID, afterItemID, excludeIDsArg(excludeIDs), windowSize+1); err != nil {
		return nil, false, fmt.Errorf("mailstore: list items for collection %s: %w", collectionID, err)
	}
	more := len(entities) > windowSize
	if more {
		entities = entities[:windowSize]
	}
	return entities, more, nil
}

// count reports how many items in collectionID have id > afterItemID and
// are not in excludeIDs, without fetching them.
func (m *metadataStore) count(ctx context.Context, principalID int64, collectionID string, afterItemID int64, excludeIDs []int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM eas_items
		WHERE principal_id = $1 AND collection_id = $2 AND id > $3 AND NOT (id = ANY($4))
	`
	var n int
	if err := m.db.GetContext(ctx, &n, query, principalID, collectionID, afterItemID, excludeIDsArg(excludeIDs)); err != nil {
		return 0, fmt.Errorf("mailstore: count items for collection %s: %w", collectionID, err)
	}
	return n, nil
}

func (m *metadataStore) get(ctx context.Context, principalID int64, collectionID string, itemID int64) (itemMetaEntity, error) {
	var entity itemMetaEntity
	query := `
		SELECT id, subject, from_addr, to_addr, received_at::text AS received_at, read
		FROM eas_items
		WHERE principal_id = $1 AND collection_id = $2 AND id = $3
	`
	if err := m.db.GetContext(ctx, &entity, query, principalID, collectionID, itemID); err != nil {
		return itemMetaEntity{}, fmt.Errorf("mailstore: get item %d in collection %s: %w", itemID, collectionID, err)
	}
	return entity, nil
}

func excludeIDsArg(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
