package mailstore

import (
	"context"
	"fmt"
	"log"
	"time"

	"easgateway/core/domain"
	"easgateway/core/port/out"
	"easgateway/pkg/apperr"

	"github.com/jmoiron/sqlx"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
)

// Adapter implements out.MailStore, splitting reads across the Postgres
// metadata store and the MongoDB body store, with the Mongo leg wrapped
// in a circuit breaker — the same protection the teacher applies to its
// external Gmail API calls (worker_gmail_adapter.go), applied here to an
// external store instead of an external API.
type Adapter struct {
	meta *metadataStore
	body *bodyStore
	cb   *gobreaker.CircuitBreaker
}

// New constructs a mailstore Adapter. mongoDB is the already-selected
// mongo.Database (see infra/database.NewMongo for the client).
func New(pg *sqlx.DB, mongoDB *mongo.Database) *Adapter {
	cbSettings := gobreaker.Settings{
		Name:        "mailstore-mongo",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 || (counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[CircuitBreaker] %s: state changed from %s to %s", name, from.String(), to.String())
		},
	}

	return &Adapter{
		meta: newMetadataStore(pg),
		body: newBodyStore(mongoDB),
		cb:   gobreaker.NewCircuitBreaker(cbSettings),
	}
}

// EnsureIndexes creates the Mongo indexes the body store needs. Call once
// at startup.
func (a *Adapter) EnsureIndexes(ctx context.Context) error {
	return a.body.EnsureIndexes(ctx)
}

func (a *Adapter) ListChanges(ctx context.Context, principalID int64, collectionID string, afterItemID int64, excludeIDs []int64, windowSize int) (out.ItemPage, error) {
	entities, more, err := a.meta.list(ctx, principalID, collectionID, afterItemID, excludeIDs, windowSize)
	if err != nil {
		return out.ItemPage{}, err
	}

	items := make([]domain.Item, len(entities))
	var maxID int64
	for i, e := range entities {
		item := e.toDomain()
		if err := a.attachBody(ctx, principalID, collectionID, &item); err != nil {
			return out.ItemPage{}, err
		}
		items[i] = item
		if item.ID > maxID {
			maxID = item.ID
		}
	}

	return out.ItemPage{Items: items, MaxItemID: maxID, MoreAvailable: more}, nil
}

func (a *Adapter) CountChanges(ctx context.Context, principalID int64, collectionID string, afterItemID int64, excludeIDs []int64) (int, error) {
	return a.meta.count(ctx, principalID, collectionID, afterItemID, excludeIDs)
}

func (a *Adapter) FetchItem(ctx context.Context, principalID int64, collectionID string, itemID int64) (domain.Item, error) {
	entity, err := a.meta.get(ctx, principalID, collectionID, itemID)
	if err != nil {
		return domain.Item{}, err
	}
	item := entity.toDomain()
	if err := a.attachBody(ctx, principalID, collectionID, &item); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

// attachBody fetches the body leg through the circuit breaker; an open
// breaker surfaces as apperr.StoreUnavailable rather than a raw Mongo
// error, so the dispatcher can map it to a clean 503 instead of leaking
// driver internals to the client.
func (a *Adapter) attachBody(ctx context.Context, principalID int64, collectionID string, item *domain.Item) error {
	result, err := a.cb.Execute(func() (interface{}, error) {
		plain, html, raw, err := a.body.get(ctx, principalID, collectionID, item.ID)
		if err != nil {
			return nil, err
		}
		return [3]any{plain, html, raw}, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return apperr.StoreUnavailable(err)
		}
		return fmt.Errorf("mailstore: attach body for item %d: %w", item.ID, err)
	}

	parts := result.([3]any)
	item.PlainBody = parts[0].(string)
	item.HTMLBody = parts[1].(string)
	if raw, ok := parts[2].([]byte); ok {
		item.RawMIME = raw
	}
	return nil
}

// SaveBody is not part of out.MailStore (this core never ingests mail
// itself — spec.md §1 excludes the sync-from-upstream side); it is kept
// so an out-of-band ingestion job can populate both stores through the
// same adapter rather than reimplementing the split-storage write path.
func (a *Adapter) SaveBody(ctx context.Context, principalID int64, collectionID string, itemID int64, plain, html string, rawMIME []byte) error {
	return a.body.save(ctx, principalID, collectionID, itemID, plain, html, rawMIME)
}

var _ out.MailStore = (*Adapter)(nil)
