// Package out defines outbound ports (driven ports): what the command
// handlers in core/eas need from persistence, the mail store and the
// realtime notification hub, independent of any adapter implementation.
package out

import (
	"context"
	"time"

	"easgateway/core/domain"
)

// DeviceRepository persists Device records (spec.md §4.5.1).
type DeviceRepository interface {
	Get(ctx context.Context, principalID int64, deviceID string) (*domain.Device, error)
	Upsert(ctx context.Context, device *domain.Device) error
	Touch(ctx context.Context, principalID int64, deviceID string, seenAt time.Time) error
}

// SyncStateRepository persists per-(Device, Collection) SyncState with the
// load-modify-store semantics required by the two-phase commit invariants
// (spec.md §3). Implementations MUST serialize concurrent access to the
// same key themselves or rely on the caller holding core/eas/synclock.
type SyncStateRepository interface {
	Get(ctx context.Context, principalID int64, deviceID, collectionID string) (*domain.SyncState, error)
	Save(ctx context.Context, state *domain.SyncState) error
}

// FolderRepository resolves the (currently static per spec.md §4.5.2)
// folder hierarchy for a principal.
type FolderRepository interface {
	ListFolders(ctx context.Context, principalID int64) ([]domain.Folder, error)
}

// ItemPage is one window of items returned by MailStore.ListChanges,
// together with the pagination cursor needed to request the next window.
type ItemPage struct {
	Items         []domain.Item
	MaxItemID     int64
	MoreAvailable bool
}

// MailStore is the Mail Store Adapter (spec.md GLOSSARY): the single port
// through which command handlers read item metadata and bodies, backing
// onto the split-storage scheme (metadata in one store, bodies in
// another) described in SPEC_FULL.md's domain stack.
type MailStore interface {
	// ListChanges returns up to windowSize items in collectionID with an id
	// greater than afterItemID and not present in excludeIDs, ordered by id
	// ascending. excludeIDs covers items already acked in a prior batch;
	// item ids are not assumed monotonic (spec §6.5), so afterItemID alone
	// is not sufficient to avoid resending an already-confirmed item whose
	// id happens to be smaller than a later one.
	ListChanges(ctx context.Context, principalID int64, collectionID string, afterItemID int64, excludeIDs []int64, windowSize int) (ItemPage, error)

	// CountChanges reports how many items exist after afterItemID and not
	// in excludeIDs, for GetItemEstimate (spec.md §4.5.4). It must not
	// mutate any state.
	CountChanges(ctx context.Context, principalID int64, collectionID string, afterItemID int64, excludeIDs []int64) (int, error)

	// FetchItem returns a single item by id, for ItemOperations Fetch
	// (spec.md §4.5.6).
	FetchItem(ctx context.Context, principalID int64, collectionID string, itemID int64) (domain.Item, error)
}

// ChangeNotifier implements the Ping long-poll wakeup mechanism (spec.md
// §4.5.5): Wait blocks until a change lands in one of the watched
// collections, the context is canceled, or the heartbeat elapses.
type ChangeNotifier interface {
	// Wait blocks until either a change is observed in one of
	// collectionIDs or ctx is done, returning the subset of collectionIDs
	// that changed (empty on context cancellation/timeout).
	Wait(ctx context.Context, principalID int64, deviceID string, collectionIDs []string) ([]string, error)

	// Notify signals that collectionID has changed, waking any blocked
	// Wait calls watching it.
	Notify(ctx context.Context, principalID int64, collectionID string) error
}

// AuthRepository verifies HTTP Basic credentials against the mailbox
// principal store. It is the thin stand-in for the external auth
// collaborator spec.md §1 excludes from this core's scope.
type AuthRepository interface {
	Authenticate(ctx context.Context, email, password string) (*domain.Principal, error)
}

// ResponseCache holds the exact bytes of the last WBXML response emitted
// for a (device, collection) pending batch, so an idempotent resend (spec
// §4.3, invariant 5) can return byte-identical output without recomputing
// the projection. A cache miss is not an error: handlers fall back to
// deterministically reconstructing the batch from SyncState.PendingItemIDs.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
}
