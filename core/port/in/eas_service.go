// Package in defines inbound ports: the one interface per ActiveSync
// command that adapter/in/http dispatches to.
package in

import (
	"context"

	"easgateway/core/domain"
	"easgateway/core/strategy"
)

// RequestContext carries the per-request identity and framing information
// every command handler needs, resolved once by the dispatcher
// (adapter/in/http) from Basic Auth, query parameters and the client
// strategy factory.
type RequestContext struct {
	Principal  domain.Principal
	Device     domain.Device
	PolicyKey  string
	UserAgent  string
	DeviceType string
	// Strategy is selected once by the dispatcher from UserAgent/DeviceType
	// (strategy.Select) and threaded through so every handler applies the
	// same per-client-family behavior for this request (spec.md §4.2).
	Strategy strategy.ClientStrategy
}

// ProvisionRequest is the decoded body of a Provision command (spec.md
// §4.5.1). RequestedPolicyKey is set only on the second ("acknowledge")
// step of the exchange.
type ProvisionRequest struct {
	RequestedPolicyKey string
}

// ProvisionResult carries what the dispatcher needs to frame the WBXML
// response and set the X-MS-PolicyKey semantics.
type ProvisionResult struct {
	Status    string
	PolicyKey string
}

// ProvisionService implements the two-step Provision handshake.
type ProvisionService interface {
	Provision(ctx context.Context, rc RequestContext, req ProvisionRequest) (ProvisionResult, error)
}

// FolderSyncRequest is the decoded body of a FolderSync command.
type FolderSyncRequest struct {
	SyncKey string
}

// FolderSyncResult is the folder hierarchy diff to project into WBXML.
type FolderSyncResult struct {
	Status  string
	SyncKey string
	Folders []domain.Folder
}

// FolderSyncService implements FolderSync (spec.md §4.5.2).
type FolderSyncService interface {
	FolderSync(ctx context.Context, rc RequestContext, req FolderSyncRequest) (FolderSyncResult, error)
}

// SyncCollectionRequest is one <Collection> element of a Sync command.
type SyncCollectionRequest struct {
	CollectionID    string
	SyncKey         string
	WindowSize      int
	GetChanges      bool
	BodyPreferences []BodyPreference
}

// BodyPreference mirrors AirSyncBase:BodyPreference (spec.md §4.4).
type BodyPreference struct {
	Type           int
	TruncationSize int
}

// ProjectedItem pairs an item with the body already prepared for it (body
// type selected, MIME assembled if needed, truncated) so the dispatcher's
// WBXML rendering step is purely mechanical and never re-derives a
// strategy or truncation decision.
type ProjectedItem struct {
	Item domain.Item
	Body domain.Body
}

// SyncCollectionResult is the projected response for one collection.
type SyncCollectionResult struct {
	CollectionID  string
	Status        string
	SyncKey       string
	Items         []ProjectedItem
	MoreAvailable bool
}

// SyncRequest is the decoded body of a Sync command: one or more
// collections synced in a single request (spec.md §4.5.3).
type SyncRequest struct {
	Collections []SyncCollectionRequest
}

// SyncResult is the per-collection set of results to project.
type SyncResult struct {
	Collections []SyncCollectionResult
}

// SyncService implements Sync, the core two-phase-commit state machine.
type SyncService interface {
	Sync(ctx context.Context, rc RequestContext, req SyncRequest) (SyncResult, error)
}

// GetItemEstimateCollectionRequest is one <Collection> element of a
// GetItemEstimate request: the client's current SyncKey for that
// collection must match the stored state for the estimate to be
// meaningful (spec.md §4.5.4).
type GetItemEstimateCollectionRequest struct {
	CollectionID string
	SyncKey      string
}

// GetItemEstimateRequest asks how many pending changes exist for a set of
// collections without altering any sync state (spec.md §4.5.4).
type GetItemEstimateRequest struct {
	Collections []GetItemEstimateCollectionRequest
}

// GetItemEstimateCollectionResult is the per-collection outcome: either a
// Status=1 with an Estimate, or Status=4 (invalid sync key) with no count.
type GetItemEstimateCollectionResult struct {
	CollectionID string
	Status       string
	Estimate     int
}

// GetItemEstimateResult is the per-collection estimate.
type GetItemEstimateResult struct {
	Collections []GetItemEstimateCollectionResult
}

// GetItemEstimateService implements GetItemEstimate.
type GetItemEstimateService interface {
	GetItemEstimate(ctx context.Context, rc RequestContext, req GetItemEstimateRequest) (GetItemEstimateResult, error)
}

// PingRequest names the collections to watch and the requested heartbeat
// bound (spec.md §4.5.5).
type PingRequest struct {
	CollectionIDs     []string
	HeartbeatInterval int
}

// PingResult reports which collections changed, or a timeout/no-change
// status if none did before the heartbeat elapsed.
type PingResult struct {
	Status             string
	ChangedCollections []string
}

// PingService implements the long-poll Ping command. Handlers MUST NOT
// hold the per-(device,collection) keyed lock while blocked in Wait.
type PingService interface {
	Ping(ctx context.Context, rc RequestContext, req PingRequest) (PingResult, error)
}

// ItemOperationsFetchRequest asks for one item's full body (spec.md
// §4.5.6), honoring the requesting client's truncation/body-type
// preferences.
type ItemOperationsFetchRequest struct {
	CollectionID    string
	ItemID          int64
	BodyPreferences []BodyPreference
}

// ItemOperationsFetchResult carries the prepared item/body ready for
// WBXML projection.
type ItemOperationsFetchResult struct {
	Status string
	Result ProjectedItem
}

// ItemOperationsService implements ItemOperations Fetch.
type ItemOperationsService interface {
	Fetch(ctx context.Context, rc RequestContext, req ItemOperationsFetchRequest) (ItemOperationsFetchResult, error)
}
