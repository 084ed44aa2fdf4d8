package eas

import (
	"context"
	"fmt"

	"easgateway/core/port/in"
)

// Fetch implements ItemOperations Fetch (spec.md §4.5.6): a one-off body
// fetch outside the Sync window, honoring the request's own
// BodyPreference rather than any cached Sync-time choice. It does not
// touch SyncState at all — fetching an item already known to the client
// is not a sync event.
func (s *Service) Fetch(ctx context.Context, rc in.RequestContext, req in.ItemOperationsFetchRequest) (in.ItemOperationsFetchResult, error) {
	trace := s.Trace.Command(rc.Principal.ID, rc.Device.DeviceID, "ItemOperations")

	item, err := s.MailStore.FetchItem(ctx, rc.Principal.ID, req.CollectionID, req.ItemID)
	if err != nil {
		trace.Error(err)
		return in.ItemOperationsFetchResult{}, fmt.Errorf("eas: fetch item %d in collection %s: %w", req.ItemID, req.CollectionID, err)
	}

	bodyType, requestedTrunc := selectBodyPreference(rc.Strategy, req.BodyPreferences)
	body, err := s.prepareBody(item, bodyType, requestedTrunc, rc.Strategy, false)
	if err != nil {
		return in.ItemOperationsFetchResult{}, err
	}

	return in.ItemOperationsFetchResult{
		Status: "1",
		Result: in.ProjectedItem{Item: item, Body: body},
	}, nil
}
