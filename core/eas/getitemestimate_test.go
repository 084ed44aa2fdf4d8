package eas

import (
	"context"
	"fmt"
	"testing"

	"easgateway/core/domain"
	"easgateway/core/port/in"
	"easgateway/core/port/out"
)

// fakeSyncStates is a minimal in-memory out.SyncStateRepository, just
// enough for the handler tests in this package: no concurrency, no
// persistence across process restarts.
type fakeSyncStates struct {
	states map[string]*domain.SyncState
}

func newFakeSyncStates() *fakeSyncStates {
	return &fakeSyncStates{states: make(map[string]*domain.SyncState)}
}

func (f *fakeSyncStates) key(principalID int64, deviceID, collectionID string) string {
	return fmt.Sprintf("%d/%s/%s", principalID, deviceID, collectionID)
}

func (f *fakeSyncStates) Get(_ context.Context, principalID int64, deviceID, collectionID string) (*domain.SyncState, error) {
	return f.states[f.key(principalID, deviceID, collectionID)], nil
}

func (f *fakeSyncStates) Save(_ context.Context, state *domain.SyncState) error {
	f.states[f.key(state.PrincipalID, state.DeviceID, state.CollectionID)] = state
	return nil
}

// fakeMailStore answers CountChanges with a fixed number regardless of
// arguments; ListChanges/FetchItem are unused by GetItemEstimate and panic
// if ever called, so a test that reaches them fails loudly instead of
// silently returning zero-value garbage.
type fakeMailStore struct {
	count int
}

func (f *fakeMailStore) ListChanges(context.Context, int64, string, int64, []int64, int) (out.ItemPage, error) {
	panic("ListChanges unexpectedly called")
}

func (f *fakeMailStore) CountChanges(context.Context, int64, string, int64, []int64) (int, error) {
	return f.count, nil
}

func (f *fakeMailStore) FetchItem(context.Context, int64, string, int64) (domain.Item, error) {
	panic("FetchItem unexpectedly called")
}

var _ out.MailStore = (*fakeMailStore)(nil)

func newTestService(states out.SyncStateRepository, store out.MailStore) *Service {
	return NewService(nil, states, nil, store, nil, nil, nil, nil, nil, nil)
}

func TestGetItemEstimate_ValidKeyReturnsEstimate(t *testing.T) {
	states := newFakeSyncStates()
	svc := newTestService(states, &fakeMailStore{count: 7})

	rc := in.RequestContext{Principal: domain.Principal{ID: 1}, Device: domain.Device{DeviceID: "dev1"}}
	req := in.GetItemEstimateRequest{
		Collections: []in.GetItemEstimateCollectionRequest{{CollectionID: "2", SyncKey: "0"}},
	}

	res, err := svc.GetItemEstimate(context.Background(), rc, req)
	if err != nil {
		t.Fatalf("GetItemEstimate() error = %v", err)
	}
	if len(res.Collections) != 1 {
		t.Fatalf("len(Collections) = %d, want 1", len(res.Collections))
	}
	got := res.Collections[0]
	if got.Status != "1" || got.Estimate != 7 {
		t.Errorf("got %+v, want Status=1 Estimate=7", got)
	}
}

func TestGetItemEstimate_InvalidKeyReturnsStatus4(t *testing.T) {
	states := newFakeSyncStates()
	state := domain.NewSyncState(1, "dev1", "2")
	state.CurrentSyncKey = "{abc}5"
	if err := states.Save(context.Background(), state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	svc := newTestService(states, &fakeMailStore{count: 99})

	rc := in.RequestContext{Principal: domain.Principal{ID: 1}, Device: domain.Device{DeviceID: "dev1"}}
	req := in.GetItemEstimateRequest{
		Collections: []in.GetItemEstimateCollectionRequest{{CollectionID: "2", SyncKey: "{zzz}1"}},
	}

	res, err := svc.GetItemEstimate(context.Background(), rc, req)
	if err != nil {
		t.Fatalf("GetItemEstimate() error = %v", err)
	}
	got := res.Collections[0]
	if got.Status != "4" {
		t.Errorf("Status = %q, want \"4\"", got.Status)
	}
	if got.Estimate != 0 {
		t.Errorf("Estimate = %d, want 0 on invalid key", got.Estimate)
	}
}

func TestGetItemEstimate_MultipleCollectionsIndependentStatus(t *testing.T) {
	states := newFakeSyncStates()
	good := domain.NewSyncState(1, "dev1", "ok")
	good.CurrentSyncKey = "{abc}3"
	if err := states.Save(context.Background(), good); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	bad := domain.NewSyncState(1, "dev1", "bad")
	bad.CurrentSyncKey = "{abc}3"
	if err := states.Save(context.Background(), bad); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	svc := newTestService(states, &fakeMailStore{count: 2})

	rc := in.RequestContext{Principal: domain.Principal{ID: 1}, Device: domain.Device{DeviceID: "dev1"}}
	req := in.GetItemEstimateRequest{
		Collections: []in.GetItemEstimateCollectionRequest{
			{CollectionID: "ok", SyncKey: "{abc}3"},
			{CollectionID: "bad", SyncKey: "{abc}999"},
		},
	}

	res, err := svc.GetItemEstimate(context.Background(), rc, req)
	if err != nil {
		t.Fatalf("GetItemEstimate() error = %v", err)
	}
	if res.Collections[0].Status != "1" {
		t.Errorf("collection 'ok' Status = %q, want \"1\"", res.Collections[0].Status)
	}
	if res.Collections[1].Status != "4" {
		t.Errorf("collection 'bad' Status = %q, want \"4\"", res.Collections[1].Status)
	}
}
