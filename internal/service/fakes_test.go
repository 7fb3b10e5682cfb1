package service_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/repository"
	"github.com/maxviazov/crm-service/internal/service"
)

var (
	alice = model.Identity{UserID: "alice", Email: "alice@example.com"}
	bob   = model.Identity{UserID: "bob", Email: "bob@example.com"}
)

func discard() zerolog.Logger { return zerolog.New(io.Discard) }

func strp(s string) *string { return &s }
func idp(id int64) *int64   { return &id }

func serviceErrIsInvalid(err error) bool { return errors.Is(err, service.ErrInvalidInput) }

func hasField(err error, field string) bool {
	for _, f := range service.FieldErrors(err) {
		if f.Field == field {
			return true
		}
	}
	return false
}

// fakeTx runs fn inline and counts invocations.
type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	f.calls++
	return fn(ctx)
}

var _ repository.TxManager = (*fakeTx)(nil)

// ownedStore is the in-memory map shared by the fake repositories.
type ownedStore[T any] struct {
	nextID int64
	items  map[int64]T
	owner  func(T) string
}

func newOwnedStore[T any](owner func(T) string) *ownedStore[T] {
	return &ownedStore[T]{nextID: 1, items: map[int64]T{}, owner: owner}
}

func (s *ownedStore[T]) get(ownerID string, id int64) (T, error) {
	it, ok := s.items[id]
	if !ok || s.owner(it) != ownerID {
		var zero T
		return zero, repository.ErrNotFound
	}
	return it, nil
}

func (s *ownedStore[T]) delete(ownerID string, id int64) error {
	if _, err := s.get(ownerID, id); err != nil {
		return err
	}
	delete(s.items, id)
	return nil
}

func (s *ownedStore[T]) list(ownerID string) []T {
	ids := make([]int64, 0, len(s.items))
	for id, it := range s.items {
		if s.owner(it) == ownerID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.items[id])
	}
	return out
}

type fakeContactRepo struct {
	*ownedStore[model.Contact]
	createErr   error
	listErr     error
	recentLimit int
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{ownedStore: newOwnedStore(func(c model.Contact) string { return c.OwnerID })}
}

func (f *fakeContactRepo) Create(_ context.Context, c model.Contact) (model.Contact, error) {
	if f.createErr != nil {
		return model.Contact{}, f.createErr
	}
	c.ID = f.nextID
	f.nextID++
	c.CreatedAt = time.Unix(c.ID, 0).UTC()
	c.UpdatedAt = c.CreatedAt
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeContactRepo) GetByID(_ context.Context, ownerID string, id int64) (model.Contact, error) {
	return f.get(ownerID, id)
}

func (f *fakeContactRepo) Update(_ context.Context, c model.Contact) (model.Contact, error) {
	cur, err := f.get(c.OwnerID, c.ID)
	if err != nil {
		return model.Contact{}, err
	}
	c.CreatedAt = cur.CreatedAt
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeContactRepo) Delete(_ context.Context, ownerID string, id int64) error {
	return f.delete(ownerID, id)
}

func (f *fakeContactRepo) Exists(_ context.Context, ownerID string, id int64) (bool, error) {
	_, err := f.get(ownerID, id)
	return err == nil, nil
}

func (f *fakeContactRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Contact, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list(ownerID), nil
}

func (f *fakeContactRepo) ListRecent(_ context.Context, ownerID string, limit int) ([]model.Contact, error) {
	f.recentLimit = limit
	all := f.list(ownerID)
	out := make([]model.Contact, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

var _ repository.ContactRepository = (*fakeContactRepo)(nil)

type fakeDealRepo struct {
	*ownedStore[model.Deal]
}

func newFakeDealRepo() *fakeDealRepo {
	return &fakeDealRepo{ownedStore: newOwnedStore(func(d model.Deal) string { return d.OwnerID })}
}

func (f *fakeDealRepo) Create(_ context.Context, d model.Deal) (model.Deal, error) {
	d.ID = f.nextID
	f.nextID++
	f.items[d.ID] = d
	return d, nil
}

func (f *fakeDealRepo) GetByID(_ context.Context, ownerID string, id int64) (model.Deal, error) {
	return f.get(ownerID, id)
}

func (f *fakeDealRepo) Update(_ context.Context, d model.Deal) (model.Deal, error) {
	if _, err := f.get(d.OwnerID, d.ID); err != nil {
		return model.Deal{}, err
	}
	f.items[d.ID] = d
	return d, nil
}

func (f *fakeDealRepo) Delete(_ context.Context, ownerID string, id int64) error {
	return f.delete(ownerID, id)
}

func (f *fakeDealRepo) Exists(_ context.Context, ownerID string, id int64) (bool, error) {
	_, err := f.get(ownerID, id)
	return err == nil, nil
}

func (f *fakeDealRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Deal, error) {
	return f.list(ownerID), nil
}

var _ repository.DealRepository = (*fakeDealRepo)(nil)

type fakeTaskRepo struct {
	*ownedStore[model.Task]
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{ownedStore: newOwnedStore(func(t model.Task) string { return t.OwnerID })}
}

func (f *fakeTaskRepo) Create(_ context.Context, t model.Task) (model.Task, error) {
	t.ID = f.nextID
	f.nextID++
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeTaskRepo) GetByID(_ context.Context, ownerID string, id int64) (model.Task, error) {
	return f.get(ownerID, id)
}

func (f *fakeTaskRepo) Update(_ context.Context, t model.Task) (model.Task, error) {
	if _, err := f.get(t.OwnerID, t.ID); err != nil {
		return model.Task{}, err
	}
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, ownerID string, id int64) error {
	return f.delete(ownerID, id)
}

func (f *fakeTaskRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Task, error) {
	return f.list(ownerID), nil
}

func (f *fakeTaskRepo) Complete(_ context.Context, ownerID string, id int64, at time.Time) (model.Task, error) {
	t, err := f.get(ownerID, id)
	if err != nil {
		return model.Task{}, err
	}
	t.Status = model.TaskCompleted
	if t.CompletedAt == nil {
		t.CompletedAt = &at
	}
	f.items[id] = t
	return t, nil
}

var _ repository.TaskRepository = (*fakeTaskRepo)(nil)

type fakeDashboardRepo struct {
	counts  repository.DashboardCounts
	err     error
	lastNow time.Time
}

func (f *fakeDashboardRepo) Counts(_ context.Context, _ string, now time.Time) (repository.DashboardCounts, error) {
	f.lastNow = now
	return f.counts, f.err
}

var _ repository.DashboardRepository = (*fakeDashboardRepo)(nil)
