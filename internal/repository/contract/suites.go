// Package contract holds behaviour suites every record store implementation
// must pass. Implementations plug in through factories that hand back a fresh,
// empty store plus a cleanup func.
package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/repository"
)

type ContactFactory func(t *testing.T) (repository.ContactRepository, func())

type DealFactory func(t *testing.T) (repo repository.DealRepository, contacts repository.ContactRepository, cleanup func())

type TaskFactory func(t *testing.T) (repo repository.TaskRepository, deals repository.DealRepository, cleanup func())

type DashboardFactory func(t *testing.T) (repo repository.DashboardRepository, contacts repository.ContactRepository, tasks repository.TaskRepository, cleanup func())

type TxFactory func(t *testing.T) (tx repository.TxManager, contacts repository.ContactRepository, cleanup func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

func strp(s string) *string { return &s }

func RunContactRepositoryContract(t *testing.T, makeRepo ContactFactory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, model.Contact{OwnerID: "u1", Name: "Ann", Email: strp("ann@acme.io"), Status: model.ContactActive})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID == 0 || created.CreatedAt.IsZero() {
			t.Fatalf("expected id and timestamps, got %+v", created)
		}
		got, err := repo.GetByID(ctx, "u1", created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Name != "Ann" || got.Email == nil || *got.Email != "ann@acme.io" || got.Phone != nil {
			t.Fatalf("unexpected contact: %+v", got)
		}
	})

	t.Run("foreign_owner_is_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, model.Contact{OwnerID: "u1", Name: "Ann", Status: model.ContactActive})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if _, err := repo.GetByID(ctx, "u2", created.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, "u2", created.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on delete, got %v", err)
		}
		ok, err := repo.Exists(ctx, "u2", created.ID)
		if err != nil || ok {
			t.Fatalf("expected exists=false, got %v err=%v", ok, err)
		}
	})

	t.Run("list_insertion_order", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for _, name := range []string{"C", "A", "B"} {
			if _, err := repo.Create(ctx, model.Contact{OwnerID: "u1", Name: name, Status: model.ContactProspect}); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		if _, err := repo.Create(ctx, model.Contact{OwnerID: "u2", Name: "X", Status: model.ContactProspect}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		all, err := repo.ListByOwner(ctx, "u1")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 3 || all[0].Name != "C" || all[1].Name != "A" || all[2].Name != "B" {
			t.Fatalf("unexpected order: %+v", all)
		}
		recent, err := repo.ListRecent(ctx, "u1", 2)
		if err != nil {
			t.Fatalf("recent: %v", err)
		}
		if len(recent) != 2 || recent[0].Name != "B" {
			t.Fatalf("expected newest first, got %+v", recent)
		}
	})

	t.Run("duplicate_email_per_owner", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := repo.Create(ctx, model.Contact{OwnerID: "u1", Name: "Ann", Email: strp("ann@acme.io"), Status: model.ContactActive}); err != nil {
			t.Fatalf("create: %v", err)
		}
		_, err := repo.Create(ctx, model.Contact{OwnerID: "u1", Name: "Ann 2", Email: strp("ANN@acme.io"), Status: model.ContactActive})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		if _, err := repo.Create(ctx, model.Contact{OwnerID: "u2", Name: "Ann", Email: strp("ann@acme.io"), Status: model.ContactActive}); err != nil {
			t.Fatalf("same email under another owner should be allowed: %v", err)
		}
	})

	t.Run("update_and_delete", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		c, err := repo.Create(ctx, model.Contact{OwnerID: "u1", Name: "Ann", Status: model.ContactProspect})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		c.Name = "Ann Lee"
		c.Status = model.ContactActive
		out, err := repo.Update(ctx, c)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if out.Name != "Ann Lee" || out.Status != model.ContactActive {
			t.Fatalf("unexpected update result: %+v", out)
		}
		if err := repo.Delete(ctx, "u1", c.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.GetByID(ctx, "u1", c.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func RunDealRepositoryContract(t *testing.T, makeRepo DealFactory) {
	t.Helper()

	t.Run("create_get_list", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		d, err := repo.Create(ctx, model.Deal{OwnerID: "u1", Title: "Renewal", Value: 1250.5, Stage: model.StageProposal})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.GetByID(ctx, "u1", d.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Value != 1250.5 || got.Stage != model.StageProposal {
			t.Fatalf("unexpected deal: %+v", got)
		}
		all, err := repo.ListByOwner(ctx, "u1")
		if err != nil || len(all) != 1 {
			t.Fatalf("expected one deal, got %d err=%v", len(all), err)
		}
	})

	t.Run("contact_delete_unlinks", func(t *testing.T) {
		repo, contacts, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		c, err := contacts.Create(ctx, model.Contact{OwnerID: "u1", Name: "Ann", Status: model.ContactActive})
		if err != nil {
			t.Fatalf("contact: %v", err)
		}
		d, err := repo.Create(ctx, model.Deal{OwnerID: "u1", ContactID: &c.ID, Title: "Linked", Stage: model.StageLead})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := contacts.Delete(ctx, "u1", c.ID); err != nil {
			t.Fatalf("delete contact: %v", err)
		}
		got, err := repo.GetByID(ctx, "u1", d.ID)
		if err != nil {
			t.Fatalf("deal should survive contact delete: %v", err)
		}
		if got.ContactID != nil {
			t.Fatalf("expected contact link cleared, got %v", *got.ContactID)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		if _, err := repo.GetByID(context.Background(), "u1", 999999); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunTaskRepositoryContract(t *testing.T, makeRepo TaskFactory) {
	t.Helper()

	t.Run("complete_is_idempotent", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		task, err := repo.Create(ctx, model.Task{OwnerID: "u1", Title: "Call", Priority: model.PriorityHigh, Status: model.TaskPending})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		out, err := repo.Complete(ctx, "u1", task.ID, first)
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if out.Status != model.TaskCompleted || out.CompletedAt == nil || !out.CompletedAt.Equal(first) {
			t.Fatalf("unexpected task: %+v", out)
		}
		again, err := repo.Complete(ctx, "u1", task.ID, first.Add(time.Hour))
		if err != nil {
			t.Fatalf("complete again: %v", err)
		}
		if !again.CompletedAt.Equal(first) {
			t.Fatalf("completion time must not move, got %v", again.CompletedAt)
		}
	})

	t.Run("deal_delete_unlinks", func(t *testing.T) {
		repo, deals, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		d, err := deals.Create(ctx, model.Deal{OwnerID: "u1", Title: "Renewal", Stage: model.StageLead})
		if err != nil {
			t.Fatalf("deal: %v", err)
		}
		task, err := repo.Create(ctx, model.Task{OwnerID: "u1", DealID: &d.ID, Title: "Prep", Priority: model.PriorityLow, Status: model.TaskPending})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := deals.Delete(ctx, "u1", d.ID); err != nil {
			t.Fatalf("delete deal: %v", err)
		}
		got, err := repo.GetByID(ctx, "u1", task.ID)
		if err != nil || got.DealID != nil {
			t.Fatalf("expected task kept with cleared deal link, got %+v err=%v", got, err)
		}
	})

	t.Run("complete_foreign_owner_not_found", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		task, err := repo.Create(ctx, model.Task{OwnerID: "u1", Title: "Call", Priority: model.PriorityLow, Status: model.TaskPending})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := repo.Complete(ctx, "u2", task.ID, time.Now()); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunDashboardRepositoryContract(t *testing.T, makeRepo DashboardFactory) {
	t.Helper()

	t.Run("counts", func(t *testing.T) {
		repo, contacts, tasks, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
		past := now.Add(-48 * time.Hour)

		for _, st := range []string{model.ContactActive, model.ContactActive, model.ContactInactive} {
			if _, err := contacts.Create(ctx, model.Contact{OwnerID: "u1", Name: "c", Status: st}); err != nil {
				t.Fatalf("seed contact: %v", err)
			}
		}
		seedTasks := []model.Task{
			{OwnerID: "u1", Title: "late", Priority: model.PriorityLow, Status: model.TaskPending, DueDate: &past},
			{OwnerID: "u1", Title: "late but done", Priority: model.PriorityLow, Status: model.TaskCompleted, DueDate: &past},
			{OwnerID: "u1", Title: "no due", Priority: model.PriorityLow, Status: model.TaskInProgress},
		}
		for _, tk := range seedTasks {
			if _, err := tasks.Create(ctx, tk); err != nil {
				t.Fatalf("seed task: %v", err)
			}
		}

		out, err := repo.Counts(ctx, "u1", now)
		if err != nil {
			t.Fatalf("counts: %v", err)
		}
		if out.ContactsByStatus[model.ContactActive] != 2 || out.ContactsByStatus[model.ContactInactive] != 1 {
			t.Fatalf("unexpected contact counts: %v", out.ContactsByStatus)
		}
		if out.OverdueTasks != 1 {
			t.Fatalf("expected 1 overdue, got %d", out.OverdueTasks)
		}
		if out.TasksByStatus[model.TaskCompleted] != 1 {
			t.Fatalf("unexpected task counts: %v", out.TasksByStatus)
		}
	})
}

func RunTxManagerContract(t *testing.T, makeTx TxFactory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		tx, contacts, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID int64
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := contacts.Create(ctx, model.Contact{OwnerID: "u1", Name: "TxCommit", Status: model.ContactActive})
			if err != nil {
				return err
			}
			createdID = out.ID
			return nil
		})
		if err != nil {
			t.Fatalf("WithinTx: %v", err)
		}
		if _, err := contacts.GetByID(ctx, "u1", createdID); err != nil {
			t.Fatalf("expected committed row visible, got err=%v", err)
		}
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		tx, contacts, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID int64
		errMarker := errors.New("boom")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := contacts.Create(ctx, model.Contact{OwnerID: "u1", Name: "TxRollback", Status: model.ContactActive})
			if err != nil {
				return err
			}
			createdID = out.ID
			return errMarker
		})
		if !errors.Is(err, errMarker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := contacts.GetByID(ctx, "u1", createdID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after rollback, got %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}
