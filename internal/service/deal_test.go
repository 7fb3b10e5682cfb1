package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/repository"
	"github.com/maxviazov/crm-service/internal/search"
	"github.com/maxviazov/crm-service/internal/service"
)

type dealFixture struct {
	deals    *fakeDealRepo
	contacts *fakeContactRepo
	tx       *fakeTx
	svc      service.DealService
}

func newDealFixture() dealFixture {
	f := dealFixture{deals: newFakeDealRepo(), contacts: newFakeContactRepo(), tx: &fakeTx{}}
	f.svc = service.NewDealService(f.deals, f.contacts, f.tx, discard())
	return f
}

func TestDealService_Create_Validation(t *testing.T) {
	f := newDealFixture()

	cases := []struct {
		name      string
		in        service.DealInput
		wantField string
	}{
		{"empty title", service.DealInput{}, "title"},
		{"negative value", service.DealInput{Title: "Renewal", Value: -1}, "value"},
		{"nan value", service.DealInput{Title: "Renewal", Value: math.NaN()}, "value"},
		{"huge value", service.DealInput{Title: "Renewal", Value: 1e13}, "value"},
		{"unknown stage", service.DealInput{Title: "Renewal", Stage: "closed"}, "stage"},
		{"bad contact id", service.DealInput{Title: "Renewal", ContactID: idp(0)}, "contact_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateDeal(context.Background(), alice, tc.in)
			if !serviceErrIsInvalid(err) || !hasField(err, tc.wantField) {
				t.Fatalf("expected field error for %s, got %v (%+v)", tc.wantField, err, service.FieldErrors(err))
			}
		})
	}
	if f.tx.calls != 0 {
		t.Fatalf("validation failures must not open a transaction, got %d", f.tx.calls)
	}
}

func TestDealService_Create_Defaults(t *testing.T) {
	f := newDealFixture()
	out, err := f.svc.CreateDeal(context.Background(), alice, service.DealInput{Title: " Renewal ", Value: 10.005})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Stage != model.StageLead {
		t.Fatalf("expected lead, got %q", out.Stage)
	}
	if out.Title != "Renewal" {
		t.Fatalf("title not trimmed: %q", out.Title)
	}
	if math.Abs(out.Value-10.01) > 1e-9 && math.Abs(out.Value-10.0) > 1e-9 {
		t.Fatalf("value not rounded to cents: %v", out.Value)
	}
	if f.tx.calls != 1 {
		t.Fatalf("expected one transaction, got %d", f.tx.calls)
	}
}

func TestDealService_ContactOwnership(t *testing.T) {
	f := newDealFixture()
	ctx := context.Background()

	mine, _ := f.contacts.Create(ctx, model.Contact{OwnerID: alice.UserID, Name: "Ann"})
	theirs, _ := f.contacts.Create(ctx, model.Contact{OwnerID: bob.UserID, Name: "Bob"})

	if _, err := f.svc.CreateDeal(ctx, alice, service.DealInput{Title: "Mine", ContactID: idp(mine.ID)}); err != nil {
		t.Fatalf("own contact should be accepted: %v", err)
	}
	_, err := f.svc.CreateDeal(ctx, alice, service.DealInput{Title: "Theirs", ContactID: idp(theirs.ID)})
	if !serviceErrIsInvalid(err) || !hasField(err, "contact_id") {
		t.Fatalf("foreign contact should be rejected, got %v", err)
	}
	if len(f.deals.list(alice.UserID)) != 1 {
		t.Fatalf("rejected deal must not be stored")
	}
}

func TestDealService_Update_NotFound(t *testing.T) {
	f := newDealFixture()
	_, err := f.svc.UpdateDeal(context.Background(), alice, 99, service.DealInput{Title: "Ghost"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDealService_Delete(t *testing.T) {
	f := newDealFixture()
	ctx := context.Background()
	d, _ := f.svc.CreateDeal(ctx, alice, service.DealInput{Title: "Renewal"})

	if err := f.svc.DeleteDeal(ctx, bob, d.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}
	if err := f.svc.DeleteDeal(ctx, alice, d.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.GetDeal(ctx, alice, d.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected deal gone, got %v", err)
	}
}

func TestDealService_Search_ByStageAndTerm(t *testing.T) {
	f := newDealFixture()
	ctx := context.Background()
	for _, in := range []service.DealInput{
		{Title: "Acme renewal", Stage: model.StageWon},
		{Title: "Globex pilot", Company: strp("Globex"), Stage: model.StageProposal},
		{Title: "Upsell", Notes: strp("acme wants more seats"), Stage: model.StageProposal},
	} {
		if _, err := f.svc.CreateDeal(ctx, alice, in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	res, err := f.svc.SearchDeals(ctx, alice, search.Config{Term: "acme", Status: model.StageProposal})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 || res.Items[0].Title != "Upsell" {
		t.Fatalf("unexpected result: %+v", res)
	}

	_, err = f.svc.SearchDeals(ctx, alice, search.Config{Status: model.TaskPending})
	if !serviceErrIsInvalid(err) {
		t.Fatalf("task status is not a deal stage, got %v", err)
	}
}
