package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/repository"
	"github.com/maxviazov/crm-service/internal/search"
)

type dealService struct {
	deals    repository.DealRepository
	contacts repository.ContactRepository
	tx       repository.TxManager
	log      zerolog.Logger
}

func NewDealService(deals repository.DealRepository, contacts repository.ContactRepository, tx repository.TxManager, logger zerolog.Logger) DealService {
	l := logger.With().Str("module", "service").Str("component", "deal").Logger()
	return &dealService{deals: deals, contacts: contacts, tx: tx, log: l}
}

// maxDealValue keeps values inside NUMERIC(14,2).
const maxDealValue = 999_999_999_999.99

func normalizeDeal(in DealInput) (model.Deal, []FieldError) {
	d := model.Deal{
		ContactID: in.ContactID,
		Title:     strings.TrimSpace(in.Title),
		Company:   trimOptional(in.Company),
		Value:     math.Round(in.Value*100) / 100,
		Stage:     normalizeEnum(in.Stage, model.StageLead),
		CloseDate: in.CloseDate,
		Notes:     trimOptional(in.Notes),
	}

	var ferrs []FieldError
	ferrs = checkLength(ferrs, "title", d.Title, 1, 200)
	ferrs = checkOptionalLength(ferrs, "company", d.Company, 120)
	ferrs = checkOptionalLength(ferrs, "notes", d.Notes, 4000)
	if math.IsNaN(in.Value) || d.Value < 0 || d.Value > maxDealValue {
		ferrs = append(ferrs, FieldError{Field: "value", Message: "must be between 0 and 999999999999.99"})
	}
	ferrs = checkEnum(ferrs, "stage", d.Stage, model.DealStages)
	if d.ContactID != nil && *d.ContactID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "contact_id", Message: "must be > 0"})
	}
	return d, ferrs
}

// checkContactRef verifies the referenced contact belongs to the owner.
// A missing or foreign contact is a field error, not a 404 of the deal itself.
func checkContactRef(ctx context.Context, contacts repository.ContactRepository, ownerID string, contactID *int64) error {
	if contactID == nil {
		return nil
	}
	ok, err := contacts.Exists(ctx, ownerID, *contactID)
	if err != nil {
		return err
	}
	if !ok {
		return NewInvalidInputError([]FieldError{{Field: "contact_id", Message: "contact does not exist"}})
	}
	return nil
}

func (s *dealService) CreateDeal(ctx context.Context, owner model.Identity, in DealInput) (model.Deal, error) {
	start := time.Now()
	if err := requireOwner(owner); err != nil {
		return model.Deal{}, err
	}
	d, ferrs := normalizeDeal(in)
	if err := NewInvalidInputError(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("deal validation failed")
		return model.Deal{}, err
	}
	d.OwnerID = owner.UserID

	var out model.Deal
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := checkContactRef(ctx, s.contacts, owner.UserID, d.ContactID); err != nil {
			return err
		}
		var err error
		out, err = s.deals.Create(ctx, d)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) {
			s.log.Error().Err(err).Str("owner", owner.UserID).Msg("create deal failed")
		}
		return model.Deal{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("deal_id", out.ID).Str("stage", out.Stage).Msg("deal created")
	return out, nil
}

func (s *dealService) GetDeal(ctx context.Context, owner model.Identity, id int64) (model.Deal, error) {
	if err := requireOwner(owner); err != nil {
		return model.Deal{}, err
	}
	if err := validID("id", id); err != nil {
		return model.Deal{}, err
	}
	return s.deals.GetByID(ctx, owner.UserID, id)
}

func (s *dealService) UpdateDeal(ctx context.Context, owner model.Identity, id int64, in DealInput) (model.Deal, error) {
	if err := requireOwner(owner); err != nil {
		return model.Deal{}, err
	}
	d, ferrs := normalizeDeal(in)
	if id <= 0 {
		ferrs = append(ferrs, FieldError{Field: "id", Message: "must be > 0"})
	}
	if err := NewInvalidInputError(ferrs); err != nil {
		s.log.Debug().Int64("deal_id", id).Interface("field_errors", ferrs).Msg("deal validation failed")
		return model.Deal{}, err
	}
	d.ID = id
	d.OwnerID = owner.UserID

	var out model.Deal
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := checkContactRef(ctx, s.contacts, owner.UserID, d.ContactID); err != nil {
			return err
		}
		var err error
		out, err = s.deals.Update(ctx, d)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) && !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Int64("deal_id", id).Msg("update deal failed")
		}
		return model.Deal{}, err
	}
	return out, nil
}

func (s *dealService) DeleteDeal(ctx context.Context, owner model.Identity, id int64) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	if err := validID("id", id); err != nil {
		return err
	}
	return s.deals.Delete(ctx, owner.UserID, id)
}

// SearchDeals filters on title, company and notes; the status filter applies to the stage.
func (s *dealService) SearchDeals(ctx context.Context, owner model.Identity, cfg search.Config) (Listing[model.Deal], error) {
	if err := requireOwner(owner); err != nil {
		return Listing[model.Deal]{}, err
	}
	cfg, err := normalizeSearch(cfg, model.DealStages)
	if err != nil {
		return Listing[model.Deal]{}, err
	}
	all, err := s.deals.ListByOwner(ctx, owner.UserID)
	if err != nil {
		s.log.Error().Err(err).Str("owner", owner.UserID).Msg("list deals failed")
		return Listing[model.Deal]{}, err
	}
	return newListing(all, cfg), nil
}
