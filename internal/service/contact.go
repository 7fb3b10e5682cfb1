package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/repository"
	"github.com/maxviazov/crm-service/internal/search"
)

// contactService holds contact use-case logic: validation + orchestration, no transport / SQL details.
type contactService struct {
	repo repository.ContactRepository
	log  zerolog.Logger
}

func NewContactService(repo repository.ContactRepository, logger zerolog.Logger) ContactService {
	l := logger.With().Str("module", "service").Str("component", "contact").Logger()
	return &contactService{repo: repo, log: l}
}

// normalizeContact trims everything and returns the canonical contact plus any field errors.
func normalizeContact(in ContactInput) (model.Contact, []FieldError) {
	c := model.Contact{
		Name:     strings.TrimSpace(in.Name),
		Email:    trimOptional(in.Email),
		Phone:    trimOptional(in.Phone),
		Company:  trimOptional(in.Company),
		Position: trimOptional(in.Position),
		Status:   normalizeEnum(in.Status, model.ContactProspect),
		Notes:    trimOptional(in.Notes),
	}

	var ferrs []FieldError
	ferrs = checkLength(ferrs, "name", c.Name, 1, 120)
	if c.Email != nil && !isValidEmail(*c.Email) {
		ferrs = append(ferrs, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	ferrs = checkOptionalLength(ferrs, "phone", c.Phone, 40)
	ferrs = checkOptionalLength(ferrs, "company", c.Company, 120)
	ferrs = checkOptionalLength(ferrs, "position", c.Position, 120)
	ferrs = checkOptionalLength(ferrs, "notes", c.Notes, 4000)
	ferrs = checkEnum(ferrs, "status", c.Status, model.ContactStatuses)
	return c, ferrs
}

func (s *contactService) CreateContact(ctx context.Context, owner model.Identity, in ContactInput) (model.Contact, error) {
	start := time.Now()
	if err := requireOwner(owner); err != nil {
		return model.Contact{}, err
	}
	c, ferrs := normalizeContact(in)
	if err := NewInvalidInputError(ferrs); err != nil {
		s.log.Debug().Str("owner", owner.UserID).Interface("field_errors", ferrs).Msg("contact validation failed")
		return model.Contact{}, err
	}
	c.OwnerID = owner.UserID

	out, err := s.repo.Create(ctx, c)
	if err != nil {
		// Repository surfaces domain-level errors already, do not wrap.
		s.log.Error().Err(err).Str("owner", owner.UserID).Msg("create contact failed")
		return model.Contact{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("contact_id", out.ID).Msg("contact created")
	return out, nil
}

func (s *contactService) GetContact(ctx context.Context, owner model.Identity, id int64) (model.Contact, error) {
	if err := requireOwner(owner); err != nil {
		return model.Contact{}, err
	}
	if err := validID("id", id); err != nil {
		return model.Contact{}, err
	}
	return s.repo.GetByID(ctx, owner.UserID, id)
}

func (s *contactService) UpdateContact(ctx context.Context, owner model.Identity, id int64, in ContactInput) (model.Contact, error) {
	if err := requireOwner(owner); err != nil {
		return model.Contact{}, err
	}
	c, ferrs := normalizeContact(in)
	if id <= 0 {
		ferrs = append(ferrs, FieldError{Field: "id", Message: "must be > 0"})
	}
	if err := NewInvalidInputError(ferrs); err != nil {
		s.log.Debug().Int64("contact_id", id).Interface("field_errors", ferrs).Msg("contact validation failed")
		return model.Contact{}, err
	}
	c.ID = id
	c.OwnerID = owner.UserID

	out, err := s.repo.Update(ctx, c)
	if err != nil {
		s.log.Error().Err(err).Int64("contact_id", id).Msg("update contact failed")
		return model.Contact{}, err
	}
	return out, nil
}

func (s *contactService) DeleteContact(ctx context.Context, owner model.Identity, id int64) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	if err := validID("id", id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, owner.UserID, id); err != nil {
		s.log.Error().Err(err).Int64("contact_id", id).Msg("delete contact failed")
		return err
	}
	s.log.Info().Int64("contact_id", id).Msg("contact deleted")
	return nil
}

// SearchContacts loads the owner's full contact list and filters it in memory.
func (s *contactService) SearchContacts(ctx context.Context, owner model.Identity, cfg search.Config) (Listing[model.Contact], error) {
	if err := requireOwner(owner); err != nil {
		return Listing[model.Contact]{}, err
	}
	cfg, err := normalizeSearch(cfg, model.ContactStatuses)
	if err != nil {
		return Listing[model.Contact]{}, err
	}
	all, err := s.repo.ListByOwner(ctx, owner.UserID)
	if err != nil {
		s.log.Error().Err(err).Str("owner", owner.UserID).Msg("list contacts failed")
		return Listing[model.Contact]{}, err
	}
	return newListing(all, cfg), nil
}
