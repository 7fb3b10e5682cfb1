package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/repository"
	"github.com/maxviazov/crm-service/internal/search"
)

type taskService struct {
	tasks    repository.TaskRepository
	contacts repository.ContactRepository
	deals    repository.DealRepository
	tx       repository.TxManager
	now      func() time.Time
	log      zerolog.Logger
}

func NewTaskService(tasks repository.TaskRepository, contacts repository.ContactRepository, deals repository.DealRepository, tx repository.TxManager, logger zerolog.Logger, opts ...Option) TaskService {
	o := buildOptions(opts)
	l := logger.With().Str("module", "service").Str("component", "task").Logger()
	return &taskService{tasks: tasks, contacts: contacts, deals: deals, tx: tx, now: o.now, log: l}
}

func normalizeTask(in TaskInput) (model.Task, []FieldError) {
	t := model.Task{
		ContactID:   in.ContactID,
		DealID:      in.DealID,
		Title:       strings.TrimSpace(in.Title),
		Description: trimOptional(in.Description),
		Priority:    normalizeEnum(in.Priority, model.PriorityMedium),
		Status:      normalizeEnum(in.Status, model.TaskPending),
		DueDate:     in.DueDate,
	}

	var ferrs []FieldError
	ferrs = checkLength(ferrs, "title", t.Title, 1, 200)
	ferrs = checkOptionalLength(ferrs, "description", t.Description, 4000)
	ferrs = checkEnum(ferrs, "priority", t.Priority, model.TaskPriorities)
	ferrs = checkEnum(ferrs, "status", t.Status, model.TaskStatuses)
	if t.ContactID != nil && *t.ContactID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "contact_id", Message: "must be > 0"})
	}
	if t.DealID != nil && *t.DealID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "deal_id", Message: "must be > 0"})
	}
	return t, ferrs
}

// checkRefs verifies linked contact and deal belong to the owner.
func (s *taskService) checkRefs(ctx context.Context, ownerID string, t model.Task) error {
	if err := checkContactRef(ctx, s.contacts, ownerID, t.ContactID); err != nil {
		return err
	}
	if t.DealID == nil {
		return nil
	}
	ok, err := s.deals.Exists(ctx, ownerID, *t.DealID)
	if err != nil {
		return err
	}
	if !ok {
		return NewInvalidInputError([]FieldError{{Field: "deal_id", Message: "deal does not exist"}})
	}
	return nil
}

// stampCompletion keeps completed_at consistent with status.
func (s *taskService) stampCompletion(t *model.Task, previous *time.Time) {
	if t.Status != model.TaskCompleted {
		t.CompletedAt = nil
		return
	}
	if previous != nil {
		t.CompletedAt = previous
		return
	}
	now := s.now().UTC()
	t.CompletedAt = &now
}

func (s *taskService) CreateTask(ctx context.Context, owner model.Identity, in TaskInput) (model.Task, error) {
	start := time.Now()
	if err := requireOwner(owner); err != nil {
		return model.Task{}, err
	}
	t, ferrs := normalizeTask(in)
	if err := NewInvalidInputError(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("task validation failed")
		return model.Task{}, err
	}
	t.OwnerID = owner.UserID
	s.stampCompletion(&t, nil)

	var out model.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkRefs(ctx, owner.UserID, t); err != nil {
			return err
		}
		var err error
		out, err = s.tasks.Create(ctx, t)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) {
			s.log.Error().Err(err).Str("owner", owner.UserID).Msg("create task failed")
		}
		return model.Task{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("task_id", out.ID).Msg("task created")
	return out, nil
}

func (s *taskService) GetTask(ctx context.Context, owner model.Identity, id int64) (model.Task, error) {
	if err := requireOwner(owner); err != nil {
		return model.Task{}, err
	}
	if err := validID("id", id); err != nil {
		return model.Task{}, err
	}
	return s.tasks.GetByID(ctx, owner.UserID, id)
}

func (s *taskService) UpdateTask(ctx context.Context, owner model.Identity, id int64, in TaskInput) (model.Task, error) {
	if err := requireOwner(owner); err != nil {
		return model.Task{}, err
	}
	t, ferrs := normalizeTask(in)
	if id <= 0 {
		ferrs = append(ferrs, FieldError{Field: "id", Message: "must be > 0"})
	}
	if err := NewInvalidInputError(ferrs); err != nil {
		s.log.Debug().Int64("task_id", id).Interface("field_errors", ferrs).Msg("task validation failed")
		return model.Task{}, err
	}
	t.ID = id
	t.OwnerID = owner.UserID

	var out model.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.tasks.GetByID(ctx, owner.UserID, id)
		if err != nil {
			return err
		}
		if err := s.checkRefs(ctx, owner.UserID, t); err != nil {
			return err
		}
		s.stampCompletion(&t, current.CompletedAt)
		out, err = s.tasks.Update(ctx, t)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) && !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Int64("task_id", id).Msg("update task failed")
		}
		return model.Task{}, err
	}
	return out, nil
}

func (s *taskService) DeleteTask(ctx context.Context, owner model.Identity, id int64) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	if err := validID("id", id); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, owner.UserID, id)
}

// CompleteTask is idempotent: completing twice keeps the first completion time.
func (s *taskService) CompleteTask(ctx context.Context, owner model.Identity, id int64) (model.Task, error) {
	if err := requireOwner(owner); err != nil {
		return model.Task{}, err
	}
	if err := validID("id", id); err != nil {
		return model.Task{}, err
	}
	out, err := s.tasks.Complete(ctx, owner.UserID, id, s.now().UTC())
	if err != nil {
		return model.Task{}, err
	}
	s.log.Info().Int64("task_id", id).Msg("task completed")
	return out, nil
}

func (s *taskService) SearchTasks(ctx context.Context, owner model.Identity, cfg search.Config) (Listing[model.Task], error) {
	if err := requireOwner(owner); err != nil {
		return Listing[model.Task]{}, err
	}
	cfg, err := normalizeSearch(cfg, model.TaskStatuses)
	if err != nil {
		return Listing[model.Task]{}, err
	}
	all, err := s.tasks.ListByOwner(ctx, owner.UserID)
	if err != nil {
		s.log.Error().Err(err).Str("owner", owner.UserID).Msg("list tasks failed")
		return Listing[model.Task]{}, err
	}
	return newListing(all, cfg), nil
}
