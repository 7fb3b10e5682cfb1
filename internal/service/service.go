// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/search"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// ErrNoIdentity is returned when a use case is invoked without a resolved caller.
var ErrNoIdentity = errors.New("no identity")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// NewInvalidInputError builds an aggregated validation error; nil when fe is empty.
func NewInvalidInputError(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// Option tweaks a service at construction time.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// ContactInput carries client-editable contact attributes.
type ContactInput struct {
	Name     string
	Email    *string
	Phone    *string
	Company  *string
	Position *string
	Status   string
	Notes    *string
}

// DealInput carries client-editable deal attributes.
type DealInput struct {
	ContactID *int64
	Title     string
	Company   *string
	Value     float64
	Stage     string
	CloseDate *time.Time
	Notes     *string
}

// TaskInput carries client-editable task attributes.
type TaskInput struct {
	ContactID   *int64
	DealID      *int64
	Title       string
	Description *string
	Priority    string
	Status      string
	DueDate     *time.Time
}

// Listing is one page of search results plus the pagination actually applied.
type Listing[T any] struct {
	search.Result[T]
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

func newListing[T search.Record](all []T, cfg search.Config) Listing[T] {
	res := search.Apply(all, cfg)
	return Listing[T]{
		Result:     res,
		Page:       cfg.Page,
		PageSize:   cfg.PageSize,
		TotalPages: search.PageCount(res.Total, cfg.PageSize),
	}
}

// ContactService defines contact-oriented use cases.
type ContactService interface {
	CreateContact(ctx context.Context, owner model.Identity, in ContactInput) (model.Contact, error)
	GetContact(ctx context.Context, owner model.Identity, id int64) (model.Contact, error)
	UpdateContact(ctx context.Context, owner model.Identity, id int64, in ContactInput) (model.Contact, error)
	DeleteContact(ctx context.Context, owner model.Identity, id int64) error
	SearchContacts(ctx context.Context, owner model.Identity, cfg search.Config) (Listing[model.Contact], error)
}

// DealService defines deal-oriented use cases.
type DealService interface {
	CreateDeal(ctx context.Context, owner model.Identity, in DealInput) (model.Deal, error)
	GetDeal(ctx context.Context, owner model.Identity, id int64) (model.Deal, error)
	UpdateDeal(ctx context.Context, owner model.Identity, id int64, in DealInput) (model.Deal, error)
	DeleteDeal(ctx context.Context, owner model.Identity, id int64) error
	SearchDeals(ctx context.Context, owner model.Identity, cfg search.Config) (Listing[model.Deal], error)
}

// TaskService defines task-oriented use cases.
type TaskService interface {
	CreateTask(ctx context.Context, owner model.Identity, in TaskInput) (model.Task, error)
	GetTask(ctx context.Context, owner model.Identity, id int64) (model.Task, error)
	UpdateTask(ctx context.Context, owner model.Identity, id int64, in TaskInput) (model.Task, error)
	DeleteTask(ctx context.Context, owner model.Identity, id int64) error
	CompleteTask(ctx context.Context, owner model.Identity, id int64) (model.Task, error)
	SearchTasks(ctx context.Context, owner model.Identity, cfg search.Config) (Listing[model.Task], error)
}

// DashboardService builds the dashboard rollup.
type DashboardService interface {
	Summary(ctx context.Context, owner model.Identity) (model.DashboardSummary, error)
}
