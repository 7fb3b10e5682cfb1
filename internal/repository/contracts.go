package repository

import (
	"context"
	"time"

	"github.com/maxviazov/crm-service/internal/model"
)

// Pinger represents a minimal readiness check capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// ContactRepository is the record store for contacts.
// Every method is scoped to an owner; rows owned by someone else behave as missing.
type ContactRepository interface {
	Create(ctx context.Context, c model.Contact) (model.Contact, error)
	GetByID(ctx context.Context, ownerID string, id int64) (model.Contact, error)
	Update(ctx context.Context, c model.Contact) (model.Contact, error)
	Delete(ctx context.Context, ownerID string, id int64) error
	Exists(ctx context.Context, ownerID string, id int64) (bool, error)
	// ListByOwner returns every contact of the owner in insertion order.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Contact, error)
	// ListRecent returns up to limit contacts, newest first.
	ListRecent(ctx context.Context, ownerID string, limit int) ([]model.Contact, error)
}

// DealRepository is the record store for deals.
type DealRepository interface {
	Create(ctx context.Context, d model.Deal) (model.Deal, error)
	GetByID(ctx context.Context, ownerID string, id int64) (model.Deal, error)
	Update(ctx context.Context, d model.Deal) (model.Deal, error)
	Delete(ctx context.Context, ownerID string, id int64) error
	Exists(ctx context.Context, ownerID string, id int64) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Deal, error)
}

// TaskRepository is the record store for tasks.
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	GetByID(ctx context.Context, ownerID string, id int64) (model.Task, error)
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, ownerID string, id int64) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error)
	// Complete marks the task completed at the given time. Completing an
	// already completed task keeps the original completion time.
	Complete(ctx context.Context, ownerID string, id int64, at time.Time) (model.Task, error)
}

// DashboardCounts is the raw aggregate the dashboard is built from.
type DashboardCounts struct {
	ContactsByStatus map[string]int
	DealsByStage     map[string]model.StageTotal
	TasksByStatus    map[string]int
	OverdueTasks     int
}

// DashboardRepository runs the aggregate queries behind the dashboard.
type DashboardRepository interface {
	// Counts groups the owner's records; tasks not completed with a due date
	// before now count as overdue.
	Counts(ctx context.Context, ownerID string, now time.Time) (DashboardCounts, error)
}
