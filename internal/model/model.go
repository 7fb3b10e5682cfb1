// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes; the only behavior here is what
// the search package needs to read a record.
package model

import "time"

// Identity is the already-resolved caller. Handlers pass it explicitly into
// services; nothing below the transport layer looks up auth state on its own.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Contact statuses.
const (
	ContactActive   = "active"
	ContactProspect = "prospect"
	ContactInactive = "inactive"
)

// Deal stages.
const (
	StageLead        = "lead"
	StageQualified   = "qualified"
	StageProposal    = "proposal"
	StageNegotiation = "negotiation"
	StageWon         = "won"
	StageLost        = "lost"
)

// Task statuses and priorities.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ContactStatuses, DealStages, TaskStatuses and TaskPriorities list the allowed
// values in display order.
var (
	ContactStatuses = []string{ContactActive, ContactProspect, ContactInactive}
	DealStages      = []string{StageLead, StageQualified, StageProposal, StageNegotiation, StageWon, StageLost}
	TaskStatuses    = []string{TaskPending, TaskInProgress, TaskCompleted}
	TaskPriorities  = []string{PriorityLow, PriorityMedium, PriorityHigh}
)

// Contact is a person the owner tracks. Optional attributes are nil when unset.
type Contact struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Company   *string   `json:"company,omitempty"`
	Position  *string   `json:"position,omitempty"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Contact) SearchStatus() string { return c.Status }

func (c Contact) SearchFields() []*string {
	return []*string{&c.Name, c.Email, c.Phone, c.Company, c.Position}
}

// Deal is a sales opportunity moving through the pipeline stages.
type Deal struct {
	ID        int64      `json:"id"`
	OwnerID   string     `json:"owner_id"`
	ContactID *int64     `json:"contact_id,omitempty"`
	Title     string     `json:"title"`
	Company   *string    `json:"company,omitempty"`
	Value     float64    `json:"value"`
	Stage     string     `json:"stage"`
	CloseDate *time.Time `json:"close_date,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (d Deal) SearchStatus() string { return d.Stage }

func (d Deal) SearchFields() []*string {
	return []*string{&d.Title, d.Company, d.Notes}
}

// Task is a to-do item, optionally linked to a contact and/or a deal.
type Task struct {
	ID          int64      `json:"id"`
	OwnerID     string     `json:"owner_id"`
	ContactID   *int64     `json:"contact_id,omitempty"`
	DealID      *int64     `json:"deal_id,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t Task) SearchStatus() string { return t.Status }

func (t Task) SearchFields() []*string {
	return []*string{&t.Title, t.Description}
}

// StageTotal is the number and summed value of deals in one stage.
type StageTotal struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// DashboardSummary is a read-only rollup of the owner's data.
// It is computed on request and never persisted.
type DashboardSummary struct {
	TotalContacts    int                   `json:"total_contacts"`
	ContactsByStatus map[string]int        `json:"contacts_by_status"`
	TotalDeals       int                   `json:"total_deals"`
	DealsByStage     map[string]StageTotal `json:"deals_by_stage"`
	PipelineValue    float64               `json:"pipeline_value"`
	WonValue         float64               `json:"won_value"`
	TasksByStatus    map[string]int        `json:"tasks_by_status"`
	OverdueTasks     int                   `json:"overdue_tasks"`
	RecentContacts   []Contact             `json:"recent_contacts"`
}
