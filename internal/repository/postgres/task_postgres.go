package postgres

import (
	"context"
	"time"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/repository"
)

const taskColumns = `id, owner_id, contact_id, deal_id, title, description, priority, status, due_date, completed_at, created_at, updated_at`

type taskRepository struct{ db DB }

func NewTaskRepository(db DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func scanTask(row scanner) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.OwnerID, &t.ContactID, &t.DealID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.DueDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *taskRepository) Create(ctx context.Context, t model.Task) (model.Task, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Task{}, err
	}
	row := getQ(ctx, r.db).QueryRow(ctx,
		`INSERT INTO tasks (owner_id, contact_id, deal_id, title, description, priority, status, due_date, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+taskColumns,
		t.OwnerID, t.ContactID, t.DealID, t.Title, t.Description, t.Priority, t.Status, t.DueDate, t.CompletedAt,
	)
	out, err := scanTask(row)
	if err != nil {
		return model.Task{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *taskRepository) GetByID(ctx context.Context, ownerID string, id int64) (model.Task, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Task{}, err
	}
	row := getQ(ctx, r.db).QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID,
	)
	out, err := scanTask(row)
	if err != nil {
		return model.Task{}, notFoundOr(err)
	}
	return out, nil
}

func (r *taskRepository) Update(ctx context.Context, t model.Task) (model.Task, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Task{}, err
	}
	row := getQ(ctx, r.db).QueryRow(ctx,
		`UPDATE tasks
		 SET contact_id = $3, deal_id = $4, title = $5, description = $6, priority = $7, status = $8,
		     due_date = $9, completed_at = $10, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+taskColumns,
		t.ID, t.OwnerID, t.ContactID, t.DealID, t.Title, t.Description, t.Priority, t.Status, t.DueDate, t.CompletedAt,
	)
	out, err := scanTask(row)
	if err != nil {
		return model.Task{}, notFoundOr(err)
	}
	return out, nil
}

func (r *taskRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	return rowsAffectedOrNotFound(getQ(ctx, r.db).Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID,
	))
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.db).Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = $1 ORDER BY id`, ownerID,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

func (r *taskRepository) Complete(ctx context.Context, ownerID string, id int64, at time.Time) (model.Task, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Task{}, err
	}
	row := getQ(ctx, r.db).QueryRow(ctx,
		`UPDATE tasks
		 SET status = 'completed', completed_at = COALESCE(completed_at, $3), updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+taskColumns,
		id, ownerID, at,
	)
	out, err := scanTask(row)
	if err != nil {
		return model.Task{}, notFoundOr(err)
	}
	return out, nil
}

var _ repository.TaskRepository = (*taskRepository)(nil)
