package postgres

import (
	"context"
	"time"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/repository"
)

type dashboardRepository struct{ db DB }

func NewDashboardRepository(db DB) repository.DashboardRepository {
	return &dashboardRepository{db: db}
}

// Counts runs three small GROUP BY queries and one overdue count.
// Statuses with no rows are simply absent from the maps; the service fills zeros.
func (r *dashboardRepository) Counts(ctx context.Context, ownerID string, now time.Time) (repository.DashboardCounts, error) {
	if err := ensureDB(r.db); err != nil {
		return repository.DashboardCounts{}, err
	}
	exec := getQ(ctx, r.db)
	out := repository.DashboardCounts{
		ContactsByStatus: map[string]int{},
		DealsByStage:     map[string]model.StageTotal{},
		TasksByStatus:    map[string]int{},
	}

	if err := groupCount(ctx, exec,
		`SELECT status, COUNT(*) FROM contacts WHERE owner_id = $1 GROUP BY status`,
		ownerID, out.ContactsByStatus); err != nil {
		return repository.DashboardCounts{}, err
	}

	rows, err := exec.Query(ctx,
		`SELECT stage, COUNT(*), COALESCE(SUM(value), 0)::float8
		 FROM deals WHERE owner_id = $1
		 GROUP BY stage`, ownerID,
	)
	if err != nil {
		return repository.DashboardCounts{}, repository.MapPgError(err)
	}
	for rows.Next() {
		var stage string
		var st model.StageTotal
		if err := rows.Scan(&stage, &st.Count, &st.Value); err != nil {
			rows.Close()
			return repository.DashboardCounts{}, repository.MapPgError(err)
		}
		out.DealsByStage[stage] = st
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return repository.DashboardCounts{}, repository.MapPgError(err)
	}

	if err := groupCount(ctx, exec,
		`SELECT status, COUNT(*) FROM tasks WHERE owner_id = $1 GROUP BY status`,
		ownerID, out.TasksByStatus); err != nil {
		return repository.DashboardCounts{}, err
	}

	err = exec.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks
		 WHERE owner_id = $1 AND status <> 'completed' AND due_date IS NOT NULL AND due_date < $2`,
		ownerID, now,
	).Scan(&out.OverdueTasks)
	if err != nil {
		return repository.DashboardCounts{}, repository.MapPgError(err)
	}
	return out, nil
}

func groupCount(ctx context.Context, exec q, sql, ownerID string, into map[string]int) error {
	rows, err := exec.Query(ctx, sql, ownerID)
	if err != nil {
		return repository.MapPgError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return repository.MapPgError(err)
		}
		into[key] = n
	}
	return repository.MapPgError(rows.Err())
}

var _ repository.DashboardRepository = (*dashboardRepository)(nil)
