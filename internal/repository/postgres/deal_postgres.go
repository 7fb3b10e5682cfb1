package postgres

import (
	"context"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/repository"
)

const dealColumns = `id, owner_id, contact_id, title, company, value, stage, close_date, notes, created_at, updated_at`

type dealRepository struct{ db DB }

func NewDealRepository(db DB) repository.DealRepository {
	return &dealRepository{db: db}
}

func scanDeal(row scanner) (model.Deal, error) {
	var d model.Deal
	err := row.Scan(&d.ID, &d.OwnerID, &d.ContactID, &d.Title, &d.Company, &d.Value, &d.Stage, &d.CloseDate, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (r *dealRepository) Create(ctx context.Context, d model.Deal) (model.Deal, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Deal{}, err
	}
	row := getQ(ctx, r.db).QueryRow(ctx,
		`INSERT INTO deals (owner_id, contact_id, title, company, value, stage, close_date, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+dealColumns,
		d.OwnerID, d.ContactID, d.Title, d.Company, d.Value, d.Stage, d.CloseDate, d.Notes,
	)
	out, err := scanDeal(row)
	if err != nil {
		return model.Deal{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *dealRepository) GetByID(ctx context.Context, ownerID string, id int64) (model.Deal, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Deal{}, err
	}
	row := getQ(ctx, r.db).QueryRow(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE id = $1 AND owner_id = $2`, id, ownerID,
	)
	out, err := scanDeal(row)
	if err != nil {
		return model.Deal{}, notFoundOr(err)
	}
	return out, nil
}

func (r *dealRepository) Update(ctx context.Context, d model.Deal) (model.Deal, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Deal{}, err
	}
	row := getQ(ctx, r.db).QueryRow(ctx,
		`UPDATE deals
		 SET contact_id = $3, title = $4, company = $5, value = $6, stage = $7, close_date = $8, notes = $9, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+dealColumns,
		d.ID, d.OwnerID, d.ContactID, d.Title, d.Company, d.Value, d.Stage, d.CloseDate, d.Notes,
	)
	out, err := scanDeal(row)
	if err != nil {
		return model.Deal{}, notFoundOr(err)
	}
	return out, nil
}

func (r *dealRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	return rowsAffectedOrNotFound(getQ(ctx, r.db).Exec(ctx,
		`DELETE FROM deals WHERE id = $1 AND owner_id = $2`, id, ownerID,
	))
}

func (r *dealRepository) Exists(ctx context.Context, ownerID string, id int64) (bool, error) {
	if err := ensureDB(r.db); err != nil {
		return false, err
	}
	var exists bool
	err := getQ(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM deals WHERE id = $1 AND owner_id = $2)`, id, ownerID,
	).Scan(&exists)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return exists, nil
}

func (r *dealRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Deal, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.db).Query(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE owner_id = $1 ORDER BY id`, ownerID,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]model.Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

var _ repository.DealRepository = (*dealRepository)(nil)
