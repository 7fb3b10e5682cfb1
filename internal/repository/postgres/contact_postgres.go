package postgres

import (
	"context"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/repository"
)

const contactColumns = `id, owner_id, name, email, phone, company, position, status, notes, created_at, updated_at`

type contactRepository struct{ db DB }

func NewContactRepository(db DB) repository.ContactRepository {
	return &contactRepository{db: db}
}

func scanContact(row scanner) (model.Contact, error) {
	var c model.Contact
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Position, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *contactRepository) Create(ctx context.Context, c model.Contact) (model.Contact, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Contact{}, err
	}
	row := getQ(ctx, r.db).QueryRow(ctx,
		`INSERT INTO contacts (owner_id, name, email, phone, company, position, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+contactColumns,
		c.OwnerID, c.Name, c.Email, c.Phone, c.Company, c.Position, c.Status, c.Notes,
	)
	out, err := scanContact(row)
	if err != nil {
		return model.Contact{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *contactRepository) GetByID(ctx context.Context, ownerID string, id int64) (model.Contact, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Contact{}, err
	}
	row := getQ(ctx, r.db).QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND owner_id = $2`, id, ownerID,
	)
	out, err := scanContact(row)
	if err != nil {
		return model.Contact{}, notFoundOr(err)
	}
	return out, nil
}

func (r *contactRepository) Update(ctx context.Context, c model.Contact) (model.Contact, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Contact{}, err
	}
	row := getQ(ctx, r.db).QueryRow(ctx,
		`UPDATE contacts
		 SET name = $3, email = $4, phone = $5, company = $6, position = $7, status = $8, notes = $9, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+contactColumns,
		c.ID, c.OwnerID, c.Name, c.Email, c.Phone, c.Company, c.Position, c.Status, c.Notes,
	)
	out, err := scanContact(row)
	if err != nil {
		return model.Contact{}, notFoundOr(err)
	}
	return out, nil
}

func (r *contactRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	return rowsAffectedOrNotFound(getQ(ctx, r.db).Exec(ctx,
		`DELETE FROM contacts WHERE id = $1 AND owner_id = $2`, id, ownerID,
	))
}

// Exists performs a lightweight ownership-aware existence check.
func (r *contactRepository) Exists(ctx context.Context, ownerID string, id int64) (bool, error) {
	if err := ensureDB(r.db); err != nil {
		return false, err
	}
	var exists bool
	err := getQ(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM contacts WHERE id = $1 AND owner_id = $2)`, id, ownerID,
	).Scan(&exists)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return exists, nil
}

func (r *contactRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Contact, error) {
	return r.list(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE owner_id = $1 ORDER BY id`, ownerID,
	)
}

func (r *contactRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]model.Contact, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return r.list(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, ownerID, limit,
	)
}

func (r *contactRepository) list(ctx context.Context, sql string, args ...any) ([]model.Contact, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]model.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

const defaultRecentLimit = 5

var _ repository.ContactRepository = (*contactRepository)(nil)
