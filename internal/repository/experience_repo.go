package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folio-backend/internal/models"
)

type ExperienceRepo struct {
	pool *pgxpool.Pool
}

func NewExperienceRepo(pool *pgxpool.Pool) *ExperienceRepo {
	return &ExperienceRepo{pool: pool}
}

const experienceColumns = `id, role, company, location, started_at, ended_at, highlights, display_order`

func (r *ExperienceRepo) Create(ctx context.Context, req models.ExperienceRequest) (*models.Experience, error) {
	e := &models.Experience{
		ID:           uuid.New(),
		Role:         req.Role,
		Company:      req.Company,
		Location:     req.Location,
		StartedAt:    req.StartedAt,
		EndedAt:      req.EndedAt,
		Highlights:   req.Highlights,
		DisplayOrder: req.DisplayOrder,
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO experiences (id, role, company, location, started_at, ended_at, highlights, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Role, e.Company, e.Location, e.StartedAt, e.EndedAt, e.Highlights, e.DisplayOrder)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *ExperienceRepo) scanExperience(row interface{ Scan(...any) error }) (*models.Experience, error) {
	e := &models.Experience{}
	err := row.Scan(&e.ID, &e.Role, &e.Company, &e.Location, &e.StartedAt, &e.EndedAt, &e.Highlights, &e.DisplayOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *ExperienceRepo) List(ctx context.Context) ([]*models.Experience, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+experienceColumns+`
		FROM experiences ORDER BY display_order, started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var experiences []*models.Experience
	for rows.Next() {
		e, err := r.scanExperience(rows)
		if err != nil {
			return nil, err
		}
		experiences = append(experiences, e)
	}
	return experiences, rows.Err()
}

func (r *ExperienceRepo) Update(ctx context.Context, id uuid.UUID, req models.ExperienceRequest) (*models.Experience, error) {
	query := `
		UPDATE experiences SET
			role = $2, company = $3, location = $4, started_at = $5,
			ended_at = $6, highlights = $7, display_order = $8
		WHERE id = $1
		RETURNING ` + experienceColumns

	return r.scanExperience(r.pool.QueryRow(ctx, query,
		id, req.Role, req.Company, req.Location, req.StartedAt,
		req.EndedAt, req.Highlights, req.DisplayOrder))
}

func (r *ExperienceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM experiences WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ExperienceRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM experiences").Scan(&n)
	return n, err
}
