package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folio-backend/internal/models"
)

type SkillRepo struct {
	pool *pgxpool.Pool
}

func NewSkillRepo(pool *pgxpool.Pool) *SkillRepo {
	return &SkillRepo{pool: pool}
}

func (r *SkillRepo) Create(ctx context.Context, req models.SkillRequest) (*models.Skill, error) {
	s := &models.Skill{
		ID:           uuid.New(),
		Name:         req.Name,
		Category:     req.Category,
		Level:        req.Level,
		DisplayOrder: req.DisplayOrder,
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO skills (id, name, category, level, display_order)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.Name, s.Category, s.Level, s.DisplayOrder)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SkillRepo) List(ctx context.Context) ([]*models.Skill, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category, level, display_order
		FROM skills ORDER BY category, display_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []*models.Skill
	for rows.Next() {
		s := &models.Skill{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Level, &s.DisplayOrder); err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

func (r *SkillRepo) Update(ctx context.Context, id uuid.UUID, req models.SkillRequest) (*models.Skill, error) {
	s := &models.Skill{ID: id}
	err := r.pool.QueryRow(ctx, `
		UPDATE skills SET name = $2, category = $3, level = $4, display_order = $5
		WHERE id = $1
		RETURNING name, category, level, display_order`,
		id, req.Name, req.Category, req.Level, req.DisplayOrder,
	).Scan(&s.Name, &s.Category, &s.Level, &s.DisplayOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SkillRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM skills WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SkillRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM skills").Scan(&n)
	return n, err
}
