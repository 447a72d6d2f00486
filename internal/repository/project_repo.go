package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folio-backend/internal/models"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

const projectColumns = `id, title, slug, summary, description, tech_stack,
	repo_url, live_url, image_url, featured, display_order, created_at, updated_at`

func (r *ProjectRepo) Create(ctx context.Context, req models.ProjectRequest) (*models.Project, error) {
	p := &models.Project{
		ID:           uuid.New(),
		Title:        req.Title,
		Slug:         req.Slug,
		Summary:      req.Summary,
		Description:  req.Description,
		TechStack:    req.TechStack,
		RepoURL:      req.RepoURL,
		LiveURL:      req.LiveURL,
		ImageURL:     req.ImageURL,
		Featured:     req.Featured,
		DisplayOrder: req.DisplayOrder,
	}

	query := `
		INSERT INTO projects (id, title, slug, summary, description, tech_stack,
			repo_url, live_url, image_url, featured, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Title, p.Slug, p.Summary, p.Description, p.TechStack,
		p.RepoURL, p.LiveURL, p.ImageURL, p.Featured, p.DisplayOrder,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepo) scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	p := &models.Project{}
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Summary, &p.Description, &p.TechStack,
		&p.RepoURL, &p.LiveURL, &p.ImageURL, &p.Featured, &p.DisplayOrder,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY display_order, created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := r.scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepo) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE slug = $1`
	return r.scanProject(r.pool.QueryRow(ctx, query, slug))
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return r.scanProject(r.pool.QueryRow(ctx, query, id))
}

func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, req models.ProjectRequest) (*models.Project, error) {
	query := `
		UPDATE projects SET
			title = $2, slug = $3, summary = $4, description = $5, tech_stack = $6,
			repo_url = $7, live_url = $8, image_url = $9, featured = $10,
			display_order = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + projectColumns

	return r.scanProject(r.pool.QueryRow(ctx, query,
		id, req.Title, req.Slug, req.Summary, req.Description, req.TechStack,
		req.RepoURL, req.LiveURL, req.ImageURL, req.Featured, req.DisplayOrder))
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProjectRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM projects").Scan(&n)
	return n, err
}
