package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folio-backend/internal/models"
)

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

const postColumns = `id, title, slug, excerpt, body, tags, published, published_at, created_at, updated_at`

func (r *PostRepo) Create(ctx context.Context, req models.PostRequest) (*models.Post, error) {
	p := &models.Post{
		ID:        uuid.New(),
		Title:     req.Title,
		Slug:      req.Slug,
		Excerpt:   req.Excerpt,
		Body:      req.Body,
		Tags:      req.Tags,
		Published: req.Published,
	}

	query := `
		INSERT INTO posts (id, title, slug, excerpt, body, tags, published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CASE WHEN $7 THEN NOW() END)
		RETURNING published_at, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Title, p.Slug, p.Excerpt, p.Body, p.Tags, p.Published,
	).Scan(&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostRepo) scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	p := &models.Post{}
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Body, &p.Tags,
		&p.Published, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns posts newest-first. When publishedOnly is set, drafts are
// excluded (the public blog view).
func (r *PostRepo) List(ctx context.Context, publishedOnly bool) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	if publishedOnly {
		query += ` WHERE published`
	}
	query += ` ORDER BY COALESCE(published_at, created_at) DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := r.scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepo) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE slug = $1`
	return r.scanPost(r.pool.QueryRow(ctx, query, slug))
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	return r.scanPost(r.pool.QueryRow(ctx, query, id))
}

func (r *PostRepo) Update(ctx context.Context, id uuid.UUID, req models.PostRequest) (*models.Post, error) {
	// published_at is set on the first transition to published and then kept
	query := `
		UPDATE posts SET
			title = $2, slug = $3, excerpt = $4, body = $5, tags = $6,
			published = $7,
			published_at = CASE WHEN $7 AND published_at IS NULL THEN NOW() ELSE published_at END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + postColumns

	return r.scanPost(r.pool.QueryRow(ctx, query,
		id, req.Title, req.Slug, req.Excerpt, req.Body, req.Tags, req.Published))
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostRepo) CountPublished(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM posts WHERE published").Scan(&n)
	return n, err
}
