package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folio-backend/internal/models"
)

type InquiryRepo struct {
	pool *pgxpool.Pool
}

func NewInquiryRepo(pool *pgxpool.Pool) *InquiryRepo {
	return &InquiryRepo{pool: pool}
}

func (r *InquiryRepo) Create(ctx context.Context, req models.InquiryRequest) (*models.Inquiry, error) {
	inq := &models.Inquiry{
		ID:      uuid.New(),
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO inquiries (id, name, email, subject, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		inq.ID, inq.Name, inq.Email, inq.Subject, inq.Body,
	).Scan(&inq.CreatedAt)
	if err != nil {
		return nil, err
	}
	return inq, nil
}

func (r *InquiryRepo) List(ctx context.Context) ([]*models.Inquiry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, subject, body, is_read, created_at
		FROM inquiries ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inquiries []*models.Inquiry
	for rows.Next() {
		inq := &models.Inquiry{}
		if err := rows.Scan(&inq.ID, &inq.Name, &inq.Email, &inq.Subject, &inq.Body, &inq.IsRead, &inq.CreatedAt); err != nil {
			return nil, err
		}
		inquiries = append(inquiries, inq)
	}
	return inquiries, rows.Err()
}

func (r *InquiryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error) {
	inq := &models.Inquiry{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, subject, body, is_read, created_at
		FROM inquiries WHERE id = $1`, id,
	).Scan(&inq.ID, &inq.Name, &inq.Email, &inq.Subject, &inq.Body, &inq.IsRead, &inq.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return inq, nil
}

func (r *InquiryRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "UPDATE inquiries SET is_read = TRUE WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InquiryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM inquiries WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InquiryRepo) CountUnread(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM inquiries WHERE NOT is_read").Scan(&n)
	return n, err
}
