package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"folio-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, email, password_hash, full_name, avatar_url, bio,
	is_verified, is_active, is_admin, totp_secret, totp_enabled, created_at, last_login_at`

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, is_verified, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	user.ID = uuid.New()
	user.IsActive = true

	return r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.IsVerified, user.IsAdmin,
	).Scan(&user.CreatedAt)
}

func (r *UserRepo) scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.AvatarURL, &user.Bio,
		&user.IsVerified, &user.IsActive, &user.IsAdmin, &user.TOTPSecret, &user.TOTPEnabled,
		&user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepo) VerifyEmail(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET is_verified = TRUE WHERE id = $1", userID)
	return err
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET last_login_at = NOW() WHERE id = $1", userID)
	return err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET password_hash = $2 WHERE id = $1", userID, passwordHash)
	return err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET
			full_name  = COALESCE($2, full_name),
			avatar_url = COALESCE($3, avatar_url),
			bio        = COALESCE($4, bio)
		WHERE id = $1`,
		userID, req.FullName, req.AvatarURL, req.Bio)
	return err
}

// SetTOTPSecret stores a pending secret without enabling two-factor; the
// account owes a valid code first (see AuthService.ActivateTOTP).
func (r *UserRepo) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE users SET totp_secret = $2, totp_enabled = FALSE WHERE id = $1", userID, secret)
	return err
}

func (r *UserRepo) EnableTOTP(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE users SET totp_enabled = TRUE WHERE id = $1 AND totp_secret IS NOT NULL", userID)
	return err
}

func (r *UserRepo) DisableTOTP(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE users SET totp_secret = NULL, totp_enabled = FALSE WHERE id = $1", userID)
	return err
}
