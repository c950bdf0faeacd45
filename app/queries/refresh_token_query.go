package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/google/uuid"
)

type RefreshTokenQueries struct {
	DB *sql.DB
}

func (q *RefreshTokenQueries) CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := q.DB.ExecContext(ctx, query, rt.ID, rt.UserID, rt.Token, rt.ExpiresAt, rt.CreatedAt, rt.Revoked)
	if err != nil {
		return fmt.Errorf("unable to create refresh token: %w", err)
	}
	return nil
}

func (q *RefreshTokenQueries) GetRefreshTokenByToken(ctx context.Context, token string) (models.RefreshToken, error) {
	rt := models.RefreshToken{}
	query := `SELECT id, user_id, token, expires_at, created_at, revoked FROM refresh_tokens WHERE token = $1`
	err := q.DB.QueryRowContext(ctx, query, token).Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt, &rt.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rt, ErrNotFound
		}
		return rt, fmt.Errorf("unable to get refresh token: %w", err)
	}
	return rt, nil
}

// RevokeRefreshToken revokes token only when it belongs to userID.
func (q *RefreshTokenQueries) RevokeRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	res, err := q.DB.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1 AND user_id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("unable to revoke refresh token: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *RefreshTokenQueries) RevokeRefreshTokensByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := q.DB.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`, userID)
	if err != nil {
		return fmt.Errorf("unable to revoke refresh tokens for user: %w", err)
	}
	return nil
}

type PasswordResetQueries struct {
	DB *sql.DB
}

func (q *PasswordResetQueries) CreatePasswordReset(ctx context.Context, pr *models.PasswordReset) error {
	query := `INSERT INTO password_resets (token_hash, user_id, expires_at, used, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := q.DB.ExecContext(ctx, query, pr.TokenHash, pr.UserID, pr.ExpiresAt, pr.Used, pr.CreatedAt)
	if err != nil {
		return fmt.Errorf("unable to create password reset: %w", err)
	}
	return nil
}

// ConsumePasswordReset marks an unused, unexpired reset as used and returns it.
func (q *PasswordResetQueries) ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (models.PasswordReset, error) {
	pr := models.PasswordReset{}
	query := `UPDATE password_resets SET used = TRUE
			  WHERE token_hash = $1 AND NOT used AND expires_at > $2
			  RETURNING token_hash, user_id, expires_at, used, created_at`
	err := q.DB.QueryRowContext(ctx, query, tokenHash, now).Scan(&pr.TokenHash, &pr.UserID, &pr.ExpiresAt, &pr.Used, &pr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pr, ErrNotFound
		}
		return pr, fmt.Errorf("unable to consume password reset: %w", err)
	}
	return pr, nil
}
