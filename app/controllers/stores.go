package controllers

import (
	"context"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/pkg/utils"
	"github.com/google/uuid"
)

// The interfaces below are implemented by app/queries and swapped for
// in-memory fakes in tests.

type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, id uuid.UUID, req *models.UpdateUserRequest) (models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, department string) ([]models.User, error)
}

type TokenStore interface {
	CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error
	GetRefreshTokenByToken(ctx context.Context, token string) (models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, userID uuid.UUID, token string) error
	RevokeRefreshTokensByUser(ctx context.Context, userID uuid.UUID) error
}

type PasswordResetStore interface {
	CreatePasswordReset(ctx context.Context, pr *models.PasswordReset) error
	ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (models.PasswordReset, error)
}

type ReportStore interface {
	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (models.Report, error)
	ListReports(ctx context.Context, filter models.ReportQuery) ([]models.Report, error)
	UpdateReport(ctx context.Context, r *models.Report, prev time.Time) error
	DeleteReport(ctx context.Context, id uuid.UUID) error
	ReportStats(ctx context.Context) (models.ReportStats, error)
	TeamAggregates(ctx context.Context, department string) ([]models.TeamMember, error)
}

type AuditLog interface {
	Record(ctx context.Context, entry models.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

type StatsCache interface {
	Get(ctx context.Context) (models.ReportStats, bool, error)
	Set(ctx context.Context, stats models.ReportStats) error
	Invalidate(ctx context.Context) error
}

type Mailer interface {
	Send(to, subject, body string) error
}

type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (utils.GoogleAccount, error)
}

type ReviewPublisher interface {
	Publish(ev models.ReviewEvent)
}
