package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/app/queries"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// EnsureAdmin creates the default admin account when no user holds its
// email yet. An empty email or password disables seeding.
func EnsureAdmin(ctx context.Context, users UserStore, seed AdminSeed, log *logrus.Logger) error {
	email := strings.ToLower(strings.TrimSpace(seed.Email))
	if email == "" || seed.Password == "" {
		return nil
	}

	_, err := users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, queries.ErrNotFound) {
		return fmt.Errorf("look up default admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	at := time.Now().UTC().Truncate(time.Microsecond)
	admin := &models.User{
		ID:           uuid.New(),
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hashed),
		UserRole:     models.RoleAdmin,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	if u := strings.TrimSpace(seed.Username); u != "" {
		admin.Username = &u
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	log.WithField("email", email).Info("default admin created")
	return nil
}
