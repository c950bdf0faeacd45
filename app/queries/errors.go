package queries

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrStaleWrite    = errors.New("record was modified concurrently")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

const (
	uniqueViolation = "23505"

	usersEmailKey        = "users_email_key"
	usersUsernameKey     = "users_username_key"
	reportsUserPeriodKey = "reports_user_period_key"
)

// uniqueConstraint returns the constraint name when err is a unique violation.
func uniqueConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
