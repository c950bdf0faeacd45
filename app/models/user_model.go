package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleEmployee   = "employee"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

var ValidRoles = []string{RoleEmployee, RoleSupervisor, RoleAdmin}

type User struct {
	ID              uuid.UUID `json:"id" db:"uid"`
	Name            string    `json:"name" db:"name"`
	Username        *string   `json:"username,omitempty" db:"username"`
	Email           string    `json:"email" db:"email"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	Department      string    `json:"department" db:"department"`
	UserRole        string    `json:"role" db:"user_role"`
	SupervisorEmail *string   `json:"supervisor_email,omitempty" db:"supervisor_email"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

func (u User) Owner() *ReportOwner {
	return &ReportOwner{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Username:   u.Username,
		Department: u.Department,
	}
}

// Identity is the authenticated caller, resolved once per request by the
// JWT middleware and handed to controllers through the request context.
type Identity struct {
	Authenticated bool      `json:"authenticated"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Department    string    `json:"department"`
	Role          string    `json:"role"`
}

func NewIdentity(u User) Identity {
	return Identity{
		Authenticated: true,
		UserID:        u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Department:    u.Department,
		Role:          u.UserRole,
	}
}

// Reviewer holds the capability to approve and reject reports.
func (i Identity) Reviewer() bool {
	return i.Role == RoleSupervisor || i.Role == RoleAdmin
}

func (i Identity) Admin() bool {
	return i.Role == RoleAdmin
}

// CanAccess reports whether the caller may read or mutate a resource owned by ownerID.
func (i Identity) CanAccess(ownerID uuid.UUID) bool {
	return i.UserID == ownerID || i.Admin()
}

type RefreshToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Revoked   bool      `json:"revoked" db:"revoked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type PasswordReset struct {
	TokenHash string    `db:"token_hash"`
	UserID    uuid.UUID `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	Used      bool      `db:"used"`
	CreatedAt time.Time `db:"created_at"`
}
