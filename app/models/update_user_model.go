package models

// UpdateUserRequest is used by PATCH /me and by admins on PATCH /users/:id.
// Role is honoured only on the admin route.
type UpdateUserRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,lte=255"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email,lte=255"`
	Department      *string `json:"department,omitempty" validate:"omitempty,lte=255"`
	SupervisorEmail *string `json:"supervisor_email,omitempty" validate:"omitempty,email,lte=255"`
	Password        *string `json:"password,omitempty" validate:"omitempty,gte=6,lte=255"`
	UserRole        *string `json:"role,omitempty" validate:"omitempty,oneof=employee supervisor admin"`

	PasswordHash *string `json:"-"`
}
