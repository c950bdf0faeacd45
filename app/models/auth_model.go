package models

type SignUp struct {
	Name            string `json:"name" validate:"required,lte=255"`
	Email           string `json:"email" validate:"required,email,lte=255"`
	Username        string `json:"username" validate:"omitempty,lte=64"`
	Password        string `json:"password" validate:"required,gte=6,lte=255"`
	Department      string `json:"department" validate:"required,lte=255"`
	SupervisorEmail string `json:"supervisor_email" validate:"omitempty,email,lte=255"`
}

// SignIn accepts either an email or a username in Login.
type SignIn struct {
	Login    string `json:"login" validate:"required_without=Email,lte=255"`
	Email    string `json:"email" validate:"omitempty,lte=255"`
	Password string `json:"password" validate:"required,lte=255"`
}

func (s SignIn) Identifier() string {
	if s.Login != "" {
		return s.Login
	}
	return s.Email
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type GoogleSignIn struct {
	IDToken string `json:"id_token" validate:"required"`
}

type ForgotPassword struct {
	Email string `json:"email" validate:"required,email,lte=255"`
}

type ResetPassword struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,gte=6,lte=255"`
}
