package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/app/queries"
	"github.com/gilanghuda/weekly-report-backend/pkg/middleware"
	"github.com/gilanghuda/weekly-report-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type AuthController struct {
	Users       UserStore
	Tokens      TokenStore
	Resets      PasswordResetStore
	JWT         *utils.JWTManager
	Google      GoogleVerifier
	Mailer      Mailer
	Audit       AuditLog
	RefreshTTL  time.Duration
	ResetTTL    time.Duration
	FrontendURL string
	Log         *logrus.Logger
	Now         func() time.Time
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	signUp := &models.SignUp{}
	if err := c.BodyParser(signUp); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(signUp); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	email := strings.ToLower(strings.TrimSpace(signUp.Email))
	if _, err := a.Users.GetUserByEmail(ctx, email); err == nil {
		return errorJSON(c, fiber.StatusConflict, "Email already registered")
	}

	var username *string
	if u := strings.TrimSpace(signUp.Username); u != "" {
		if _, err := a.Users.GetUserByUsername(ctx, u); err == nil {
			return errorJSON(c, fiber.StatusConflict, "Username already taken")
		}
		username = &u
	}
	var supervisor *string
	if s := strings.TrimSpace(signUp.SupervisorEmail); s != "" {
		supervisor = &s
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(signUp.Password), bcrypt.DefaultCost)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to hash password")
	}

	at := now(a.Now)
	user := &models.User{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(signUp.Name),
		Username:        username,
		Email:           email,
		PasswordHash:    string(hashedPassword),
		Department:      strings.TrimSpace(signUp.Department),
		UserRole:        models.RoleEmployee,
		SupervisorEmail: supervisor,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	if err := a.Users.CreateUser(ctx, user); err != nil {
		return a.userWriteError(c, err)
	}

	a.audit(c, user.ID, "register", nil)
	return a.issueTokens(c, fiber.StatusCreated, *user)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	signIn := &models.SignIn{}
	if err := c.BodyParser(signIn); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(signIn); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	login := strings.TrimSpace(signIn.Identifier())

	var (
		user models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = a.Users.GetUserByEmail(ctx, login)
	} else {
		user, err = a.Users.GetUserByUsername(ctx, login)
	}
	if err != nil || user.PasswordHash == "" {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(signIn.Password)); err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	a.audit(c, user.ID, "login", nil)
	return a.issueTokens(c, fiber.StatusOK, user)
}

func (a *AuthController) GoogleSignIn(c *fiber.Ctx) error {
	payload := &models.GoogleSignIn{}
	if err := c.BodyParser(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	account, err := a.Google.Verify(ctx, payload.IDToken)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, err.Error())
	}

	user, err := a.Users.GetUserByEmail(ctx, account.Email)
	if errors.Is(err, queries.ErrNotFound) {
		name := account.Name
		if name == "" {
			name = strings.Split(account.Email, "@")[0]
		}
		at := now(a.Now)
		user = models.User{
			ID:        uuid.New(),
			Name:      name,
			Email:     strings.ToLower(account.Email),
			UserRole:  models.RoleEmployee,
			CreatedAt: at,
			UpdatedAt: at,
		}
		if err := a.Users.CreateUser(ctx, &user); err != nil {
			return a.userWriteError(c, err)
		}
		a.audit(c, user.ID, "register_google", nil)
	} else if err != nil {
		a.Log.WithError(err).Error("google sign-in lookup failed")
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	a.audit(c, user.ID, "login_google", nil)
	return a.issueTokens(c, fiber.StatusOK, user)
}

func (a *AuthController) Refresh(c *fiber.Ctx) error {
	payload := &models.RefreshRequest{}
	if err := c.BodyParser(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	rt, err := a.Tokens.GetRefreshTokenByToken(ctx, payload.RefreshToken)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid refresh token")
	}
	if rt.Revoked || now(a.Now).After(rt.ExpiresAt) {
		return errorJSON(c, fiber.StatusUnauthorized, "Refresh token expired or revoked")
	}

	user, err := a.Users.GetUserByID(ctx, rt.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "User not found")
	}

	token, err := a.JWT.GenerateToken(user)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate access token")
	}
	return c.JSON(fiber.Map{
		"access_token": token,
		"expires_in":   int(a.JWT.TTL().Seconds()),
	})
}

// Logout revokes the given refresh token, or every token of the caller
// when none is sent.
func (a *AuthController) Logout(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	ctx := c.UserContext()

	body := &models.RefreshRequest{}
	_ = c.BodyParser(body)

	if body.RefreshToken != "" {
		if err := a.Tokens.RevokeRefreshToken(ctx, identity.UserID, body.RefreshToken); err != nil {
			if errors.Is(err, queries.ErrNotFound) {
				return errorJSON(c, fiber.StatusBadRequest, "Unknown refresh token")
			}
			return errorJSON(c, fiber.StatusInternalServerError, "Failed to revoke refresh token")
		}
		return c.JSON(fiber.Map{"message": "Refresh token revoked"})
	}

	if err := a.Tokens.RevokeRefreshTokensByUser(ctx, identity.UserID); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to revoke refresh tokens for user")
	}
	a.audit(c, identity.UserID, "logout", nil)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (a *AuthController) Me(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	user, err := a.Users.GetUserByID(c.UserContext(), identity.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(user)
}

// UpdateMe edits the caller's own profile. Role changes go through the admin routes.
func (a *AuthController) UpdateMe(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)

	payload := &models.UpdateUserRequest{}
	if err := c.BodyParser(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	payload.UserRole = nil

	return updateUser(c, a.Users, a.Log, identity.UserID, payload, func(u models.User) {
		a.audit(c, identity.UserID, "update_profile", nil)
	})
}

// ForgotPassword always answers 200 so the endpoint cannot be used to probe accounts.
func (a *AuthController) ForgotPassword(c *fiber.Ctx) error {
	payload := &models.ForgotPassword{}
	if err := c.BodyParser(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	response := fiber.Map{"message": "If the account exists, a reset link has been sent"}
	ctx := c.UserContext()

	user, err := a.Users.GetUserByEmail(ctx, payload.Email)
	if err != nil {
		return c.JSON(response)
	}

	token, err := utils.GenerateRandomToken(32)
	if err != nil {
		a.Log.WithError(err).Error("generate reset token")
		return c.JSON(response)
	}
	at := now(a.Now)
	err = a.Resets.CreatePasswordReset(ctx, &models.PasswordReset{
		TokenHash: utils.HashToken(token),
		UserID:    user.ID,
		ExpiresAt: at.Add(a.ResetTTL),
		CreatedAt: at,
	})
	if err != nil {
		a.Log.WithError(err).Error("store reset token")
		return c.JSON(response)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(a.FrontendURL, "/"), token)
	body := fmt.Sprintf("Hi %s,\n\nUse the link below to reset your password. It expires in %s.\n\n%s\n",
		user.Name, a.ResetTTL, link)
	if err := a.Mailer.Send(user.Email, "Reset your password", body); err != nil {
		a.Log.WithError(err).WithField("user", user.ID).Warn("reset email not sent")
	}
	a.audit(c, user.ID, "forgot_password", nil)
	return c.JSON(response)
}

func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	payload := &models.ResetPassword{}
	if err := c.BodyParser(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	reset, err := a.Resets.ConsumePasswordReset(ctx, utils.HashToken(payload.Token), now(a.Now))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid or expired reset token")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to hash password")
	}
	hash := string(hashed)
	if _, err := a.Users.UpdateUser(ctx, reset.UserID, &models.UpdateUserRequest{PasswordHash: &hash}); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to update password")
	}
	if err := a.Tokens.RevokeRefreshTokensByUser(ctx, reset.UserID); err != nil {
		a.Log.WithError(err).Warn("revoke tokens after password reset")
	}

	a.audit(c, reset.UserID, "reset_password", nil)
	return c.JSON(fiber.Map{"message": "Password updated"})
}

func (a *AuthController) issueTokens(c *fiber.Ctx, status int, user models.User) error {
	tokenString, err := a.JWT.GenerateToken(user)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate token")
	}

	rtStr, err := utils.GenerateRandomToken(32)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate refresh token")
	}
	at := now(a.Now)
	rt := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     rtStr,
		ExpiresAt: at.Add(a.RefreshTTL),
		CreatedAt: at,
	}
	if err := a.Tokens.CreateRefreshToken(c.UserContext(), rt); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to store refresh token")
	}

	return c.Status(status).JSON(fiber.Map{
		"access_token":       tokenString,
		"expires_in":         int(a.JWT.TTL().Seconds()),
		"refresh_token":      rtStr,
		"refresh_expires_at": rt.ExpiresAt,
		"user":               user,
	})
}

func (a *AuthController) userWriteError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, queries.ErrEmailTaken):
		return errorJSON(c, fiber.StatusConflict, "Email already registered")
	case errors.Is(err, queries.ErrUsernameTaken):
		return errorJSON(c, fiber.StatusConflict, "Username already taken")
	}
	a.Log.WithError(err).Error("user write failed")
	return errorJSON(c, fiber.StatusInternalServerError, "Failed to save user")
}

func (a *AuthController) audit(c *fiber.Ctx, userID uuid.UUID, action string, details map[string]interface{}) {
	recordAudit(c, a.Audit, a.Log, userID, action, "", details)
}

func recordAudit(c *fiber.Ctx, log AuditLog, logger *logrus.Logger, userID uuid.UUID, action, reportID string, details map[string]interface{}) {
	if log == nil {
		return
	}
	err := log.Record(c.UserContext(), models.AuditEntry{
		UserID:   userID.String(),
		Action:   action,
		ReportID: reportID,
		Details:  details,
		IP:       c.IP(),
	})
	if err != nil {
		logger.WithError(err).WithField("action", action).Warn("audit write failed")
	}
}
