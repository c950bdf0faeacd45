package controllers

import (
	"errors"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/app/queries"
	"github.com/gilanghuda/weekly-report-backend/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserController serves the admin-only account management routes.
type UserController struct {
	Users UserStore
	Audit AuditLog
	Log   *logrus.Logger
}

func (u *UserController) ListUsers(c *fiber.Ctx) error {
	users, err := u.Users.ListUsers(c.UserContext(), c.Query("department"))
	if err != nil {
		u.Log.WithError(err).Error("list users")
		return errorJSON(c, fiber.StatusInternalServerError, "unable to get users")
	}
	return c.JSON(users)
}

func (u *UserController) GetUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid user id")
	}
	user, err := u.Users.GetUserByID(c.UserContext(), id)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(user)
}

func (u *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid user id")
	}

	payload := &models.UpdateUserRequest{}
	if err := c.BodyParser(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	identity := middleware.CurrentIdentity(c)
	if id == identity.UserID && payload.UserRole != nil && *payload.UserRole != models.RoleAdmin {
		return errorJSON(c, fiber.StatusBadRequest, "Admins cannot demote themselves")
	}

	return updateUser(c, u.Users, u.Log, id, payload, func(updated models.User) {
		details := map[string]interface{}{"target": updated.ID.String()}
		if payload.UserRole != nil {
			details["role"] = *payload.UserRole
		}
		recordAudit(c, u.Audit, u.Log, identity.UserID, "update_user", "", details)
	})
}

func (u *UserController) DeleteUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid user id")
	}
	identity := middleware.CurrentIdentity(c)
	if id == identity.UserID {
		return errorJSON(c, fiber.StatusBadRequest, "Admins cannot delete their own account")
	}

	if err := u.Users.DeleteUser(c.UserContext(), id); err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "User not found")
		}
		u.Log.WithError(err).Error("delete user")
		return errorJSON(c, fiber.StatusInternalServerError, "unable to delete user")
	}

	recordAudit(c, u.Audit, u.Log, identity.UserID, "delete_user", "", map[string]interface{}{"target": id.String()})
	return c.JSON(fiber.Map{"message": "User deleted"})
}

// updateUser applies payload to the account id. The email stays unique and
// a new password is hashed before it reaches the store.
func updateUser(c *fiber.Ctx, users UserStore, log *logrus.Logger, id uuid.UUID, payload *models.UpdateUserRequest, onSuccess func(models.User)) error {
	ctx := c.UserContext()

	if payload.Email != nil {
		existing, err := users.GetUserByEmail(ctx, *payload.Email)
		if err == nil && existing.ID != id {
			return errorJSON(c, fiber.StatusConflict, "Email already registered")
		}
	}
	if payload.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*payload.Password), bcrypt.DefaultCost)
		if err != nil {
			return errorJSON(c, fiber.StatusInternalServerError, "Failed to hash password")
		}
		hash := string(hashed)
		payload.PasswordHash = &hash
		payload.Password = nil
	}

	user, err := users.UpdateUser(ctx, id, payload)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrNotFound):
			return errorJSON(c, fiber.StatusNotFound, "User not found")
		case errors.Is(err, queries.ErrEmailTaken):
			return errorJSON(c, fiber.StatusConflict, "Email already registered")
		}
		log.WithError(err).Error("update user")
		return errorJSON(c, fiber.StatusInternalServerError, "unable to update user")
	}

	if onSuccess != nil {
		onSuccess(user)
	}
	return c.JSON(user)
}
