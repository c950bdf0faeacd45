package routes

import (
	"github.com/gilanghuda/weekly-report-backend/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func RegisterAuthRoutes(app *fiber.App, h Handlers) {
	auth := app.Group("/api/auth")

	// Public routes
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/google", h.Auth.GoogleSignIn)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/forgot-password", h.Auth.ForgotPassword)
	auth.Post("/reset-password", h.Auth.ResetPassword)

	protected := h.protected()
	auth.Post("/logout", protected, h.Auth.Logout)
	auth.Get("/me", protected, h.Auth.Me)
	auth.Patch("/me", protected, h.Auth.UpdateMe)

	users := auth.Group("/users", protected, middleware.AdminOnly())
	users.Get("/", h.Users.ListUsers)
	users.Get("/:id", h.Users.GetUser)
	users.Patch("/:id", h.Users.UpdateUser)
	users.Delete("/:id", h.Users.DeleteUser)
}
