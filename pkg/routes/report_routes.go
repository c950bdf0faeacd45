package routes

import (
	"github.com/gilanghuda/weekly-report-backend/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func RegisterReportRoutes(app *fiber.App, h Handlers) {
	// Attachment links are shared by key and served without a token.
	app.Get("/api/reports/uploads/:key", h.Reports.ServeUpload)

	reports := app.Group("/api/reports", h.protected())
	reviewer := middleware.ReviewerOnly()

	reports.Post("/", h.Reports.Create)
	reports.Get("/", reviewer, h.Reports.ListAll)
	reports.Get("/myreports", h.Reports.MyReports)
	reports.Get("/current", h.Reports.Current)
	reports.Get("/calendar", h.Reports.Calendar)
	reports.Get("/stats", reviewer, h.Review.Stats)
	reports.Get("/team", reviewer, h.Review.Team)
	reports.Get("/audit", middleware.AdminOnly(), h.Review.AuditTrail)

	reports.Get("/:id", h.Reports.Get)
	reports.Put("/:id", h.Reports.Update)
	reports.Delete("/:id", h.Reports.Delete)
	reports.Post("/:id/email", h.Reports.EmailReport)
	reports.Post("/:id/approve", h.Review.Approve)
	reports.Post("/:id/reject", h.Review.Reject)
}
