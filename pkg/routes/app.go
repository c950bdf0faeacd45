package routes

import (
	"errors"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/controllers"
	"github.com/gilanghuda/weekly-report-backend/pkg/middleware"
	"github.com/gilanghuda/weekly-report-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
)

type Options struct {
	CORSOrigins     string
	BodyLimit       int
	RateLimitMax    int
	RateLimitWindow time.Duration
	Log             *logrus.Logger
}

// Handlers bundles the controllers wired by the serve command.
type Handlers struct {
	Auth          *controllers.AuthController
	Users         *controllers.UserController
	Reports       *controllers.ReportController
	Review        *controllers.ReviewController
	Notifications *controllers.NotificationController
	JWT           *utils.JWTManager
	Accounts      middleware.UserLoader
}

func (h Handlers) protected() fiber.Handler {
	return middleware.JWTProtected(h.JWT, h.Accounts)
}

func NewApp(opts Options, h Handlers) *fiber.App {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	app := fiber.New(fiber.Config{
		AppName:      "weekly-report-backend",
		BodyLimit:    opts.BodyLimit,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
				message = fe.Message
			} else {
				log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
			}
			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Use(requestid.New())
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.WithFields(logrus.Fields{
				"panic":      e,
				"path":       c.Path(),
				"request_id": c.Locals("requestid"),
			}).Error("panic recovered")
		},
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		Output: log.WriterLevel(logrus.InfoLevel),
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	if opts.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimitMax,
			Expiration: opts.RateLimitWindow,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/healthz" || c.Method() == fiber.MethodOptions
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
			},
		}))
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	RegisterAuthRoutes(app, h)
	RegisterReportRoutes(app, h)
	RegisterNotificationRoutes(app, h)
	return app
}
