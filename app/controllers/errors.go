package controllers

import (
	"errors"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/queries"
	"github.com/gilanghuda/weekly-report-backend/app/reporting"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

var errBadReportID = errors.New("invalid report id")

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// reportError translates lifecycle and storage errors into responses.
func reportError(c *fiber.Ctx, log *logrus.Logger, err error) error {
	switch {
	case errors.Is(err, errBadReportID):
		return errorJSON(c, fiber.StatusBadRequest, "Invalid report id")
	case errors.Is(err, queries.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Report not found")
	case errors.Is(err, queries.ErrStaleWrite):
		return errorJSON(c, fiber.StatusConflict, "Report was modified by another request, reload and retry")
	case errors.Is(err, reporting.ErrInvalidTransition),
		errors.Is(err, reporting.ErrReportLocked),
		errors.Is(err, reporting.ErrDuplicatePeriod):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, reporting.ErrMissingComment),
		errors.Is(err, reporting.ErrIncompleteReport):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, reporting.ErrUnauthorized):
		return errorJSON(c, fiber.StatusForbidden, err.Error())
	}
	log.WithError(err).WithField("path", c.Path()).Error("request failed")
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}

// now returns the wall clock at the precision Postgres stores, so that
// values read back compare equal to the ones written.
func now(clock func() time.Time) time.Time {
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Truncate(time.Microsecond)
}
