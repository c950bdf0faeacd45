package controllers

import (
	"strings"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/app/reporting"
	"github.com/gilanghuda/weekly-report-backend/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ReviewController serves the supervisor side: approving, rejecting and
// the aggregate views.
type ReviewController struct {
	Reports ReportStore
	Users   UserStore
	Audit   AuditLog
	Cache   StatsCache
	Events  ReviewPublisher
	Log     *logrus.Logger
	Now     func() time.Time
}

func (rc *ReviewController) Approve(c *fiber.Ctx) error {
	return rc.review(c, reporting.ActionApprove)
}

func (rc *ReviewController) Reject(c *fiber.Ctx) error {
	return rc.review(c, reporting.ActionReject)
}

func (rc *ReviewController) review(c *fiber.Ctx, action reporting.Action) error {
	identity := middleware.CurrentIdentity(c)
	ctx := c.UserContext()

	req := &models.ReviewRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	id, err := parseReportID(c)
	if err != nil {
		return reportError(c, rc.Log, err)
	}
	report, err := rc.Reports.GetReport(ctx, id)
	if err != nil {
		return reportError(c, rc.Log, err)
	}

	comment := strings.TrimSpace(req.Comment)
	pending := report
	pending.ReviewComment = comment
	at := now(rc.Now)
	updated, err := reporting.TransitionAt(pending, action, reporting.ActorOf(identity), at)
	if err != nil {
		return reportError(c, rc.Log, err)
	}
	updated.UpdatedAt = at

	if err := rc.Reports.UpdateReport(ctx, &updated, report.UpdatedAt); err != nil {
		return reportError(c, rc.Log, err)
	}

	details := map[string]interface{}{"status": updated.Status}
	if comment != "" {
		details["comment"] = comment
	}
	recordAudit(c, rc.Audit, rc.Log, identity.UserID, string(action), updated.ID.String(), details)
	if rc.Cache != nil {
		if err := rc.Cache.Invalidate(ctx); err != nil {
			rc.Log.WithError(err).Warn("stats cache invalidation failed")
		}
	}

	if rc.Events != nil {
		ev := models.ReviewEvent{
			ReportID: updated.ID,
			Period:   updated.Period(),
			Status:   updated.Status,
			Comment:  comment,
			Reviewer: identity.Name,
			OwnerID:  updated.UserID,
		}
		if updated.User != nil {
			ev.OwnerName = updated.User.Name
			ev.OwnerEmail = updated.User.Email
		} else if owner, err := rc.Users.GetUserByID(ctx, updated.UserID); err == nil {
			ev.OwnerName = owner.Name
			ev.OwnerEmail = owner.Email
		}
		rc.Events.Publish(ev)
	}

	rc.Log.WithFields(logrus.Fields{
		"report":   updated.ID,
		"reviewer": identity.UserID,
		"status":   updated.Status,
	}).Info("report reviewed")
	return c.JSON(updated)
}

// Stats serves the dashboard aggregates, from the cache when it is warm.
func (rc *ReviewController) Stats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if rc.Cache != nil {
		stats, ok, err := rc.Cache.Get(ctx)
		if err != nil {
			rc.Log.WithError(err).Warn("stats cache read failed")
		}
		if ok {
			c.Set("X-Cache", "HIT")
			return c.JSON(stats)
		}
	}

	stats, err := rc.Reports.ReportStats(ctx)
	if err != nil {
		return reportError(c, rc.Log, err)
	}
	if rc.Cache != nil {
		if err := rc.Cache.Set(ctx, stats); err != nil {
			rc.Log.WithError(err).Warn("stats cache write failed")
		}
	}
	c.Set("X-Cache", "MISS")
	return c.JSON(stats)
}

// Team lists per-member report counts. Supervisors default to their own
// department; ?department overrides it.
func (rc *ReviewController) Team(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	department := strings.TrimSpace(c.Query("department", identity.Department))
	if c.Query("all") == "true" {
		department = ""
	}

	members, err := rc.Reports.TeamAggregates(c.UserContext(), department)
	if err != nil {
		return reportError(c, rc.Log, err)
	}
	return c.JSON(fiber.Map{"department": department, "members": members})
}

func (rc *ReviewController) AuditTrail(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	entries, err := rc.Audit.Recent(c.UserContext(), limit)
	if err != nil {
		rc.Log.WithError(err).Error("read audit log")
		return errorJSON(c, fiber.StatusInternalServerError, "unable to read audit log")
	}
	return c.JSON(entries)
}
