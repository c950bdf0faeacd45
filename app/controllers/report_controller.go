package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/app/reporting"
	"github.com/gilanghuda/weekly-report-backend/pkg/middleware"
	"github.com/gilanghuda/weekly-report-backend/pkg/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ReportController struct {
	Reports        ReportStore
	Users          UserStore
	Files          storage.FileStore
	Audit          AuditLog
	Mailer         Mailer
	Cache          StatsCache
	MaxUploadBytes int64
	Log            *logrus.Logger
	Now            func() time.Time
}

func (r *ReportController) Create(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	ctx := c.UserContext()

	req := &models.CreateReportRequest{}
	if err := c.BodyParser(req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	files, form, err := uploadedFiles(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid multipart form")
	}
	if form != nil {
		req.Tags = formTags(form)
	}
	if err := validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	at := now(r.Now)
	period := reporting.CurrentPeriod(at)
	if req.Year != 0 {
		period.Year = req.Year
	}
	if req.Week != 0 {
		period.Week = req.Week
	}
	if !reporting.ValidPeriod(period) {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("%s is not a valid ISO week", period.Key()))
	}

	mine, err := r.Reports.ListReports(ctx, models.ReportQuery{UserID: &identity.UserID})
	if err != nil {
		return reportError(c, r.Log, err)
	}
	existing, err := reporting.FindForPeriod(mine, period)
	if err != nil {
		return reportError(c, r.Log, err)
	}
	if existing != nil {
		return reportError(c, r.Log, &reporting.Error{Kind: reporting.ErrDuplicatePeriod, Period: period})
	}

	report := reporting.NewReport(identity.UserID, period, *req, at)
	if req.Status != "" {
		action, _ := reporting.StatusAction(req.Status)
		report, err = reporting.TransitionAt(report, action, reporting.ActorOf(identity), at)
		if err != nil {
			return reportError(c, r.Log, err)
		}
	}

	attachments, err := r.storeFiles(ctx, files)
	if err != nil {
		return r.uploadError(c, err)
	}
	report.Attachments = attachments

	if err := r.Reports.CreateReport(ctx, &report); err != nil {
		r.removeFiles(ctx, attachments)
		return reportError(c, r.Log, err)
	}
	report.User = ownerOf(identity)

	r.written(c, identity.UserID, "create", report.ID, map[string]interface{}{
		"year": report.Year, "week": report.Week, "status": report.Status,
	})
	return c.Status(fiber.StatusCreated).JSON(report)
}

// MyReports lists the caller's reports, newest first, filtered by
// q, status, tags, start and end.
func (r *ReportController) MyReports(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	query, filter, err := listParams(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	query.UserID = &identity.UserID

	reports, err := r.Reports.ListReports(c.UserContext(), query)
	if err != nil {
		return reportError(c, r.Log, err)
	}
	return c.JSON(reporting.FilterReports(reports, filter))
}

// ListAll is the reviewer view over every report, with an extra department filter.
func (r *ReportController) ListAll(c *fiber.Ctx) error {
	query, filter, err := listParams(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	query.Department = strings.TrimSpace(c.Query("department"))

	reports, err := r.Reports.ListReports(c.UserContext(), query)
	if err != nil {
		return reportError(c, r.Log, err)
	}
	return c.JSON(reporting.FilterReports(reports, filter))
}

// Current returns the caller's report for this week.
func (r *ReportController) Current(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	reports, err := r.Reports.ListReports(c.UserContext(), models.ReportQuery{UserID: &identity.UserID})
	if err != nil {
		return reportError(c, r.Log, err)
	}

	period := reporting.CurrentPeriod(now(r.Now))
	report, err := reporting.FindForPeriod(reports, period)
	if err != nil {
		return reportError(c, r.Log, err)
	}
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "No report for the current week",
			"period": period,
			"key":    period.Key(),
		})
	}
	return c.JSON(report)
}

// Calendar groups the caller's reports by week, oldest first.
func (r *ReportController) Calendar(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	reports, err := r.Reports.ListReports(c.UserContext(), models.ReportQuery{UserID: &identity.UserID})
	if err != nil {
		return reportError(c, r.Log, err)
	}
	groups := reporting.GroupByPeriod(reports)
	reporting.SortGroups(groups)
	if groups == nil {
		groups = []reporting.Group{}
	}
	return c.JSON(groups)
}

func (r *ReportController) Get(c *fiber.Ctx) error {
	report, err := r.load(c)
	if err != nil {
		return reportError(c, r.Log, err)
	}
	identity := middleware.CurrentIdentity(c)
	if !identity.CanAccess(report.UserID) && !identity.Reviewer() {
		return errorJSON(c, fiber.StatusForbidden, "Not authorized")
	}
	return c.JSON(report)
}

// Update edits content and/or moves the report between draft and
// submitted. New attachments are appended.
func (r *ReportController) Update(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	ctx := c.UserContext()

	report, err := r.load(c)
	if err != nil {
		return reportError(c, r.Log, err)
	}
	if !identity.CanAccess(report.UserID) {
		return errorJSON(c, fiber.StatusForbidden, "Not authorized")
	}

	req := &models.UpdateReportRequest{}
	if err := c.BodyParser(req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	files, form, err := uploadedFiles(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid multipart form")
	}
	if form != nil {
		req.Tags = formTags(form)
	}
	if err := validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	actor := reporting.ActorOf(identity)
	at := now(r.Now)
	updated := report

	if req.ChangesContent() || len(files) > 0 {
		updated, err = reporting.ApplyEdit(updated, *req, actor)
		if err != nil {
			return reportError(c, r.Log, err)
		}
	}
	if updated.Period() != report.Period() {
		if err := r.checkPeriodFree(c, updated); err != nil {
			return err
		}
	}
	if req.Status != nil {
		action, _ := reporting.StatusAction(*req.Status)
		updated, err = reporting.TransitionAt(updated, action, actor, at)
		if err != nil {
			return reportError(c, r.Log, err)
		}
	}

	added, err := r.storeFiles(ctx, files)
	if err != nil {
		return r.uploadError(c, err)
	}
	if len(added) > 0 {
		updated.Attachments = append(append([]models.Attachment{}, updated.Attachments...), added...)
	}

	updated.UpdatedAt = at
	if err := r.Reports.UpdateReport(ctx, &updated, report.UpdatedAt); err != nil {
		r.removeFiles(ctx, added)
		return reportError(c, r.Log, err)
	}

	details := map[string]interface{}{"status": updated.Status}
	if len(added) > 0 {
		details["attachments_added"] = len(added)
	}
	r.written(c, identity.UserID, "update", updated.ID, details)
	return c.JSON(updated)
}

func (r *ReportController) checkPeriodFree(c *fiber.Ctx, updated models.Report) error {
	p := updated.Period()
	if !reporting.ValidPeriod(p) {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("%s is not a valid ISO week", p.Key()))
	}
	owned, err := r.Reports.ListReports(c.UserContext(), models.ReportQuery{UserID: &updated.UserID})
	if err != nil {
		return reportError(c, r.Log, err)
	}
	others := owned[:0:0]
	for _, o := range owned {
		if o.ID != updated.ID {
			others = append(others, o)
		}
	}
	if existing, _ := reporting.FindForPeriod(others, p); existing != nil {
		return reportError(c, r.Log, &reporting.Error{Kind: reporting.ErrDuplicatePeriod, Period: p})
	}
	return nil
}

func (r *ReportController) Delete(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	ctx := c.UserContext()

	report, err := r.load(c)
	if err != nil {
		return reportError(c, r.Log, err)
	}
	if !identity.CanAccess(report.UserID) {
		return errorJSON(c, fiber.StatusForbidden, "Not authorized")
	}

	if err := r.Reports.DeleteReport(ctx, report.ID); err != nil {
		return reportError(c, r.Log, err)
	}
	r.removeFiles(ctx, report.Attachments)

	r.written(c, identity.UserID, "delete", report.ID, map[string]interface{}{
		"year": report.Year, "week": report.Week,
	})
	return c.JSON(fiber.Map{"message": "Report removed"})
}

// EmailReport sends the report summary to the owner's supervisor, or to
// the owner when no supervisor is on file.
func (r *ReportController) EmailReport(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	report, err := r.load(c)
	if err != nil {
		return reportError(c, r.Log, err)
	}
	if !identity.CanAccess(report.UserID) && !identity.Reviewer() {
		return errorJSON(c, fiber.StatusForbidden, "Not authorized")
	}

	owner, err := r.Users.GetUserByID(c.UserContext(), report.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "Report owner not found")
	}
	to := owner.Email
	if owner.SupervisorEmail != nil && *owner.SupervisorEmail != "" {
		to = *owner.SupervisorEmail
	}

	subject := fmt.Sprintf("Weekly report %s from %s", report.Period().Key(), owner.Name)
	if err := r.Mailer.Send(to, subject, reportSummary(report, owner)); err != nil {
		r.Log.WithError(err).WithField("report", report.ID).Warn("report email not sent")
		return errorJSON(c, fiber.StatusBadGateway, "Failed to send email")
	}

	recordAudit(c, r.Audit, r.Log, identity.UserID, "email", report.ID.String(), map[string]interface{}{"to": to})
	return c.JSON(fiber.Map{"message": "Report sent", "to": to})
}

func reportSummary(report models.Report, owner models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly report for %s (week %d, %d)\n", owner.Name, report.Week, report.Year)
	fmt.Fprintf(&b, "Department: %s\nStatus: %s\n\n", owner.Department, report.Status)
	fmt.Fprintf(&b, "Achievements:\n%s\n\n", report.Achievements)
	fmt.Fprintf(&b, "Challenges:\n%s\n\n", report.Challenges)
	fmt.Fprintf(&b, "Next week:\n%s\n", report.NextWeekPlan)
	if len(report.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s\n", strings.Join(report.Tags, ", "))
	}
	for _, a := range report.Attachments {
		fmt.Fprintf(&b, "Attachment: %s (%s)\n", a.Name, a.URL)
	}
	return b.String()
}

func (r *ReportController) load(c *fiber.Ctx) (models.Report, error) {
	id, err := parseReportID(c)
	if err != nil {
		return models.Report{}, err
	}
	return r.Reports.GetReport(c.UserContext(), id)
}

func parseReportID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, errBadReportID
	}
	return id, nil
}

func (r *ReportController) uploadError(c *fiber.Ctx, err error) error {
	var tooLarge *fileTooLargeError
	if errors.As(err, &tooLarge) {
		return errorJSON(c, fiber.StatusBadRequest, tooLarge.Error())
	}
	r.Log.WithError(err).Error("store attachment")
	return errorJSON(c, fiber.StatusInternalServerError, "Failed to store attachment")
}

// written records the audit entry and drops cached stats after a mutation.
func (r *ReportController) written(c *fiber.Ctx, userID uuid.UUID, action string, reportID uuid.UUID, details map[string]interface{}) {
	recordAudit(c, r.Audit, r.Log, userID, action, reportID.String(), details)
	if r.Cache != nil {
		if err := r.Cache.Invalidate(c.UserContext()); err != nil {
			r.Log.WithError(err).Warn("stats cache invalidation failed")
		}
	}
}

func ownerOf(identity models.Identity) *models.ReportOwner {
	return &models.ReportOwner{
		ID:         identity.UserID,
		Name:       identity.Name,
		Email:      identity.Email,
		Department: identity.Department,
	}
}

// listParams reads the shared list filters. start and end accept a date
// or an RFC 3339 timestamp; end dates include the whole day.
func listParams(c *fiber.Ctx) (models.ReportQuery, reporting.Filter, error) {
	var query models.ReportQuery
	filter := reporting.Filter{
		Text: c.Query("q"),
		Tags: c.Query("tags"),
	}

	if s := strings.TrimSpace(c.Query("status")); s != "" {
		status := models.ReportStatus(s)
		if !status.Valid() {
			return query, filter, fmt.Errorf("unknown status %q", s)
		}
		filter.Status = status
	}

	if s := strings.TrimSpace(c.Query("start")); s != "" {
		t, _, err := parseDateParam(s)
		if err != nil {
			return query, filter, fmt.Errorf("invalid start: %s", s)
		}
		query.Start = &t
	}
	if s := strings.TrimSpace(c.Query("end")); s != "" {
		t, dateOnly, err := parseDateParam(s)
		if err != nil {
			return query, filter, fmt.Errorf("invalid end: %s", s)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Microsecond)
		}
		query.End = &t
	}
	return query, filter, nil
}

func parseDateParam(s string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, false, err
}
