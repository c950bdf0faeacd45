package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type SlackPoster interface {
	Post(text string) error
}

type Pusher interface {
	Send(userID uuid.UUID, payload interface{}) error
}

// ReviewDispatcher fans review outcomes out to email, Slack and the owner's
// open websockets. Handlers publish and return; delivery happens on Run.
type ReviewDispatcher struct {
	events chan models.ReviewEvent
	mailer Mailer
	slack  SlackPoster
	push   Pusher
	log    *logrus.Logger
}

func NewReviewDispatcher(buffer int, mailer Mailer, slack SlackPoster, push Pusher, log *logrus.Logger) *ReviewDispatcher {
	if buffer <= 0 {
		buffer = 100
	}
	return &ReviewDispatcher{
		events: make(chan models.ReviewEvent, buffer),
		mailer: mailer,
		slack:  slack,
		push:   push,
		log:    log,
	}
}

// Publish queues ev. When the queue is full the event is dropped; the
// review itself is already stored.
func (d *ReviewDispatcher) Publish(ev models.ReviewEvent) {
	select {
	case d.events <- ev:
	default:
		d.log.WithField("report", ev.ReportID).Warn("review notification queue full, dropping event")
	}
}

// Run delivers events until ctx is cancelled, then flushes what is queued.
func (d *ReviewDispatcher) Run(ctx context.Context) {
	for {
		select {
		case ev := <-d.events:
			d.deliver(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-d.events:
					d.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (d *ReviewDispatcher) deliver(ev models.ReviewEvent) {
	entry := d.log.WithFields(logrus.Fields{"report": ev.ReportID, "status": ev.Status})

	if d.mailer != nil && ev.OwnerEmail != "" {
		subject, body := reviewEmail(ev)
		if err := d.mailer.Send(ev.OwnerEmail, subject, body); err != nil {
			entry.WithError(err).Warn("review email not sent")
		}
	}

	if d.slack != nil {
		if err := d.slack.Post(reviewSlackText(ev)); err != nil {
			entry.WithError(err).Warn("slack notification failed")
		}
	}

	if d.push != nil {
		payload := map[string]interface{}{
			"event":     "report_reviewed",
			"report_id": ev.ReportID,
			"status":    ev.Status,
			"comment":   ev.Comment,
		}
		if err := d.push.Send(ev.OwnerID, payload); err != nil && !errors.Is(err, utils.ErrNoConnection) {
			entry.WithError(err).Warn("websocket push failed")
		}
	}
}

func reviewEmail(ev models.ReviewEvent) (string, string) {
	subject := fmt.Sprintf("Your report for week %d has been %s", ev.Period.Week, ev.Status)
	body := fmt.Sprintf("Hi %s,\n\nYour report (week %d, %d) was %s by %s",
		ev.OwnerName, ev.Period.Week, ev.Period.Year, ev.Status, ev.Reviewer)
	if ev.Comment != "" {
		body += "\n\nComment: " + ev.Comment
	}
	return subject, body
}

func reviewSlackText(ev models.ReviewEvent) string {
	if ev.Status == models.StatusRejected {
		return fmt.Sprintf("Report %s rejected by %s: %s", ev.ReportID, ev.Reviewer, ev.Comment)
	}
	return fmt.Sprintf("Report %s %s by %s", ev.ReportID, ev.Status, ev.Reviewer)
}
