package reporting

import (
	"strings"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/google/uuid"
)

type Action string

const (
	ActionSaveDraft   Action = "save_draft"
	ActionSubmit      Action = "submit"
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionEditContent Action = "edit_content"
)

// Actor is the caller of a transition. Reviewer is granted by the caller's
// role and only consulted for approve and reject.
type Actor struct {
	ID       uuid.UUID
	Reviewer bool
}

func ActorOf(identity models.Identity) Actor {
	return Actor{ID: identity.UserID, Reviewer: identity.Reviewer()}
}

type rule struct {
	from     []models.ReportStatus
	reviewer bool
}

var transitions = map[Action]rule{
	ActionSaveDraft:   {from: []models.ReportStatus{models.StatusDraft}},
	ActionSubmit:      {from: []models.ReportStatus{models.StatusDraft, models.StatusSubmitted}},
	ActionApprove:     {from: []models.ReportStatus{models.StatusSubmitted}, reviewer: true},
	ActionReject:      {from: []models.ReportStatus{models.StatusSubmitted}, reviewer: true},
	ActionEditContent: {from: []models.ReportStatus{models.StatusDraft, models.StatusSubmitted}},
}

func (r rule) allows(s models.ReportStatus) bool {
	for _, f := range r.from {
		if f == s {
			return true
		}
	}
	return false
}

// Transition applies action to a copy of report and returns it.
func Transition(report models.Report, action Action, actor Actor) (models.Report, error) {
	return TransitionAt(report, action, actor, time.Now().UTC())
}

// TransitionAt is Transition with an explicit clock. For approve and reject
// the reviewer's comment is read from report.ReviewComment; it is recorded in
// the approval history and kept on the report only when rejecting.
func TransitionAt(report models.Report, action Action, actor Actor, at time.Time) (models.Report, error) {
	from := report.Status

	if action == ActionEditContent && from.Terminal() {
		return report, &Error{Kind: ErrReportLocked, Action: action, From: from}
	}

	rl, ok := transitions[action]
	if !ok || !rl.allows(from) {
		return report, &Error{Kind: ErrInvalidTransition, Action: action, From: from}
	}
	if rl.reviewer && !actor.Reviewer {
		return report, &Error{Kind: ErrUnauthorized, Action: action, From: from}
	}

	switch action {
	case ActionSaveDraft:
		report.Status = models.StatusDraft
	case ActionSubmit:
		if !Complete(report) {
			return report, &Error{Kind: ErrIncompleteReport, Action: action, From: from}
		}
		report.Status = models.StatusSubmitted
		if report.SubmittedAt == nil {
			ts := at
			report.SubmittedAt = &ts
		}
	case ActionApprove:
		report.Approvals = appendApproval(report.Approvals, models.Approval{
			By: actor.ID, Action: models.StatusApproved, Comment: strings.TrimSpace(report.ReviewComment), At: at,
		})
		report.Status = models.StatusApproved
		report.ReviewComment = ""
	case ActionReject:
		comment := strings.TrimSpace(report.ReviewComment)
		if comment == "" {
			return report, &Error{Kind: ErrMissingComment, Action: action, From: from}
		}
		report.Approvals = appendApproval(report.Approvals, models.Approval{
			By: actor.ID, Action: models.StatusRejected, Comment: comment, At: at,
		})
		report.Status = models.StatusRejected
		report.ReviewComment = comment
	}
	return report, nil
}

func appendApproval(history []models.Approval, a models.Approval) []models.Approval {
	out := make([]models.Approval, 0, len(history)+1)
	out = append(out, history...)
	return append(out, a)
}

// Complete reports whether the free-text sections required for submission are filled in.
func Complete(r models.Report) bool {
	return strings.TrimSpace(r.Achievements) != "" &&
		strings.TrimSpace(r.Challenges) != "" &&
		strings.TrimSpace(r.NextWeekPlan) != ""
}

// NewReport builds a draft owned by ownerID for period p.
func NewReport(ownerID uuid.UUID, p models.Period, req models.CreateReportRequest, at time.Time) models.Report {
	month := req.Month
	if month == 0 {
		month = int(WeekStart(p).AddDate(0, 0, 3).Month())
	}
	return models.Report{
		ID:           uuid.New(),
		UserID:       ownerID,
		Year:         p.Year,
		Week:         p.Week,
		Month:        month,
		Status:       models.StatusDraft,
		Achievements: req.Achievements,
		Challenges:   req.Challenges,
		NextWeekPlan: req.NextWeekPlan,
		Tags:         NormalizeTags(req.Tags),
		Attachments:  []models.Attachment{},
		Approvals:    []models.Approval{},
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// ApplyEdit checks edit_content and then merges the non-nil fields of req
// into a copy of report. Status changes are not part of an edit. A report
// past draft must keep every required section filled in.
func ApplyEdit(report models.Report, req models.UpdateReportRequest, actor Actor) (models.Report, error) {
	report, err := Transition(report, ActionEditContent, actor)
	if err != nil {
		return report, err
	}
	if req.Year != nil {
		report.Year = *req.Year
	}
	if req.Week != nil {
		report.Week = *req.Week
	}
	if req.Month != nil {
		report.Month = *req.Month
	}
	if req.Achievements != nil {
		report.Achievements = *req.Achievements
	}
	if req.Challenges != nil {
		report.Challenges = *req.Challenges
	}
	if req.NextWeekPlan != nil {
		report.NextWeekPlan = *req.NextWeekPlan
	}
	if req.Tags != nil {
		report.Tags = NormalizeTags(req.Tags)
	}
	if report.Status != models.StatusDraft && !Complete(report) {
		return report, &Error{Kind: ErrIncompleteReport, Action: ActionEditContent, From: report.Status}
	}
	return report, nil
}

// StatusAction maps a requested status on create/update to its action.
func StatusAction(status string) (Action, bool) {
	switch models.ReportStatus(status) {
	case models.StatusDraft:
		return ActionSaveDraft, true
	case models.StatusSubmitted:
		return ActionSubmit, true
	}
	return "", false
}
