package reporting

import (
	"errors"
	"testing"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner    = Actor{ID: uuid.New()}
	reviewer = Actor{ID: uuid.New(), Reviewer: true}
)

func filledReport(status models.ReportStatus) models.Report {
	return models.Report{
		ID:           uuid.New(),
		UserID:       owner.ID,
		Year:         2024,
		Week:         10,
		Status:       status,
		Achievements: "shipped the importer",
		Challenges:   "flaky staging database",
		NextWeekPlan: "load testing",
	}
}

var allStatuses = []models.ReportStatus{
	models.StatusDraft, models.StatusSubmitted, models.StatusApproved, models.StatusRejected,
}

func TestApproveRequiresSubmitted(t *testing.T) {
	for _, status := range allStatuses {
		t.Run(string(status), func(t *testing.T) {
			got, err := Transition(filledReport(status), ActionApprove, reviewer)
			if status == models.StatusSubmitted {
				require.NoError(t, err)
				assert.Equal(t, models.StatusApproved, got.Status)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidTransition), "got %v", err)
		})
	}
}

func TestRejectWithoutComment(t *testing.T) {
	for _, comment := range []string{"", "   "} {
		r := filledReport(models.StatusSubmitted)
		r.ReviewComment = comment

		got, err := Transition(r, ActionReject, reviewer)
		assert.True(t, errors.Is(err, ErrMissingComment))
		assert.Equal(t, models.StatusSubmitted, got.Status)
	}
}

func TestRejectRecordsComment(t *testing.T) {
	r := filledReport(models.StatusSubmitted)
	r.ReviewComment = "  needs numbers  "
	at := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)

	got, err := TransitionAt(r, ActionReject, reviewer, at)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Equal(t, "needs numbers", got.ReviewComment)
	require.Len(t, got.Approvals, 1)
	assert.Equal(t, models.Approval{By: reviewer.ID, Action: models.StatusRejected, Comment: "needs numbers", At: at}, got.Approvals[0])
	assert.Empty(t, r.Approvals, "input report must not be mutated")
}

func TestApproveClearsReviewComment(t *testing.T) {
	r := filledReport(models.StatusSubmitted)
	r.ReviewComment = "great week"

	got, err := Transition(r, ActionApprove, reviewer)
	require.NoError(t, err)
	assert.Empty(t, got.ReviewComment)
	require.Len(t, got.Approvals, 1)
	assert.Equal(t, "great week", got.Approvals[0].Comment)
	assert.Equal(t, models.StatusApproved, got.Approvals[0].Action)
}

func TestReviewRequiresCapability(t *testing.T) {
	for _, action := range []Action{ActionApprove, ActionReject} {
		r := filledReport(models.StatusSubmitted)
		r.ReviewComment = "comment"

		_, err := Transition(r, action, owner)
		assert.True(t, errors.Is(err, ErrUnauthorized), "%s: got %v", action, err)
	}
}

func TestTerminalStates(t *testing.T) {
	for _, status := range []models.ReportStatus{models.StatusApproved, models.StatusRejected} {
		r := filledReport(status)
		r.ReviewComment = "late comment"

		_, err := Transition(r, ActionEditContent, owner)
		assert.True(t, errors.Is(err, ErrReportLocked), "%s edit: got %v", status, err)

		for _, action := range []Action{ActionSaveDraft, ActionSubmit, ActionApprove, ActionReject} {
			_, err := Transition(r, action, reviewer)
			assert.True(t, errors.Is(err, ErrInvalidTransition), "%s %s: got %v", status, action, err)
		}
	}
}

func TestSubmittedCannotReturnToDraft(t *testing.T) {
	_, err := Transition(filledReport(models.StatusSubmitted), ActionSaveDraft, owner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, "cannot save_draft a submitted report", err.Error())

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, ActionSaveDraft, terr.Action)
	assert.Equal(t, models.StatusSubmitted, terr.From)
}

func TestUnknownAction(t *testing.T) {
	_, err := Transition(filledReport(models.StatusDraft), Action("archive"), owner)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestSubmitSetsSubmittedAtOnce(t *testing.T) {
	first := time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	r, err := TransitionAt(filledReport(models.StatusDraft), ActionSubmit, owner, first)
	require.NoError(t, err)
	require.NotNil(t, r.SubmittedAt)
	assert.Equal(t, first, *r.SubmittedAt)

	r, err = TransitionAt(r, ActionSubmit, owner, second)
	require.NoError(t, err)
	assert.Equal(t, first, *r.SubmittedAt)
}

func TestSubmitRequiresContent(t *testing.T) {
	r := filledReport(models.StatusDraft)
	r.NextWeekPlan = " "

	_, err := Transition(r, ActionSubmit, owner)
	assert.True(t, errors.Is(err, ErrIncompleteReport))

	_, err = Transition(r, ActionSaveDraft, owner)
	assert.NoError(t, err, "drafts may be incomplete")
}

func TestSubmitApproveThenEditScenario(t *testing.T) {
	reports := []models.Report{filledReport(models.StatusDraft)}

	r, err := Transition(reports[0], ActionSubmit, owner)
	require.NoError(t, err)
	r, err = Transition(r, ActionApprove, reviewer)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, r.Status)
	assert.NotNil(t, r.SubmittedAt)

	_, err = Transition(r, ActionEditContent, owner)
	assert.True(t, errors.Is(err, ErrReportLocked))
}

func TestApplyEdit(t *testing.T) {
	r := filledReport(models.StatusSubmitted)
	plan := "write the runbook"
	week := 11

	got, err := ApplyEdit(r, models.UpdateReportRequest{
		NextWeekPlan: &plan,
		Week:         &week,
		Tags:         []string{" ops ", "ops", "docs"},
	}, owner)
	require.NoError(t, err)
	assert.Equal(t, plan, got.NextWeekPlan)
	assert.Equal(t, 11, got.Week)
	assert.Equal(t, r.Achievements, got.Achievements)
	assert.Equal(t, []string{"ops", "docs"}, got.Tags)
	assert.Equal(t, models.StatusSubmitted, got.Status)

	_, err = ApplyEdit(filledReport(models.StatusApproved), models.UpdateReportRequest{NextWeekPlan: &plan}, owner)
	assert.True(t, errors.Is(err, ErrReportLocked))
}

func TestApplyEditKeepsSubmittedComplete(t *testing.T) {
	empty := "  "
	_, err := ApplyEdit(filledReport(models.StatusSubmitted), models.UpdateReportRequest{Achievements: &empty}, owner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteReport))

	got, err := ApplyEdit(filledReport(models.StatusDraft), models.UpdateReportRequest{Achievements: &empty}, owner)
	require.NoError(t, err)
	assert.Equal(t, empty, got.Achievements)
	assert.False(t, Complete(got))
}

func TestNewReport(t *testing.T) {
	at := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)
	r := NewReport(owner.ID, models.Period{Year: 2025, Week: 1}, models.CreateReportRequest{
		Achievements: "a",
		Tags:         []string{"x", "", "x"},
	}, at)

	assert.Equal(t, models.StatusDraft, r.Status)
	assert.Equal(t, owner.ID, r.UserID)
	assert.Equal(t, models.Period{Year: 2025, Week: 1}, r.Period())
	assert.Equal(t, 1, r.Month, "month follows the week's thursday")
	assert.Equal(t, []string{"x"}, r.Tags)
	assert.Nil(t, r.SubmittedAt)
	assert.NotEqual(t, uuid.Nil, r.ID)
}

func TestStatusAction(t *testing.T) {
	a, ok := StatusAction("draft")
	assert.True(t, ok)
	assert.Equal(t, ActionSaveDraft, a)

	a, ok = StatusAction("submitted")
	assert.True(t, ok)
	assert.Equal(t, ActionSubmit, a)

	_, ok = StatusAction("approved")
	assert.False(t, ok)
}
