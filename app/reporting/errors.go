package reporting

import (
	"errors"
	"fmt"

	"github.com/gilanghuda/weekly-report-backend/app/models"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMissingComment    = errors.New("rejection requires a comment")
	ErrReportLocked      = errors.New("report is locked")
	ErrUnauthorized      = errors.New("reviewer capability required")
	ErrDuplicatePeriod   = errors.New("duplicate report for period")
	ErrIncompleteReport  = errors.New("achievements, challenges and next week plan are required")
)

// Error describes a rejected lifecycle operation. Kind is one of the
// sentinel errors above and is what errors.Is matches against.
type Error struct {
	Kind   error
	Action Action
	From   models.ReportStatus
	Period models.Period
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInvalidTransition:
		return fmt.Sprintf("cannot %s a %s report", e.Action, e.From)
	case ErrReportLocked:
		return fmt.Sprintf("%s reports can no longer be edited", e.From)
	case ErrDuplicatePeriod:
		return fmt.Sprintf("more than one report exists for %s", e.Period.Key())
	case ErrUnauthorized:
		return fmt.Sprintf("%s requires reviewer capability", e.Action)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Kind }
