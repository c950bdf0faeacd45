package models

import (
	"time"

	"github.com/google/uuid"
)

type WeeklyCount struct {
	Year      int `json:"year" yaml:"year"`
	Week      int `json:"week" yaml:"week"`
	Total     int `json:"total" yaml:"total"`
	Submitted int `json:"submitted" yaml:"submitted"`
}

type DepartmentCount struct {
	Department string `json:"department" yaml:"department"`
	Total      int    `json:"total" yaml:"total"`
	Submitted  int    `json:"submitted" yaml:"submitted"`
}

type OverallCount struct {
	Total          int     `json:"total" yaml:"total"`
	Submitted      int     `json:"submitted" yaml:"submitted"`
	CompletionRate float64 `json:"completion_rate" yaml:"completion_rate"`
}

// ReportStats is the payload of GET /api/reports/stats. A report counts as
// submitted once it has left draft.
type ReportStats struct {
	Weekly      []WeeklyCount     `json:"weekly" yaml:"weekly"`
	Departments []DepartmentCount `json:"departments" yaml:"departments"`
	Overall     OverallCount      `json:"overall" yaml:"overall"`
}

type TeamMember struct {
	UserID           uuid.UUID `json:"user_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Department       string    `json:"department"`
	TotalReports     int       `json:"total_reports"`
	SubmittedReports int       `json:"submitted_reports"`
}

type AuditEntry struct {
	UserID    string                 `json:"user_id" bson:"user_id"`
	Action    string                 `json:"action" bson:"action"`
	ReportID  string                 `json:"report_id,omitempty" bson:"report_id,omitempty"`
	Details   map[string]interface{} `json:"details" bson:"details"`
	IP        string                 `json:"ip,omitempty" bson:"ip,omitempty"`
	CreatedAt time.Time              `json:"created_at" bson:"created_at"`
}

// ReviewEvent is emitted after a report is approved or rejected.
type ReviewEvent struct {
	ReportID   uuid.UUID    `json:"report_id"`
	Period     Period       `json:"period"`
	Status     ReportStatus `json:"status"`
	Comment    string       `json:"comment,omitempty"`
	Reviewer   string       `json:"reviewer"`
	OwnerID    uuid.UUID    `json:"owner_id"`
	OwnerName  string       `json:"owner_name"`
	OwnerEmail string       `json:"owner_email"`
}
