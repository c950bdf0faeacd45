package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	StatusDraft     ReportStatus = "draft"
	StatusSubmitted ReportStatus = "submitted"
	StatusApproved  ReportStatus = "approved"
	StatusRejected  ReportStatus = "rejected"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports no longer accept content edits.
func (s ReportStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Period identifies the ISO week a report covers.
type Period struct {
	Year int `json:"year" yaml:"year"`
	Week int `json:"week" yaml:"week"`
}

// Key renders the period as "2024-W05". The week is zero-padded so that
// lexical and chronological order agree.
func (p Period) Key() string {
	return fmt.Sprintf("%d-W%02d", p.Year, p.Week)
}

func (p Period) String() string { return p.Key() }

// Before reports whether p is chronologically earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Week < o.Week
}

type Attachment struct {
	Key      string `json:"key" yaml:"key"`
	Name     string `json:"name" yaml:"name"`
	URL      string `json:"url" yaml:"url"`
	MimeType string `json:"mime_type" yaml:"mime_type"`
	Size     int64  `json:"size" yaml:"size"`
}

type Approval struct {
	By      uuid.UUID    `json:"by" yaml:"by"`
	Action  ReportStatus `json:"action" yaml:"action"`
	Comment string       `json:"comment,omitempty" yaml:"comment,omitempty"`
	At      time.Time    `json:"at" yaml:"at"`
}

// ReportOwner is the owner summary attached to reports on reads.
type ReportOwner struct {
	ID         uuid.UUID `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Email      string    `json:"email" yaml:"email"`
	Username   *string   `json:"username,omitempty" yaml:"username,omitempty"`
	Department string    `json:"department" yaml:"department"`
}

type Report struct {
	ID            uuid.UUID    `json:"id" yaml:"id"`
	UserID        uuid.UUID    `json:"user_id" yaml:"user_id"`
	Year          int          `json:"year" yaml:"year"`
	Week          int          `json:"week" yaml:"week"`
	Month         int          `json:"month,omitempty" yaml:"month,omitempty"`
	Status        ReportStatus `json:"status" yaml:"status"`
	Achievements  string       `json:"achievements" yaml:"achievements"`
	Challenges    string       `json:"challenges" yaml:"challenges"`
	NextWeekPlan  string       `json:"next_week_plan" yaml:"next_week_plan"`
	Tags          []string     `json:"tags" yaml:"tags"`
	Attachments   []Attachment `json:"attachments" yaml:"attachments"`
	Approvals     []Approval   `json:"approvals" yaml:"approvals"`
	ReviewComment string       `json:"review_comment,omitempty" yaml:"review_comment,omitempty"`
	CreatedAt     time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" yaml:"updated_at"`
	SubmittedAt   *time.Time   `json:"submitted_at,omitempty" yaml:"submitted_at,omitempty"`
	User          *ReportOwner `json:"user,omitempty" yaml:"user,omitempty"`
}

func (r Report) Period() Period {
	return Period{Year: r.Year, Week: r.Week}
}

// ReportQuery narrows report listings at the storage layer. Text, status
// and tag matching happen in memory after the fetch.
type ReportQuery struct {
	UserID     *uuid.UUID
	Department string
	Start      *time.Time
	End        *time.Time
}

type CreateReportRequest struct {
	Week         int     `json:"week" form:"week" validate:"omitempty,min=1,max=53"`
	Year         int     `json:"year" form:"year" validate:"omitempty,min=2000,max=2100"`
	Month        int     `json:"month" form:"month" validate:"omitempty,min=1,max=12"`
	Achievements string  `json:"achievements" form:"achievements"`
	Challenges   string  `json:"challenges" form:"challenges"`
	NextWeekPlan string  `json:"next_week_plan" form:"next_week_plan"`
	Status       string  `json:"status" form:"status" validate:"omitempty,oneof=draft submitted"`
	Tags         TagList `json:"tags" form:"-"`
}

// UpdateReportRequest uses pointers so absent fields stay untouched.
type UpdateReportRequest struct {
	Week         *int    `json:"week" form:"week" validate:"omitempty,min=1,max=53"`
	Year         *int    `json:"year" form:"year" validate:"omitempty,min=2000,max=2100"`
	Month        *int    `json:"month" form:"month" validate:"omitempty,min=1,max=12"`
	Achievements *string `json:"achievements" form:"achievements"`
	Challenges   *string `json:"challenges" form:"challenges"`
	NextWeekPlan *string `json:"next_week_plan" form:"next_week_plan"`
	Status       *string `json:"status" form:"status" validate:"omitempty,oneof=draft submitted"`
	Tags         TagList `json:"tags" form:"-"`
}

// ChangesContent reports whether the request touches anything besides status.
func (r UpdateReportRequest) ChangesContent() bool {
	return r.Week != nil || r.Year != nil || r.Month != nil ||
		r.Achievements != nil || r.Challenges != nil || r.NextWeekPlan != nil ||
		r.Tags != nil
}

type ReviewRequest struct {
	Comment string `json:"comment" validate:"lte=2000"`
}

// TagList accepts either a JSON array or a comma-separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tags must be a list or a comma-separated string")
	}
	*t = strings.Split(s, ",")
	return nil
}
