package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/app/reporting"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ReportQueries struct {
	DB *sql.DB
}

const reportSelect = `SELECT r.id, r.user_id, r.year, r.week, r.month, r.status, r.achievements, r.challenges,
	r.next_week_plan, r.tags, r.attachments, r.approvals, r.review_comment, r.created_at, r.updated_at, r.submitted_at,
	u.uid, u.name, u.email, u.username, u.department
	FROM reports r LEFT JOIN users u ON u.uid = r.user_id`

func scanReport(row rowScanner) (models.Report, error) {
	var (
		r           models.Report
		attachments []byte
		approvals   []byte
		ownerID     uuid.NullUUID
		ownerName   sql.NullString
		ownerEmail  sql.NullString
		ownerDept   sql.NullString
		username    *string
	)
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Year,
		&r.Week,
		&r.Month,
		&r.Status,
		&r.Achievements,
		&r.Challenges,
		&r.NextWeekPlan,
		pq.Array(&r.Tags),
		&attachments,
		&approvals,
		&r.ReviewComment,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.SubmittedAt,
		&ownerID,
		&ownerName,
		&ownerEmail,
		&username,
		&ownerDept,
	)
	if err != nil {
		return r, err
	}

	if err := json.Unmarshal(attachments, &r.Attachments); err != nil {
		return r, fmt.Errorf("decode attachments: %w", err)
	}
	if err := json.Unmarshal(approvals, &r.Approvals); err != nil {
		return r, fmt.Errorf("decode approvals: %w", err)
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Attachments == nil {
		r.Attachments = []models.Attachment{}
	}
	if r.Approvals == nil {
		r.Approvals = []models.Approval{}
	}
	if ownerID.Valid {
		r.User = &models.ReportOwner{
			ID:         ownerID.UUID,
			Name:       ownerName.String,
			Email:      ownerEmail.String,
			Username:   username,
			Department: ownerDept.String,
		}
	}
	return r, nil
}

func encodeJSONColumns(r *models.Report) ([]byte, []byte, error) {
	attachments := r.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	approvals := r.Approvals
	if approvals == nil {
		approvals = []models.Approval{}
	}
	a, err := json.Marshal(attachments)
	if err != nil {
		return nil, nil, fmt.Errorf("encode attachments: %w", err)
	}
	b, err := json.Marshal(approvals)
	if err != nil {
		return nil, nil, fmt.Errorf("encode approvals: %w", err)
	}
	return a, b, nil
}

func (q *ReportQueries) CreateReport(ctx context.Context, r *models.Report) error {
	attachments, approvals, err := encodeJSONColumns(r)
	if err != nil {
		return err
	}

	query := `INSERT INTO reports (id, user_id, year, week, month, status, achievements, challenges, next_week_plan,
			  tags, attachments, approvals, review_comment, created_at, updated_at, submitted_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = q.DB.ExecContext(ctx, query,
		r.ID,
		r.UserID,
		r.Year,
		r.Week,
		r.Month,
		r.Status,
		r.Achievements,
		r.Challenges,
		r.NextWeekPlan,
		pq.Array(r.Tags),
		attachments,
		approvals,
		r.ReviewComment,
		r.CreatedAt,
		r.UpdatedAt,
		r.SubmittedAt,
	)
	if err != nil {
		return reportWriteError("create", r.Period(), err)
	}
	return nil
}

func (q *ReportQueries) GetReport(ctx context.Context, id uuid.UUID) (models.Report, error) {
	r, err := scanReport(q.DB.QueryRowContext(ctx, reportSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, ErrNotFound
		}
		return r, fmt.Errorf("unable to get report: %w", err)
	}
	return r, nil
}

// ListReports returns reports newest first. Start and End bound created_at.
func (q *ReportQueries) ListReports(ctx context.Context, filter models.ReportQuery) ([]models.Report, error) {
	reports := []models.Report{}
	where := []string{}
	args := []interface{}{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.UserID != nil {
		add("r.user_id = $%d", *filter.UserID)
	}
	if filter.Department != "" {
		add("u.department = $%d", filter.Department)
	}
	if filter.Start != nil {
		add("r.created_at >= $%d", *filter.Start)
	}
	if filter.End != nil {
		add("r.created_at <= $%d", *filter.End)
	}

	query := reportSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id"

	rows, err := q.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return reports, fmt.Errorf("unable to list reports: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return reports, fmt.Errorf("error scanning report row: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return reports, fmt.Errorf("error iterating report rows: %w", err)
	}
	return reports, nil
}

// UpdateReport persists r only if the stored row still carries prev as its
// updated_at. r.UpdatedAt must already hold the new timestamp.
func (q *ReportQueries) UpdateReport(ctx context.Context, r *models.Report, prev time.Time) error {
	attachments, approvals, err := encodeJSONColumns(r)
	if err != nil {
		return err
	}

	query := `UPDATE reports SET year = $1, week = $2, month = $3, status = $4, achievements = $5, challenges = $6,
			  next_week_plan = $7, tags = $8, attachments = $9, approvals = $10, review_comment = $11,
			  submitted_at = $12, updated_at = $13
			  WHERE id = $14 AND updated_at = $15`

	res, err := q.DB.ExecContext(ctx, query,
		r.Year,
		r.Week,
		r.Month,
		r.Status,
		r.Achievements,
		r.Challenges,
		r.NextWeekPlan,
		pq.Array(r.Tags),
		attachments,
		approvals,
		r.ReviewComment,
		r.SubmittedAt,
		r.UpdatedAt,
		r.ID,
		prev,
	)
	if err != nil {
		return reportWriteError("update", r.Period(), err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := q.GetReport(ctx, r.ID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrStaleWrite
	}
	return nil
}

func (q *ReportQueries) DeleteReport(ctx context.Context, id uuid.UUID) error {
	res, err := q.DB.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("unable to delete report: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ReportStats aggregates every report. A report counts as submitted once it
// has left draft.
func (q *ReportQueries) ReportStats(ctx context.Context) (models.ReportStats, error) {
	stats := models.ReportStats{
		Weekly:      []models.WeeklyCount{},
		Departments: []models.DepartmentCount{},
	}

	rows, err := q.DB.QueryContext(ctx, `SELECT year, week, COUNT(*), COUNT(*) FILTER (WHERE status <> 'draft')
		FROM reports GROUP BY year, week ORDER BY year, week`)
	if err != nil {
		return stats, fmt.Errorf("unable to aggregate weekly stats: %w", err)
	}
	for rows.Next() {
		var wc models.WeeklyCount
		if err := rows.Scan(&wc.Year, &wc.Week, &wc.Total, &wc.Submitted); err != nil {
			rows.Close()
			return stats, fmt.Errorf("error scanning weekly stats: %w", err)
		}
		stats.Weekly = append(stats.Weekly, wc)
		stats.Overall.Total += wc.Total
		stats.Overall.Submitted += wc.Submitted
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, err
	}

	rows, err = q.DB.QueryContext(ctx, `SELECT COALESCE(NULLIF(u.department, ''), 'Unknown') AS department,
		COUNT(*), COUNT(*) FILTER (WHERE r.status <> 'draft')
		FROM reports r LEFT JOIN users u ON u.uid = r.user_id
		GROUP BY 1 ORDER BY 2 DESC, 1`)
	if err != nil {
		return stats, fmt.Errorf("unable to aggregate department stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dc models.DepartmentCount
		if err := rows.Scan(&dc.Department, &dc.Total, &dc.Submitted); err != nil {
			return stats, fmt.Errorf("error scanning department stats: %w", err)
		}
		stats.Departments = append(stats.Departments, dc)
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	stats.Overall.CompletionRate = reporting.CompletionRate(stats.Overall.Submitted, stats.Overall.Total)
	return stats, nil
}

// TeamAggregates returns per-user report totals, busiest first.
func (q *ReportQueries) TeamAggregates(ctx context.Context, department string) ([]models.TeamMember, error) {
	members := []models.TeamMember{}
	rows, err := q.DB.QueryContext(ctx, `SELECT u.uid, u.name, u.email, u.department,
		COUNT(r.id), COUNT(r.id) FILTER (WHERE r.status <> 'draft')
		FROM users u LEFT JOIN reports r ON r.user_id = u.uid
		WHERE ($1 = '' OR u.department = $1)
		GROUP BY u.uid, u.name, u.email, u.department
		ORDER BY 5 DESC, u.name`, department)
	if err != nil {
		return members, fmt.Errorf("unable to aggregate team: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.Department, &m.TotalReports, &m.SubmittedReports); err != nil {
			return members, fmt.Errorf("error scanning team row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func reportWriteError(op string, p models.Period, err error) error {
	if constraint, ok := uniqueConstraint(err); ok && constraint == reportsUserPeriodKey {
		return &reporting.Error{Kind: reporting.ErrDuplicatePeriod, Period: p}
	}
	return fmt.Errorf("unable to %s report: %w", op, err)
}
