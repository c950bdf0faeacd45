package queries

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/app/reporting"
	"github.com/gilanghuda/weekly-report-backend/pkg/logger"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportWriteErrorMapsDuplicatePeriod(t *testing.T) {
	p := models.Period{Year: 2024, Week: 5}
	err := reportWriteError("create", p, fmt.Errorf("exec: %w", &pq.Error{Code: uniqueViolation, Constraint: reportsUserPeriodKey}))

	require.True(t, errors.Is(err, reporting.ErrDuplicatePeriod))
	var rerr *reporting.Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, p, rerr.Period)
}

func TestReportWriteErrorWrapsOthers(t *testing.T) {
	cause := &pq.Error{Code: "23503", Constraint: "reports_user_id_fkey"}
	err := reportWriteError("update", models.Period{}, cause)

	assert.False(t, errors.Is(err, reporting.ErrDuplicatePeriod))
	assert.Contains(t, err.Error(), "unable to update report")
}

func TestUserWriteError(t *testing.T) {
	assert.Equal(t, ErrEmailTaken, userWriteError("create", &pq.Error{Code: uniqueViolation, Constraint: usersEmailKey}))
	assert.Equal(t, ErrUsernameTaken, userWriteError("create", &pq.Error{Code: uniqueViolation, Constraint: usersUsernameKey}))

	err := userWriteError("create", errors.New("connection reset"))
	assert.EqualError(t, err, "unable to create user: connection reset")
}

func TestDisabledStatsCache(t *testing.T) {
	ctx := context.Background()
	var nilCache *StatsCache

	for _, c := range []*StatsCache{nilCache, {}} {
		_, ok, err := c.Get(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, c.Set(ctx, models.ReportStats{}))
		assert.NoError(t, c.Invalidate(ctx))
	}
}

func TestAuditWithoutMongo(t *testing.T) {
	q := &AuditQueries{Log: logger.Discard()}
	require.NoError(t, q.Record(context.Background(), models.AuditEntry{UserID: "u1", Action: "approve_report"}))

	entries, err := q.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}
