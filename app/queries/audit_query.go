package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditQueries appends audit entries to the audit_logs collection. Every
// entry is also written to the audit logger, so a nil Collection still
// leaves a trail.
type AuditQueries struct {
	Collection *mongo.Collection
	Log        *logrus.Logger
}

func (q *AuditQueries) Record(ctx context.Context, entry models.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Details == nil {
		entry.Details = map[string]interface{}{}
	}

	if q.Log != nil {
		q.Log.WithFields(logrus.Fields{
			"user_id":   entry.UserID,
			"action":    entry.Action,
			"report_id": entry.ReportID,
			"ip":        entry.IP,
		}).Info("audit")
	}

	if q.Collection == nil {
		return nil
	}
	if _, err := q.Collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first. limit is clamped to [1, 500].
func (q *AuditQueries) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	entries := []models.AuditEntry{}
	if q.Collection == nil {
		return entries, nil
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := q.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return entries, fmt.Errorf("find audit entries: %w", err)
	}
	defer cur.Close(ctx)

	if err := cur.All(ctx, &entries); err != nil {
		return entries, fmt.Errorf("decode audit entries: %w", err)
	}
	return entries, nil
}
