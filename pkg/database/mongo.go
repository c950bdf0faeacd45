package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gilanghuda/weekly-report-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AuditCollection = "audit_logs"

// ConnectMongo returns the audit database. Callers treat a nil result as
// "audit goes to the log file only".
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	if uri == "" {
		return nil, nil
	}

	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	_, err = db.Collection(AuditCollection).Indexes().CreateOne(dctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		logger.GetLogger("app").WithError(err).Warn("mongo: audit index creation failed")
	}

	logger.GetLogger("app").WithField("db", dbName).Info("mongo: connected")
	return db, nil
}

func DisconnectMongo(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return nil
	}
	return db.Client().Disconnect(ctx)
}
