package auditLogRepo

import (
	"context"
	"fmt"
	"time"

	"fisiocare/database"
	"fisiocare/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditLogRepository is the write-only store for privileged mutations.
type AuditLogRepository interface {
	Record(ctx context.Context, entry *models.AdminActionLog) error
	List(ctx context.Context, limit int64) ([]models.AdminActionLog, error)
}

// MongoAuditLogRepo implements AuditLogRepository using MongoDB.
type MongoAuditLogRepo struct {
	coll *mongo.Collection
}

// NewMongoAuditLogRepo creates a new instance of AuditLogRepository using MongoDB.
func NewMongoAuditLogRepo() AuditLogRepository {
	return &MongoAuditLogRepo{coll: database.Collection("admin_action_logs")}
}

func (r *MongoAuditLogRepo) Record(ctx context.Context, entry *models.AdminActionLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to record admin action: %w", err)
	}
	return nil
}

func (r *MongoAuditLogRepo) List(ctx context.Context, limit int64) ([]models.AdminActionLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin actions: %w", err)
	}
	defer cur.Close(ctx)

	var entries []models.AdminActionLog
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode admin actions: %w", err)
	}
	return entries, nil
}
