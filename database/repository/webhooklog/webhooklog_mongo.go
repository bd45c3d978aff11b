package webhookLogRepo

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

// WebhookLogRepository is the append-only store for inbound payment webhooks.
type WebhookLogRepository interface {
	Append(ctx context.Context, entry *models.WebhookLog) error
	ListByOrder(ctx context.Context, orderID string) ([]models.WebhookLog, error)
}

// MongoWebhookLogRepo implements WebhookLogRepository using MongoDB.
type MongoWebhookLogRepo struct {
	coll *mongo.Collection
}

// NewMongoWebhookLogRepo creates a new instance of WebhookLogRepository using MongoDB.
func NewMongoWebhookLogRepo() WebhookLogRepository {
	repo := &MongoWebhookLogRepo{coll: database.Collection("webhook_logs")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create webhook log indexes: %v\n", err)
	}
	return repo
}

func (r *MongoWebhookLogRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoWebhookLogRepo) Append(ctx context.Context, entry *models.WebhookLog) error {
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append webhook log: %w", err)
	}
	return nil
}

func (r *MongoWebhookLogRepo) ListByOrder(ctx context.Context, orderID string) ([]models.WebhookLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook logs for order %s: %w", orderID, err)
	}
	defer cur.Close(ctx)

	var entries []models.WebhookLog
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode webhook logs: %w", err)
	}
	return entries, nil
}
