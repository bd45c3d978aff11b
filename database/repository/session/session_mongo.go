package sessionRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fisiocare/database"
	"fisiocare/models"
	"fisiocare/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSessionRepo implements SessionRepository using MongoDB.
type MongoSessionRepo struct {
	coll *mongo.Collection
}

// NewMongoSessionRepo creates a new instance of SessionRepository using MongoDB.
func NewMongoSessionRepo() SessionRepository {
	repo := &MongoSessionRepo{coll: database.Collection("sessions")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create session indexes: %v\n", err)
	}
	return repo
}

func (r *MongoSessionRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "sequence_order", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "therapist_id", Value: 1}, {Key: "scheduled_at", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &utils.NotFoundError{Entity: "session", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}
	return &session, nil
}

func (r *MongoSessionRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence_order", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for booking %s: %w", bookingID, err)
	}
	defer cur.Close(ctx)

	var sessions []models.Session
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}

func (r *MongoSessionRepo) CountUnfinished(ctx context.Context, bookingID string) (int64, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{"booking_id": bookingID})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	unfinished, err := r.coll.CountDocuments(ctx, bson.M{
		"booking_id": bookingID,
		"status": bson.M{"$nin": bson.A{
			models.SessionCompleted, models.SessionForfeited, models.SessionExpired,
		}},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count unfinished sessions: %w", err)
	}
	return total, unfinished, nil
}

func (r *MongoSessionRepo) HasOverlap(ctx context.Context, therapistID string, at time.Time, window time.Duration, excludeID string) (bool, error) {
	filter := bson.M{
		"therapist_id": therapistID,
		"status":       models.SessionScheduled,
		"scheduled_at": bson.M{"$gt": at.Add(-window), "$lt": at.Add(window)},
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check slot overlap: %w", err)
	}
	return n > 0, nil
}

func (r *MongoSessionRepo) ListScheduledByTherapist(ctx context.Context, therapistID string, from, to time.Time) ([]models.Session, error) {
	filter := bson.M{
		"therapist_id": therapistID,
		"status":       models.SessionScheduled,
		"scheduled_at": bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled sessions: %w", err)
	}
	defer cur.Close(ctx)

	var sessions []models.Session
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}

func (r *MongoSessionRepo) CASSchedule(ctx context.Context, id string, at time.Time) (bool, error) {
	filter := bson.M{"id": id, "status": models.SessionPendingScheduling}
	update := bson.M{"$set": bson.M{
		"status":       models.SessionScheduled,
		"scheduled_at": at,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to schedule session %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoSessionRepo) CASComplete(ctx context.Context, id string, notes, photoURL string, now time.Time) (bool, error) {
	filter := bson.M{
		"id":                    id,
		"status":                models.SessionScheduled,
		"is_payout_distributed": false,
	}
	update := bson.M{"$set": bson.M{
		"status":                models.SessionCompleted,
		"therapist_notes":       notes,
		"completion_photo_url":  photoURL,
		"is_payout_distributed": true,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to complete session %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoSessionRepo) CASForfeit(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error) {
	filter := bson.M{
		"id":                    id,
		"status":                models.SessionScheduled,
		"is_payout_distributed": false,
	}
	update := bson.M{"$set": bson.M{
		"status":                models.SessionForfeited,
		"cancelled_by":          actor,
		"cancellation_reason":   reason,
		"cancelled_at":          now,
		"is_payout_distributed": true,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to forfeit session %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoSessionRepo) CASRelease(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error) {
	filter := bson.M{"id": id, "status": bson.M{"$in": bson.A{
		models.SessionScheduled, models.SessionPendingScheduling,
	}}}
	update := bson.M{
		"$set": bson.M{
			"status":              models.SessionPendingScheduling,
			"cancelled_by":        actor,
			"cancellation_reason": reason,
			"cancelled_at":        now,
		},
		"$unset": bson.M{"scheduled_at": ""},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to release session %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoSessionRepo) CASCancel(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error) {
	filter := bson.M{"id": id, "status": bson.M{"$in": bson.A{
		models.SessionScheduled, models.SessionPendingScheduling,
	}}}
	update := bson.M{"$set": bson.M{
		"status":              models.SessionCancelled,
		"cancelled_by":        actor,
		"cancellation_reason": reason,
		"cancelled_at":        now,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to cancel session %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoSessionRepo) StaleScheduledBookingIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "booking_id", bson.M{
		"status":       models.SessionScheduled,
		"scheduled_at": bson.M{"$lte": cutoff},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find stale sessions: %w", err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (r *MongoSessionRepo) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"status":       models.SessionScheduled,
		"scheduled_at": bson.M{"$lte": cutoff},
	}
	update := bson.M{"$set": bson.M{"status": models.SessionExpired}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale sessions: %w", err)
	}
	return res.ModifiedCount, nil
}
