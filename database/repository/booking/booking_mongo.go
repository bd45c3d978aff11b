package bookingRepo

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

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll        *mongo.Collection
	sessionColl *mongo.Collection
}

// NewMongoBookingRepo creates a new instance of BookingRepository using MongoDB.
func NewMongoBookingRepo() BookingRepository {
	repo := &MongoBookingRepo{
		coll:        database.Collection("bookings"),
		sessionColl: database.Collection("sessions"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create booking indexes: %v\n", err)
	}
	return repo
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "payment_order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "patient_id", Value: 1}}},
		{Keys: bson.D{{Key: "therapist_id", Value: 1}}},
		{Keys: bson.D{{Key: "therapist_respond_by", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking, sessions []*models.Session) error {
	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("insert booking failed: %w", err)
	}
	docs := make([]interface{}, 0, len(sessions))
	for _, s := range sessions {
		docs = append(docs, s)
	}
	if len(docs) > 0 {
		if _, err := r.sessionColl.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert sessions failed: %w", err)
		}
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &utils.NotFoundError{Entity: "booking", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) GetByOrderID(ctx context.Context, orderID string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"payment_order_id": orderID}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &utils.NotFoundError{Entity: "booking", ID: orderID}
		}
		return nil, fmt.Errorf("failed to fetch booking for order %s: %w", orderID, err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) ListByPatient(ctx context.Context, patientID string) ([]models.Booking, error) {
	return r.list(ctx, bson.M{"patient_id": patientID})
}

func (r *MongoBookingRepo) ListByTherapist(ctx context.Context, therapistID string) ([]models.Booking, error) {
	return r.list(ctx, bson.M{"therapist_id": therapistID})
}

func (r *MongoBookingRepo) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cur.Close(ctx)

	var bookings []models.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) Accept(ctx context.Context, id string, now time.Time) (bool, error) {
	filter := bson.M{
		"id":                    id,
		"payment_status":        models.PaymentPaid,
		"therapist_accepted_at": nil,
		"therapist_respond_by":  bson.M{"$gt": now},
		"status":                bson.M{"$in": bson.A{models.BookingPending, models.BookingPaid}},
	}
	update := bson.M{"$set": bson.M{"therapist_accepted_at": now}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to accept booking %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoBookingRepo) ExpireUnaccepted(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"payment_status":        models.PaymentPaid,
		"status":                models.BookingPaid,
		"therapist_accepted_at": nil,
		"therapist_respond_by":  bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"status":         models.BookingCancelled,
		"refund_status":  models.RefundPending,
		"is_chat_active": false,
		"chat_locked_at": now,
	}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire unaccepted bookings: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoBookingRepo) SetPaymentStatus(ctx context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus) (bool, error) {
	filter := bson.M{"id": id, "payment_status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"payment_status": to}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to set payment status for booking %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoBookingRepo) CASStatus(ctx context.Context, id string, from, to models.BookingStatus, closeChat bool, now time.Time) (bool, error) {
	filter := bson.M{"id": id, "status": from}
	set := bson.M{"status": to}
	if closeChat {
		set["is_chat_active"] = false
		set["chat_locked_at"] = now
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to transition booking %s to %s: %w", id, to, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoBookingRepo) CloseChat(ctx context.Context, id string, now time.Time) (bool, error) {
	filter := bson.M{"id": id, "is_chat_active": true}
	update := bson.M{"$set": bson.M{"is_chat_active": false, "chat_locked_at": now}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to close chat for booking %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoBookingRepo) SetStatus(ctx context.Context, id string, to models.BookingStatus, closeChat bool, now time.Time) error {
	set := bson.M{"status": to}
	if closeChat {
		set["is_chat_active"] = false
		set["chat_locked_at"] = now
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to set status for booking %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return &utils.NotFoundError{Entity: "booking", ID: id}
	}
	return nil
}

func (r *MongoBookingRepo) MarkRefund(ctx context.Context, id string, status models.RefundStatus, reference, note string, now time.Time) (bool, error) {
	set := bson.M{
		"refund_status":    status,
		"refund_reference": reference,
		"refund_note":      note,
	}
	if status == models.RefundCompleted {
		set["refunded_at"] = now
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to mark refund for booking %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}
