package walletRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fisiocare/database"
	"fisiocare/models"
	"fisiocare/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWalletRepo implements WalletRepository using MongoDB.
type MongoWalletRepo struct {
	coll    *mongo.Collection
	txnColl *mongo.Collection
}

// NewMongoWalletRepo creates a new instance of WalletRepository using MongoDB.
func NewMongoWalletRepo() WalletRepository {
	repo := &MongoWalletRepo{
		coll:    database.Collection("wallets"),
		txnColl: database.Collection("wallet_transactions"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create wallet indexes: %v\n", err)
	}
	return repo
}

func (r *MongoWalletRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "therapist_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create wallet indexes: %w", err)
	}

	txnIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "wallet_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := r.txnColl.Indexes().CreateMany(ctx, txnIndexes); err != nil {
		return fmt.Errorf("failed to create wallet transaction indexes: %w", err)
	}
	return nil
}

func (r *MongoWalletRepo) EnsureWallet(ctx context.Context, therapistID string) (*models.Wallet, error) {
	now := time.Now()
	filter := bson.M{"therapist_id": therapistID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"id":           uuid.New().String(),
			"therapist_id": therapistID,
			"balance":      int64(0),
			"created_at":   now,
			"updated_at":   now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var wallet models.Wallet
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&wallet); err != nil {
		return nil, fmt.Errorf("failed to ensure wallet for therapist %s: %w", therapistID, err)
	}
	return &wallet, nil
}

func (r *MongoWalletRepo) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&wallet); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &utils.NotFoundError{Entity: "wallet", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch wallet %s: %w", id, err)
	}
	return &wallet, nil
}

func (r *MongoWalletRepo) GetByTherapist(ctx context.Context, therapistID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.coll.FindOne(ctx, bson.M{"therapist_id": therapistID}).Decode(&wallet); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &utils.NotFoundError{Entity: "wallet", ID: therapistID}
		}
		return nil, fmt.Errorf("failed to fetch wallet for therapist %s: %w", therapistID, err)
	}
	return &wallet, nil
}

func (r *MongoWalletRepo) ApplyCredit(ctx context.Context, walletID string, amount int64, entry *models.WalletTransaction) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": walletID},
		bson.M{
			"$inc": bson.M{"balance": amount},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to credit wallet %s: %w", walletID, err)
	}
	if res.MatchedCount == 0 {
		return &utils.NotFoundError{Entity: "wallet", ID: walletID}
	}
	if _, err := r.txnColl.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to record wallet transaction: %w", err)
	}
	return nil
}

func (r *MongoWalletRepo) ApplyDebit(ctx context.Context, walletID string, amount int64, entry *models.WalletTransaction) (bool, error) {
	// The balance guard lives in the filter so a concurrent debit can never
	// push the balance negative.
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": walletID, "balance": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"balance": -amount},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to debit wallet %s: %w", walletID, err)
	}
	if res.MatchedCount == 0 {
		return false, nil
	}
	if _, err := r.txnColl.InsertOne(ctx, entry); err != nil {
		return false, fmt.Errorf("failed to record wallet transaction: %w", err)
	}
	return true, nil
}

func (r *MongoWalletRepo) ListTransactions(ctx context.Context, walletID string, limit int64) ([]models.WalletTransaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.txnColl.Find(ctx, bson.M{"wallet_id": walletID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer cur.Close(ctx)

	var entries []models.WalletTransaction
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode wallet transactions: %w", err)
	}
	return entries, nil
}
