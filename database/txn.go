package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxnRunner executes a function inside a single atomic transaction scope.
// The context handed to fn must be threaded into every repository call made
// within it so those calls join the same transaction.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoTxnRunner runs fn inside a MongoDB multi-document transaction. The
// SessionContext satisfies context.Context, so repositories join the
// transaction transparently when they pass the ctx into collection calls.
type MongoTxnRunner struct {
	Client *mongo.Client
}

func NewMongoTxnRunner() *MongoTxnRunner {
	return &MongoTxnRunner{Client: MongoClient}
}

func (r *MongoTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Reentrant: a caller already inside a transaction scope keeps it.
	if _, ok := ctx.(mongo.SessionContext); ok {
		return fn(ctx)
	}

	sess, err := r.Client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return err
	}
	return nil
}
