package walletRepo

import (
	"context"

	"fisiocare/models"
)

// WalletRepository defines data access for wallets and their ledger. Balance
// writes are guarded increments so the balance stays single-writer at the
// document level; every ApplyCredit/ApplyDebit also appends one immutable
// ledger entry in the same transaction scope.
type WalletRepository interface {
	// EnsureWallet returns the therapist's wallet, creating an empty one if
	// it does not exist yet.
	EnsureWallet(ctx context.Context, therapistID string) (*models.Wallet, error)
	GetByID(ctx context.Context, id string) (*models.Wallet, error)
	GetByTherapist(ctx context.Context, therapistID string) (*models.Wallet, error)

	ApplyCredit(ctx context.Context, walletID string, amount int64, entry *models.WalletTransaction) error
	// ApplyDebit reports false when the balance guard rejects the debit.
	ApplyDebit(ctx context.Context, walletID string, amount int64, entry *models.WalletTransaction) (bool, error)

	ListTransactions(ctx context.Context, walletID string, limit int64) ([]models.WalletTransaction, error)
}
