package wallet

import (
	"context"

	"fisiocare/models"
)

// LedgerService is the append-only wallet ledger every payout and
// compensation posts through. Each credit/debit appends exactly one
// WalletTransaction and moves the balance in the same transaction scope.
type LedgerService interface {
	Credit(ctx context.Context, walletID string, amount int64, category models.TransactionCategory, reference, note string) (*models.WalletTransaction, error)
	Debit(ctx context.Context, walletID string, amount int64, category models.TransactionCategory, reference, note string) (*models.WalletTransaction, error)

	// Adjust is the administrative path: it posts a manual CREDIT or DEBIT
	// (category TOPUP or ADJUSTMENT) and records an AdminActionLog entry in
	// the same transaction.
	Adjust(ctx context.Context, therapistID string, amount int64, direction models.TransactionType, category models.TransactionCategory, adminID, note string) (*models.WalletTransaction, error)

	GetByTherapist(ctx context.Context, therapistID string) (*models.Wallet, error)
	ListTransactions(ctx context.Context, therapistID string, limit int64) ([]models.WalletTransaction, error)
}
