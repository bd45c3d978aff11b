package models

import "time"

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
)

func (t TransactionType) Valid() bool {
	return t == TransactionCredit || t == TransactionDebit
}

// TransactionCategory classifies why a ledger entry exists.
type TransactionCategory string

const (
	CategorySessionFee  TransactionCategory = "SESSION_FEE"
	CategoryForfeitComp TransactionCategory = "FORFEIT_COMPENSATION"
	CategoryWithdrawal  TransactionCategory = "WITHDRAWAL"
	CategoryTopup       TransactionCategory = "TOPUP"
	CategoryAdjustment  TransactionCategory = "ADJUSTMENT"
)

func (c TransactionCategory) Valid() bool {
	switch c {
	case CategorySessionFee, CategoryForfeitComp, CategoryWithdrawal,
		CategoryTopup, CategoryAdjustment:
		return true
	}
	return false
}

// Manual reports whether the category is an administrative entry that
// requires an admin note.
func (c TransactionCategory) Manual() bool {
	return c == CategoryTopup || c == CategoryAdjustment
}

// Wallet holds one therapist's current balance in minor units. The balance
// is always reconstructible as sum(credits) - sum(debits) over the ledger.
type Wallet struct {
	ID          string    `bson:"id" json:"id"`
	TherapistID string    `bson:"therapist_id" json:"therapistId"`
	Balance     int64     `bson:"balance" json:"balance"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// WalletTransaction is an immutable ledger entry. Corrections are new
// offsetting entries, never edits.
type WalletTransaction struct {
	ID        string              `bson:"id" json:"id"`
	WalletID  string              `bson:"wallet_id" json:"walletId"`
	Amount    int64               `bson:"amount" json:"amount"` // positive magnitude
	Type      TransactionType     `bson:"type" json:"type"`
	Category  TransactionCategory `bson:"category" json:"category"`
	Reference string              `bson:"reference,omitempty" json:"reference,omitempty"` // e.g. session id
	AdminNote string              `bson:"admin_note,omitempty" json:"adminNote,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
}
