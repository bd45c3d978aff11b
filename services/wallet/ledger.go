package wallet

import (
	"context"
	"time"

	"fisiocare/database"
	auditLogRepo "fisiocare/database/repository/auditlog"
	walletRepo "fisiocare/database/repository/wallet"
	"fisiocare/models"
	"fisiocare/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLedgerService implements LedgerService.
type DefaultLedgerService struct {
	Repo   walletRepo.WalletRepository
	Audit  auditLogRepo.AuditLogRepository
	Txn    database.TxnRunner
	Logger *zap.Logger
}

func (s *DefaultLedgerService) Credit(ctx context.Context, walletID string, amount int64, category models.TransactionCategory, reference, note string) (*models.WalletTransaction, error) {
	entry, err := buildEntry(walletID, amount, models.TransactionCredit, category, reference, note)
	if err != nil {
		return nil, err
	}

	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		return s.Repo.ApplyCredit(ctx, walletID, amount, entry)
	}); err != nil {
		return nil, err
	}

	s.Logger.Info("wallet credited",
		zap.String("walletId", walletID),
		zap.Int64("amount", amount),
		zap.String("category", string(category)),
		zap.String("reference", reference),
	)
	return entry, nil
}

func (s *DefaultLedgerService) Debit(ctx context.Context, walletID string, amount int64, category models.TransactionCategory, reference, note string) (*models.WalletTransaction, error) {
	entry, err := buildEntry(walletID, amount, models.TransactionDebit, category, reference, note)
	if err != nil {
		return nil, err
	}

	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		// Existence check first so a missing wallet is not reported as an
		// insufficient balance.
		if _, err := s.Repo.GetByID(ctx, walletID); err != nil {
			return err
		}
		ok, err := s.Repo.ApplyDebit(ctx, walletID, amount, entry)
		if err != nil {
			return err
		}
		if !ok {
			return &utils.InsufficientFundsError{WalletID: walletID}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.Logger.Info("wallet debited",
		zap.String("walletId", walletID),
		zap.Int64("amount", amount),
		zap.String("category", string(category)),
	)
	return entry, nil
}

func (s *DefaultLedgerService) Adjust(ctx context.Context, therapistID string, amount int64, direction models.TransactionType, category models.TransactionCategory, adminID, note string) (*models.WalletTransaction, error) {
	if !direction.Valid() {
		return nil, utils.NewValidationError("invalid transaction direction")
	}
	if !category.Manual() {
		return nil, utils.NewValidationError("adjustment category must be TOPUP or ADJUSTMENT")
	}
	if note == "" {
		return nil, utils.NewValidationError("admin note is required for manual wallet entries")
	}

	wallet, err := s.Repo.EnsureWallet(ctx, therapistID)
	if err != nil {
		return nil, err
	}

	entry, err := buildEntry(wallet.ID, amount, direction, category, "", note)
	if err != nil {
		return nil, err
	}

	action := models.ActionWalletAdjust
	if category == models.CategoryTopup {
		action = models.ActionWalletTopup
	}

	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		if direction == models.TransactionCredit {
			if err := s.Repo.ApplyCredit(ctx, wallet.ID, amount, entry); err != nil {
				return err
			}
		} else {
			ok, err := s.Repo.ApplyDebit(ctx, wallet.ID, amount, entry)
			if err != nil {
				return err
			}
			if !ok {
				return &utils.InsufficientFundsError{WalletID: wallet.ID}
			}
		}
		return s.Audit.Record(ctx, &models.AdminActionLog{
			ID:         uuid.New().String(),
			AdminID:    adminID,
			Action:     action,
			TargetType: "wallet",
			TargetID:   wallet.ID,
			Meta: map[string]string{
				"therapistId": therapistID,
				"direction":   string(direction),
				"note":        note,
			},
			CreatedAt: time.Now(),
		})
	}); err != nil {
		return nil, err
	}

	s.Logger.Info("wallet adjusted",
		zap.String("therapistId", therapistID),
		zap.String("adminId", adminID),
		zap.Int64("amount", amount),
		zap.String("direction", string(direction)),
	)
	return entry, nil
}

func (s *DefaultLedgerService) GetByTherapist(ctx context.Context, therapistID string) (*models.Wallet, error) {
	return s.Repo.EnsureWallet(ctx, therapistID)
}

func (s *DefaultLedgerService) ListTransactions(ctx context.Context, therapistID string, limit int64) ([]models.WalletTransaction, error) {
	wallet, err := s.Repo.GetByTherapist(ctx, therapistID)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListTransactions(ctx, wallet.ID, limit)
}

func buildEntry(walletID string, amount int64, direction models.TransactionType, category models.TransactionCategory, reference, note string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, utils.NewValidationError("amount must be strictly positive")
	}
	if !category.Valid() {
		return nil, utils.NewValidationError("invalid transaction category")
	}
	if category.Manual() && note == "" {
		return nil, utils.NewValidationError("admin note is required for manual wallet entries")
	}
	return &models.WalletTransaction{
		ID:        uuid.New().String(),
		WalletID:  walletID,
		Amount:    amount,
		Type:      direction,
		Category:  category,
		Reference: reference,
		AdminNote: note,
		CreatedAt: time.Now(),
	}, nil
}
