package wallet

import (
	"context"
	"errors"

	"github.com/bolekahq/boleka-backend/pkg/db/models"
	"github.com/bolekahq/boleka-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository manages persistence for the wallet ledger. The ledger is
// append-only: Create is the only write, and balances are always derived by
// replaying the full entry history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.WalletTransaction) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error)
	AvailableBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	CreditTotal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	FindByTypeAndOrder(ctx context.Context, userID uuid.UUID, entryType enums.WalletTransactionType, orderID uuid.UUID) (*models.WalletTransaction, error)
	FindByTypeAndPayment(ctx context.Context, entryType enums.WalletTransactionType, paymentID uuid.UUID) (*models.WalletTransaction, error)
	FindByTypeAndRequest(ctx context.Context, userID uuid.UUID, entryType enums.WalletTransactionType, requestID uuid.UUID) (*models.WalletTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	var entries []models.WalletTransaction
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// AvailableBalance replays every ledger entry for the user, counting credit
// types as additive and debit types as subtractive. Callers that are about to
// debit must invoke this through a transaction-bound repository so the read
// and the dependent write are mutually atomic.
func (r *repository) AvailableBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	row := r.db.WithContext(ctx).Raw(
		"SELECT COALESCE(SUM(CASE WHEN type IN (?) THEN amount ELSE -amount END), 0) FROM wallet_transactions WHERE user_id = ?",
		creditTypeValues(), userID,
	).Row()
	if err := row.Scan(&balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (r *repository) CreditTotal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Raw(
		"SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE user_id = ? AND type IN (?)",
		userID, creditTypeValues(),
	).Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repository) FindByTypeAndOrder(ctx context.Context, userID uuid.UUID, entryType enums.WalletTransactionType, orderID uuid.UUID) (*models.WalletTransaction, error) {
	var entry models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND related_order_id = ?", userID, entryType, orderID).
		Order("created_at ASC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindByTypeAndPayment(ctx context.Context, entryType enums.WalletTransactionType, paymentID uuid.UUID) (*models.WalletTransaction, error) {
	var entry models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("type = ? AND related_payment_id = ?", entryType, paymentID).
		Order("created_at ASC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindByTypeAndRequest(ctx context.Context, userID uuid.UUID, entryType enums.WalletTransactionType, requestID uuid.UUID) (*models.WalletTransaction, error) {
	var entry models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND related_request_id = ?", userID, entryType, requestID).
		Order("created_at ASC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func creditTypeValues() []string {
	types := enums.CreditTransactionTypes()
	values := make([]string, 0, len(types))
	for _, t := range types {
		values = append(values, t.String())
	}
	return values
}
