package payments

import (
	"context"
	"errors"
	"time"

	"github.com/bolekahq/boleka-backend/pkg/db/models"
	"github.com/bolekahq/boleka-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository manages persistence for payments (settlement units).
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
	ListEligibleForPayout(ctx context.Context, merchantID uuid.UUID) ([]models.Payment, error)
	MarkRefunded(ctx context.Context, id uuid.UUID) error
	MarkPaidOut(ctx context.Context, id uuid.UUID, payoutDate time.Time) error
	PendingMerchantTotal(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error)
	CompletedSalesTotal(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error)
	PaidOutTotal(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	var list []models.Payment
	err := r.db.WithContext(ctx).
		Where("payer_id = ? OR merchant_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListEligibleForPayout returns the merchant's settled-but-unpaid payments.
func (r *repository) ListEligibleForPayout(ctx context.Context, merchantID uuid.UUID) ([]models.Payment, error) {
	var list []models.Payment
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND merchant_paid = ? AND status IN (?)",
			merchantID, false,
			[]string{enums.PaymentStatusCompleted.String(), enums.PaymentStatusPaid.String()}).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": enums.PaymentStatusRefunded}).Error
}

func (r *repository) MarkPaidOut(ctx context.Context, id uuid.UUID, payoutDate time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"merchant_paid":        true,
			"status":               enums.PaymentStatusPaid,
			"merchant_payout_date": payoutDate,
		}).Error
}

func (r *repository) PendingMerchantTotal(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error) {
	return r.sumMerchantAmount(ctx,
		"merchant_id = ? AND merchant_paid = ? AND status IN (?)",
		merchantID, false,
		[]string{enums.PaymentStatusCompleted.String(), enums.PaymentStatusPaid.String()})
}

func (r *repository) CompletedSalesTotal(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Raw(
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE merchant_id = ? AND status IN (?)",
		merchantID,
		[]string{enums.PaymentStatusCompleted.String(), enums.PaymentStatusPaid.String()},
	).Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repository) PaidOutTotal(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error) {
	return r.sumMerchantAmount(ctx, "merchant_id = ? AND merchant_paid = ?", merchantID, true)
}

func (r *repository) sumMerchantAmount(ctx context.Context, where string, args ...any) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := "SELECT COALESCE(SUM(merchant_amount), 0) FROM payments WHERE " + where
	row := r.db.WithContext(ctx).Raw(query, args...).Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
