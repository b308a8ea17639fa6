package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bolekahq/boleka-backend/pkg/enums"
)

// Payment is one settlement unit tied to an order/request. Amount is what the
// payer paid; merchant_amount is what the merchant is owed after the platform
// commission is withheld.
type Payment struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID            *uuid.UUID          `gorm:"column:order_id;type:uuid;index" json:"orderId,omitempty"`
	RequestID          *uuid.UUID          `gorm:"column:request_id;type:uuid" json:"requestId,omitempty"`
	Amount             decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	CommissionAmount   decimal.Decimal     `gorm:"column:commission_amount;type:numeric(12,2);not null;default:0" json:"commissionAmount"`
	MerchantAmount     decimal.Decimal     `gorm:"column:merchant_amount;type:numeric(12,2);not null;default:0" json:"merchantAmount"`
	PayerID            uuid.UUID           `gorm:"column:payer_id;type:uuid;not null;index" json:"payerId"`
	MerchantID         uuid.UUID           `gorm:"column:merchant_id;type:uuid;not null;index" json:"merchantId"`
	Status             enums.PaymentStatus `gorm:"column:status;not null;default:'PENDING'" json:"status"`
	MerchantPaid       bool                `gorm:"column:merchant_paid;not null;default:false" json:"merchantPaid"`
	MerchantPayoutDate *time.Time          `gorm:"column:merchant_payout_date" json:"merchantPayoutDate,omitempty"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName keeps the collection name from the original data layout.
func (Payment) TableName() string {
	return "payments"
}
