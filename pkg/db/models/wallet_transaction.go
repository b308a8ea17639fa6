package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bolekahq/boleka-backend/pkg/enums"
)

// WalletTransaction is one immutable ledger entry: a signed monetary movement
// on a user's wallet. Rows are append-only; corrections are made by appending
// offsetting entries, never by mutating or deleting existing ones.
type WalletTransaction struct {
	ID               uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID                   `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Type             enums.WalletTransactionType `gorm:"column:type;not null" json:"type"`
	Amount           decimal.Decimal             `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency         enums.Currency              `gorm:"column:currency;not null;default:'ZAR'" json:"currency"`
	RelatedOrderID   *uuid.UUID                  `gorm:"column:related_order_id;type:uuid;index" json:"relatedOrderId,omitempty"`
	RelatedPaymentID *uuid.UUID                  `gorm:"column:related_payment_id;type:uuid;index" json:"relatedPaymentId,omitempty"`
	RelatedRequestID *uuid.UUID                  `gorm:"column:related_request_id;type:uuid" json:"relatedRequestId,omitempty"`
	Metadata         json.RawMessage             `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt        time.Time                   `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time                   `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName keeps the collection name from the original data layout.
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
