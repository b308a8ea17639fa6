package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bolekahq/boleka-backend/pkg/enums"
)

// Order carries the slice of the rental order the wallet reads and writes:
// status, payer/vendor identity and the monetary totals. Listing content and
// fulfilment live with the wider order flow.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	VendorID    *uuid.UUID        `gorm:"column:vendor_id;type:uuid;index" json:"vendorId,omitempty"`
	Status      enums.OrderStatus `gorm:"column:status;not null;default:'PENDING'" json:"status"`
	Subtotal    decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null;default:0" json:"subtotal"`
	PlatformFee decimal.Decimal   `gorm:"column:platform_fee;type:numeric(12,2);not null;default:0" json:"platformFee"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null;default:0" json:"totalAmount"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName keeps the collection name from the original data layout.
func (Order) TableName() string {
	return "orders"
}

// RequiredTotal is the amount a wallet payment must cover. Older orders may
// predate the total_amount column, in which case subtotal + platform fee is
// the source of truth.
func (o Order) RequiredTotal() decimal.Decimal {
	if o.TotalAmount.IsPositive() {
		return o.TotalAmount
	}
	return o.Subtotal.Add(o.PlatformFee)
}
