package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatusUpdate is an append-only audit row on an order's timeline. The
// wallet only ever writes these; it never reads them back. Status is free
// text so synthetic markers (e.g. WALLET_SPEND) can appear alongside the
// order status enum values.
type OrderStatusUpdate struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	Status    string    `gorm:"column:status;not null" json:"status"`
	Notes     string    `gorm:"column:notes" json:"notes,omitempty"`
	UpdatedBy uuid.UUID `gorm:"column:updated_by;type:uuid;not null" json:"updatedBy"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
}

// TableName keeps the collection name from the original data layout.
func (OrderStatusUpdate) TableName() string {
	return "order_status_updates"
}
