package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal account row the wallet needs: enough to 404 on unknown
// accounts. Profile and credential management belong to the identity service.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Name      string    `gorm:"column:name" json:"name,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName keeps the collection name from the original data layout.
func (User) TableName() string {
	return "users"
}
