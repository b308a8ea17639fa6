package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BusinessProfile holds a merchant's payout banking details. A payout is
// refused until every banking field is present.
type BusinessProfile struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"userId"`
	BusinessName      string    `gorm:"column:business_name" json:"businessName,omitempty"`
	BankName          string    `gorm:"column:bank_name" json:"bankName,omitempty"`
	AccountNumber     string    `gorm:"column:account_number" json:"accountNumber,omitempty"`
	AccountType       string    `gorm:"column:account_type" json:"accountType,omitempty"`
	BranchCode        string    `gorm:"column:branch_code" json:"branchCode,omitempty"`
	AccountHolderName string    `gorm:"column:account_holder_name" json:"accountHolderName,omitempty"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName keeps the collection name from the original data layout.
func (BusinessProfile) TableName() string {
	return "business_profiles"
}

// HasCompleteBankingDetails reports whether every payout field is filled in.
func (b BusinessProfile) HasCompleteBankingDetails() bool {
	for _, field := range []string{
		b.BankName,
		b.AccountNumber,
		b.AccountType,
		b.BranchCode,
		b.AccountHolderName,
	} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}
