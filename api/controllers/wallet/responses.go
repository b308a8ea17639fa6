package wallet

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	walletsvc "github.com/bolekahq/boleka-backend/internal/wallet"
	"github.com/bolekahq/boleka-backend/pkg/db/models"
)

type overviewResponse struct {
	Payments           []models.Payment          `json:"payments"`
	Summary            walletsvc.Summary         `json:"summary"`
	Wallet             walletsvc.Totals          `json:"wallet"`
	BankingDetails     *walletsvc.BankingDetails `json:"bankingDetails"`
	HasBusinessProfile bool                      `json:"hasBusinessProfile"`
}

type transactionsResponse struct {
	Success      bool                       `json:"success"`
	Transactions []models.WalletTransaction `json:"transactions"`
}

type payResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message,omitempty"`
	Remaining decimal.Decimal `json:"remaining"`
}

type spendResponse struct {
	Success   bool            `json:"success"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

type refundResponse struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message,omitempty"`
	RefundedAmount decimal.Decimal `json:"refundedAmount"`
	PaymentID      uuid.UUID       `json:"paymentId"`
}

type payoutResponse struct {
	Success      bool            `json:"success"`
	PayoutAmount decimal.Decimal `json:"payoutAmount"`
	PaymentCount int             `json:"paymentCount"`
	Payments     []uuid.UUID     `json:"payments"`
}
