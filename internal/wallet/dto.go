package wallet

import (
	"github.com/bolekahq/boleka-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Totals is the derived wallet summary returned by the overview endpoint.
// AvailableBalance is the replayed ledger sum; PendingBalance is merchant
// money earned but not yet paid out; TotalBalance is the two combined.
type Totals struct {
	AvailableBalance    decimal.Decimal `json:"availableBalance"`
	CreditBalance       decimal.Decimal `json:"creditBalance"`
	PendingBalance      decimal.Decimal `json:"pendingBalance"`
	CompletedSalesTotal decimal.Decimal `json:"completedSalesTotal"`
	PaidOutTotal        decimal.Decimal `json:"paidOutTotal"`
	TotalBalance        decimal.Decimal `json:"totalBalance"`
}

// Summary condenses the user's payment history for the overview endpoint.
type Summary struct {
	TotalPayments  int `json:"totalPayments"`
	PendingPayouts int `json:"pendingPayouts"`
}

// BankingDetails is the payout destination surfaced on the overview. Fields
// mirror the business profile; the account number is masked by the caller.
type BankingDetails struct {
	BankName          string `json:"bankName"`
	AccountNumber     string `json:"accountNumber"`
	AccountType       string `json:"accountType"`
	BranchCode        string `json:"branchCode"`
	AccountHolderName string `json:"accountHolderName"`
}

// OverviewResult backs GET /wallet.
type OverviewResult struct {
	Payments           []models.Payment
	Summary            Summary
	Wallet             Totals
	BankingDetails     *BankingDetails
	HasBusinessProfile bool
}

// PayResult reports a wallet payment. Replayed is true when the order had
// already been paid and no new ledger entries were written.
type PayResult struct {
	Replayed  bool
	Remaining decimal.Decimal
}

// SpendInput is a general-purpose wallet debit request.
type SpendInput struct {
	Amount    decimal.Decimal
	Purpose   string
	OrderID   *uuid.UUID
	RequestID *uuid.UUID
}

// SpendResult reports a completed spend. Replayed is true when the request id
// had already been applied and the prior amount is being reported back.
type SpendResult struct {
	Replayed  bool
	Spent     decimal.Decimal
	Remaining decimal.Decimal
}

// RefundResult reports a refund. Replayed is true when the payment was
// already refunded and the prior amount is being reported back.
type RefundResult struct {
	Replayed       bool
	RefundedAmount decimal.Decimal
	PaymentID      uuid.UUID
}

// PayoutResult reports a settled payout batch. PaymentIDs may be a subset of
// the requested set when a concurrent payout claimed some payments first.
type PayoutResult struct {
	PayoutAmount decimal.Decimal
	PaymentCount int
	PaymentIDs   []uuid.UUID
}
