package enums

import "fmt"

// WalletTransactionType classifies a ledger entry as balance-increasing
// (credit) or balance-decreasing (debit).
type WalletTransactionType string

const (
	WalletTransactionTypeCreditEarned     WalletTransactionType = "CREDIT_EARNED"
	WalletTransactionTypeRefundCredit     WalletTransactionType = "REFUND_CREDIT"
	WalletTransactionTypeAdjustmentCredit WalletTransactionType = "ADJUSTMENT_CREDIT"
	WalletTransactionTypeDebitPayout      WalletTransactionType = "DEBIT_PAYOUT"
	WalletTransactionTypeDebitSpend       WalletTransactionType = "DEBIT_SPEND"
	WalletTransactionTypeAdjustmentDebit  WalletTransactionType = "ADJUSTMENT_DEBIT"
)

var creditTransactionTypes = []WalletTransactionType{
	WalletTransactionTypeCreditEarned,
	WalletTransactionTypeRefundCredit,
	WalletTransactionTypeAdjustmentCredit,
}

var debitTransactionTypes = []WalletTransactionType{
	WalletTransactionTypeDebitPayout,
	WalletTransactionTypeDebitSpend,
	WalletTransactionTypeAdjustmentDebit,
}

// CreditTransactionTypes returns the balance-increasing entry types.
func CreditTransactionTypes() []WalletTransactionType {
	return append([]WalletTransactionType(nil), creditTransactionTypes...)
}

// String implements fmt.Stringer.
func (t WalletTransactionType) String() string {
	return string(t)
}

// IsCredit reports whether the type increases the owner's balance.
func (t WalletTransactionType) IsCredit() bool {
	for _, candidate := range creditTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsDebit reports whether the type decreases the owner's balance.
func (t WalletTransactionType) IsDebit() bool {
	for _, candidate := range debitTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsValid reports whether the value is a known transaction type.
func (t WalletTransactionType) IsValid() bool {
	return t.IsCredit() || t.IsDebit()
}

// ParseWalletTransactionType converts raw input into a WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	t := WalletTransactionType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid wallet transaction type %q", value)
	}
	return t, nil
}
