package wallet

import (
	"context"

	"github.com/bolekahq/boleka-backend/pkg/db/models"
	"github.com/bolekahq/boleka-backend/pkg/enums"
	"github.com/google/uuid"
)

// Guard answers whether an economic action already reached the ledger. Every
// mutating wallet operation consults it before writing, and on a hit the
// caller returns the prior outcome instead of appending a duplicate entry.
// The guard must be queried through a transaction-bound repository so the
// check and the dependent writes cannot interleave with a concurrent retry.
type Guard struct{}

// PriorOrderDebit looks up an existing spend recorded against the order for
// the given payer. A hit means the order was already paid from the wallet.
func (Guard) PriorOrderDebit(ctx context.Context, repo Repository, payerID, orderID uuid.UUID) (*models.WalletTransaction, error) {
	return repo.FindByTypeAndOrder(ctx, payerID, enums.WalletTransactionTypeDebitSpend, orderID)
}

// PriorSpendRequest looks up an existing debit recorded for the caller's
// request id. A hit means the spend was already applied.
func (Guard) PriorSpendRequest(ctx context.Context, repo Repository, userID, requestID uuid.UUID) (*models.WalletTransaction, error) {
	return repo.FindByTypeAndRequest(ctx, userID, enums.WalletTransactionTypeDebitSpend, requestID)
}

// PriorPaymentRefund looks up an existing refund credit recorded against the
// payment. A hit means the payer was already made whole.
func (Guard) PriorPaymentRefund(ctx context.Context, repo Repository, paymentID uuid.UUID) (*models.WalletTransaction, error) {
	return repo.FindByTypeAndPayment(ctx, enums.WalletTransactionTypeRefundCredit, paymentID)
}
