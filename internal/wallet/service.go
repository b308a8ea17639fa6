package wallet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bolekahq/boleka-backend/internal/orders"
	"github.com/bolekahq/boleka-backend/internal/payments"
	"github.com/bolekahq/boleka-backend/internal/profiles"
	"github.com/bolekahq/boleka-backend/internal/users"
	"github.com/bolekahq/boleka-backend/pkg/config"
	"github.com/bolekahq/boleka-backend/pkg/db"
	"github.com/bolekahq/boleka-backend/pkg/db/models"
	"github.com/bolekahq/boleka-backend/pkg/enums"
	"github.com/bolekahq/boleka-backend/pkg/errors"
	"github.com/bolekahq/boleka-backend/pkg/logger"
	"github.com/bolekahq/boleka-backend/pkg/metrics"
)

// Audit markers appended to order_status_updates by wallet operations. These
// are free-text statuses on the order timeline, not order lifecycle states.
const (
	auditStatusWalletSpend  = "WALLET_SPEND"
	auditStatusMerchantPaid = "MERCHANT_PAID"
)

// Service is the wallet ledger and settlement surface.
type Service interface {
	Overview(ctx context.Context, userID uuid.UUID) (*OverviewResult, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error)
	PayOrder(ctx context.Context, payerID, orderID uuid.UUID) (*PayResult, error)
	Spend(ctx context.Context, userID uuid.UUID, input SpendInput) (*SpendResult, error)
	RefundPayment(ctx context.Context, callerID, paymentID uuid.UUID, reason string) (*RefundResult, error)
	PayoutMerchant(ctx context.Context, merchantID uuid.UUID, paymentIDs []uuid.UUID) (*PayoutResult, error)
}

// ServiceDeps wires the service's collaborators.
type ServiceDeps struct {
	Tx       db.TxRunner
	Ledger   Repository
	Payments payments.Repository
	Orders   orders.Repository
	Profiles profiles.Repository
	Users    users.Repository
	Config   config.WalletConfig
	Logger   *logger.Logger
	Metrics  *metrics.WalletMetrics
	Now      func() time.Time
}

type service struct {
	tx       db.TxRunner
	ledger   Repository
	payments payments.Repository
	orders   orders.Repository
	profiles profiles.Repository
	users    users.Repository
	cfg      config.WalletConfig
	platform uuid.UUID
	guard    Guard
	logg     *logger.Logger
	metrics  *metrics.WalletMetrics
	now      func() time.Time
}

// NewService builds the wallet service. Config must carry a valid platform
// account id; Load validates it at boot.
func NewService(deps ServiceDeps) (Service, error) {
	platform, err := deps.Config.PlatformAccount()
	if err != nil {
		return nil, err
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:       deps.Tx,
		ledger:   deps.Ledger,
		payments: deps.Payments,
		orders:   deps.Orders,
		profiles: deps.Profiles,
		users:    deps.Users,
		cfg:      deps.Config,
		platform: platform,
		logg:     deps.Logger,
		metrics:  deps.Metrics,
		now:      now,
	}, nil
}

func (s *service) Overview(ctx context.Context, userID uuid.UUID) (*OverviewResult, error) {
	start := s.now()
	result, err := s.overview(ctx, userID)
	s.observe(ctx, "overview", start, err, false)
	return result, err
}

func (s *service) overview(ctx context.Context, userID uuid.UUID) (*OverviewResult, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	paymentList, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing payments")
	}

	available, err := s.ledger.AvailableBalance(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "computing available balance")
	}
	credit, err := s.ledger.CreditTotal(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "computing credit total")
	}
	pending, err := s.payments.PendingMerchantTotal(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "computing pending payouts")
	}
	completedSales, err := s.payments.CompletedSalesTotal(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "computing completed sales")
	}
	paidOut, err := s.payments.PaidOutTotal(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "computing paid out total")
	}

	pendingPayouts := 0
	for _, p := range paymentList {
		if p.MerchantID == userID && !p.MerchantPaid &&
			(p.Status == enums.PaymentStatusCompleted || p.Status == enums.PaymentStatusPaid) {
			pendingPayouts++
		}
	}

	result := &OverviewResult{
		Payments: paymentList,
		Summary: Summary{
			TotalPayments:  len(paymentList),
			PendingPayouts: pendingPayouts,
		},
		Wallet: Totals{
			AvailableBalance:    available,
			CreditBalance:       credit,
			PendingBalance:      pending,
			CompletedSalesTotal: completedSales,
			PaidOutTotal:        paidOut,
			TotalBalance:        available.Add(pending),
		},
	}

	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading business profile")
	}
	if profile != nil {
		result.HasBusinessProfile = true
		result.BankingDetails = &BankingDetails{
			BankName:          profile.BankName,
			AccountNumber:     profile.AccountNumber,
			AccountType:       profile.AccountType,
			BranchCode:        profile.BranchCode,
			AccountHolderName: profile.AccountHolderName,
		}
	}
	return result, nil
}

func (s *service) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.TransactionsDefaultLimit
	}
	if s.cfg.TransactionsMaxLimit > 0 && limit > s.cfg.TransactionsMaxLimit {
		limit = s.cfg.TransactionsMaxLimit
	}
	entries, err := s.ledger.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing wallet transactions")
	}
	return entries, nil
}

// PayOrder settles an order from the payer's wallet balance. The balance
// read, the order mutation and the three ledger entries all happen inside one
// serializable transaction so concurrent spends conflict instead of racing.
func (s *service) PayOrder(ctx context.Context, payerID, orderID uuid.UUID) (*PayResult, error) {
	start := s.now()
	var result PayResult

	err := s.runSerializable(ctx, func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading order")
		}
		if order == nil {
			return errors.New(errors.CodeNotFound, "Order not found")
		}
		if order.UserID != payerID {
			return errors.New(errors.CodeForbidden, "Order belongs to another user")
		}
		if order.VendorID == nil {
			return errors.New(errors.CodeValidation, "Order has no vendor to credit")
		}

		prior, err := s.guard.PriorOrderDebit(ctx, ledger, payerID, orderID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "checking prior payment")
		}
		if prior != nil {
			// Replay. Repair the order if a prior crash left it behind the
			// ledger, then report the prior outcome.
			if order.Status != enums.OrderStatusPaymentReceived && order.Status != enums.OrderStatusCompleted {
				if err := ordersRepo.UpdateStatus(ctx, orderID, enums.OrderStatusPaymentReceived); err != nil {
					return errors.Wrap(errors.CodeInternal, err, "repairing order status")
				}
			}
			remaining, err := ledger.AvailableBalance(ctx, payerID)
			if err != nil {
				return errors.Wrap(errors.CodeInternal, err, "computing balance")
			}
			result = PayResult{Replayed: true, Remaining: remaining}
			return nil
		}

		if order.Status == enums.OrderStatusPaymentReceived || order.Status == enums.OrderStatusCompleted {
			return errors.New(errors.CodeValidation, "Order is already paid")
		}

		available, err := ledger.AvailableBalance(ctx, payerID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "computing balance")
		}
		required := order.RequiredTotal()
		if available.LessThan(required) {
			return errors.New(errors.CodeValidation, "Insufficient wallet balance")
		}

		// The fee is derived from the charged total so the debit and the two
		// credits always net to zero even on rows with a stale fee column.
		vendorShare := order.Subtotal
		fee := required.Sub(vendorShare)
		if fee.IsNegative() {
			vendorShare = required
			fee = decimal.Zero
		}

		if err := ordersRepo.UpdateStatus(ctx, orderID, enums.OrderStatusPaymentReceived); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating order status")
		}
		if err := ordersRepo.AppendStatusUpdate(ctx, &models.OrderStatusUpdate{
			OrderID:   orderID,
			Status:    enums.OrderStatusPaymentReceived.String(),
			Notes:     "Paid from wallet",
			UpdatedBy: payerID,
		}); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "appending order audit")
		}

		if err := ledger.Create(ctx, s.entry(payerID, enums.WalletTransactionTypeDebitSpend, required, &orderID, nil, nil,
			map[string]string{"purpose": "order_payment"})); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "recording payer debit")
		}
		if err := ledger.Create(ctx, s.entry(*order.VendorID, enums.WalletTransactionTypeCreditEarned, vendorShare, &orderID, nil, nil,
			map[string]string{"purpose": "order_earnings", "payerId": payerID.String()})); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "recording vendor credit")
		}
		if fee.IsPositive() {
			if err := ledger.Create(ctx, s.entry(s.platform, enums.WalletTransactionTypeCreditEarned, fee, &orderID, nil, nil,
				map[string]string{"purpose": "platform_fee", "payerId": payerID.String()})); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "recording platform fee")
			}
		}

		result = PayResult{Remaining: available.Sub(required)}
		return nil
	})
	s.observe(ctx, "pay", start, err, result.Replayed)
	if err != nil {
		return nil, err
	}
	s.info(ctx, "wallet payment applied", map[string]any{
		"order_id": orderID,
		"payer_id": payerID,
		"replayed": result.Replayed,
	})
	return &result, nil
}

// Spend records a general-purpose debit not tied to an order payment flow.
func (s *service) Spend(ctx context.Context, userID uuid.UUID, input SpendInput) (*SpendResult, error) {
	start := s.now()
	var result SpendResult

	err := func() error {
		if !input.Amount.IsPositive() {
			return errors.New(errors.CodeValidation, "Amount must be a positive value")
		}
		if err := s.requireUser(ctx, userID); err != nil {
			return err
		}
		return s.runSerializable(ctx, func(tx *gorm.DB) error {
			ledger := s.ledger.WithTx(tx)

			available, err := ledger.AvailableBalance(ctx, userID)
			if err != nil {
				return errors.Wrap(errors.CodeInternal, err, "computing balance")
			}

			if input.RequestID != nil {
				prior, err := s.guard.PriorSpendRequest(ctx, ledger, userID, *input.RequestID)
				if err != nil {
					return errors.Wrap(errors.CodeInternal, err, "checking prior spend")
				}
				if prior != nil {
					result = SpendResult{Replayed: true, Spent: prior.Amount, Remaining: available}
					return nil
				}
			}

			if available.LessThan(input.Amount) {
				return errors.New(errors.CodeValidation, "Insufficient wallet balance")
			}

			meta := map[string]string{}
			if input.Purpose != "" {
				meta["purpose"] = input.Purpose
			}
			if err := ledger.Create(ctx, s.entry(userID, enums.WalletTransactionTypeDebitSpend, input.Amount,
				input.OrderID, nil, input.RequestID, meta)); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "recording spend")
			}

			if input.OrderID != nil {
				// Synthetic timeline marker so the spend is discoverable from
				// the order's history.
				if err := s.orders.WithTx(tx).AppendStatusUpdate(ctx, &models.OrderStatusUpdate{
					OrderID:   *input.OrderID,
					Status:    auditStatusWalletSpend,
					Notes:     input.Purpose,
					UpdatedBy: userID,
				}); err != nil {
					return errors.Wrap(errors.CodeInternal, err, "appending order audit")
				}
			}

			result = SpendResult{Spent: input.Amount, Remaining: available.Sub(input.Amount)}
			return nil
		})
	}()
	s.observe(ctx, "spend", start, err, result.Replayed)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RefundPayment credits the payer back for a payment that has not yet been
// paid out. The payment status and the ledger are two independent idempotency
// signals; whichever lags after a prior partial failure gets repaired.
func (s *service) RefundPayment(ctx context.Context, callerID, paymentID uuid.UUID, reason string) (*RefundResult, error) {
	start := s.now()
	var result RefundResult

	err := s.runSerializable(ctx, func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		paymentsRepo := s.payments.WithTx(tx)

		payment, err := paymentsRepo.FindByID(ctx, paymentID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading payment")
		}
		if payment == nil {
			return errors.New(errors.CodeNotFound, "Payment not found")
		}
		if payment.PayerID != callerID && payment.MerchantID != callerID {
			return errors.New(errors.CodeForbidden, "Payment belongs to another user")
		}
		if payment.MerchantPaid {
			return errors.New(errors.CodeValidation, "Payment has already been paid out and can no longer be refunded")
		}

		prior, err := s.guard.PriorPaymentRefund(ctx, ledger, paymentID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "checking prior refund")
		}
		statusRefunded := payment.Status == enums.PaymentStatusRefunded

		if prior != nil || statusRefunded {
			refunded := payment.Amount
			if prior != nil {
				refunded = prior.Amount
			}
			if prior == nil {
				// Status flipped but the credit never landed; write it now.
				if err := ledger.Create(ctx, s.refundEntry(payment, reason)); err != nil {
					return errors.Wrap(errors.CodeInternal, err, "repairing refund credit")
				}
			}
			if !statusRefunded {
				if err := paymentsRepo.MarkRefunded(ctx, paymentID); err != nil {
					return errors.Wrap(errors.CodeInternal, err, "repairing payment status")
				}
			}
			result = RefundResult{Replayed: true, RefundedAmount: refunded, PaymentID: paymentID}
			return nil
		}

		if err := paymentsRepo.MarkRefunded(ctx, paymentID); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating payment status")
		}
		if err := ledger.Create(ctx, s.refundEntry(payment, reason)); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "recording refund credit")
		}
		if payment.OrderID != nil {
			if err := s.orders.WithTx(tx).AppendStatusUpdate(ctx, &models.OrderStatusUpdate{
				OrderID:   *payment.OrderID,
				Status:    enums.PaymentStatusRefunded.String(),
				Notes:     reason,
				UpdatedBy: callerID,
			}); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "appending order audit")
			}
		}

		result = RefundResult{RefundedAmount: payment.Amount, PaymentID: paymentID}
		return nil
	})
	s.observe(ctx, "refund", start, err, result.Replayed)
	if err != nil {
		return nil, err
	}
	s.info(ctx, "payment refunded", map[string]any{
		"payment_id": paymentID,
		"replayed":   result.Replayed,
	})
	return &result, nil
}

// PayoutMerchant settles the merchant's eligible payments as one batch. Each
// candidate is re-read inside the transaction and silently skipped if a
// concurrent payout claimed it first, so overlapping requests settle every
// payment exactly once.
func (s *service) PayoutMerchant(ctx context.Context, merchantID uuid.UUID, paymentIDs []uuid.UUID) (*PayoutResult, error) {
	start := s.now()
	var result PayoutResult

	err := func() error {
		if err := s.requireUser(ctx, merchantID); err != nil {
			return err
		}

		profile, err := s.profiles.FindByUserID(ctx, merchantID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading business profile")
		}
		if profile == nil || !profile.HasCompleteBankingDetails() {
			return errors.New(errors.CodeValidation, "Banking details incomplete")
		}

		eligible, err := s.payments.ListEligibleForPayout(ctx, merchantID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "selecting eligible payments")
		}
		if len(paymentIDs) > 0 {
			requested := make(map[uuid.UUID]bool, len(paymentIDs))
			for _, id := range paymentIDs {
				requested[id] = true
			}
			filtered := eligible[:0]
			for _, p := range eligible {
				if requested[p.ID] {
					filtered = append(filtered, p)
				}
			}
			eligible = filtered
		}
		if len(eligible) == 0 {
			return errors.New(errors.CodeValidation, "No eligible funds for payout")
		}

		return s.runSerializable(ctx, func(tx *gorm.DB) error {
			ledger := s.ledger.WithTx(tx)
			paymentsRepo := s.payments.WithTx(tx)
			ordersRepo := s.orders.WithTx(tx)
			payoutDate := s.now()

			total := decimal.Zero
			settled := make([]uuid.UUID, 0, len(eligible))

			for _, candidate := range eligible {
				payment, err := paymentsRepo.FindByID(ctx, candidate.ID)
				if err != nil {
					return errors.Wrap(errors.CodeInternal, err, "re-reading payment")
				}
				// A concurrent payout may have claimed the payment between
				// selection and here. Skip it, do not fail the batch.
				if payment == nil || payment.MerchantPaid || payment.MerchantID != merchantID {
					continue
				}
				if payment.Status != enums.PaymentStatusCompleted && payment.Status != enums.PaymentStatusPaid {
					continue
				}

				if err := paymentsRepo.MarkPaidOut(ctx, payment.ID, payoutDate); err != nil {
					return errors.Wrap(errors.CodeInternal, err, "marking payment paid out")
				}
				if err := ledger.Create(ctx, s.entry(merchantID, enums.WalletTransactionTypeDebitPayout,
					payment.MerchantAmount, payment.OrderID, &payment.ID, payment.RequestID,
					map[string]string{"purpose": "merchant_payout"})); err != nil {
					return errors.Wrap(errors.CodeInternal, err, "recording payout debit")
				}
				if payment.OrderID != nil {
					if err := ordersRepo.AppendStatusUpdate(ctx, &models.OrderStatusUpdate{
						OrderID:   *payment.OrderID,
						Status:    auditStatusMerchantPaid,
						Notes:     "Merchant payout processed",
						UpdatedBy: merchantID,
					}); err != nil {
						return errors.Wrap(errors.CodeInternal, err, "appending order audit")
					}
				}

				total = total.Add(payment.MerchantAmount)
				settled = append(settled, payment.ID)
			}

			result = PayoutResult{
				PayoutAmount: total,
				PaymentCount: len(settled),
				PaymentIDs:   settled,
			}
			return nil
		})
	}()
	s.observe(ctx, "payout", start, err, false)
	if err != nil {
		return nil, err
	}
	s.metrics.AddSettled(result.PaymentCount)
	s.info(ctx, "merchant payout settled", map[string]any{
		"merchant_id":   merchantID,
		"payment_count": result.PaymentCount,
	})
	return &result, nil
}

// runSerializable executes fn inside a serializable transaction and retries
// when the store aborts it with a write conflict. The idempotency guard makes
// the retry safe even if a prior attempt partially committed elsewhere.
func (s *service) runSerializable(ctx context.Context, fn func(tx *gorm.DB) error) error {
	maxRetries := s.cfg.TxMaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	backoff := retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(10*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.tx.WithSerializableTx(ctx, fn)
		if errors.IsSerializationFailure(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *service) requireUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "loading user")
	}
	if user == nil {
		return errors.New(errors.CodeNotFound, "User not found")
	}
	return nil
}

func (s *service) entry(userID uuid.UUID, entryType enums.WalletTransactionType, amount decimal.Decimal,
	orderID, paymentID, requestID *uuid.UUID, meta map[string]string) *models.WalletTransaction {
	return &models.WalletTransaction{
		UserID:           userID,
		Type:             entryType,
		Amount:           amount,
		Currency:         enums.Currency(s.cfg.Currency),
		RelatedOrderID:   orderID,
		RelatedPaymentID: paymentID,
		RelatedRequestID: requestID,
		Metadata:         encodeMetadata(meta),
	}
}

func (s *service) refundEntry(payment *models.Payment, reason string) *models.WalletTransaction {
	meta := map[string]string{"purpose": "payment_refund"}
	if reason != "" {
		meta["reason"] = reason
	}
	return s.entry(payment.PayerID, enums.WalletTransactionTypeRefundCredit, payment.Amount,
		payment.OrderID, &payment.ID, payment.RequestID, meta)
}

func encodeMetadata(meta map[string]string) json.RawMessage {
	if len(meta) == 0 {
		return nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return raw
}

func (s *service) observe(ctx context.Context, operation string, start time.Time, err error, replayed bool) {
	s.metrics.ObserveDuration(operation, s.now().Sub(start))
	switch {
	case err == nil && replayed:
		s.metrics.IncOutcome(operation, "replayed")
	case err == nil:
		s.metrics.IncOutcome(operation, "ok")
	default:
		if typed := errors.As(err); typed != nil && errors.MetadataFor(typed.Code()).HTTPStatus < 500 {
			s.metrics.IncOutcome(operation, "rejected")
		} else {
			s.metrics.IncOutcome(operation, "error")
			s.errorLog(ctx, "wallet operation failed: "+operation, err)
		}
	}
}

func (s *service) info(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}

func (s *service) errorLog(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(ctx, msg, err)
}
