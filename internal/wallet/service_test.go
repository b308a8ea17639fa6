package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bolekahq/boleka-backend/internal/orders"
	"github.com/bolekahq/boleka-backend/internal/payments"
	"github.com/bolekahq/boleka-backend/pkg/config"
	"github.com/bolekahq/boleka-backend/pkg/db/models"
	"github.com/bolekahq/boleka-backend/pkg/enums"
	"github.com/bolekahq/boleka-backend/pkg/errors"
	"github.com/bolekahq/boleka-backend/pkg/metrics"
)

type stubTxRunner struct {
	calls int
}

func (s *stubTxRunner) WithSerializableTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(nil)
}

type stubLedger struct {
	entries []models.WalletTransaction
}

func (s *stubLedger) WithTx(*gorm.DB) Repository { return s }

func (s *stubLedger) Create(_ context.Context, entry *models.WalletTransaction) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubLedger) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	var out []models.WalletTransaction
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubLedger) AvailableBalance(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	balance := decimal.Zero
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		if e.Type.IsCredit() {
			balance = balance.Add(e.Amount)
		} else {
			balance = balance.Sub(e.Amount)
		}
	}
	return balance, nil
}

func (s *stubLedger) CreditTotal(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range s.entries {
		if e.UserID == userID && e.Type.IsCredit() {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (s *stubLedger) FindByTypeAndOrder(_ context.Context, userID uuid.UUID, entryType enums.WalletTransactionType, orderID uuid.UUID) (*models.WalletTransaction, error) {
	for i, e := range s.entries {
		if e.UserID == userID && e.Type == entryType && e.RelatedOrderID != nil && *e.RelatedOrderID == orderID {
			return &s.entries[i], nil
		}
	}
	return nil, nil
}

func (s *stubLedger) FindByTypeAndPayment(_ context.Context, entryType enums.WalletTransactionType, paymentID uuid.UUID) (*models.WalletTransaction, error) {
	for i, e := range s.entries {
		if e.Type == entryType && e.RelatedPaymentID != nil && *e.RelatedPaymentID == paymentID {
			return &s.entries[i], nil
		}
	}
	return nil, nil
}

func (s *stubLedger) FindByTypeAndRequest(_ context.Context, userID uuid.UUID, entryType enums.WalletTransactionType, requestID uuid.UUID) (*models.WalletTransaction, error) {
	for i, e := range s.entries {
		if e.UserID == userID && e.Type == entryType && e.RelatedRequestID != nil && *e.RelatedRequestID == requestID {
			return &s.entries[i], nil
		}
	}
	return nil, nil
}

func (s *stubLedger) countByType(entryType enums.WalletTransactionType) int {
	count := 0
	for _, e := range s.entries {
		if e.Type == entryType {
			count++
		}
	}
	return count
}

type stubPayments struct {
	byID map[uuid.UUID]*models.Payment
	// eligibleOverride lets a test feed a stale selection snapshot.
	eligibleOverride []models.Payment
}

func newStubPayments(list ...*models.Payment) *stubPayments {
	s := &stubPayments{byID: map[uuid.UUID]*models.Payment{}}
	for _, p := range list {
		s.byID[p.ID] = p
	}
	return s
}

func (s *stubPayments) WithTx(*gorm.DB) payments.Repository { return s }

func (s *stubPayments) FindByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	if p, ok := s.byID[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, nil
}

func (s *stubPayments) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range s.byID {
		if p.PayerID == userID || p.MerchantID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubPayments) ListEligibleForPayout(_ context.Context, merchantID uuid.UUID) ([]models.Payment, error) {
	if s.eligibleOverride != nil {
		return s.eligibleOverride, nil
	}
	var out []models.Payment
	for _, p := range s.byID {
		if p.MerchantID == merchantID && !p.MerchantPaid &&
			(p.Status == enums.PaymentStatusCompleted || p.Status == enums.PaymentStatusPaid) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubPayments) MarkRefunded(_ context.Context, id uuid.UUID) error {
	if p, ok := s.byID[id]; ok {
		p.Status = enums.PaymentStatusRefunded
	}
	return nil
}

func (s *stubPayments) MarkPaidOut(_ context.Context, id uuid.UUID, payoutDate time.Time) error {
	if p, ok := s.byID[id]; ok {
		p.MerchantPaid = true
		p.Status = enums.PaymentStatusPaid
		p.MerchantPayoutDate = &payoutDate
	}
	return nil
}

func (s *stubPayments) PendingMerchantTotal(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	list, _ := s.ListEligibleForPayout(ctx, merchantID)
	for _, p := range list {
		total = total.Add(p.MerchantAmount)
	}
	return total, nil
}

func (s *stubPayments) CompletedSalesTotal(_ context.Context, merchantID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range s.byID {
		if p.MerchantID == merchantID &&
			(p.Status == enums.PaymentStatusCompleted || p.Status == enums.PaymentStatusPaid) {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (s *stubPayments) PaidOutTotal(_ context.Context, merchantID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range s.byID {
		if p.MerchantID == merchantID && p.MerchantPaid {
			total = total.Add(p.MerchantAmount)
		}
	}
	return total, nil
}

type stubOrders struct {
	byID    map[uuid.UUID]*models.Order
	updates []models.OrderStatusUpdate
}

func newStubOrders(list ...*models.Order) *stubOrders {
	s := &stubOrders{byID: map[uuid.UUID]*models.Order{}}
	for _, o := range list {
		s.byID[o.ID] = o
	}
	return s
}

func (s *stubOrders) WithTx(*gorm.DB) orders.Repository { return s }

func (s *stubOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if o, ok := s.byID[id]; ok {
		clone := *o
		return &clone, nil
	}
	return nil, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) error {
	if o, ok := s.byID[id]; ok {
		o.Status = status
	}
	return nil
}

func (s *stubOrders) AppendStatusUpdate(_ context.Context, update *models.OrderStatusUpdate) error {
	s.updates = append(s.updates, *update)
	return nil
}

type stubProfiles struct {
	byUser map[uuid.UUID]*models.BusinessProfile
}

func (s *stubProfiles) FindByUserID(_ context.Context, userID uuid.UUID) (*models.BusinessProfile, error) {
	if s.byUser == nil {
		return nil, nil
	}
	return s.byUser[userID], nil
}

type stubUsers struct {
	known map[uuid.UUID]bool
}

func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.known[id] {
		return &models.User{ID: id}, nil
	}
	return nil, nil
}

type fixture struct {
	svc      Service
	tx       *stubTxRunner
	ledger   *stubLedger
	payments *stubPayments
	orders   *stubOrders
	profiles *stubProfiles
	users    *stubUsers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tx:       &stubTxRunner{},
		ledger:   &stubLedger{},
		payments: newStubPayments(),
		orders:   newStubOrders(),
		profiles: &stubProfiles{byUser: map[uuid.UUID]*models.BusinessProfile{}},
		users:    &stubUsers{known: map[uuid.UUID]bool{}},
	}
	svc, err := NewService(ServiceDeps{
		Tx:       f.tx,
		Ledger:   f.ledger,
		Payments: f.payments,
		Orders:   f.orders,
		Profiles: f.profiles,
		Users:    f.users,
		Config: config.WalletConfig{
			Currency:                 "ZAR",
			PlatformAccountID:        "00000000-0000-0000-0000-000000b01eca",
			TransactionsDefaultLimit: 50,
			TransactionsMaxLimit:     200,
			TxMaxRetries:             3,
		},
		Metrics: metrics.NewWalletMetrics(nil),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) credit(userID uuid.UUID, amount string) {
	f.ledger.entries = append(f.ledger.entries, models.WalletTransaction{
		ID:     uuid.New(),
		UserID: userID,
		Type:   enums.WalletTransactionTypeCreditEarned,
		Amount: decimal.RequireFromString(amount),
	})
}

func requireCode(t *testing.T, err error, code errors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed, "expected a coded error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestPayOrderHappyPath(t *testing.T) {
	f := newFixture(t)
	payer := uuid.New()
	vendor := uuid.New()
	platform := uuid.MustParse("00000000-0000-0000-0000-000000b01eca")
	f.credit(payer, "500")

	order := &models.Order{
		ID:          uuid.New(),
		UserID:      payer,
		VendorID:    &vendor,
		Status:      enums.OrderStatusPending,
		Subtotal:    decimal.RequireFromString("184"),
		PlatformFee: decimal.RequireFromString("16"),
		TotalAmount: decimal.RequireFromString("200"),
	}
	f.orders.byID[order.ID] = order

	result, err := f.svc.PayOrder(context.Background(), payer, order.ID)
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.True(t, result.Remaining.Equal(decimal.RequireFromString("300")), "remaining = %s", result.Remaining)

	payerBalance, _ := f.ledger.AvailableBalance(context.Background(), payer)
	vendorBalance, _ := f.ledger.AvailableBalance(context.Background(), vendor)
	platformBalance, _ := f.ledger.AvailableBalance(context.Background(), platform)
	assert.True(t, payerBalance.Equal(decimal.RequireFromString("300")))
	assert.True(t, vendorBalance.Equal(decimal.RequireFromString("184")))
	assert.True(t, platformBalance.Equal(decimal.RequireFromString("16")))

	// The debit and the two credits must net to zero: money moves, it is
	// never created.
	net := payerBalance.Add(vendorBalance).Add(platformBalance).Sub(decimal.RequireFromString("500"))
	assert.True(t, net.IsZero(), "net creation = %s", net)

	assert.Equal(t, enums.OrderStatusPaymentReceived, f.orders.byID[order.ID].Status)
	require.Len(t, f.orders.updates, 1)
	assert.Equal(t, enums.OrderStatusPaymentReceived.String(), f.orders.updates[0].Status)
}

func TestPayOrderInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	payer := uuid.New()
	vendor := uuid.New()
	f.credit(payer, "50")

	order := &models.Order{
		ID:          uuid.New(),
		UserID:      payer,
		VendorID:    &vendor,
		Status:      enums.OrderStatusPending,
		Subtotal:    decimal.RequireFromString("184"),
		PlatformFee: decimal.RequireFromString("16"),
		TotalAmount: decimal.RequireFromString("200"),
	}
	f.orders.byID[order.ID] = order

	_, err := f.svc.PayOrder(context.Background(), payer, order.ID)
	requireCode(t, err, errors.CodeValidation)
	assert.Contains(t, err.Error(), "Insufficient wallet balance")

	assert.Len(t, f.ledger.entries, 1, "no new ledger entries on rejection")
	assert.Equal(t, enums.OrderStatusPending, f.orders.byID[order.ID].Status)
	assert.Empty(t, f.orders.updates)
}

func TestPayOrderIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	payer := uuid.New()
	vendor := uuid.New()
	f.credit(payer, "300")

	order := &models.Order{
		ID:          uuid.New(),
		UserID:      payer,
		VendorID:    &vendor,
		Status:      enums.OrderStatusPending,
		Subtotal:    decimal.RequireFromString("92"),
		PlatformFee: decimal.RequireFromString("8"),
		TotalAmount: decimal.RequireFromString("100"),
	}
	f.orders.byID[order.ID] = order

	first, err := f.svc.PayOrder(context.Background(), payer, order.ID)
	require.NoError(t, err)
	require.False(t, first.Replayed)
	entriesAfterFirst := len(f.ledger.entries)

	// A prior crash left the order behind the ledger.
	f.orders.byID[order.ID].Status = enums.OrderStatusPending

	second, err := f.svc.PayOrder(context.Background(), payer, order.ID)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.True(t, second.Remaining.Equal(first.Remaining))
	assert.Len(t, f.ledger.entries, entriesAfterFirst, "replay writes no entries")
	assert.Equal(t, 1, f.ledger.countByType(enums.WalletTransactionTypeDebitSpend))
	assert.Equal(t, enums.OrderStatusPaymentReceived, f.orders.byID[order.ID].Status, "replay repairs order status")
}

func TestPayOrderWrongPayer(t *testing.T) {
	f := newFixture(t)
	payer := uuid.New()
	vendor := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      payer,
		VendorID:    &vendor,
		Status:      enums.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("100"),
	}
	f.orders.byID[order.ID] = order

	_, err := f.svc.PayOrder(context.Background(), uuid.New(), order.ID)
	requireCode(t, err, errors.CodeForbidden)
}

func TestPayOrderNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PayOrder(context.Background(), uuid.New(), uuid.New())
	requireCode(t, err, errors.CodeNotFound)
}

func TestPayOrderMissingVendor(t *testing.T) {
	f := newFixture(t)
	payer := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      payer,
		Status:      enums.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("100"),
	}
	f.orders.byID[order.ID] = order

	_, err := f.svc.PayOrder(context.Background(), payer, order.ID)
	requireCode(t, err, errors.CodeValidation)
}

func TestSpendRecordsDebitAndAudit(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	f.users.known[user] = true
	f.credit(user, "120")
	orderID := uuid.New()

	result, err := f.svc.Spend(context.Background(), user, SpendInput{
		Amount:  decimal.RequireFromString("45.50"),
		Purpose: "delivery surcharge",
		OrderID: &orderID,
	})
	require.NoError(t, err)
	assert.True(t, result.Spent.Equal(decimal.RequireFromString("45.50")))
	assert.True(t, result.Remaining.Equal(decimal.RequireFromString("74.50")))

	require.Len(t, f.orders.updates, 1)
	assert.Equal(t, "WALLET_SPEND", f.orders.updates[0].Status)
	assert.Equal(t, orderID, f.orders.updates[0].OrderID)
}

func TestSpendRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	f.users.known[user] = true

	_, err := f.svc.Spend(context.Background(), user, SpendInput{Amount: decimal.Zero})
	requireCode(t, err, errors.CodeValidation)
	assert.Empty(t, f.ledger.entries)
}

func TestSpendRejectsOverdraft(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	f.users.known[user] = true
	f.credit(user, "10")

	_, err := f.svc.Spend(context.Background(), user, SpendInput{Amount: decimal.RequireFromString("10.01")})
	requireCode(t, err, errors.CodeValidation)
	assert.Len(t, f.ledger.entries, 1)
}

func TestSpendIdempotentReplayByRequestID(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	f.users.known[user] = true
	f.credit(user, "120")
	requestID := uuid.New()
	input := SpendInput{
		Amount:    decimal.RequireFromString("30"),
		Purpose:   "escrow hold",
		RequestID: &requestID,
	}

	first, err := f.svc.Spend(context.Background(), user, input)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.svc.Spend(context.Background(), user, input)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.True(t, second.Spent.Equal(decimal.RequireFromString("30")))
	assert.True(t, second.Remaining.Equal(decimal.RequireFromString("90")))
	assert.Equal(t, 1, f.ledger.countByType(enums.WalletTransactionTypeDebitSpend))
}

func TestRefundHappyPath(t *testing.T) {
	f := newFixture(t)
	payer := uuid.New()
	merchant := uuid.New()
	orderID := uuid.New()
	payment := &models.Payment{
		ID:         uuid.New(),
		OrderID:    &orderID,
		Amount:     decimal.RequireFromString("200"),
		PayerID:    payer,
		MerchantID: merchant,
		Status:     enums.PaymentStatusCompleted,
	}
	f.payments.byID[payment.ID] = payment

	result, err := f.svc.RefundPayment(context.Background(), payer, payment.ID, "item unavailable")
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.True(t, result.RefundedAmount.Equal(decimal.RequireFromString("200")))

	assert.Equal(t, enums.PaymentStatusRefunded, f.payments.byID[payment.ID].Status)
	assert.Equal(t, 1, f.ledger.countByType(enums.WalletTransactionTypeRefundCredit))
	balance, _ := f.ledger.AvailableBalance(context.Background(), payer)
	assert.True(t, balance.Equal(decimal.RequireFromString("200")))
	require.Len(t, f.orders.updates, 1)
	assert.Equal(t, enums.PaymentStatusRefunded.String(), f.orders.updates[0].Status)
}

func TestRefundRejectedAfterPayout(t *testing.T) {
	f := newFixture(t)
	payer := uuid.New()
	payment := &models.Payment{
		ID:           uuid.New(),
		Amount:       decimal.RequireFromString("150"),
		PayerID:      payer,
		MerchantID:   uuid.New(),
		Status:       enums.PaymentStatusPaid,
		MerchantPaid: true,
	}
	f.payments.byID[payment.ID] = payment

	// Rejection must hold on every retry once the merchant has been paid.
	for i := 0; i < 2; i++ {
		_, err := f.svc.RefundPayment(context.Background(), payer, payment.ID, "")
		requireCode(t, err, errors.CodeValidation)
	}
	assert.Equal(t, 0, f.ledger.countByType(enums.WalletTransactionTypeRefundCredit))
}

func TestRefundReplayReportsPriorAmount(t *testing.T) {
	f := newFixture(t)
	payer := uuid.New()
	payment := &models.Payment{
		ID:         uuid.New(),
		Amount:     decimal.RequireFromString("80"),
		PayerID:    payer,
		MerchantID: uuid.New(),
		Status:     enums.PaymentStatusCompleted,
	}
	f.payments.byID[payment.ID] = payment

	first, err := f.svc.RefundPayment(context.Background(), payer, payment.ID, "")
	require.NoError(t, err)
	second, err := f.svc.RefundPayment(context.Background(), payer, payment.ID, "")
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.True(t, second.RefundedAmount.Equal(first.RefundedAmount))
	assert.Equal(t, 1, f.ledger.countByType(enums.WalletTransactionTypeRefundCredit))
}

func TestRefundRepairsMissingLedgerEntry(t *testing.T) {
	f := newFixture(t)
	payer := uuid.New()
	payment := &models.Payment{
		ID:         uuid.New(),
		Amount:     decimal.RequireFromString("60"),
		PayerID:    payer,
		MerchantID: uuid.New(),
		Status:     enums.PaymentStatusRefunded, // status flipped, credit never landed
	}
	f.payments.byID[payment.ID] = payment

	result, err := f.svc.RefundPayment(context.Background(), payer, payment.ID, "")
	require.NoError(t, err)
	assert.True(t, result.Replayed)
	assert.Equal(t, 1, f.ledger.countByType(enums.WalletTransactionTypeRefundCredit))
	balance, _ := f.ledger.AvailableBalance(context.Background(), payer)
	assert.True(t, balance.Equal(decimal.RequireFromString("60")))
}

func TestRefundForbiddenForStranger(t *testing.T) {
	f := newFixture(t)
	payment := &models.Payment{
		ID:         uuid.New(),
		Amount:     decimal.RequireFromString("60"),
		PayerID:    uuid.New(),
		MerchantID: uuid.New(),
		Status:     enums.PaymentStatusCompleted,
	}
	f.payments.byID[payment.ID] = payment

	_, err := f.svc.RefundPayment(context.Background(), uuid.New(), payment.ID, "")
	requireCode(t, err, errors.CodeForbidden)
}

func completeProfile(userID uuid.UUID) *models.BusinessProfile {
	return &models.BusinessProfile{
		UserID:            userID,
		BankName:          "Capitec",
		AccountNumber:     "1234567890",
		AccountType:       "savings",
		BranchCode:        "470010",
		AccountHolderName: "T. Mokoena",
	}
}

func TestPayoutRejectsIncompleteBanking(t *testing.T) {
	f := newFixture(t)
	merchant := uuid.New()
	f.users.known[merchant] = true
	profile := completeProfile(merchant)
	profile.BranchCode = ""
	f.profiles.byUser[merchant] = profile

	payment := &models.Payment{
		ID:             uuid.New(),
		MerchantID:     merchant,
		PayerID:        uuid.New(),
		MerchantAmount: decimal.RequireFromString("90"),
		Status:         enums.PaymentStatusCompleted,
	}
	f.payments.byID[payment.ID] = payment

	_, err := f.svc.PayoutMerchant(context.Background(), merchant, nil)
	requireCode(t, err, errors.CodeValidation)
	assert.Contains(t, err.Error(), "Banking details incomplete")
	assert.False(t, f.payments.byID[payment.ID].MerchantPaid, "no payment touched")
	assert.Empty(t, f.ledger.entries)
}

func TestPayoutSettlesEligiblePayments(t *testing.T) {
	f := newFixture(t)
	merchant := uuid.New()
	f.users.known[merchant] = true
	f.profiles.byUser[merchant] = completeProfile(merchant)

	orderID := uuid.New()
	first := &models.Payment{
		ID:             uuid.New(),
		OrderID:        &orderID,
		MerchantID:     merchant,
		PayerID:        uuid.New(),
		Amount:         decimal.RequireFromString("100"),
		MerchantAmount: decimal.RequireFromString("92"),
		Status:         enums.PaymentStatusCompleted,
	}
	second := &models.Payment{
		ID:             uuid.New(),
		MerchantID:     merchant,
		PayerID:        uuid.New(),
		Amount:         decimal.RequireFromString("50"),
		MerchantAmount: decimal.RequireFromString("46"),
		Status:         enums.PaymentStatusCompleted,
	}
	ineligible := &models.Payment{
		ID:             uuid.New(),
		MerchantID:     merchant,
		PayerID:        uuid.New(),
		MerchantAmount: decimal.RequireFromString("10"),
		Status:         enums.PaymentStatusPending,
	}
	f.payments.byID[first.ID] = first
	f.payments.byID[second.ID] = second
	f.payments.byID[ineligible.ID] = ineligible

	result, err := f.svc.PayoutMerchant(context.Background(), merchant, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.PaymentCount)
	assert.True(t, result.PayoutAmount.Equal(decimal.RequireFromString("138")))
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, result.PaymentIDs)

	assert.True(t, f.payments.byID[first.ID].MerchantPaid)
	assert.True(t, f.payments.byID[second.ID].MerchantPaid)
	assert.False(t, f.payments.byID[ineligible.ID].MerchantPaid)
	assert.Equal(t, 2, f.ledger.countByType(enums.WalletTransactionTypeDebitPayout))
	require.Len(t, f.orders.updates, 1, "audit only for the payment with an order")
	assert.Equal(t, "MERCHANT_PAID", f.orders.updates[0].Status)
}

func TestPayoutSkipsConcurrentlyClaimedPayment(t *testing.T) {
	f := newFixture(t)
	merchant := uuid.New()
	f.users.known[merchant] = true
	f.profiles.byUser[merchant] = completeProfile(merchant)

	claimed := &models.Payment{
		ID:             uuid.New(),
		MerchantID:     merchant,
		PayerID:        uuid.New(),
		MerchantAmount: decimal.RequireFromString("70"),
		Status:         enums.PaymentStatusPaid,
		MerchantPaid:   true,
	}
	open := &models.Payment{
		ID:             uuid.New(),
		MerchantID:     merchant,
		PayerID:        uuid.New(),
		MerchantAmount: decimal.RequireFromString("30"),
		Status:         enums.PaymentStatusCompleted,
	}
	f.payments.byID[claimed.ID] = claimed
	f.payments.byID[open.ID] = open

	// The selection snapshot predates the concurrent payout, so it still
	// lists the claimed payment; the in-transaction re-read must drop it.
	stale := *claimed
	stale.MerchantPaid = false
	stale.Status = enums.PaymentStatusCompleted
	f.payments.eligibleOverride = []models.Payment{stale, *open}

	result, err := f.svc.PayoutMerchant(context.Background(), merchant, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.PaymentCount)
	assert.True(t, result.PayoutAmount.Equal(decimal.RequireFromString("30")))
	assert.Equal(t, []uuid.UUID{open.ID}, result.PaymentIDs)
	assert.Equal(t, 1, f.ledger.countByType(enums.WalletTransactionTypeDebitPayout))
}

func TestPayoutRestrictsToRequestedPayments(t *testing.T) {
	f := newFixture(t)
	merchant := uuid.New()
	f.users.known[merchant] = true
	f.profiles.byUser[merchant] = completeProfile(merchant)

	wanted := &models.Payment{
		ID:             uuid.New(),
		MerchantID:     merchant,
		PayerID:        uuid.New(),
		MerchantAmount: decimal.RequireFromString("25"),
		Status:         enums.PaymentStatusCompleted,
	}
	other := &models.Payment{
		ID:             uuid.New(),
		MerchantID:     merchant,
		PayerID:        uuid.New(),
		MerchantAmount: decimal.RequireFromString("75"),
		Status:         enums.PaymentStatusCompleted,
	}
	f.payments.byID[wanted.ID] = wanted
	f.payments.byID[other.ID] = other

	result, err := f.svc.PayoutMerchant(context.Background(), merchant, []uuid.UUID{wanted.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{wanted.ID}, result.PaymentIDs)
	assert.False(t, f.payments.byID[other.ID].MerchantPaid)
}

func TestPayoutRejectsEmptyIntersection(t *testing.T) {
	f := newFixture(t)
	merchant := uuid.New()
	f.users.known[merchant] = true
	f.profiles.byUser[merchant] = completeProfile(merchant)

	_, err := f.svc.PayoutMerchant(context.Background(), merchant, []uuid.UUID{uuid.New()})
	requireCode(t, err, errors.CodeValidation)
}

func TestOverviewAggregates(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	f.users.known[user] = true
	f.credit(user, "250")
	f.profiles.byUser[user] = completeProfile(user)

	pendingPayment := &models.Payment{
		ID:             uuid.New(),
		MerchantID:     user,
		PayerID:        uuid.New(),
		Amount:         decimal.RequireFromString("100"),
		MerchantAmount: decimal.RequireFromString("92"),
		Status:         enums.PaymentStatusCompleted,
	}
	f.payments.byID[pendingPayment.ID] = pendingPayment

	result, err := f.svc.Overview(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, result.Wallet.AvailableBalance.Equal(decimal.RequireFromString("250")))
	assert.True(t, result.Wallet.PendingBalance.Equal(decimal.RequireFromString("92")))
	assert.True(t, result.Wallet.TotalBalance.Equal(decimal.RequireFromString("342")))
	assert.True(t, result.HasBusinessProfile)
	require.NotNil(t, result.BankingDetails)
	assert.Equal(t, "Capitec", result.BankingDetails.BankName)
	assert.Equal(t, 1, result.Summary.PendingPayouts)
}

func TestOverviewUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Overview(context.Background(), uuid.New())
	requireCode(t, err, errors.CodeNotFound)
}

func TestListTransactionsClampsLimit(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	f.users.known[user] = true
	for i := 0; i < 5; i++ {
		f.credit(user, "1")
	}

	entries, err := f.svc.ListTransactions(context.Background(), user, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = f.svc.ListTransactions(context.Background(), user, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5, "default limit covers all five")
}
