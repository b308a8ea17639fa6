package wallet

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bolekahq/boleka-backend/api/middleware"
	"github.com/bolekahq/boleka-backend/api/responses"
	"github.com/bolekahq/boleka-backend/api/validators"
	walletsvc "github.com/bolekahq/boleka-backend/internal/wallet"
	"github.com/bolekahq/boleka-backend/pkg/config"
	"github.com/bolekahq/boleka-backend/pkg/db/models"
	pkgerrors "github.com/bolekahq/boleka-backend/pkg/errors"
	"github.com/bolekahq/boleka-backend/pkg/logger"
)

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// Overview returns the caller's payments, derived balances and payout
// destination in one payload.
func Overview(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Overview(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payments := result.Payments
		if payments == nil {
			payments = []models.Payment{}
		}
		responses.WriteJSON(w, http.StatusOK, overviewResponse{
			Payments:           payments,
			Summary:            result.Summary,
			Wallet:             result.Wallet,
			BankingDetails:     result.BankingDetails,
			HasBusinessProfile: result.HasBusinessProfile,
		})
	}
}

// Transactions lists the caller's ledger entries, newest first.
func Transactions(svc walletsvc.Service, cfg config.WalletConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", cfg.TransactionsDefaultLimit, 1, cfg.TransactionsMaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListTransactions(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if entries == nil {
			entries = []models.WalletTransaction{}
		}
		responses.WriteJSON(w, http.StatusOK, transactionsResponse{
			Success:      true,
			Transactions: entries,
		})
	}
}

// Pay settles an order from the caller's wallet balance.
func Pay(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req payRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "orderId must be a valid uuid"))
			return
		}

		result, err := svc.PayOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := payResponse{Success: true, Remaining: result.Remaining}
		if result.Replayed {
			resp.Message = "Already processed"
		}
		responses.WriteJSON(w, http.StatusOK, resp)
	}
}

// Spend records a general-purpose debit against the caller's wallet.
func Spend(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req spendRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOptionalUUID(req.OrderID, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := parseOptionalUUID(req.RequestID, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Spend(r.Context(), userID, walletsvc.SpendInput{
			Amount:    req.Amount,
			Purpose:   req.Purpose,
			OrderID:   orderID,
			RequestID: requestID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, spendResponse{
			Success:   true,
			Spent:     result.Spent,
			Remaining: result.Remaining,
		})
	}
}

// Refund credits the payer back for a not-yet-paid-out payment.
func Refund(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req refundRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := uuid.Parse(req.PaymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paymentId must be a valid uuid"))
			return
		}

		result, err := svc.RefundPayment(r.Context(), userID, paymentID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := refundResponse{
			Success:        true,
			RefundedAmount: result.RefundedAmount,
			PaymentID:      result.PaymentID,
		}
		if result.Replayed {
			resp.Message = "Already processed"
		}
		responses.WriteJSON(w, http.StatusOK, resp)
	}
}

// Payout settles the caller's eligible payments as one batch.
func Payout(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Body is optional: no body means "settle everything eligible".
		var req payoutRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		paymentIDs, err := parseUUIDList(req.PaymentIDs, "paymentIds")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PayoutMerchant(r.Context(), userID, paymentIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settled := result.PaymentIDs
		if settled == nil {
			settled = []uuid.UUID{}
		}
		responses.WriteJSON(w, http.StatusOK, payoutResponse{
			Success:      true,
			PayoutAmount: result.PayoutAmount,
			PaymentCount: result.PaymentCount,
			Payments:     settled,
		})
	}
}
