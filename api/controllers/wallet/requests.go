package wallet

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/bolekahq/boleka-backend/pkg/errors"
)

type payRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

type spendRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Purpose   string          `json:"purpose" validate:"omitempty,max=200"`
	OrderID   string          `json:"orderId" validate:"omitempty,uuid"`
	RequestID string          `json:"requestId" validate:"omitempty,uuid"`
}

type refundRequest struct {
	PaymentID string `json:"paymentId" validate:"required,uuid"`
	Reason    string `json:"reason" validate:"omitempty,max=500"`
}

type payoutRequest struct {
	PaymentIDs []string `json:"paymentIds" validate:"omitempty,dive,uuid"`
}

func parseOptionalUUID(value, field string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a valid uuid")
	}
	return &id, nil
}

func parseUUIDList(values []string, field string) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" must contain valid uuids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
