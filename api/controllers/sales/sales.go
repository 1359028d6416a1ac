package sales

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailstock-backend/api/responses"
	"github.com/angelmondragon/retailstock-backend/api/validators"
	internalsales "github.com/angelmondragon/retailstock-backend/internal/sales"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailstock-backend/pkg/errors"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
)

const (
	maxReasonLength    = 1000
	maxConditionLength = 255
)

type itemRequest struct {
	UnitID string           `json:"unit_id" validate:"required,uuid"`
	Price  *decimal.Decimal `json:"price"`
}

type createTransactionRequest struct {
	EmployeeID   string        `json:"employee_id" validate:"required,uuid"`
	CustomerID   *string       `json:"customer_id" validate:"omitempty,uuid"`
	OrderID      *string       `json:"order_id" validate:"omitempty,uuid"`
	DocumentType string        `json:"document_type" validate:"required"`
	Items        []itemRequest `json:"items" validate:"required,min=1,dive"`
}

type returnItemRequest struct {
	UnitID    string `json:"unit_id" validate:"required,uuid"`
	Condition string `json:"condition"`
}

type createReturnRequest struct {
	TransactionID string              `json:"transaction_id" validate:"required,uuid"`
	Reason        string              `json:"reason" validate:"required"`
	Items         []returnItemRequest `json:"items" validate:"required,min=1,dive"`
}

type resolveReturnRequest struct {
	Decision string `json:"decision" validate:"required"`
}

// CreateTransaction records a point-of-sale sale, marking every listed unit SOLD.
func CreateTransaction(svc internalsales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		var req createTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		docType, err := enums.ParseDocumentType(strings.ToUpper(strings.TrimSpace(req.DocumentType)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document type").
				WithDetails(map[string]any{"field": "document_type"}))
			return
		}

		input := internalsales.CreateTransactionInput{
			EmployeeID:   uuid.MustParse(req.EmployeeID),
			CustomerID:   optionalUUID(req.CustomerID),
			OrderID:      optionalUUID(req.OrderID),
			DocumentType: docType,
			Items:        make([]internalsales.ItemInput, 0, len(req.Items)),
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, internalsales.ItemInput{
				UnitID: uuid.MustParse(item.UnitID),
				Price:  item.Price,
			})
		}

		txn, err := svc.CreateTransaction(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, txn)
	}
}

func TransactionDetail(svc internalsales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.GetTransaction(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

// CreateReturn opens a PENDING return against sold units of a transaction.
func CreateReturn(svc internalsales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReturnRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalsales.CreateReturnInput{
			TransactionID: uuid.MustParse(req.TransactionID),
			Reason:        validators.SanitizeString(req.Reason, maxReasonLength),
			Items:         make([]internalsales.ReturnItemInput, 0, len(req.Items)),
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, internalsales.ReturnItemInput{
				UnitID:    uuid.MustParse(item.UnitID),
				Condition: validators.SanitizeString(item.Condition, maxConditionLength),
			})
		}

		ret, err := svc.CreateReturn(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, ret)
	}
}

func ReturnDetail(svc internalsales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ret, err := svc.GetReturn(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// ResolveReturn accepts or rejects a pending return.
func ResolveReturn(svc internalsales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req resolveReturnRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		decision, err := enums.ParseReturnDecision(strings.ToUpper(strings.TrimSpace(req.Decision)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision").
				WithDetails(map[string]any{"field": "decision"}))
			return
		}
		ret, err := svc.ResolveReturn(r.Context(), id, decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

func optionalUUID(raw *string) *uuid.UUID {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil
	}
	return &id
}
