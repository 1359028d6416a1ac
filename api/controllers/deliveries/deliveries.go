package deliveries

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailstock-backend/api/responses"
	"github.com/angelmondragon/retailstock-backend/api/validators"
	internaldeliveries "github.com/angelmondragon/retailstock-backend/internal/deliveries"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailstock-backend/pkg/errors"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
)

const deliveryDateLayout = "2006-01-02"

type lineRequest struct {
	ProductID     string          `json:"product_id" validate:"required,uuid"`
	Quantity      int             `json:"quantity" validate:"required,gt=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	StoreID       *string         `json:"store_id" validate:"omitempty,uuid"`
}

type createDeliveryRequest struct {
	SupplierName *string       `json:"supplier_name" validate:"omitempty,max=255"`
	DeliveryDate *string       `json:"delivery_date"`
	StoreID      *string       `json:"store_id" validate:"omitempty,uuid"`
	Lines        []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create records an inbound supplier delivery. Its units are materialized on completion.
func Create(svc internaldeliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
			return
		}

		var req createDeliveryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, delivery)
	}
}

func Detail(svc internaldeliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deliveryID, err := validators.PathUUID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		delivery, err := svc.Get(r.Context(), deliveryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// Pending lists deliveries still awaiting completion.
func Pending(svc internaldeliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func UpdateStatus(svc internaldeliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deliveryID, err := validators.PathUUID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req statusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next, err := enums.ParseDeliveryStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery status").
				WithDetails(map[string]any{"field": "status"}))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithDeliveryID(ctx, deliveryID.String())
		}
		delivery, err := svc.UpdateStatus(ctx, deliveryID, next)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

func Cancel(svc internaldeliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deliveryID, err := validators.PathUUID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithDeliveryID(ctx, deliveryID.String())
		}
		delivery, err := svc.Cancel(ctx, deliveryID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

func (req createDeliveryRequest) toInput() (internaldeliveries.CreateInput, error) {
	input := internaldeliveries.CreateInput{
		StoreID: parseOptionalUUID(req.StoreID),
		Lines:   make([]internaldeliveries.LineInput, 0, len(req.Lines)),
	}
	if req.SupplierName != nil {
		name := validators.SanitizeString(*req.SupplierName, 255)
		if name != "" {
			input.SupplierName = &name
		}
	}
	if req.DeliveryDate != nil && strings.TrimSpace(*req.DeliveryDate) != "" {
		date, err := parseDeliveryDate(*req.DeliveryDate)
		if err != nil {
			return input, err
		}
		input.DeliveryDate = &date
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, internaldeliveries.LineInput{
			ProductID:     uuid.MustParse(line.ProductID),
			Quantity:      line.Quantity,
			PurchasePrice: line.PurchasePrice,
			StoreID:       parseOptionalUUID(line.StoreID),
		})
	}
	return input, nil
}

func parseDeliveryDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if date, err := time.Parse(deliveryDateLayout, raw); err == nil {
		return date, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery_date must be YYYY-MM-DD").
		WithDetails(map[string]any{"field": "delivery_date"})
}

func parseOptionalUUID(raw *string) *uuid.UUID {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil
	}
	return &id
}
