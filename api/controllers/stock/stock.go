package stock

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/retailstock-backend/api/responses"
	"github.com/angelmondragon/retailstock-backend/api/validators"
	"github.com/angelmondragon/retailstock-backend/internal/inventory"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailstock-backend/pkg/errors"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
)

const maxAvailabilityQuantity = 10000

type displayRequest struct {
	OnDisplay *bool `json:"on_display" validate:"required"`
}

type transitionRequest struct {
	Expected string `json:"expected" validate:"required"`
	Next     string `json:"next" validate:"required"`
}

// Counts reports a product's units at one store, per status.
func Counts(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		counts, err := svc.StatusCounts(r.Context(), productID, storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}

// Availability answers whether a store holds quantity sellable units, with the
// cross-store breakdown when it does not.
func Availability(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, maxAvailabilityQuantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Availability(r.Context(), productID, storeID, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// Units lists a product's units at one store in FIFO order. status defaults to IN_STOCK.
func Units(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := enums.StockUnitStatusInStock
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err = parseUnitStatus(raw, "status")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		units, err := svc.ListAvailable(r.Context(), productID, storeID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, units)
	}
}

// ByStore breaks a product's sellable units down per store.
func ByStore(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		statuses := inventory.AvailableStatuses
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			statuses = nil
			for _, part := range strings.Split(raw, ",") {
				status, err := parseUnitStatus(part, "status")
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				statuses = append(statuses, status)
			}
		}
		counts, err := svc.CountByStoreAcrossStatuses(r.Context(), productID, statuses)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}

func SetDisplay(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, err := validators.PathUUID(r, "unitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req displayRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unit, err := svc.SetDisplay(r.Context(), unitID, *req.OnDisplay)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unit)
	}
}

// Transition applies a manual compare-and-set move, e.g. writing off a unit as DAMAGED.
func Transition(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, err := validators.PathUUID(r, "unitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expected, err := parseUnitStatus(req.Expected, "expected")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next, err := parseUnitStatus(req.Next, "next")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unit, err := svc.Transition(r.Context(), unitID, expected, next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unit)
	}
}

func parseUnitStatus(raw, field string) (enums.StockUnitStatus, error) {
	status, err := enums.ParseStockUnitStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit status").
			WithDetails(map[string]any{"field": field})
	}
	return status, nil
}
