package restock

import (
	"net/http"

	"github.com/angelmondragon/retailstock-backend/api/responses"
	"github.com/angelmondragon/retailstock-backend/api/validators"
	internalrestock "github.com/angelmondragon/retailstock-backend/internal/restock"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
)

// Suggestions lists per-store deficits driven by open order demand.
func Suggestions(svc internalrestock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Suggestions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func LowStock(svc internalrestock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.LowStock(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// AutoRestock books a supplier delivery topping every low product back to its minimum.
func AutoRestock(svc internalrestock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStoreID(ctx, storeID.String())
		}
		delivery, err := svc.AutoRestock(ctx, storeID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, delivery)
	}
}
