package stock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/angelmondragon/retailstock-backend/internal/inventory"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

type stubInventoryService struct {
	inventory.Service
	requested int
	statuses  []enums.StockUnitStatus
	display   *bool
}

func (s *stubInventoryService) Availability(ctx context.Context, productID, storeID uuid.UUID, requested int) (*inventory.AvailabilityDTO, error) {
	s.requested = requested
	return &inventory.AvailabilityDTO{ProductID: productID, StoreID: storeID, Requested: requested}, nil
}

func (s *stubInventoryService) CountByStoreAcrossStatuses(ctx context.Context, productID uuid.UUID, statuses []enums.StockUnitStatus) ([]inventory.StoreCountDTO, error) {
	s.statuses = statuses
	return nil, nil
}

func (s *stubInventoryService) SetDisplay(ctx context.Context, unitID uuid.UUID, onDisplay bool) (*inventory.StockUnitDTO, error) {
	s.display = &onDisplay
	return &inventory.StockUnitDTO{ID: unitID, Status: enums.StockUnitStatusOnDisplay}, nil
}

func routed(method, target string, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestAvailabilityReadsQuantity(t *testing.T) {
	svc := &stubInventoryService{}
	req := routed(http.MethodGet, "/api/v1/stock/p/stores/s/availability?quantity=4", "", map[string]string{
		"productId": uuid.NewString(),
		"storeId":   uuid.NewString(),
	})
	rec := httptest.NewRecorder()
	Availability(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.requested != 4 {
		t.Fatalf("expected quantity 4, got %d", svc.requested)
	}
}

func TestAvailabilityRejectsZeroQuantity(t *testing.T) {
	req := routed(http.MethodGet, "/x?quantity=0", "", map[string]string{
		"productId": uuid.NewString(),
		"storeId":   uuid.NewString(),
	})
	rec := httptest.NewRecorder()
	Availability(&stubInventoryService{}, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestByStoreDefaultsToSellableStatuses(t *testing.T) {
	svc := &stubInventoryService{}
	req := routed(http.MethodGet, "/x", "", map[string]string{"productId": uuid.NewString()})
	ByStore(svc, nil).ServeHTTP(httptest.NewRecorder(), req)
	if diff := cmp.Diff(inventory.AvailableStatuses, svc.statuses); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}

	req = routed(http.MethodGet, "/x?status=reserved,awaiting_pickup", "", map[string]string{"productId": uuid.NewString()})
	ByStore(svc, nil).ServeHTTP(httptest.NewRecorder(), req)
	want := []enums.StockUnitStatus{enums.StockUnitStatusReserved, enums.StockUnitStatusAwaitingPickup}
	if diff := cmp.Diff(want, svc.statuses); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestSetDisplayRequiresFlag(t *testing.T) {
	svc := &stubInventoryService{}
	req := routed(http.MethodPost, "/x", `{}`, map[string]string{"unitId": uuid.NewString()})
	rec := httptest.NewRecorder()
	SetDisplay(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	req = routed(http.MethodPost, "/x", `{"on_display":false}`, map[string]string{"unitId": uuid.NewString()})
	rec = httptest.NewRecorder()
	SetDisplay(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.display == nil || *svc.display {
		t.Fatalf("expected on_display=false to reach the service")
	}
}
