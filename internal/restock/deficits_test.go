package restock

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestComputeDeficits(t *testing.T) {
	storeA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	storeB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	lamp := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	chair := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	demand := []Quantity{
		{StoreID: storeA, ProductID: lamp, Quantity: 10},
		{StoreID: storeA, ProductID: chair, Quantity: 5},
		{StoreID: storeB, ProductID: lamp, Quantity: 2},
	}
	pending := []Quantity{
		{StoreID: storeA, ProductID: lamp, Quantity: 4},
		{StoreID: storeA, ProductID: chair, Quantity: 6},
	}
	stock := []Quantity{
		{StoreID: storeA, ProductID: lamp, Quantity: 3},
		{StoreID: storeB, ProductID: lamp, Quantity: 5},
	}

	got := computeDeficits(demand, pending, stock)
	want := []Deficit{
		{StoreID: storeA, ProductID: lamp, Demand: 10, Pending: 4, CurrentStock: 3, Deficit: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("computeDeficits mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDeficitsWithoutDemand(t *testing.T) {
	got := computeDeficits(nil, []Quantity{{StoreID: uuid.New(), ProductID: uuid.New(), Quantity: 2}}, nil)
	if len(got) != 0 {
		t.Fatalf("expected no deficits, got %v", got)
	}
}

func TestLowStockProposal(t *testing.T) {
	tests := []struct {
		name      string
		current   int64
		threshold int
		minimum   int
		want      int64
	}{
		{"below threshold", 1, 3, 10, 9},
		{"at threshold", 3, 3, 10, 0},
		{"minimum already met", 1, 3, 1, 0},
		{"empty shelf", 0, 1, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lowStockProposal(tt.current, tt.threshold, tt.minimum); got != tt.want {
				t.Fatalf("lowStockProposal(%d, %d, %d) = %d, want %d", tt.current, tt.threshold, tt.minimum, got, tt.want)
			}
		})
	}
}
