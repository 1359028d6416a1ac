package restock

import (
	"sort"

	"github.com/google/uuid"
)

// Quantity is an aggregate for one (store, product) pair.
type Quantity struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
}

// Deficit is the unmet demand for one product at one store.
type Deficit struct {
	StoreID      uuid.UUID
	ProductID    uuid.UUID
	Demand       int64
	Pending      int64
	CurrentStock int64
	Deficit      int64
}

type pairKey struct {
	store   uuid.UUID
	product uuid.UUID
}

// computeDeficits reconciles outstanding demand with inbound supply and stock on hand.
// Pairs already covered by pending deliveries are skipped before stock is considered;
// only positive deficits are returned, ordered by store then product id.
func computeDeficits(demand, pending, stock []Quantity) []Deficit {
	pendingBy := index(pending)
	stockBy := index(stock)
	demandBy := index(demand)

	out := make([]Deficit, 0)
	for key, wanted := range demandBy {
		if wanted <= 0 {
			continue
		}
		inbound := pendingBy[key]
		if wanted-inbound <= 0 {
			continue
		}
		onHand := stockBy[key]
		deficit := wanted - (inbound + onHand)
		if deficit <= 0 {
			continue
		}
		out = append(out, Deficit{
			StoreID:      key.store,
			ProductID:    key.product,
			Demand:       wanted,
			Pending:      inbound,
			CurrentStock: onHand,
			Deficit:      deficit,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoreID != out[j].StoreID {
			return out[i].StoreID.String() < out[j].StoreID.String()
		}
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}

func index(rows []Quantity) map[pairKey]int64 {
	out := make(map[pairKey]int64, len(rows))
	for _, row := range rows {
		out[pairKey{store: row.StoreID, product: row.ProductID}] += row.Quantity
	}
	return out
}

// lowStockProposal returns how many units bring a product back to its minimum stock, or
// zero when it is not below its low-stock threshold.
func lowStockProposal(current int64, threshold, minimum int) int64 {
	if current >= int64(threshold) {
		return 0
	}
	need := int64(minimum) - current
	if need <= 0 {
		return 0
	}
	return need
}
