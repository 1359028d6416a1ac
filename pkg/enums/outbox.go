package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateCustomerOrder OutboxAggregateType = "customer_order"
	AggregateDelivery      OutboxAggregateType = "delivery"
	AggregateTransaction   OutboxAggregateType = "transaction"
	AggregateReturn        OutboxAggregateType = "return"
	AggregateStore         OutboxAggregateType = "store"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCustomerOrder,
	AggregateDelivery,
	AggregateTransaction,
	AggregateReturn,
	AggregateStore,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventOrderCreated          OutboxEventType = "order_created"
	EventOrderStatusChanged    OutboxEventType = "order_status_changed"
	EventDeliveryCreated       OutboxEventType = "delivery_created"
	EventDeliveryStatusChanged OutboxEventType = "delivery_status_changed"
	EventStockUnitsCreated     OutboxEventType = "stock_units_created"
	EventSaleRecorded          OutboxEventType = "sale_recorded"
	EventReturnCreated         OutboxEventType = "return_created"
	EventReturnResolved        OutboxEventType = "return_resolved"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventDeliveryCreated,
	EventDeliveryStatusChanged,
	EventStockUnitsCreated,
	EventSaleRecorded,
	EventReturnCreated,
	EventReturnResolved,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
