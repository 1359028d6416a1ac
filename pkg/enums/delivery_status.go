package enums

import "fmt"

// DeliveryStatus tracks a supplier delivery from intake to shelf.
type DeliveryStatus string

const (
	DeliveryStatusReceived   DeliveryStatus = "RECEIVED"
	DeliveryStatusInProgress DeliveryStatus = "IN_PROGRESS"
	DeliveryStatusCompleted  DeliveryStatus = "COMPLETED"
	DeliveryStatusCancelled  DeliveryStatus = "CANCELLED"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusReceived,
	DeliveryStatusInProgress,
	DeliveryStatusCompleted,
	DeliveryStatusCancelled,
}

// PendingDeliveryStatuses lists the statuses whose lines still count as inbound supply.
var PendingDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusReceived,
	DeliveryStatusInProgress,
}

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusReceived:   {DeliveryStatusInProgress, DeliveryStatusCompleted, DeliveryStatusCancelled},
	DeliveryStatusInProgress: {DeliveryStatusCompleted, DeliveryStatusCancelled},
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (d DeliveryStatus) IsTerminal() bool {
	return d == DeliveryStatusCompleted || d == DeliveryStatusCancelled
}

// CanTransitionTo reports whether a delivery may move from d to next.
func (d DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, candidate := range deliveryTransitions[d] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
