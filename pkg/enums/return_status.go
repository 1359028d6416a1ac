package enums

import "fmt"

// ReturnStatus tracks the review of a customer return.
type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "PENDING"
	ReturnStatusAccepted ReturnStatus = "ACCEPTED"
	ReturnStatusRejected ReturnStatus = "REJECTED"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusPending,
	ReturnStatusAccepted,
	ReturnStatusRejected,
}

// String implements fmt.Stringer.
func (r ReturnStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnStatus.
func (r ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnStatus converts raw input into a ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}

// ReturnDecision is the reviewer's verdict on a pending return.
type ReturnDecision string

const (
	ReturnDecisionAccept ReturnDecision = "ACCEPT"
	ReturnDecisionReject ReturnDecision = "REJECT"
)

// Status maps the decision to the resulting return status.
func (d ReturnDecision) Status() (ReturnStatus, error) {
	switch d {
	case ReturnDecisionAccept:
		return ReturnStatusAccepted, nil
	case ReturnDecisionReject:
		return ReturnStatusRejected, nil
	}
	return "", fmt.Errorf("invalid return decision %q", d)
}

// ParseReturnDecision converts raw input into a ReturnDecision.
func ParseReturnDecision(value string) (ReturnDecision, error) {
	switch d := ReturnDecision(value); d {
	case ReturnDecisionAccept, ReturnDecisionReject:
		return d, nil
	}
	return "", fmt.Errorf("invalid return decision %q", value)
}
