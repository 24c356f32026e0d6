package workflow

import (
	"fmt"
	"strings"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Trigger represents a decision that moves a step out of PENDING
type Trigger string

const (
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// TriggerForDecision maps a submitted decision ("APPROVED" or "REJECTED",
// case-insensitive) to its trigger.
func TriggerForDecision(decision string) (Trigger, error) {
	switch entity.ApprovalStatus(strings.ToUpper(strings.TrimSpace(decision))) {
	case entity.ApprovalStatusApproved:
		return TriggerApprove, nil
	case entity.ApprovalStatusRejected:
		return TriggerReject, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}
}
