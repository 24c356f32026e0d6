package workflow

import "github.com/garyjia/expense-approval/internal/domain/entity"

// State represents the state of one approval step
type State string

const (
	StatePending  State = "PENDING"
	StateApproved State = "APPROVED"
	StateRejected State = "REJECTED"
)

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return s == StateApproved || s == StateRejected
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid step state
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected:
		return true
	}
	return false
}

// ApprovalStatus converts the state to the persisted approval status
func (s State) ApprovalStatus() entity.ApprovalStatus {
	return entity.ApprovalStatus(s)
}

// StateOf returns the machine state for a persisted approval status
func StateOf(status entity.ApprovalStatus) State {
	return State(status)
}
