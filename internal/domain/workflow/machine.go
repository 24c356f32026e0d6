package workflow

import "context"

// StateMachine represents a state machine that tracks current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error
}

type deciderKey struct{}

// WithDecider returns a context carrying the id of the user submitting a decision
func WithDecider(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, deciderKey{}, userID)
}

// DeciderFrom returns the deciding user carried by ctx
func DeciderFrom(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(deciderKey{}).(int64)
	return userID, ok
}

// NewStepMachine returns the lifecycle machine for an approval step assigned
// to approverID. PENDING moves to APPROVED or REJECTED exactly once, both
// targets are terminal, and either move is guarded: the decider carried by
// the context passed to Fire must be the step's approver, otherwise Fire
// returns ErrGuardFailed.
func NewStepMachine(initial State, approverID int64) StateMachine {
	isApprover := func(ctx context.Context) bool {
		userID, ok := DeciderFrom(ctx)
		return ok && userID == approverID
	}

	b := NewBuilder()
	b.Configure(StatePending).
		PermitIf(TriggerApprove, StateApproved, isApprover).
		PermitIf(TriggerReject, StateRejected, isApprover)
	return b.Build(initial)
}
