package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrNotFound is returned when a referenced expense, rule, user or approval does not exist
	ErrNotFound = errors.New("not found")

	// ErrNoPendingApproval is returned when a decision arrives for a workflow with no actionable step
	ErrNoPendingApproval = errors.New("no pending approval")

	// ErrUnauthorized is returned when the actor may not act on or read the target
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidDecision is returned when a decision value does not map to a terminal status
	ErrInvalidDecision = errors.New("invalid decision value")

	// ErrConfigurationMismatch is returned when a rule's fixed approver is outside the rule's company
	ErrConfigurationMismatch = errors.New("approver does not belong to the rule's company")

	// ErrInvalidRule is returned when a rule fails field validation
	ErrInvalidRule = errors.New("invalid approval rule")

	// ErrInvalidExpense is returned when a submitted claim fails validation
	ErrInvalidExpense = errors.New("invalid expense")
)
