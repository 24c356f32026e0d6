package event

// Type identifies the type of domain event
type Type string

const (
	TypeWorkflowInitiated    Type = "workflow.initiated"
	TypeExpenseAutoApproved  Type = "expense.auto_approved"
	TypeApprovalDecided      Type = "approval.decided"
	TypeExpenseStatusChanged Type = "expense.status_changed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeWorkflowInitiated,
		TypeExpenseAutoApproved,
		TypeApprovalDecided,
		TypeExpenseStatusChanged:
		return true
	default:
		return false
	}
}

// AllTypes lists every workflow event type
func AllTypes() []Type {
	return []Type{
		TypeWorkflowInitiated,
		TypeExpenseAutoApproved,
		TypeApprovalDecided,
		TypeExpenseStatusChanged,
	}
}
