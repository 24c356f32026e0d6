package entity

// ExpenseStatus is the aggregate state of an expense claim
type ExpenseStatus string

// Status constants for Expense
const (
	ExpenseStatusPending  ExpenseStatus = "PENDING"
	ExpenseStatusApproved ExpenseStatus = "APPROVED"
	ExpenseStatusRejected ExpenseStatus = "REJECTED"
)

// String returns the string representation of the status
func (s ExpenseStatus) String() string {
	return string(s)
}

// ApprovalStatus is the state of a single approval step
type ApprovalStatus string

// Status constants for Approval
const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// String returns the string representation of the status
func (s ApprovalStatus) String() string {
	return string(s)
}

// IsDecision reports whether s is a terminal status an approver may submit
func (s ApprovalStatus) IsDecision() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// Role is a user's role inside their company
type Role string

// Role constants
const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

// RuleKind classifies an approval rule. Only the threshold is evaluated today;
// the kind is stored for reporting.
type RuleKind string

// Rule kind constants
const (
	RuleKindPercentage RuleKind = "PERCENTAGE"
	RuleKindSpecific   RuleKind = "SPECIFIC"
	RuleKindHybrid     RuleKind = "HYBRID"
)

// IsValid returns true if the kind is known
func (k RuleKind) IsValid() bool {
	switch k {
	case RuleKindPercentage, RuleKindSpecific, RuleKindHybrid:
		return true
	default:
		return false
	}
}
