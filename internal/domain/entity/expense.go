package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a reimbursement claim submitted by an employee.
// Status is the only field that changes after creation.
type Expense struct {
	ID          int64           `json:"id"`
	EmployeeID  int64           `json:"employee_id"`
	CompanyID   int64           `json:"company_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Status      ExpenseStatus   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AmountMinor returns the claim amount in minor currency units
func (e *Expense) AmountMinor() int64 {
	return ToMinorUnits(e.Amount)
}

// Approval is one step of an expense's approval chain.
// Sequence is copied from the rule at initiation and never follows later
// rule edits.
type Approval struct {
	ID         int64          `json:"id"`
	ExpenseID  int64          `json:"expense_id"`
	ApproverID int64          `json:"approver_id"`
	Sequence   int            `json:"sequence"`
	Status     ApprovalStatus `json:"status"`
	Comment    string         `json:"comment,omitempty"`
	DecidedAt  *time.Time     `json:"decided_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`

	// Expense is populated by queries that join the owning expense
	Expense *Expense `json:"expense,omitempty"`
}

// IsPending returns true while the step awaits a decision
func (a *Approval) IsPending() bool {
	return a.Status == ApprovalStatusPending
}
