package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// StatusAggregator derives an expense's status from its approval steps
type StatusAggregator struct {
	expenses  port.ExpenseRepository
	approvals port.ApprovalRepository
}

// NewStatusAggregator creates a StatusAggregator
func NewStatusAggregator(expenses port.ExpenseRepository, approvals port.ApprovalRepository) *StatusAggregator {
	return &StatusAggregator{
		expenses:  expenses,
		approvals: approvals,
	}
}

// DeriveStatus computes the aggregate status of a set of steps. Any rejection
// wins over everything else; APPROVED needs every step approved. An empty set
// carries no information, so current is returned unchanged.
func DeriveStatus(approvals []*entity.Approval, current entity.ExpenseStatus) entity.ExpenseStatus {
	if len(approvals) == 0 {
		return current
	}

	allApproved := true
	for _, a := range approvals {
		switch a.Status {
		case entity.ApprovalStatusRejected:
			return entity.ExpenseStatusRejected
		case entity.ApprovalStatusApproved:
		default:
			allApproved = false
		}
	}

	if allApproved {
		return entity.ExpenseStatusApproved
	}
	return entity.ExpenseStatusPending
}

// Recompute re-reads every step of expense, writes the derived status when it
// differs from the stored one and updates expense in place. It reports the
// previous status and whether a write happened.
func (a *StatusAggregator) Recompute(ctx context.Context, expense *entity.Expense) (entity.ExpenseStatus, bool, error) {
	previous := expense.Status

	approvals, err := a.approvals.ListByExpense(ctx, expense.ID)
	if err != nil {
		return previous, false, fmt.Errorf("list approvals: %w", err)
	}

	derived := DeriveStatus(approvals, previous)
	if derived == previous {
		return previous, false, nil
	}

	if err := a.expenses.UpdateStatus(ctx, expense.ID, derived); err != nil {
		return previous, false, fmt.Errorf("update expense status: %w", err)
	}
	expense.Status = derived

	return previous, true, nil
}
