package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// ApproverResolver picks the individual who must act on a rule's step
type ApproverResolver struct {
	users port.UserRepository
}

// NewApproverResolver creates an ApproverResolver
func NewApproverResolver(users port.UserRepository) *ApproverResolver {
	return &ApproverResolver{users: users}
}

// Resolve returns the approver for rule on expense, or nil when nobody
// qualifies. A fixed approver wins unconditionally; company membership was
// checked when the rule was saved. Otherwise the first user (by id) of the
// expense's company holding the rule's role is chosen, never the submitter.
func (r *ApproverResolver) Resolve(ctx context.Context, rule *entity.ApprovalRule, expense *entity.Expense) (*entity.User, error) {
	if rule.ApproverID != nil {
		user, err := r.users.GetByID(ctx, *rule.ApproverID)
		if err != nil {
			return nil, fmt.Errorf("get fixed approver %d: %w", *rule.ApproverID, err)
		}
		return user, nil
	}

	if rule.ApproverRole == nil {
		return nil, nil
	}

	candidates, err := r.users.ListByCompanyAndRole(ctx, expense.CompanyID, *rule.ApproverRole, expense.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("list %s users: %w", *rule.ApproverRole, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return candidates[0], nil
}
