package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

// WorkflowInitiator materializes the approval chain of a new expense
type WorkflowInitiator struct {
	catalog   *RuleCatalog
	resolver  *ApproverResolver
	expenses  port.ExpenseRepository
	approvals port.ApprovalRepository
	logger    Logger
	now       func() time.Time
}

// NewWorkflowInitiator creates a WorkflowInitiator
func NewWorkflowInitiator(
	catalog *RuleCatalog,
	resolver *ApproverResolver,
	expenses port.ExpenseRepository,
	approvals port.ApprovalRepository,
	logger Logger,
) *WorkflowInitiator {
	return &WorkflowInitiator{
		catalog:   catalog,
		resolver:  resolver,
		expenses:  expenses,
		approvals: approvals,
		logger:    logger,
		now:       time.Now,
	}
}

// Initiate evaluates the company's rules against expense. With no applicable
// rule the expense is approved on the spot. Otherwise one PENDING step is
// created per rule that resolves to an approver; rules that resolve to nobody
// are skipped. Must run inside the caller's transaction.
func (w *WorkflowInitiator) Initiate(ctx context.Context, expense *entity.Expense) ([]*entity.Approval, []*event.Event, error) {
	rules, err := w.catalog.ApplicableRules(ctx, expense.CompanyID, expense.Amount)
	if err != nil {
		return nil, nil, err
	}

	if len(rules) == 0 {
		events, err := w.autoApprove(ctx, expense)
		return nil, events, err
	}

	approvals := make([]*entity.Approval, 0, len(rules))
	for _, rule := range rules {
		approver, err := w.resolver.Resolve(ctx, rule, expense)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve approver for rule %d: %w", rule.ID, err)
		}
		if approver == nil {
			w.logger.Warn("Approval rule resolved to no approver, step skipped",
				"expense_id", expense.ID,
				"rule_id", rule.ID,
				"sequence", rule.Sequence,
			)
			continue
		}

		approval := &entity.Approval{
			ExpenseID:  expense.ID,
			ApproverID: approver.ID,
			Sequence:   rule.Sequence,
			Status:     entity.ApprovalStatusPending,
			CreatedAt:  w.now(),
		}
		if err := w.approvals.Create(ctx, approval); err != nil {
			return nil, nil, fmt.Errorf("create approval for rule %d: %w", rule.ID, err)
		}
		approvals = append(approvals, approval)
	}

	if len(approvals) == 0 {
		w.logger.Warn("No approval step could be materialized, expense left pending",
			"expense_id", expense.ID,
			"matched_rules", len(rules),
		)
	}

	w.logger.Info("Approval workflow initiated",
		"expense_id", expense.ID,
		"matched_rules", len(rules),
		"steps", len(approvals),
	)

	evt := event.NewEvent(event.TypeWorkflowInitiated, expense.ID, map[string]interface{}{
		event.KeyStepCount: len(approvals),
	})
	return approvals, []*event.Event{evt}, nil
}

func (w *WorkflowInitiator) autoApprove(ctx context.Context, expense *entity.Expense) ([]*event.Event, error) {
	previous := expense.Status
	if err := w.expenses.UpdateStatus(ctx, expense.ID, entity.ExpenseStatusApproved); err != nil {
		return nil, fmt.Errorf("auto-approve expense: %w", err)
	}
	expense.Status = entity.ExpenseStatusApproved

	w.logger.Info("No approval rule applies, expense auto-approved",
		"expense_id", expense.ID,
		"company_id", expense.CompanyID,
	)

	autoApproved := event.NewEvent(event.TypeExpenseAutoApproved, expense.ID, nil)
	changed := event.NewEventWithCorrelation(event.TypeExpenseStatusChanged, expense.ID, map[string]interface{}{
		event.KeyOldStatus: previous.String(),
		event.KeyNewStatus: expense.Status.String(),
	}, autoApproved.CorrelationID)

	return []*event.Event{autoApproved, changed}, nil
}
