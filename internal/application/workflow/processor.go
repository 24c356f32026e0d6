package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
)

// ApprovalProcessor is the sequential gate over an expense's steps.
// The current step is the lowest-sequence PENDING one; only its designated
// approver may decide it, so steps are decided in ascending sequence order.
type ApprovalProcessor struct {
	expenses   port.ExpenseRepository
	approvals  port.ApprovalRepository
	aggregator *StatusAggregator
	logger     Logger
	now        func() time.Time
}

// NewApprovalProcessor creates an ApprovalProcessor
func NewApprovalProcessor(
	expenses port.ExpenseRepository,
	approvals port.ApprovalRepository,
	aggregator *StatusAggregator,
	logger Logger,
) *ApprovalProcessor {
	return &ApprovalProcessor{
		expenses:   expenses,
		approvals:  approvals,
		aggregator: aggregator,
		logger:     logger,
		now:        time.Now,
	}
}

// CurrentStep returns the step eligible for a decision, or nil when the
// workflow has concluded or never started
func (p *ApprovalProcessor) CurrentStep(ctx context.Context, expenseID int64) (*entity.Approval, error) {
	step, err := p.approvals.GetCurrentPending(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("get current step: %w", err)
	}
	return step, nil
}

// SubmitDecision records actor's decision on the current step of expenseID
// and recomputes the expense status. Must run inside a transaction so the
// decision and the recomputed status commit together.
func (p *ApprovalProcessor) SubmitDecision(
	ctx context.Context,
	actor entity.Actor,
	expenseID int64,
	decision string,
	comment string,
) (*entity.Approval, []*event.Event, error) {
	trigger, err := domainwf.TriggerForDecision(decision)
	if err != nil {
		return nil, nil, err
	}

	expense, err := p.expenses.GetByID(ctx, expenseID)
	if err != nil {
		return nil, nil, fmt.Errorf("get expense: %w", err)
	}
	if expense == nil {
		return nil, nil, fmt.Errorf("expense %d: %w", expenseID, domainwf.ErrNotFound)
	}

	step, err := p.CurrentStep(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	if step == nil {
		return nil, nil, fmt.Errorf("expense %d: %w", expenseID, domainwf.ErrNoPendingApproval)
	}

	machine := domainwf.NewStepMachine(domainwf.StateOf(step.Status), step.ApproverID)
	if err := machine.Fire(domainwf.WithDecider(ctx, actor.UserID), trigger); err != nil {
		if errors.Is(err, domainwf.ErrGuardFailed) {
			p.logger.Warn("Decision rejected, actor is not the current approver",
				"expense_id", expenseID,
				"approval_id", step.ID,
				"actor_id", actor.UserID,
				"approver_id", step.ApproverID,
			)
			return nil, nil, fmt.Errorf("user %d may not decide step %d of expense %d: %w",
				actor.UserID, step.Sequence, expenseID, domainwf.ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("decide step %d: %w", step.ID, err)
	}

	decidedAt := p.now()
	step.Status = machine.State().ApprovalStatus()
	step.Comment = comment
	step.DecidedAt = &decidedAt

	applied, err := p.approvals.Decide(ctx, step)
	if err != nil {
		return nil, nil, fmt.Errorf("persist decision: %w", err)
	}
	if !applied {
		// Another writer decided the step between our read and write
		return nil, nil, fmt.Errorf("step %d of expense %d: %w", step.ID, expenseID, domainwf.ErrNoPendingApproval)
	}

	previous, changed, err := p.aggregator.Recompute(ctx, expense)
	if err != nil {
		return nil, nil, err
	}

	p.logger.Info("Approval decision recorded",
		"expense_id", expenseID,
		"approval_id", step.ID,
		"sequence", step.Sequence,
		"decision", step.Status.String(),
		"expense_status", expense.Status.String(),
	)

	decided := event.NewEvent(event.TypeApprovalDecided, expenseID, map[string]interface{}{
		event.KeyApprovalID: step.ID,
		event.KeyApproverID: step.ApproverID,
		event.KeySequence:   step.Sequence,
		event.KeyDecision:   step.Status.String(),
		event.KeyActorID:    actor.UserID,
	})
	events := []*event.Event{decided}
	if changed {
		events = append(events, event.NewEventWithCorrelation(event.TypeExpenseStatusChanged, expenseID, map[string]interface{}{
			event.KeyOldStatus: previous.String(),
			event.KeyNewStatus: expense.Status.String(),
		}, decided.CorrelationID))
	}

	return step, events, nil
}
