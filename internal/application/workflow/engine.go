// Package workflow is the approval workflow engine: rule matching, chain
// materialization, the sequential decision gate and status aggregation.
package workflow

import (
	"context"
	"time"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

// WorkflowEngine is the entry point used by application services
type WorkflowEngine interface {
	// InitiateWorkflow materializes the approval chain of a freshly created expense
	InitiateWorkflow(ctx context.Context, expense *entity.Expense) ([]*entity.Approval, error)

	// SubmitDecision applies actor's decision to the current step of an expense
	SubmitDecision(ctx context.Context, actor entity.Actor, expenseID int64, decision, comment string) (*entity.Approval, error)

	// Initiator exposes the initiator for callers that own the transaction
	Initiator() *WorkflowInitiator

	// Publish dispatches events produced inside a caller-owned transaction
	Publish(ctx context.Context, events []*event.Event)
}

// Engine wires the five workflow components together
type Engine struct {
	catalog    *RuleCatalog
	resolver   *ApproverResolver
	initiator  *WorkflowInitiator
	processor  *ApprovalProcessor
	aggregator *StatusAggregator

	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// EngineOption configures the workflow engine
type EngineOption func(*Engine)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(l Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock overrides the time source used for creation and decision stamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.initiator.now = now
		e.processor.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	rules port.ApprovalRuleRepository,
	users port.UserRepository,
	expenses port.ExpenseRepository,
	approvals port.ApprovalRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		txManager: txManager,
		logger:    nopLogger{},
	}

	e.catalog = NewRuleCatalog(rules)
	e.resolver = NewApproverResolver(users)
	e.aggregator = NewStatusAggregator(expenses, approvals)
	e.initiator = NewWorkflowInitiator(e.catalog, e.resolver, expenses, approvals, e.logger)
	e.processor = NewApprovalProcessor(expenses, approvals, e.aggregator, e.logger)

	for _, opt := range opts {
		opt(e)
	}

	// Loggers are bound after options so WithLogger reaches every component
	e.initiator.logger = e.logger
	e.processor.logger = e.logger

	return e
}

// InitiateWorkflow runs the initiator in its own transaction (or the caller's,
// when ctx already carries one) and publishes the resulting events
func (e *Engine) InitiateWorkflow(ctx context.Context, expense *entity.Expense) ([]*entity.Approval, error) {
	var (
		approvals []*entity.Approval
		events    []*event.Event
	)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		approvals, events, err = e.initiator.Initiate(txCtx, expense)
		return err
	})
	if err != nil {
		e.logger.Error("Failed to initiate workflow", "expense_id", expense.ID, "error", err)
		return nil, err
	}

	e.Publish(ctx, events)
	return approvals, nil
}

// SubmitDecision validates and applies a decision atomically, then publishes
// the resulting events
func (e *Engine) SubmitDecision(ctx context.Context, actor entity.Actor, expenseID int64, decision, comment string) (*entity.Approval, error) {
	var (
		approval *entity.Approval
		events   []*event.Event
	)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		approval, events, err = e.processor.SubmitDecision(txCtx, actor, expenseID, decision, comment)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.Publish(ctx, events)
	return approval, nil
}

// Initiator exposes the initiator for callers that own the transaction
func (e *Engine) Initiator() *WorkflowInitiator {
	return e.initiator
}

// Publish dispatches committed events. Subscriber failures are logged and
// never undo the committed change.
func (e *Engine) Publish(ctx context.Context, events []*event.Event) {
	if e.dispatcher == nil {
		return
	}
	for _, evt := range events {
		if err := e.dispatcher.Dispatch(ctx, evt); err != nil {
			e.logger.Error("Event subscriber failed",
				"event_type", evt.Type.String(),
				"expense_id", evt.ExpenseID,
				"error", err,
			)
		}
	}
}

var _ WorkflowEngine = (*Engine)(nil)
