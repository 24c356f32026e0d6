package service

import (
	"context"
	"fmt"
	"io"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// PendingExporter renders an approver's queue
type PendingExporter interface {
	Write(w io.Writer, approvals []*entity.Approval) error
}

// ProcessApprovalRequest carries one approver decision
type ProcessApprovalRequest struct {
	ExpenseID int64  `json:"expense_id" binding:"required"`
	Status    string `json:"status" binding:"required"`
	Comment   string `json:"comment"`
}

// ApprovalService is the application entry point of the approval workflow.
// Every operation takes the acting user explicitly.
type ApprovalService interface {
	// ProcessApproval records actor's decision on the current step of an expense
	ProcessApproval(ctx context.Context, actor entity.Actor, req ProcessApprovalRequest) (*entity.Approval, error)

	// PendingApprovalsFor lists the steps waiting on approverID, oldest expense first
	PendingApprovalsFor(ctx context.Context, actor entity.Actor, approverID int64) ([]*entity.Approval, error)

	// ExportPendingApprovals writes the pending queue of approverID as a spreadsheet
	ExportPendingApprovals(ctx context.Context, actor entity.Actor, approverID int64, w io.Writer) error

	// ApprovalsFor lists every step of an expense in sequence order
	ApprovalsFor(ctx context.Context, actor entity.Actor, expenseID int64) ([]*entity.Approval, error)

	// InitiateWorkflow materializes the approval chain of a newly created expense
	InitiateWorkflow(ctx context.Context, expense *entity.Expense) ([]*entity.Approval, error)
}

type approvalServiceImpl struct {
	engine       workflow.WorkflowEngine
	expenseRepo  port.ExpenseRepository
	approvalRepo port.ApprovalRepository
	exporter     PendingExporter
	logger       Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	engine workflow.WorkflowEngine,
	expenseRepo port.ExpenseRepository,
	approvalRepo port.ApprovalRepository,
	exporter PendingExporter,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		engine:       engine,
		expenseRepo:  expenseRepo,
		approvalRepo: approvalRepo,
		exporter:     exporter,
		logger:       logger,
	}
}

// ProcessApproval records a decision
func (s *approvalServiceImpl) ProcessApproval(ctx context.Context, actor entity.Actor, req ProcessApprovalRequest) (*entity.Approval, error) {
	approval, err := s.engine.SubmitDecision(ctx, actor, req.ExpenseID, req.Status, req.Comment)
	if err != nil {
		s.logger.Error("Failed to process approval",
			"expense_id", req.ExpenseID,
			"actor_id", actor.UserID,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Approval processed",
		"expense_id", req.ExpenseID,
		"approval_id", approval.ID,
		"status", approval.Status.String(),
	)
	return approval, nil
}

// PendingApprovalsFor lists an approver's queue. Only the approver and ADMIN
// users may read it.
func (s *approvalServiceImpl) PendingApprovalsFor(ctx context.Context, actor entity.Actor, approverID int64) ([]*entity.Approval, error) {
	if actor.UserID != approverID && !actor.IsAdmin() {
		return nil, fmt.Errorf("user %d may not view pending approvals of user %d: %w",
			actor.UserID, approverID, domainwf.ErrUnauthorized)
	}

	approvals, err := s.approvalRepo.ListPendingByApprover(ctx, approverID)
	if err != nil {
		s.logger.Error("Failed to list pending approvals", "approver_id", approverID, "error", err)
		return nil, err
	}
	if approvals == nil {
		approvals = []*entity.Approval{}
	}
	return approvals, nil
}

// ExportPendingApprovals writes the queue returned by PendingApprovalsFor
func (s *approvalServiceImpl) ExportPendingApprovals(ctx context.Context, actor entity.Actor, approverID int64, w io.Writer) error {
	approvals, err := s.PendingApprovalsFor(ctx, actor, approverID)
	if err != nil {
		return err
	}
	if err := s.exporter.Write(w, approvals); err != nil {
		s.logger.Error("Failed to export pending approvals", "approver_id", approverID, "error", err)
		return fmt.Errorf("export pending approvals: %w", err)
	}
	return nil
}

// ApprovalsFor lists the steps of an expense. Visible to the submitter,
// members of the expense's company and ADMIN users.
func (s *approvalServiceImpl) ApprovalsFor(ctx context.Context, actor entity.Actor, expenseID int64) ([]*entity.Approval, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, fmt.Errorf("expense %d: %w", expenseID, domainwf.ErrNotFound)
	}
	if !canViewExpense(actor, expense) {
		return nil, fmt.Errorf("user %d may not view approvals of expense %d: %w",
			actor.UserID, expenseID, domainwf.ErrUnauthorized)
	}

	approvals, err := s.approvalRepo.ListByExpense(ctx, expenseID)
	if err != nil {
		s.logger.Error("Failed to list approvals", "expense_id", expenseID, "error", err)
		return nil, err
	}
	if approvals == nil {
		approvals = []*entity.Approval{}
	}
	return approvals, nil
}

// InitiateWorkflow delegates to the workflow engine
func (s *approvalServiceImpl) InitiateWorkflow(ctx context.Context, expense *entity.Expense) ([]*entity.Approval, error) {
	return s.engine.InitiateWorkflow(ctx, expense)
}

func canViewExpense(actor entity.Actor, expense *entity.Expense) bool {
	return expense.EmployeeID == actor.UserID ||
		expense.CompanyID == actor.CompanyID ||
		actor.IsAdmin()
}
