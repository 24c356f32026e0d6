package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/pkg/utils"
	"github.com/shopspring/decimal"
)

// CreateExpenseRequest describes a claim submitted by the acting user.
// An empty Currency means the company currency; a zero Date means today.
type CreateExpenseRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Category    string
	Description string
	Date        time.Time
}

// ExpenseService submits and reads expense claims
type ExpenseService interface {
	// CreateExpense stores a claim for the actor and starts its approval
	// workflow in the same transaction
	CreateExpense(ctx context.Context, actor entity.Actor, req CreateExpenseRequest) (*entity.Expense, []*entity.Approval, error)

	// GetExpense returns an expense visible to the actor
	GetExpense(ctx context.Context, actor entity.Actor, expenseID int64) (*entity.Expense, error)

	// ListByEmployee lists an employee's claims, newest first
	ListByEmployee(ctx context.Context, actor entity.Actor, employeeID int64) ([]*entity.Expense, error)

	// ListByCompany lists every claim of the actor's company, newest first
	ListByCompany(ctx context.Context, actor entity.Actor, companyID int64) ([]*entity.Expense, error)

	// ListForManager lists the claims of a manager's direct reports, newest first
	ListForManager(ctx context.Context, actor entity.Actor, managerID int64) ([]*entity.Expense, error)
}

type expenseServiceImpl struct {
	engine      workflow.WorkflowEngine
	expenseRepo port.ExpenseRepository
	userRepo    port.UserRepository
	companyRepo port.CompanyRepository
	txManager   port.TransactionManager
	logger      Logger
	now         func() time.Time
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	engine workflow.WorkflowEngine,
	expenseRepo port.ExpenseRepository,
	userRepo port.UserRepository,
	companyRepo port.CompanyRepository,
	txManager port.TransactionManager,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		engine:      engine,
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		txManager:   txManager,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateExpense inserts the claim and runs the workflow initiator inside one
// transaction; events are published only after it commits
func (s *expenseServiceImpl) CreateExpense(ctx context.Context, actor entity.Actor, req CreateExpenseRequest) (*entity.Expense, []*entity.Approval, error) {
	if err := utils.ValidateAmount(req.Amount); err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, domainwf.ErrInvalidExpense)
	}
	if !entity.FitsMinorUnits(req.Amount) {
		return nil, nil, fmt.Errorf("amount %s exceeds the supported maximum: %w", req.Amount.String(), domainwf.ErrInvalidExpense)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency != "" {
		if err := utils.ValidateCurrency(currency); err != nil {
			return nil, nil, fmt.Errorf("%v: %w", err, domainwf.ErrInvalidExpense)
		}
	}

	now := s.now()
	date := req.Date
	if date.IsZero() {
		date = now
	}

	var (
		expense   *entity.Expense
		approvals []*entity.Approval
		events    []*event.Event
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		submitter, err := s.userRepo.GetByID(txCtx, actor.UserID)
		if err != nil {
			return err
		}
		if submitter == nil {
			return fmt.Errorf("user %d: %w", actor.UserID, domainwf.ErrNotFound)
		}

		if currency == "" {
			company, err := s.companyRepo.GetByID(txCtx, submitter.CompanyID)
			if err != nil {
				return err
			}
			if company == nil {
				return fmt.Errorf("company %d: %w", submitter.CompanyID, domainwf.ErrNotFound)
			}
			currency = company.Currency
		}

		expense = &entity.Expense{
			EmployeeID:  submitter.ID,
			CompanyID:   submitter.CompanyID,
			Amount:      req.Amount,
			Currency:    currency,
			Category:    strings.TrimSpace(utils.SanitizeString(req.Category)),
			Description: strings.TrimSpace(utils.SanitizeString(req.Description)),
			Date:        date,
			Status:      entity.ExpenseStatusPending,
			CreatedAt:   now,
		}
		if err := s.expenseRepo.Create(txCtx, expense); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}

		approvals, events, err = s.engine.Initiator().Initiate(txCtx, expense)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to create expense", "actor_id", actor.UserID, "error", err)
		return nil, nil, err
	}

	s.engine.Publish(ctx, events)

	s.logger.Info("Expense created",
		"expense_id", expense.ID,
		"employee_id", expense.EmployeeID,
		"amount", expense.Amount.String(),
		"status", expense.Status.String(),
		"steps", len(approvals),
	)
	if approvals == nil {
		approvals = []*entity.Approval{}
	}
	return expense, approvals, nil
}

// GetExpense returns an expense visible to the actor. Invisible expenses are
// reported as not found.
func (s *expenseServiceImpl) GetExpense(ctx context.Context, actor entity.Actor, expenseID int64) (*entity.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil || !canViewExpense(actor, expense) {
		return nil, fmt.Errorf("expense %d: %w", expenseID, domainwf.ErrNotFound)
	}
	return expense, nil
}

// ListByEmployee is open to the employee and to ADMIN or MANAGER users of
// the same company
func (s *expenseServiceImpl) ListByEmployee(ctx context.Context, actor entity.Actor, employeeID int64) ([]*entity.Expense, error) {
	if actor.UserID != employeeID {
		if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleManager {
			return nil, fmt.Errorf("user %d may not view expenses of user %d: %w", actor.UserID, employeeID, domainwf.ErrUnauthorized)
		}
		employee, err := s.userRepo.GetByID(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		if employee == nil || employee.CompanyID != actor.CompanyID {
			return nil, fmt.Errorf("user %d: %w", employeeID, domainwf.ErrNotFound)
		}
	}

	expenses, err := s.expenseRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []*entity.Expense{}
	}
	return expenses, nil
}

// ListByCompany is open to members of that company
func (s *expenseServiceImpl) ListByCompany(ctx context.Context, actor entity.Actor, companyID int64) ([]*entity.Expense, error) {
	if actor.CompanyID != companyID {
		return nil, fmt.Errorf("user %d may not view expenses of company %d: %w", actor.UserID, companyID, domainwf.ErrUnauthorized)
	}

	expenses, err := s.expenseRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []*entity.Expense{}
	}
	return expenses, nil
}

// ListForManager is open to the manager and to ADMIN users of the manager's company
func (s *expenseServiceImpl) ListForManager(ctx context.Context, actor entity.Actor, managerID int64) ([]*entity.Expense, error) {
	if actor.UserID != managerID {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("user %d may not view the team expenses of user %d: %w", actor.UserID, managerID, domainwf.ErrUnauthorized)
		}
		manager, err := s.userRepo.GetByID(ctx, managerID)
		if err != nil {
			return nil, err
		}
		if manager == nil || manager.CompanyID != actor.CompanyID {
			return nil, fmt.Errorf("user %d: %w", managerID, domainwf.ErrNotFound)
		}
	}

	expenses, err := s.expenseRepo.ListByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []*entity.Expense{}
	}
	return expenses, nil
}
