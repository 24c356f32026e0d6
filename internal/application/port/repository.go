package port

import (
	"context"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Lookups return (nil, nil) when the row does not exist.

// CompanyRepository defines persistence operations for Company
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id int64) (*entity.Company, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)

	// ListByCompanyAndRole returns users of a company holding role, excluding
	// excludeUserID, ordered by id ascending
	ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role, excludeUserID int64) ([]*entity.User, error)
}

// ApprovalRuleRepository defines persistence operations for ApprovalRule
type ApprovalRuleRepository interface {
	Create(ctx context.Context, rule *entity.ApprovalRule) error
	GetByID(ctx context.Context, id int64) (*entity.ApprovalRule, error)
	Update(ctx context.Context, rule *entity.ApprovalRule) error
	Delete(ctx context.Context, id int64) error

	// ListByCompany returns all rules of a company ordered by sequence
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)

	// ListApplicable returns rules whose threshold is at or below amountMinor,
	// ordered by threshold descending, then sequence ascending, then id ascending
	ListApplicable(ctx context.Context, companyID int64, amountMinor int64) ([]*entity.ApprovalRule, error)
}

// ExpenseRepository defines persistence operations for Expense
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByID(ctx context.Context, id int64) (*entity.Expense, error)
	UpdateStatus(ctx context.Context, id int64, status entity.ExpenseStatus) error

	// ListByEmployee and ListByCompany return newest expenses first
	ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error)

	// ListByManager returns the expenses of users whose manager is managerID,
	// newest first
	ListByManager(ctx context.Context, managerID int64) ([]*entity.Expense, error)
}

// ApprovalRepository defines persistence operations for Approval
type ApprovalRepository interface {
	Create(ctx context.Context, approval *entity.Approval) error
	GetByID(ctx context.Context, id int64) (*entity.Approval, error)

	// ListByExpense returns every step of an expense ordered by sequence ascending
	ListByExpense(ctx context.Context, expenseID int64) ([]*entity.Approval, error)

	// GetCurrentPending returns the lowest-sequence PENDING step of an expense
	GetCurrentPending(ctx context.Context, expenseID int64) (*entity.Approval, error)

	// ListPendingByApprover returns PENDING steps assigned to approverID with
	// their expense attached, ordered by expense creation time ascending
	ListPendingByApprover(ctx context.Context, approverID int64) ([]*entity.Approval, error)

	// Decide writes status, comment and decision time only if the step is
	// still PENDING. It reports whether the row was updated.
	Decide(ctx context.Context, approval *entity.Approval) (bool, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
