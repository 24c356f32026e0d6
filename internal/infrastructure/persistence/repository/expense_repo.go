package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const expenseColumns = `id, employee_id, company_id, amount_minor, currency, category, description, expense_date, status, created_at`

// ExpenseRepository implements port.ExpenseRepository.
// Amounts are stored as integer minor units.
type ExpenseRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sqlite.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now()
	}
	if expense.Status == "" {
		expense.Status = entity.ExpenseStatusPending
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO expenses (
			employee_id, company_id, amount_minor, currency, category, description, expense_date, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		expense.EmployeeID,
		expense.CompanyID,
		expense.AmountMinor(),
		expense.Currency,
		expense.Category,
		expense.Description,
		expense.Date,
		expense.Status,
		expense.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense",
			zap.Int64("employee_id", expense.EmployeeID),
			zap.String("amount", expense.Amount.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	expense.ID = id
	return nil
}

// GetByID retrieves an expense by its ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

	expense, err := scanExpense(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// UpdateStatus sets the aggregate status of an expense
func (r *ExpenseRepository) UpdateStatus(ctx context.Context, id int64, status entity.ExpenseStatus) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`UPDATE expenses SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		r.logger.Error("Failed to update expense status",
			zap.Int64("id", id),
			zap.String("status", status.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update expense status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", id, domainwf.ErrNotFound)
	}
	return nil
}

// ListByEmployee returns the expenses submitted by employeeID, newest first
func (r *ExpenseRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE employee_id = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, employeeID)
}

// ListByCompany returns every expense of a company, newest first
func (r *ExpenseRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE company_id = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, companyID)
}

// ListByManager returns the expenses of managerID's direct reports, newest first
func (r *ExpenseRepository) ListByManager(ctx context.Context, managerID int64) ([]*entity.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE employee_id IN (SELECT id FROM users WHERE manager_id = ?)
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, managerID)
}

func (r *ExpenseRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Expense, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var (
		e           entity.Expense
		amountMinor int64
	)
	err := row.Scan(
		&e.ID,
		&e.EmployeeID,
		&e.CompanyID,
		&amountMinor,
		&e.Currency,
		&e.Category,
		&e.Description,
		&e.Date,
		&e.Status,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Amount = entity.FromMinorUnits(amountMinor)
	return &e, nil
}

var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
