package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const approvalColumns = `a.id, a.expense_id, a.approver_id, a.sequence, a.status, a.comment, a.decided_at, a.created_at`

// ApprovalRepository implements port.ApprovalRepository
type ApprovalRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sqlite.DB, logger *zap.Logger) port.ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an approval step
func (r *ApprovalRepository) Create(ctx context.Context, approval *entity.Approval) error {
	if approval.CreatedAt.IsZero() {
		approval.CreatedAt = time.Now()
	}
	if approval.Status == "" {
		approval.Status = entity.ApprovalStatusPending
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO approvals (expense_id, approver_id, sequence, status, comment, decided_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		approval.ExpenseID,
		approval.ApproverID,
		approval.Sequence,
		approval.Status,
		nullString(approval.Comment),
		nullTime(approval.DecidedAt),
		approval.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval",
			zap.Int64("expense_id", approval.ExpenseID),
			zap.Int64("approver_id", approval.ApproverID),
			zap.Int("sequence", approval.Sequence),
			zap.Error(err))
		return fmt.Errorf("failed to create approval: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	approval.ID = id
	return nil
}

// GetByID retrieves an approval by its ID
func (r *ApprovalRepository) GetByID(ctx context.Context, id int64) (*entity.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals a WHERE a.id = ?`

	approval, err := scanApproval(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return approval, nil
}

// ListByExpense returns every step of an expense in processing order
func (r *ApprovalRepository) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.Approval, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approvals a
		WHERE a.expense_id = ?
		ORDER BY a.sequence ASC, a.id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, expenseID)
	if err != nil {
		r.logger.Error("Failed to list approvals by expense", zap.Int64("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*entity.Approval
	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, approval)
	}
	return approvals, rows.Err()
}

// GetCurrentPending returns the lowest-sequence PENDING step of an expense
func (r *ApprovalRepository) GetCurrentPending(ctx context.Context, expenseID int64) (*entity.Approval, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM approvals a
		WHERE a.expense_id = ? AND a.status = ?
		ORDER BY a.sequence ASC, a.id ASC
		LIMIT 1
	`

	approval, err := scanApproval(r.db.Executor(ctx).QueryRowContext(ctx, query, expenseID, entity.ApprovalStatusPending))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get current approval", zap.Int64("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get current approval: %w", err)
	}
	return approval, nil
}

// ListPendingByApprover returns PENDING steps assigned to approverID with
// their expense attached, oldest expense first
func (r *ApprovalRepository) ListPendingByApprover(ctx context.Context, approverID int64) ([]*entity.Approval, error) {
	query := `
		SELECT ` + approvalColumns + `, ` + prefixed("e", expenseColumns) + `
		FROM approvals a
		JOIN expenses e ON e.id = a.expense_id
		WHERE a.approver_id = ? AND a.status = ?
		ORDER BY e.created_at ASC, a.expense_id ASC, a.sequence ASC, a.id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, approverID, entity.ApprovalStatusPending)
	if err != nil {
		r.logger.Error("Failed to list pending approvals", zap.Int64("approver_id", approverID), zap.Error(err))
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*entity.Approval
	for rows.Next() {
		approval, err := scanApprovalWithExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, approval)
	}
	return approvals, rows.Err()
}

// Decide records a decision only if the step is still PENDING. A false
// result means another writer got there first.
func (r *ApprovalRepository) Decide(ctx context.Context, approval *entity.Approval) (bool, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE approvals
		SET status = ?, comment = ?, decided_at = ?
		WHERE id = ? AND status = ?
	`,
		approval.Status,
		nullString(approval.Comment),
		nullTime(approval.DecidedAt),
		approval.ID,
		entity.ApprovalStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to record approval decision",
			zap.Int64("id", approval.ID),
			zap.String("status", approval.Status.String()),
			zap.Error(err))
		return false, fmt.Errorf("failed to record decision: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// prefixed qualifies every column of a column list with a table alias
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanApprovalFields(a *entity.Approval, comment *sql.NullString, decidedAt *sql.NullTime) []interface{} {
	return []interface{}{
		&a.ID,
		&a.ExpenseID,
		&a.ApproverID,
		&a.Sequence,
		&a.Status,
		comment,
		decidedAt,
		&a.CreatedAt,
	}
}

func finishApproval(a *entity.Approval, comment sql.NullString, decidedAt sql.NullTime) {
	if comment.Valid {
		a.Comment = comment.String
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		a.DecidedAt = &t
	}
}

func scanApproval(row rowScanner) (*entity.Approval, error) {
	var (
		a         entity.Approval
		comment   sql.NullString
		decidedAt sql.NullTime
	)
	if err := row.Scan(scanApprovalFields(&a, &comment, &decidedAt)...); err != nil {
		return nil, err
	}
	finishApproval(&a, comment, decidedAt)
	return &a, nil
}

func scanApprovalWithExpense(row rowScanner) (*entity.Approval, error) {
	var (
		a           entity.Approval
		e           entity.Expense
		comment     sql.NullString
		decidedAt   sql.NullTime
		amountMinor int64
	)
	dest := append(scanApprovalFields(&a, &comment, &decidedAt),
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
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	finishApproval(&a, comment, decidedAt)
	e.Amount = entity.FromMinorUnits(amountMinor)
	a.Expense = &e
	return &a, nil
}

var _ port.ApprovalRepository = (*ApprovalRepository)(nil)
