package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const ruleColumns = `id, company_id, rule_type, threshold, approver_id, approver_role, sequence, created_at, updated_at`

// ApprovalRuleRepository implements port.ApprovalRuleRepository
type ApprovalRuleRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewApprovalRuleRepository creates a new approval rule repository
func NewApprovalRuleRepository(db *sqlite.DB, logger *zap.Logger) port.ApprovalRuleRepository {
	return &ApprovalRuleRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a rule
func (r *ApprovalRuleRepository) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	now := time.Now()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO approval_rules (
			company_id, rule_type, threshold, approver_id, approver_role, sequence, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rule.CompanyID,
		rule.Kind,
		rule.Threshold,
		nullInt64(rule.ApproverID),
		nullRole(rule.ApproverRole),
		rule.Sequence,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval rule",
			zap.Int64("company_id", rule.CompanyID),
			zap.Int64("threshold", rule.Threshold),
			zap.Error(err))
		return fmt.Errorf("failed to create approval rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rule.ID = id
	return nil
}

// GetByID retrieves a rule by its ID
func (r *ApprovalRuleRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM approval_rules WHERE id = ?`

	rule, err := scanRule(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval rule by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval rule: %w", err)
	}
	return rule, nil
}

// Update overwrites the mutable fields of a rule. Existing approvals keep
// the sequence they copied at initiation.
func (r *ApprovalRuleRepository) Update(ctx context.Context, rule *entity.ApprovalRule) error {
	rule.UpdatedAt = time.Now()

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE approval_rules
		SET rule_type = ?, threshold = ?, approver_id = ?, approver_role = ?, sequence = ?, updated_at = ?
		WHERE id = ?
	`,
		rule.Kind,
		rule.Threshold,
		nullInt64(rule.ApproverID),
		nullRole(rule.ApproverRole),
		rule.Sequence,
		rule.UpdatedAt,
		rule.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update approval rule", zap.Int64("id", rule.ID), zap.Error(err))
		return fmt.Errorf("failed to update approval rule: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("approval rule %d: %w", rule.ID, domainwf.ErrNotFound)
	}
	return nil
}

// Delete removes a rule
func (r *ApprovalRuleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM approval_rules WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete approval rule", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete approval rule: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("approval rule %d: %w", id, domainwf.ErrNotFound)
	}
	return nil
}

// ListByCompany returns all rules of a company ordered by sequence
func (r *ApprovalRuleRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM approval_rules
		WHERE company_id = ?
		ORDER BY sequence ASC, id ASC
	`
	return r.list(ctx, query, companyID)
}

// ListApplicable returns the rules of a company whose threshold, scaled to
// minor units, is at or below amountMinor
func (r *ApprovalRuleRepository) ListApplicable(ctx context.Context, companyID int64, amountMinor int64) ([]*entity.ApprovalRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM approval_rules
		WHERE company_id = ? AND threshold * ? <= ?
		ORDER BY threshold DESC, sequence ASC, id ASC
	`
	return r.list(ctx, query, companyID, entity.MinorUnitsPerMajor, amountMinor)
}

func (r *ApprovalRuleRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.ApprovalRule, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list approval rules", zap.Error(err))
		return nil, fmt.Errorf("failed to list approval rules: %w", err)
	}
	defer rows.Close()

	var rules []*entity.ApprovalRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func nullRole(role *entity.Role) sql.NullString {
	if role == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*role), Valid: true}
}

func scanRule(row rowScanner) (*entity.ApprovalRule, error) {
	var (
		rule         entity.ApprovalRule
		approverID   sql.NullInt64
		approverRole sql.NullString
	)
	err := row.Scan(
		&rule.ID,
		&rule.CompanyID,
		&rule.Kind,
		&rule.Threshold,
		&approverID,
		&approverRole,
		&rule.Sequence,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if approverID.Valid {
		rule.ApproverID = &approverID.Int64
	}
	if approverRole.Valid {
		role := entity.Role(approverRole.String)
		rule.ApproverRole = &role
	}
	return &rule, nil
}

var _ port.ApprovalRuleRepository = (*ApprovalRuleRepository)(nil)
