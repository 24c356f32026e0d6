package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const userColumns = `id, company_id, username, email, role, manager_id, created_at`

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlite.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO users (company_id, username, email, role, manager_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		user.CompanyID,
		user.Username,
		user.Email,
		user.Role,
		nullInt64(user.ManagerID),
		user.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user",
			zap.Int64("company_id", user.CompanyID),
			zap.String("username", user.Username),
			zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by its ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListByCompanyAndRole returns users of a company holding role, excluding
// excludeUserID, ordered by id
func (r *UserRepository) ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role, excludeUserID int64) ([]*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE company_id = ? AND role = ? AND id <> ?
		ORDER BY id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, companyID, role, excludeUserID)
	if err != nil {
		r.logger.Error("Failed to list users by role",
			zap.Int64("company_id", companyID),
			zap.String("role", string(role)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		u         entity.User
		managerID sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.CompanyID, &u.Username, &u.Email, &u.Role, &managerID, &u.CreatedAt); err != nil {
		return nil, err
	}
	if managerID.Valid {
		u.ManagerID = &managerID.Int64
	}
	return &u, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
