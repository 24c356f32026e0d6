package http

import (
	"context"
	"io"

	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

type mockApprovalService struct {
	processFunc func(ctx context.Context, actor entity.Actor, req service.ProcessApprovalRequest) (*entity.Approval, error)
	pendingFunc func(ctx context.Context, actor entity.Actor, approverID int64) ([]*entity.Approval, error)
	exportFunc  func(ctx context.Context, actor entity.Actor, approverID int64, w io.Writer) error
	forFunc     func(ctx context.Context, actor entity.Actor, expenseID int64) ([]*entity.Approval, error)
}

func (m *mockApprovalService) ProcessApproval(ctx context.Context, actor entity.Actor, req service.ProcessApprovalRequest) (*entity.Approval, error) {
	return m.processFunc(ctx, actor, req)
}

func (m *mockApprovalService) PendingApprovalsFor(ctx context.Context, actor entity.Actor, approverID int64) ([]*entity.Approval, error) {
	return m.pendingFunc(ctx, actor, approverID)
}

func (m *mockApprovalService) ExportPendingApprovals(ctx context.Context, actor entity.Actor, approverID int64, w io.Writer) error {
	return m.exportFunc(ctx, actor, approverID, w)
}

func (m *mockApprovalService) ApprovalsFor(ctx context.Context, actor entity.Actor, expenseID int64) ([]*entity.Approval, error) {
	return m.forFunc(ctx, actor, expenseID)
}

func (m *mockApprovalService) InitiateWorkflow(ctx context.Context, expense *entity.Expense) ([]*entity.Approval, error) {
	return []*entity.Approval{}, nil
}

type mockExpenseService struct {
	createFunc func(ctx context.Context, actor entity.Actor, req service.CreateExpenseRequest) (*entity.Expense, []*entity.Approval, error)
	getFunc    func(ctx context.Context, actor entity.Actor, expenseID int64) (*entity.Expense, error)
	listFunc   func(ctx context.Context, actor entity.Actor, id int64) ([]*entity.Expense, error)
	teamFunc   func(ctx context.Context, actor entity.Actor, managerID int64) ([]*entity.Expense, error)
}

func (m *mockExpenseService) CreateExpense(ctx context.Context, actor entity.Actor, req service.CreateExpenseRequest) (*entity.Expense, []*entity.Approval, error) {
	return m.createFunc(ctx, actor, req)
}

func (m *mockExpenseService) GetExpense(ctx context.Context, actor entity.Actor, expenseID int64) (*entity.Expense, error) {
	return m.getFunc(ctx, actor, expenseID)
}

func (m *mockExpenseService) ListByEmployee(ctx context.Context, actor entity.Actor, employeeID int64) ([]*entity.Expense, error) {
	return m.listFunc(ctx, actor, employeeID)
}

func (m *mockExpenseService) ListByCompany(ctx context.Context, actor entity.Actor, companyID int64) ([]*entity.Expense, error) {
	return m.listFunc(ctx, actor, companyID)
}

func (m *mockExpenseService) ListForManager(ctx context.Context, actor entity.Actor, managerID int64) ([]*entity.Expense, error) {
	return m.teamFunc(ctx, actor, managerID)
}

type mockRuleService struct {
	listFunc   func(ctx context.Context, actor entity.Actor, companyID int64) ([]*entity.ApprovalRule, error)
	getFunc    func(ctx context.Context, actor entity.Actor, ruleID int64) (*entity.ApprovalRule, error)
	createFunc func(ctx context.Context, actor entity.Actor, req service.CreateRuleRequest) (*entity.ApprovalRule, error)
	updateFunc func(ctx context.Context, actor entity.Actor, ruleID int64, req service.UpdateRuleRequest) (*entity.ApprovalRule, error)
	deleteFunc func(ctx context.Context, actor entity.Actor, ruleID int64) error
}

func (m *mockRuleService) ListByCompany(ctx context.Context, actor entity.Actor, companyID int64) ([]*entity.ApprovalRule, error) {
	return m.listFunc(ctx, actor, companyID)
}

func (m *mockRuleService) Get(ctx context.Context, actor entity.Actor, ruleID int64) (*entity.ApprovalRule, error) {
	return m.getFunc(ctx, actor, ruleID)
}

func (m *mockRuleService) Create(ctx context.Context, actor entity.Actor, req service.CreateRuleRequest) (*entity.ApprovalRule, error) {
	return m.createFunc(ctx, actor, req)
}

func (m *mockRuleService) Update(ctx context.Context, actor entity.Actor, ruleID int64, req service.UpdateRuleRequest) (*entity.ApprovalRule, error) {
	return m.updateFunc(ctx, actor, ruleID, req)
}

func (m *mockRuleService) Delete(ctx context.Context, actor entity.Actor, ruleID int64) error {
	return m.deleteFunc(ctx, actor, ruleID)
}

type mockUserRepo struct {
	users map[int64]*entity.User
	err   error
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[id], nil
}

func (m *mockUserRepo) ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role, excludeUserID int64) ([]*entity.User, error) {
	return nil, nil
}

type mockLogger struct {
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  { m.infos = append(m.infos, msg) }
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) { m.errors = append(m.errors, msg) }
