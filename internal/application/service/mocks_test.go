package service

import (
	"context"
	"io"
	"sync"

	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

type mockEngine struct {
	initiateFunc func(ctx context.Context, expense *entity.Expense) ([]*entity.Approval, error)
	submitFunc   func(ctx context.Context, actor entity.Actor, expenseID int64, decision, comment string) (*entity.Approval, error)
	initiator    *workflow.WorkflowInitiator
	published    []*event.Event
}

func (m *mockEngine) InitiateWorkflow(ctx context.Context, expense *entity.Expense) ([]*entity.Approval, error) {
	if m.initiateFunc != nil {
		return m.initiateFunc(ctx, expense)
	}
	return []*entity.Approval{}, nil
}

func (m *mockEngine) SubmitDecision(ctx context.Context, actor entity.Actor, expenseID int64, decision, comment string) (*entity.Approval, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, actor, expenseID, decision, comment)
	}
	return &entity.Approval{ExpenseID: expenseID, ApproverID: actor.UserID, Status: entity.ApprovalStatus(decision)}, nil
}

func (m *mockEngine) Initiator() *workflow.WorkflowInitiator { return m.initiator }

func (m *mockEngine) Publish(ctx context.Context, events []*event.Event) {
	m.published = append(m.published, events...)
}

type mockExpenseRepo struct {
	createFunc       func(ctx context.Context, expense *entity.Expense) error
	getByIDFunc      func(ctx context.Context, id int64) (*entity.Expense, error)
	updateStatusFunc func(ctx context.Context, id int64, status entity.ExpenseStatus) error
	listFunc         func(ctx context.Context, id int64) ([]*entity.Expense, error)
}

func (m *mockExpenseRepo) Create(ctx context.Context, expense *entity.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, expense)
	}
	expense.ID = 1
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockExpenseRepo) UpdateStatus(ctx context.Context, id int64, status entity.ExpenseStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockExpenseRepo) ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, employeeID)
	}
	return nil, nil
}

func (m *mockExpenseRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, companyID)
	}
	return nil, nil
}

func (m *mockExpenseRepo) ListByManager(ctx context.Context, managerID int64) ([]*entity.Expense, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, managerID)
	}
	return nil, nil
}

type mockApprovalRepo struct {
	listByExpenseFunc func(ctx context.Context, expenseID int64) ([]*entity.Approval, error)
	listPendingFunc   func(ctx context.Context, approverID int64) ([]*entity.Approval, error)
	created           []*entity.Approval
}

func (m *mockApprovalRepo) Create(ctx context.Context, approval *entity.Approval) error {
	approval.ID = int64(len(m.created) + 1)
	m.created = append(m.created, approval)
	return nil
}

func (m *mockApprovalRepo) GetByID(ctx context.Context, id int64) (*entity.Approval, error) {
	return nil, nil
}

func (m *mockApprovalRepo) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.Approval, error) {
	if m.listByExpenseFunc != nil {
		return m.listByExpenseFunc(ctx, expenseID)
	}
	return nil, nil
}

func (m *mockApprovalRepo) GetCurrentPending(ctx context.Context, expenseID int64) (*entity.Approval, error) {
	return nil, nil
}

func (m *mockApprovalRepo) ListPendingByApprover(ctx context.Context, approverID int64) ([]*entity.Approval, error) {
	if m.listPendingFunc != nil {
		return m.listPendingFunc(ctx, approverID)
	}
	return nil, nil
}

func (m *mockApprovalRepo) Decide(ctx context.Context, approval *entity.Approval) (bool, error) {
	return true, nil
}

type mockRuleRepo struct {
	rules      map[int64]*entity.ApprovalRule
	applicable []*entity.ApprovalRule
	created    []*entity.ApprovalRule
	updated    []*entity.ApprovalRule
	deleted    []int64
}

func (m *mockRuleRepo) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	rule.ID = int64(100 + len(m.created))
	m.created = append(m.created, rule)
	return nil
}

func (m *mockRuleRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalRule, error) {
	if r, ok := m.rules[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *mockRuleRepo) Update(ctx context.Context, rule *entity.ApprovalRule) error {
	m.updated = append(m.updated, rule)
	return nil
}

func (m *mockRuleRepo) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRuleRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	var out []*entity.ApprovalRule
	for _, r := range m.rules {
		if r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRuleRepo) ListApplicable(ctx context.Context, companyID int64, amountMinor int64) ([]*entity.ApprovalRule, error) {
	return m.applicable, nil
}

type mockUserRepo struct {
	users map[int64]*entity.User
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, nil
}

func (m *mockUserRepo) ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role, excludeUserID int64) ([]*entity.User, error) {
	return nil, nil
}

type mockCompanyRepo struct {
	companies map[int64]*entity.Company
}

func (m *mockCompanyRepo) Create(ctx context.Context, company *entity.Company) error { return nil }

func (m *mockCompanyRepo) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	if c, ok := m.companies[id]; ok {
		return c, nil
	}
	return nil, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
	calls               int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockExporter struct {
	written []*entity.Approval
	err     error
}

func (m *mockExporter) Write(w io.Writer, approvals []*entity.Approval) error {
	if m.err != nil {
		return m.err
	}
	m.written = approvals
	_, err := w.Write([]byte("xlsx"))
	return err
}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}
