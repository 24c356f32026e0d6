package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// memoryStore is an in-memory implementation of the repository ports used by
// the engine tests. Every method copies values in and out so callers cannot
// mutate stored rows by accident.
type memoryStore struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]*entity.User
	rules     map[int64]*entity.ApprovalRule
	expenses  map[int64]*entity.Expense
	approvals map[int64]*entity.Approval

	statusWrites int
	failDecide   bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:     make(map[int64]*entity.User),
		rules:     make(map[int64]*entity.ApprovalRule),
		expenses:  make(map[int64]*entity.Expense),
		approvals: make(map[int64]*entity.Approval),
	}
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) addUser(companyID int64, role entity.Role) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &entity.User{ID: s.id(), CompanyID: companyID, Role: role, Username: fmt.Sprintf("user-%d", s.nextID)}
	s.users[u.ID] = u
	return u
}

func (s *memoryStore) addRoleRule(companyID, threshold int64, role entity.Role, sequence int) *entity.ApprovalRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := role
	rule := &entity.ApprovalRule{ID: s.id(), CompanyID: companyID, Kind: entity.RuleKindPercentage, Threshold: threshold, ApproverRole: &r, Sequence: sequence}
	s.rules[rule.ID] = rule
	return rule
}

func (s *memoryStore) addFixedRule(companyID, threshold, approverID int64, sequence int) *entity.ApprovalRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := approverID
	rule := &entity.ApprovalRule{ID: s.id(), CompanyID: companyID, Kind: entity.RuleKindSpecific, Threshold: threshold, ApproverID: &id, Sequence: sequence}
	s.rules[rule.ID] = rule
	return rule
}

// WithTransaction runs fn directly; the store is already serialized by mu
func (s *memoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memoryUsers struct{ *memoryStore }

func (r memoryUsers) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.id()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r memoryUsers) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r memoryUsers) ListByCompanyAndRole(ctx context.Context, companyID int64, role entity.Role, excludeUserID int64) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.users {
		if u.CompanyID == companyID && u.Role == role && u.ID != excludeUserID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryRules struct{ *memoryStore }

func (r memoryRules) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule.ID = r.id()
	cp := *rule
	r.rules[rule.ID] = &cp
	return nil
}

func (r memoryRules) GetByID(ctx context.Context, id int64) (*entity.ApprovalRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, nil
	}
	cp := *rule
	return &cp, nil
}

func (r memoryRules) Update(ctx context.Context, rule *entity.ApprovalRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rule
	r.rules[rule.ID] = &cp
	return nil
}

func (r memoryRules) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rules, id)
	return nil
}

func (r memoryRules) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	return r.list(companyID, -1), nil
}

func (r memoryRules) ListApplicable(ctx context.Context, companyID int64, amountMinor int64) ([]*entity.ApprovalRule, error) {
	return r.list(companyID, amountMinor), nil
}

func (r memoryRules) list(companyID, amountMinor int64) []*entity.ApprovalRule {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ApprovalRule
	for _, rule := range r.rules {
		if rule.CompanyID != companyID {
			continue
		}
		if amountMinor >= 0 && rule.ThresholdMinor() > amountMinor {
			continue
		}
		cp := *rule
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Threshold != out[j].Threshold {
			return out[i].Threshold > out[j].Threshold
		}
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type memoryExpenses struct{ *memoryStore }

func (r memoryExpenses) Create(ctx context.Context, expense *entity.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	expense.ID = r.id()
	cp := *expense
	r.expenses[expense.ID] = &cp
	return nil
}

func (r memoryExpenses) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.expenses[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r memoryExpenses) UpdateStatus(ctx context.Context, id int64, status entity.ExpenseStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.expenses[id]
	if !ok {
		return fmt.Errorf("expense %d not found", id)
	}
	e.Status = status
	r.statusWrites++
	return nil
}

func (r memoryExpenses) ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error) {
	return r.filter(func(e *entity.Expense) bool { return e.EmployeeID == employeeID }), nil
}

func (r memoryExpenses) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error) {
	return r.filter(func(e *entity.Expense) bool { return e.CompanyID == companyID }), nil
}

func (r memoryExpenses) ListByManager(ctx context.Context, managerID int64) ([]*entity.Expense, error) {
	return r.filter(func(e *entity.Expense) bool {
		u, ok := r.users[e.EmployeeID]
		return ok && u.ManagerID != nil && *u.ManagerID == managerID
	}), nil
}

func (r memoryExpenses) filter(keep func(*entity.Expense) bool) []*entity.Expense {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Expense
	for _, e := range r.expenses {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

type memoryApprovals struct{ *memoryStore }

func (r memoryApprovals) Create(ctx context.Context, approval *entity.Approval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	approval.ID = r.id()
	cp := *approval
	r.approvals[approval.ID] = &cp
	return nil
}

func (r memoryApprovals) GetByID(ctx context.Context, id int64) (*entity.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.approvals[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r memoryApprovals) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Approval
	for _, a := range r.approvals {
		if a.ExpenseID == expenseID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortSteps(out)
	return out, nil
}

func (r memoryApprovals) GetCurrentPending(ctx context.Context, expenseID int64) (*entity.Approval, error) {
	steps, _ := r.ListByExpense(ctx, expenseID)
	for _, a := range steps {
		if a.IsPending() {
			return a, nil
		}
	}
	return nil, nil
}

func (r memoryApprovals) ListPendingByApprover(ctx context.Context, approverID int64) ([]*entity.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Approval
	for _, a := range r.approvals {
		if a.ApproverID == approverID && a.IsPending() {
			cp := *a
			if e, ok := r.expenses[a.ExpenseID]; ok {
				ecp := *e
				cp.Expense = &ecp
			}
			out = append(out, &cp)
		}
	}
	sortSteps(out)
	return out, nil
}

func (r memoryApprovals) Decide(ctx context.Context, approval *entity.Approval) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDecide {
		return false, fmt.Errorf("disk full")
	}
	a, ok := r.approvals[approval.ID]
	if !ok || !a.IsPending() {
		return false, nil
	}
	a.Status = approval.Status
	a.Comment = approval.Comment
	a.DecidedAt = approval.DecidedAt
	return true, nil
}

func sortSteps(steps []*entity.Approval) {
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Sequence != steps[j].Sequence {
			return steps[i].Sequence < steps[j].Sequence
		}
		return steps[i].ID < steps[j].ID
	})
}
