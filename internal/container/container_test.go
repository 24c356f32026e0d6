package container

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "nested", "app.db")
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(DefaultConfig(), nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Database.Path = ""
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	assert.False(t, c.Ready())
	assert.False(t, c.Health().Overall)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()), "second start must fail")

	health := c.Health()
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)

	require.NotNil(t, c.Services().Approval)
	require.NotNil(t, c.Services().Expense)
	require.NotNil(t, c.Services().Rule)
	require.NotNil(t, c.Server())

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(context.Background()))
}

func TestContainer_MigrationsDirOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.MigrationsDir = filepath.Join(t.TempDir(), "does-not-exist")

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Error(t, c.Start(context.Background()))
}

func TestContainer_ExpenseThroughHTTP(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c, err := NewContainer(testConfig(t), zap.New(core))
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	repos := c.Repositories()
	company := &entity.Company{Name: "Acme", Country: "US", Currency: "USD"}
	require.NoError(t, repos.Company.Create(ctx, company))
	users := map[string]*entity.User{}
	for _, u := range []struct {
		name string
		role entity.Role
	}{{"admin", entity.RoleAdmin}, {"manager", entity.RoleManager}, {"emp", entity.RoleEmployee}} {
		user := &entity.User{CompanyID: company.ID, Username: u.name, Email: u.name + "@acme.test", Role: u.role}
		require.NoError(t, repos.User.Create(ctx, user))
		users[u.name] = user
	}

	router := c.Server().Router()
	call := func(method, path string, user *entity.User, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", fmt.Sprint(user.ID))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := call(http.MethodPost, "/api/approval-rules", users["admin"],
		fmt.Sprintf(`{"company_id": %d, "rule_type": "SPECIFIC", "threshold": 1000, "approver_id": %d, "sequence": 1}`, company.ID, users["manager"].ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(http.MethodPost, "/api/expenses", users["emp"], `{"amount": "1500", "category": "Travel", "date": "2026-02-10"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			Expense   entity.Expense     `json:"expense"`
			Approvals []*entity.Approval `json:"approvals"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Data.Approvals, 1)
	expenseID := created.Data.Expense.ID

	w = call(http.MethodPost, "/api/approvals/process", users["emp"], fmt.Sprintf(`{"expense_id": %d, "status": "APPROVED"}`, expenseID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(http.MethodPost, "/api/approvals/process", users["manager"], fmt.Sprintf(`{"expense_id": %d, "status": "APPROVED"}`, expenseID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(http.MethodPost, "/api/approvals/process", users["manager"], fmt.Sprintf(`{"expense_id": %d, "status": "APPROVED"}`, expenseID))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(http.MethodGet, fmt.Sprintf("/api/expenses/%d", expenseID), users["emp"], "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched struct {
		Data entity.Expense `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, entity.ExpenseStatusApproved, fetched.Data.Status)

	// the event-log subscriber saw the committed workflow
	assert.NotZero(t, logs.FilterMessage("Workflow event").Len())
}
