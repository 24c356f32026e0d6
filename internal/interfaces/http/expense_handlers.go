package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// DateLayout is the wire format of expense dates
const DateLayout = "2006-01-02"

// CreateExpenseBody is the JSON body of POST /api/expenses
type CreateExpenseBody struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

// CreateExpenseResponse returns the stored expense with its approval chain
type CreateExpenseResponse struct {
	Expense   *entity.Expense    `json:"expense"`
	Approvals []*entity.Approval `json:"approvals"`
}

// CreateExpense handles POST /api/expenses
func (h *Handlers) CreateExpense(c *gin.Context) {
	var body CreateExpenseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	req := service.CreateExpenseRequest{
		Amount:      body.Amount,
		Currency:    body.Currency,
		Category:    body.Category,
		Description: body.Description,
	}
	if body.Date != "" {
		date, err := time.Parse(DateLayout, body.Date)
		if err != nil {
			badRequest(c, "invalid date, expected YYYY-MM-DD")
			return
		}
		req.Date = date
	}

	expense, approvals, err := h.expenseService.CreateExpense(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.writeError(c, "Failed to create expense", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data: CreateExpenseResponse{
			Expense:   expense,
			Approvals: approvals,
		},
	})
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	expense, err := h.expenseService.GetExpense(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.writeError(c, "Failed to get expense", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    expense,
	})
}

// ListEmployeeExpenses handles GET /api/expenses/employee/:employeeId
func (h *Handlers) ListEmployeeExpenses(c *gin.Context) {
	employeeID, ok := idParam(c, "employeeId")
	if !ok {
		return
	}

	expenses, err := h.expenseService.ListByEmployee(c.Request.Context(), actorFrom(c), employeeID)
	if err != nil {
		h.writeError(c, "Failed to list expenses", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    expenses,
	})
}

// ListCompanyExpenses handles GET /api/expenses/company/:companyId
func (h *Handlers) ListCompanyExpenses(c *gin.Context) {
	companyID, ok := idParam(c, "companyId")
	if !ok {
		return
	}

	expenses, err := h.expenseService.ListByCompany(c.Request.Context(), actorFrom(c), companyID)
	if err != nil {
		h.writeError(c, "Failed to list expenses", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    expenses,
	})
}

// ListTeamExpenses handles GET /api/expenses/manager/:managerId
func (h *Handlers) ListTeamExpenses(c *gin.Context) {
	managerID, ok := idParam(c, "managerId")
	if !ok {
		return
	}

	expenses, err := h.expenseService.ListForManager(c.Request.Context(), actorFrom(c), managerID)
	if err != nil {
		h.writeError(c, "Failed to list team expenses", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    expenses,
	})
}
