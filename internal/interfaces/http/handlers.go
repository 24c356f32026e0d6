package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/infrastructure/report"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	approvalService service.ApprovalService
	expenseService  service.ExpenseService
	ruleService     service.RuleService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	approvalService service.ApprovalService,
	expenseService service.ExpenseService,
	ruleService service.RuleService,
	logger Logger,
) *Handlers {
	return &Handlers{
		approvalService: approvalService,
		expenseService:  expenseService,
		ruleService:     ruleService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ProcessApproval handles POST /api/approvals/process
func (h *Handlers) ProcessApproval(c *gin.Context) {
	var req service.ProcessApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	approval, err := h.approvalService.ProcessApproval(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.writeError(c, "Failed to process approval", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    approval,
	})
}

// PendingApprovals handles GET /api/approvals/approver/:approverId/pending
func (h *Handlers) PendingApprovals(c *gin.Context) {
	approverID, ok := idParam(c, "approverId")
	if !ok {
		return
	}

	approvals, err := h.approvalService.PendingApprovalsFor(c.Request.Context(), actorFrom(c), approverID)
	if err != nil {
		h.writeError(c, "Failed to list pending approvals", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    approvals,
	})
}

// ExportPendingApprovals handles GET /api/approvals/approver/:approverId/pending/export
func (h *Handlers) ExportPendingApprovals(c *gin.Context) {
	approverID, ok := idParam(c, "approverId")
	if !ok {
		return
	}

	// Buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.approvalService.ExportPendingApprovals(c.Request.Context(), actorFrom(c), approverID, &buf); err != nil {
		h.writeError(c, "Failed to export pending approvals", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pending-approvals-%d.xlsx"`, approverID))
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}

// ExpenseApprovals handles GET /api/approvals/expense/:expenseId
func (h *Handlers) ExpenseApprovals(c *gin.Context) {
	expenseID, ok := idParam(c, "expenseId")
	if !ok {
		return
	}

	approvals, err := h.approvalService.ApprovalsFor(c.Request.Context(), actorFrom(c), expenseID)
	if err != nil {
		h.writeError(c, "Failed to list approvals", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    approvals,
	})
}

// idParam parses a positive integer path parameter, answering 400 otherwise
func idParam(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}
