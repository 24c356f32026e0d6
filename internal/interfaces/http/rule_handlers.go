package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approval/internal/application/service"
)

// ListRules handles GET /api/approval-rules/company/:companyId
func (h *Handlers) ListRules(c *gin.Context) {
	companyID, ok := idParam(c, "companyId")
	if !ok {
		return
	}

	rules, err := h.ruleService.ListByCompany(c.Request.Context(), actorFrom(c), companyID)
	if err != nil {
		h.writeError(c, "Failed to list approval rules", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    rules,
	})
}

// GetRule handles GET /api/approval-rules/:ruleId
func (h *Handlers) GetRule(c *gin.Context) {
	ruleID, ok := idParam(c, "ruleId")
	if !ok {
		return
	}

	rule, err := h.ruleService.Get(c.Request.Context(), actorFrom(c), ruleID)
	if err != nil {
		h.writeError(c, "Failed to get approval rule", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    rule,
	})
}

// CreateRule handles POST /api/approval-rules
func (h *Handlers) CreateRule(c *gin.Context) {
	var req service.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	rule, err := h.ruleService.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.writeError(c, "Failed to create approval rule", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    rule,
	})
}

// UpdateRule handles PUT /api/approval-rules/:ruleId
func (h *Handlers) UpdateRule(c *gin.Context) {
	ruleID, ok := idParam(c, "ruleId")
	if !ok {
		return
	}

	var req service.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	rule, err := h.ruleService.Update(c.Request.Context(), actorFrom(c), ruleID, req)
	if err != nil {
		h.writeError(c, "Failed to update approval rule", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    rule,
	})
}

// DeleteRule handles DELETE /api/approval-rules/:ruleId
func (h *Handlers) DeleteRule(c *gin.Context) {
	ruleID, ok := idParam(c, "ruleId")
	if !ok {
		return
	}

	if err := h.ruleService.Delete(c.Request.Context(), actorFrom(c), ruleID); err != nil {
		h.writeError(c, "Failed to delete approval rule", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
	})
}
