package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RuleCatalog gives read-only access to a company's approval rules
type RuleCatalog struct {
	rules port.ApprovalRuleRepository
}

// NewRuleCatalog creates a RuleCatalog
func NewRuleCatalog(rules port.ApprovalRuleRepository) *RuleCatalog {
	return &RuleCatalog{rules: rules}
}

// ApplicableRules returns every rule of the company whose threshold is at or
// below amount, stricter (higher threshold) rules first and ties broken by
// ascending sequence. Comparison happens in integer minor units. An empty
// result is not an error.
func (c *RuleCatalog) ApplicableRules(ctx context.Context, companyID int64, amount decimal.Decimal) ([]*entity.ApprovalRule, error) {
	rules, err := c.rules.ListApplicable(ctx, companyID, entity.ToMinorUnits(amount))
	if err != nil {
		return nil, fmt.Errorf("list applicable rules: %w", err)
	}
	if rules == nil {
		rules = []*entity.ApprovalRule{}
	}
	return rules, nil
}
