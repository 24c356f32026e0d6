package service

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
)

// CreateRuleRequest describes a new approval rule
type CreateRuleRequest struct {
	CompanyID    int64           `json:"company_id" binding:"required"`
	Kind         entity.RuleKind `json:"rule_type" binding:"required"`
	Threshold    int64           `json:"threshold"`
	ApproverID   *int64          `json:"approver_id"`
	ApproverRole *entity.Role    `json:"approver_role"`
	Sequence     int             `json:"sequence"`
}

// UpdateRuleRequest patches a rule; nil fields are left unchanged. ApproverID
// and ApproverRole form one designation: a patch naming either replaces both.
type UpdateRuleRequest struct {
	Kind         *entity.RuleKind `json:"rule_type"`
	Threshold    *int64           `json:"threshold"`
	ApproverID   *int64           `json:"approver_id"`
	ApproverRole *entity.Role     `json:"approver_role"`
	Sequence     *int             `json:"sequence"`
}

// RuleService administers a company's approval rules. Rule changes never
// touch approval steps that already exist.
type RuleService interface {
	ListByCompany(ctx context.Context, actor entity.Actor, companyID int64) ([]*entity.ApprovalRule, error)
	Get(ctx context.Context, actor entity.Actor, ruleID int64) (*entity.ApprovalRule, error)
	Create(ctx context.Context, actor entity.Actor, req CreateRuleRequest) (*entity.ApprovalRule, error)
	Update(ctx context.Context, actor entity.Actor, ruleID int64, req UpdateRuleRequest) (*entity.ApprovalRule, error)
	Delete(ctx context.Context, actor entity.Actor, ruleID int64) error
}

type ruleServiceImpl struct {
	ruleRepo  port.ApprovalRuleRepository
	userRepo  port.UserRepository
	txManager port.TransactionManager
	logger    Logger
}

// NewRuleService creates a new RuleService
func NewRuleService(
	ruleRepo port.ApprovalRuleRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	logger Logger,
) RuleService {
	return &ruleServiceImpl{
		ruleRepo:  ruleRepo,
		userRepo:  userRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// ListByCompany returns the rules of the actor's own company
func (s *ruleServiceImpl) ListByCompany(ctx context.Context, actor entity.Actor, companyID int64) ([]*entity.ApprovalRule, error) {
	if actor.CompanyID != companyID {
		return nil, fmt.Errorf("user %d may not view rules of company %d: %w", actor.UserID, companyID, domainwf.ErrUnauthorized)
	}

	rules, err := s.ruleRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = []*entity.ApprovalRule{}
	}
	return rules, nil
}

// Get returns a rule of the actor's company; rules of other companies are
// reported as not found
func (s *ruleServiceImpl) Get(ctx context.Context, actor entity.Actor, ruleID int64) (*entity.ApprovalRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil || rule.CompanyID != actor.CompanyID {
		return nil, fmt.Errorf("approval rule %d: %w", ruleID, domainwf.ErrNotFound)
	}
	return rule, nil
}

// Create validates and stores a new rule. Only an ADMIN of the rule's
// company may create it.
func (s *ruleServiceImpl) Create(ctx context.Context, actor entity.Actor, req CreateRuleRequest) (*entity.ApprovalRule, error) {
	if err := requireAdminOf(actor, req.CompanyID); err != nil {
		return nil, err
	}

	rule := &entity.ApprovalRule{
		CompanyID:    req.CompanyID,
		Kind:         req.Kind,
		Threshold:    req.Threshold,
		ApproverID:   req.ApproverID,
		ApproverRole: req.ApproverRole,
		Sequence:     req.Sequence,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.validate(txCtx, rule); err != nil {
			return err
		}
		return s.ruleRepo.Create(txCtx, rule)
	})
	if err != nil {
		s.logger.Error("Failed to create approval rule", "company_id", req.CompanyID, "error", err)
		return nil, err
	}

	s.logger.Info("Approval rule created",
		"rule_id", rule.ID,
		"company_id", rule.CompanyID,
		"threshold", rule.Threshold,
		"sequence", rule.Sequence,
	)
	return rule, nil
}

// Update applies a patch to a rule of the actor's company
func (s *ruleServiceImpl) Update(ctx context.Context, actor entity.Actor, ruleID int64, req UpdateRuleRequest) (*entity.ApprovalRule, error) {
	var rule *entity.ApprovalRule

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		rule, err = s.loadForChange(txCtx, actor, ruleID)
		if err != nil {
			return err
		}

		if req.Kind != nil {
			rule.Kind = *req.Kind
		}
		if req.Threshold != nil {
			rule.Threshold = *req.Threshold
		}
		if req.ApproverID != nil || req.ApproverRole != nil {
			rule.ApproverID = req.ApproverID
			rule.ApproverRole = req.ApproverRole
		}
		if req.Sequence != nil {
			rule.Sequence = *req.Sequence
		}

		if err := s.validate(txCtx, rule); err != nil {
			return err
		}
		return s.ruleRepo.Update(txCtx, rule)
	})
	if err != nil {
		s.logger.Error("Failed to update approval rule", "rule_id", ruleID, "error", err)
		return nil, err
	}

	s.logger.Info("Approval rule updated", "rule_id", ruleID)
	return rule, nil
}

// Delete removes a rule of the actor's company
func (s *ruleServiceImpl) Delete(ctx context.Context, actor entity.Actor, ruleID int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.loadForChange(txCtx, actor, ruleID); err != nil {
			return err
		}
		return s.ruleRepo.Delete(txCtx, ruleID)
	})
	if err != nil {
		s.logger.Error("Failed to delete approval rule", "rule_id", ruleID, "error", err)
		return err
	}

	s.logger.Info("Approval rule deleted", "rule_id", ruleID)
	return nil
}

func (s *ruleServiceImpl) loadForChange(ctx context.Context, actor entity.Actor, ruleID int64) (*entity.ApprovalRule, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("user %d is not an admin: %w", actor.UserID, domainwf.ErrUnauthorized)
	}

	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, fmt.Errorf("approval rule %d: %w", ruleID, domainwf.ErrNotFound)
	}
	if rule.CompanyID != actor.CompanyID {
		return nil, fmt.Errorf("approval rule %d belongs to another company: %w", ruleID, domainwf.ErrUnauthorized)
	}
	return rule, nil
}

// validate checks the rule's own fields and that a fixed approver exists in
// the rule's company
func (s *ruleServiceImpl) validate(ctx context.Context, rule *entity.ApprovalRule) error {
	if !rule.Kind.IsValid() {
		return fmt.Errorf("rule type %q: %w", rule.Kind, domainwf.ErrInvalidRule)
	}
	if rule.Threshold < 0 {
		return fmt.Errorf("threshold %d is negative: %w", rule.Threshold, domainwf.ErrInvalidRule)
	}
	if rule.Threshold > entity.MaxThreshold {
		return fmt.Errorf("threshold %d exceeds %d: %w", rule.Threshold, entity.MaxThreshold, domainwf.ErrInvalidRule)
	}
	if rule.ApproverRole != nil && !rule.ApproverRole.IsValid() {
		return fmt.Errorf("approver role %q: %w", *rule.ApproverRole, domainwf.ErrInvalidRule)
	}

	if rule.ApproverID == nil {
		return nil
	}

	approver, err := s.userRepo.GetByID(ctx, *rule.ApproverID)
	if err != nil {
		return err
	}
	if approver == nil {
		return fmt.Errorf("approver %d: %w", *rule.ApproverID, domainwf.ErrNotFound)
	}
	if approver.CompanyID != rule.CompanyID {
		return fmt.Errorf("approver %d belongs to company %d, rule to company %d: %w",
			approver.ID, approver.CompanyID, rule.CompanyID, domainwf.ErrConfigurationMismatch)
	}
	return nil
}

func requireAdminOf(actor entity.Actor, companyID int64) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("user %d is not an admin: %w", actor.UserID, domainwf.ErrUnauthorized)
	}
	if actor.CompanyID != companyID {
		return fmt.Errorf("user %d may not manage rules of company %d: %w", actor.UserID, companyID, domainwf.ErrUnauthorized)
	}
	return nil
}
