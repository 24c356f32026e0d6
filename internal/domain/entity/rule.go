package entity

import "time"

// ApprovalRule describes when, and to whom, an approval step is dispatched.
// A rule fires when the claim amount meets or exceeds Threshold (whole
// currency units). ApproverID takes precedence over ApproverRole.
type ApprovalRule struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"company_id"`
	Kind         RuleKind  `json:"rule_type"`
	Threshold    int64     `json:"threshold"`
	ApproverID   *int64    `json:"approver_id,omitempty"`
	ApproverRole *Role     `json:"approver_role,omitempty"`
	Sequence     int       `json:"sequence"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ThresholdMinor returns the threshold in minor currency units
func (r *ApprovalRule) ThresholdMinor() int64 {
	return r.Threshold * MinorUnitsPerMajor
}
