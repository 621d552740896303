package types

import (
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/samber/lo"
)

// PlanType identifies a pricing tier of the platform.
type PlanType string

const (
	PlanTypeFree         PlanType = "free"
	PlanTypeStarter      PlanType = "starter"
	PlanTypeProfessional PlanType = "professional"
	PlanTypeEnterprise   PlanType = "enterprise"
)

// DefaultPlanType is used when a provider subscription carries no resolvable
// plan information at all.
const DefaultPlanType = PlanTypeStarter

func (p PlanType) String() string {
	return string(p)
}

func (p PlanType) Validate() error {
	allowed := []PlanType{
		PlanTypeFree,
		PlanTypeStarter,
		PlanTypeProfessional,
		PlanTypeEnterprise,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid plan type").
			WithHint("Unknown plan type").
			WithReportableDetails(map[string]any{
				"plan_type":     p,
				"allowed_plans": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UnlimitedQuota marks a limit entry as unbounded.
const UnlimitedQuota int64 = -1
