package dto

import (
	"github.com/docuchat/billing/internal/types"
	"github.com/docuchat/billing/internal/validator"
)

// CreateCheckoutSessionRequest starts a provider checkout for a paid plan.
type CreateCheckoutSessionRequest struct {
	PlanType     types.PlanType     `json:"plan_type" validate:"required"`
	BillingCycle types.BillingCycle `json:"billing_cycle"`
	SuccessURL   string             `json:"success_url" validate:"omitempty,url"`
	CancelURL    string             `json:"cancel_url" validate:"omitempty,url"`
}

func (r *CreateCheckoutSessionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.PlanType.Validate(); err != nil {
		return err
	}
	if r.BillingCycle == "" {
		r.BillingCycle = types.BillingCycleMonthly
	}
	return r.BillingCycle.Validate()
}

// CheckoutSessionResponse carries the provider-hosted payment page URL.
// CleanupErrors surfaces best-effort cancellation failures that did not
// block the checkout.
type CheckoutSessionResponse struct {
	SessionID     string   `json:"session_id"`
	CheckoutURL   string   `json:"checkout_url"`
	CleanupErrors []string `json:"cleanup_errors,omitempty"`
}

// ChangePlanRequest switches the organization to a different paid plan.
type ChangePlanRequest struct {
	PlanType     types.PlanType     `json:"plan_type" validate:"required"`
	BillingCycle types.BillingCycle `json:"billing_cycle"`
	SuccessURL   string             `json:"success_url" validate:"omitempty,url"`
	CancelURL    string             `json:"cancel_url" validate:"omitempty,url"`
}

func (r *ChangePlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.PlanType.Validate(); err != nil {
		return err
	}
	if r.BillingCycle == "" {
		r.BillingCycle = types.BillingCycleMonthly
	}
	return r.BillingCycle.Validate()
}
