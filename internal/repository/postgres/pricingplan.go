package postgres

import (
	"context"
	"database/sql"

	"github.com/docuchat/billing/internal/domain/pricingplan"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/postgres"
	"github.com/docuchat/billing/internal/types"
)

type pricingPlanRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPricingPlanRepository(db *postgres.DB, logger *logger.Logger) pricingplan.Repository {
	return &pricingPlanRepository{db: db, logger: logger}
}

func (r *pricingPlanRepository) Create(ctx context.Context, plan *pricingplan.PricingPlan) error {
	r.logger.Debugw("creating pricing plan", "pricing_plan_id", plan.ID, "plan_type", plan.PlanType)

	query := `
		INSERT INTO pricing_plans (
			id,
			plan_type,
			display_name,
			description,
			monthly_price,
			yearly_price,
			stripe_monthly_price_id,
			stripe_yearly_price_id,
			features,
			limits,
			display_order,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:plan_type,
			:display_name,
			:description,
			:monthly_price,
			:yearly_price,
			:stripe_monthly_price_id,
			:stripe_yearly_price_id,
			:features,
			:limits,
			:display_order,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, plan)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A pricing plan for this tier already exists").
				WithReportableDetails(map[string]any{"plan_type": plan.PlanType}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create pricing plan").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *pricingPlanRepository) GetByPlanType(ctx context.Context, planType string) (*pricingplan.PricingPlan, error) {
	query := `
		SELECT * FROM pricing_plans
		WHERE plan_type = $1 AND status = $2
	`

	var plan pricingplan.PricingPlan
	err := r.db.GetQuerier(ctx).GetContext(ctx, &plan, query, planType, types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("pricing plan not found").
				WithHint("No published plan exists for this tier").
				WithReportableDetails(map[string]any{"plan_type": planType}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get pricing plan").
			Mark(ierr.ErrDatabase)
	}
	return &plan, nil
}

func (r *pricingPlanRepository) List(ctx context.Context) ([]*pricingplan.PricingPlan, error) {
	query := `
		SELECT * FROM pricing_plans
		WHERE status = $1
		ORDER BY display_order ASC
	`

	var plans []*pricingplan.PricingPlan
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &plans, query, types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list pricing plans").
			Mark(ierr.ErrDatabase)
	}
	return plans, nil
}

func (r *pricingPlanRepository) Update(ctx context.Context, plan *pricingplan.PricingPlan) error {
	plan.Touch(ctx)

	query := `
		UPDATE pricing_plans SET
			display_name = :display_name,
			description = :description,
			monthly_price = :monthly_price,
			yearly_price = :yearly_price,
			stripe_monthly_price_id = :stripe_monthly_price_id,
			stripe_yearly_price_id = :stripe_yearly_price_id,
			features = :features,
			limits = :limits,
			display_order = :display_order,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, plan)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update pricing plan").
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("pricing plan not found").
			WithHint("The pricing plan does not exist").
			WithReportableDetails(map[string]any{"pricing_plan_id": plan.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
