package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docuchat/billing/internal/domain/subscription"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/postgres"
	"github.com/docuchat/billing/internal/types"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	r.logger.Debugw("creating subscription",
		"subscription_id", sub.ID,
		"organization_id", sub.OrganizationID,
		"stripe_subscription_id", sub.StripeSubscriptionID,
	)

	query := `
		INSERT INTO subscriptions (
			id,
			organization_id,
			stripe_subscription_id,
			plan_type,
			subscription_status,
			current_period_start,
			current_period_end,
			trial_start,
			trial_end,
			cancel_at_period_end,
			cancelled_at,
			amount,
			currency,
			features,
			limits,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:organization_id,
			:stripe_subscription_id,
			:plan_type,
			:subscription_status,
			:current_period_start,
			:current_period_end,
			:trial_start,
			:trial_end,
			:cancel_at_period_end,
			:cancelled_at,
			:amount,
			:currency,
			:features,
			:limits,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A subscription with this provider id already exists").
				WithReportableDetails(map[string]any{"stripe_subscription_id": sub.StripeSubscriptionID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `
		SELECT * FROM subscriptions
		WHERE id = $1 AND status != $2
	`

	var sub subscription.Subscription
	err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, id, types.StatusDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("subscription not found").
				WithHint("The subscription does not exist").
				WithReportableDetails(map[string]any{"subscription_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*subscription.Subscription, error) {
	query := `
		SELECT * FROM subscriptions
		WHERE stripe_subscription_id = $1 AND status != $2
	`

	var sub subscription.Subscription
	err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, stripeSubscriptionID, types.StatusDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("subscription not found").
				WithHint("No subscription is linked to this provider id").
				WithReportableDetails(map[string]any{"stripe_subscription_id": stripeSubscriptionID}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription by provider id").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.Touch(ctx)

	query := `
		UPDATE subscriptions SET
			plan_type = :plan_type,
			subscription_status = :subscription_status,
			current_period_start = :current_period_start,
			current_period_end = :current_period_end,
			trial_start = :trial_start,
			trial_end = :trial_end,
			cancel_at_period_end = :cancel_at_period_end,
			cancelled_at = :cancelled_at,
			amount = :amount,
			currency = :currency,
			features = :features,
			limits = :limits,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("subscription not found").
			WithHint("The subscription does not exist").
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	query := `
		SELECT * FROM subscriptions
		WHERE status != $1
	`
	args := []interface{}{types.StatusDeleted}

	if filter != nil {
		if filter.OrganizationID != "" {
			args = append(args, filter.OrganizationID)
			query += fmt.Sprintf(" AND organization_id = $%d", len(args))
		}
		if filter.PlanType != "" {
			args = append(args, filter.PlanType)
			query += fmt.Sprintf(" AND plan_type = $%d", len(args))
		}
		if len(filter.SubscriptionStatus) > 0 {
			statuses := lo.Map(filter.SubscriptionStatus, func(s types.SubscriptionStatus, _ int) string {
				return string(s)
			})
			args = append(args, pq.Array(statuses))
			query += fmt.Sprintf(" AND subscription_status = ANY($%d)", len(args))
		}
		if filter.UpdatedAfter != nil {
			args = append(args, *filter.UpdatedAfter)
			query += fmt.Sprintf(" AND updated_at > $%d", len(args))
		}
	}

	query += " ORDER BY updated_at DESC"

	var subs []*subscription.Subscription
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &subs, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

func (r *subscriptionRepository) ListActive(ctx context.Context, organizationID string) ([]*subscription.Subscription, error) {
	return r.List(ctx, types.NewActiveSubscriptionFilter(organizationID))
}
