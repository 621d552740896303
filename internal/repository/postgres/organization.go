package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/docuchat/billing/internal/domain/organization"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/postgres"
	"github.com/docuchat/billing/internal/types"
	"github.com/lib/pq"
)

type organizationRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewOrganizationRepository(db *postgres.DB, logger *logger.Logger) organization.Repository {
	return &organizationRepository{db: db, logger: logger}
}

func (r *organizationRepository) Create(ctx context.Context, org *organization.Organization) error {
	r.logger.Debugw("creating organization", "organization_id", org.ID)

	query := `
		INSERT INTO organizations (
			id,
			name,
			plan_type,
			subscription_status,
			billing_email,
			stripe_customer_id,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:name,
			:plan_type,
			:subscription_status,
			:billing_email,
			:stripe_customer_id,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, org)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("An organization with this identifier already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create organization").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *organizationRepository) Get(ctx context.Context, id string) (*organization.Organization, error) {
	query := `
		SELECT * FROM organizations
		WHERE id = $1 AND status != $2
	`

	var org organization.Organization
	err := r.db.GetQuerier(ctx).GetContext(ctx, &org, query, id, types.StatusDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("organization not found").
				WithHint("The organization does not exist").
				WithReportableDetails(map[string]any{"organization_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get organization").
			Mark(ierr.ErrDatabase)
	}
	return &org, nil
}

func (r *organizationRepository) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*organization.Organization, error) {
	query := `
		SELECT * FROM organizations
		WHERE stripe_customer_id = $1 AND status != $2
	`

	var org organization.Organization
	err := r.db.GetQuerier(ctx).GetContext(ctx, &org, query, stripeCustomerID, types.StatusDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("organization not found").
				WithHint("No organization is linked to this customer").
				WithReportableDetails(map[string]any{"stripe_customer_id": stripeCustomerID}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get organization by customer id").
			Mark(ierr.ErrDatabase)
	}
	return &org, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *organization.Organization) error {
	org.Touch(ctx)

	query := `
		UPDATE organizations SET
			name = :name,
			plan_type = :plan_type,
			subscription_status = :subscription_status,
			billing_email = :billing_email,
			stripe_customer_id = :stripe_customer_id,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, org)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update organization").
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("organization not found").
			WithHint("The organization does not exist").
			WithReportableDetails(map[string]any{"organization_id": org.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// isUniqueViolation reports whether err is a postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
