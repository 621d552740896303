package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docuchat/billing/internal/domain/billingevent"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/postgres"
	"github.com/docuchat/billing/internal/types"
)

type billingEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewBillingEventRepository(db *postgres.DB, logger *logger.Logger) billingevent.Repository {
	return &billingEventRepository{db: db, logger: logger}
}

func (r *billingEventRepository) Create(ctx context.Context, event *billingevent.BillingEvent) error {
	r.logger.Debugw("creating billing event",
		"billing_event_id", event.ID,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)

	query := `
		INSERT INTO billing_events (
			id,
			event_id,
			event_type,
			payload,
			processed,
			processed_at,
			processing_error,
			retry_count,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:event_id,
			:event_type,
			:payload,
			:processed,
			:processed_at,
			:processing_error,
			:retry_count,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, event)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("This event has already been recorded").
				WithReportableDetails(map[string]any{"event_id": event.EventID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to record billing event").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *billingEventRepository) GetByEventID(ctx context.Context, eventID string) (*billingevent.BillingEvent, error) {
	query := `
		SELECT * FROM billing_events
		WHERE event_id = $1
	`

	var event billingevent.BillingEvent
	err := r.db.GetQuerier(ctx).GetContext(ctx, &event, query, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("billing event not found").
				WithHint("The event has not been seen before").
				WithReportableDetails(map[string]any{"event_id": eventID}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get billing event").
			Mark(ierr.ErrDatabase)
	}
	return &event, nil
}

func (r *billingEventRepository) Update(ctx context.Context, event *billingevent.BillingEvent) error {
	event.Touch(ctx)

	query := `
		UPDATE billing_events SET
			processed = :processed,
			processed_at = :processed_at,
			processing_error = :processing_error,
			retry_count = :retry_count,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update billing event").
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("billing event not found").
			WithHint("The event ledger row does not exist").
			WithReportableDetails(map[string]any{"billing_event_id": event.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *billingEventRepository) List(ctx context.Context, filter *types.BillingEventFilter) ([]*billingevent.BillingEvent, error) {
	query := `
		SELECT * FROM billing_events
		WHERE 1 = 1
	`
	var args []interface{}

	if filter != nil {
		if filter.EventType != "" {
			args = append(args, filter.EventType)
			query += fmt.Sprintf(" AND event_type = $%d", len(args))
		}
		if filter.Processed != nil {
			args = append(args, *filter.Processed)
			query += fmt.Sprintf(" AND processed = $%d", len(args))
		}
	}

	query += " ORDER BY created_at DESC"

	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var events []*billingevent.BillingEvent
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &events, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list billing events").
			Mark(ierr.ErrDatabase)
	}
	return events, nil
}
