package ticket

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/gigpass/gp-checkout/pkg/errors"
	"github.com/gigpass/gp-checkout/pkg/status"
)

type TicketTierRepository interface {
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (TicketTier, error)
	FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]TicketTier, error)
	// IncrementSold consumes capacity. The quantity is added only
	// while the result stays within the tier's capacity; losing that
	// condition returns a conflict and leaves the row untouched.
	IncrementSold(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type ticketTierRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewTicketTierRepository(logger *logrus.Logger, db *sql.DB) TicketTierRepository {
	return &ticketTierRepository{
		logger: logger,
		db:     db,
	}
}

// FindByID implements TicketTierRepository.
func (r *ticketTierRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (TicketTier, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, event_id, name, capacity, sold_count, unit_price
		FROM ticket_tier
		WHERE
			id = $1
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return TicketTier{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket tier's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, ID)

	var data TicketTier

	err = row.Scan(&data.ID, &data.EventID, &data.Name, &data.Capacity, &data.SoldCount, &data.UnitPrice)
	if err != nil {
		if err == sql.ErrNoRows {
			return TicketTier{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket tier with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return TicketTier{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket tier's properties")
	}

	return data, nil
}

// FindManyByEventID implements TicketTierRepository.
func (r *ticketTierRepository) FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]TicketTier, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, event_id, name, capacity, sold_count, unit_price
		FROM ticket_tier
		WHERE
			event_id = $1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket tier's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket tier's properties")
	}

	defer rows.Close()

	var data = make([]TicketTier, 0)
	for rows.Next() {
		var t TicketTier
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Capacity, &t.SoldCount, &t.UnitPrice); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket tier's properties")
		}

		data = append(data, t)
	}

	return data, nil
}

// IncrementSold implements TicketTierRepository.
func (r *ticketTierRepository) IncrementSold(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket_tier
		SET
			sold_count = sold_count + $1
		WHERE
			id = $2
		AND
			sold_count + $1 <= capacity
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket tier's sold count")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, quantity, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket tier's sold count")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket tier's sold count")
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("ticket tier with id '%s' does not have enough remaining capacity", ID))
	}

	return nil
}
