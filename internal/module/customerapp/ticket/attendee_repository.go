package ticket

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/gigpass/gp-checkout/pkg/errors"
	"github.com/gigpass/gp-checkout/pkg/status"
)

type AttendeeRepository interface {
	Save(ctx context.Context, a Attendee, tx *sql.Tx) error
	FindManyByOrderID(ctx context.Context, orderID string, tx *sql.Tx) ([]Attendee, error)
}

type attendeeRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewAttendeeRepository(logger *logrus.Logger, db *sql.DB) AttendeeRepository {
	return &attendeeRepository{
		logger: logger,
		db:     db,
	}
}

// Save implements AttendeeRepository.
func (r *attendeeRepository) Save(ctx context.Context, a Attendee, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO attendee
		(
			id, event_id, ticket_tier_id, order_id,
			name, email, customer_id, checked_in, created_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving attendee's properties")
	}
	defer stmt.Close()

	var email sql.NullString
	if a.Email != nil {
		email.Valid = true
		email.String = *a.Email
	}

	var customerID sql.NullInt64
	if a.CustomerID != nil {
		customerID.Valid = true
		customerID.Int64 = *a.CustomerID
	}

	_, err = stmt.ExecContext(ctx, a.ID, a.EventID, a.TicketTierID, a.OrderID, a.Name, email, customerID, a.CheckedIn, a.CreatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving attendee's properties")
	}

	return nil
}

// FindManyByOrderID implements AttendeeRepository.
func (r *attendeeRepository) FindManyByOrderID(ctx context.Context, orderID string, tx *sql.Tx) ([]Attendee, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, event_id, ticket_tier_id, order_id, name, email, customer_id, checked_in, created_at
		FROM attendee
		WHERE
			order_id = $1
		ORDER BY id
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of attendee's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, orderID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of attendee's properties")
	}

	defer rows.Close()

	var data = make([]Attendee, 0)
	for rows.Next() {
		var a Attendee
		var email sql.NullString
		var customerID sql.NullInt64

		if err := rows.Scan(&a.ID, &a.EventID, &a.TicketTierID, &a.OrderID, &a.Name, &email, &customerID, &a.CheckedIn, &a.CreatedAt); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of attendee's properties")
		}

		if email.Valid {
			a.Email = &email.String
		}
		if customerID.Valid {
			a.CustomerID = &customerID.Int64
		}

		data = append(data, a)
	}

	return data, nil
}
