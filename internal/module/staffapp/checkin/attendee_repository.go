package checkin

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/gigpass/gp-checkout/pkg/errors"
	"github.com/gigpass/gp-checkout/pkg/status"
)

type AttendeeRepository interface {
	// FindByIDAndEventID requires the scanned event id to match the
	// attendee's event, so a ticket forged for another event never
	// resolves.
	FindByIDAndEventID(ctx context.Context, ID, eventID string, tx *sql.Tx) (Attendee, error)
	// MarkCheckedIn flips the flag exactly once. A second call, even a
	// concurrent one, observes the already-set flag and returns a
	// conflict.
	MarkCheckedIn(ctx context.Context, ID string, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
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

// FindByIDAndEventID implements AttendeeRepository.
func (r *attendeeRepository) FindByIDAndEventID(ctx context.Context, ID, eventID string, tx *sql.Tx) (Attendee, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			a.id, a.event_id, e.name, a.ticket_tier_id, t.name,
			a.name, a.email, a.checked_in, a.created_at
		FROM attendee a
		JOIN event e ON e.id = a.event_id
		JOIN ticket_tier t ON t.id = a.ticket_tier_id
		WHERE
			a.id = $1
		AND
			a.event_id = $2
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Attendee{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting attendee's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, ID, eventID)

	var data Attendee
	var email sql.NullString

	err = row.Scan(&data.ID, &data.EventID, &data.EventName, &data.TicketTierID, &data.TierName, &data.Name, &email, &data.CheckedIn, &data.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Attendee{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("attendee with id '%s' is not found for this event", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Attendee{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting attendee's properties")
	}

	if email.Valid {
		data.Email = &email.String
	}

	return data, nil
}

// MarkCheckedIn implements AttendeeRepository.
func (r *attendeeRepository) MarkCheckedIn(ctx context.Context, ID string, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE attendee
		SET
			checked_in = TRUE
		WHERE
			id = $1
		AND
			checked_in = FALSE
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating attendee's check-in state")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating attendee's check-in state")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating attendee's check-in state")
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("attendee with id '%s' has already been checked in", ID))
	}

	return nil
}
