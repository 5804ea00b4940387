package order

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/gigpass/gp-checkout/pkg/errors"
	"github.com/gigpass/gp-checkout/pkg/status"
)

type PromoCodeRepository interface {
	FindByEventIDAndCode(ctx context.Context, eventID, code string, tx *sql.Tx) (PromoCode, error)
	// IncrementUsage redeems one use. The usage count only moves while
	// it stays under the cap; a capped code returns a conflict.
	IncrementUsage(ctx context.Context, ID string, tx *sql.Tx) error
}

type promoCodeRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewPromoCodeRepository(logger *logrus.Logger, db *sql.DB) PromoCodeRepository {
	return &promoCodeRepository{
		logger: logger,
		db:     db,
	}
}

// FindByEventIDAndCode implements PromoCodeRepository.
func (r *promoCodeRepository) FindByEventIDAndCode(ctx context.Context, eventID, code string, tx *sql.Tx) (PromoCode, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, event_id, code, discount_kind, discount_value, usage_cap, usage_count
		FROM promo_code
		WHERE
			event_id = $1
		AND
			code = $2
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return PromoCode{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting promo code's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, eventID, code)

	var data PromoCode

	err = row.Scan(&data.ID, &data.EventID, &data.Code, &data.DiscountKind, &data.DiscountValue, &data.UsageCap, &data.UsageCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return PromoCode{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("promo code '%s' is not found", code))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return PromoCode{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting promo code's properties")
	}

	return data, nil
}

// IncrementUsage implements PromoCodeRepository.
func (r *promoCodeRepository) IncrementUsage(ctx context.Context, ID string, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE promo_code
		SET
			usage_count = usage_count + 1
		WHERE
			id = $1
		AND
			usage_count < usage_cap
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating promo code's usage count")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating promo code's usage count")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating promo code's usage count")
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("promo code with id '%s' has reached its usage cap", ID))
	}

	return nil
}
