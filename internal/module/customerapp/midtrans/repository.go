package midtrans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/gigpass/gp-checkout/pkg/errors"
	"github.com/gigpass/gp-checkout/pkg/status"
)

type MidtransRepository interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (CreateTransactionResponse, error)
}

type midtransRepository struct {
	baseURL      string
	basicAuthKey string
	logger       *logrus.Logger
	hc           *http.Client
}

func NewMidtransRepository(baseURL string, basicAuthKey string, logger *logrus.Logger, hc *http.Client) MidtransRepository {
	return &midtransRepository{
		baseURL:      baseURL,
		basicAuthKey: basicAuthKey,
		logger:       logger,
		hc:           hc,
	}
}

// CreateTransaction implements MidtransRepository.
func (r *midtransRepository) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (CreateTransactionResponse, error) {
	reqBuff, _ := json.Marshal(req)
	body := bytes.NewBuffer(reqBuff)
	url := fmt.Sprintf("%s/snap/v1/transactions", r.baseURL)

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return CreateTransactionResponse{}, errors.New(http.StatusBadGateway, status.BAD_GATEWAY, "an error occurred while creating payment transaction through midtrans")
	}

	hr.Header.Add("Content-Type", "application/json")
	hr.Header.Add("Accept", "application/json")
	hr.Header.Add("Authorization", fmt.Sprintf("Basic %s", r.basicAuthKey))

	hresp, err := r.hc.Do(hr)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return CreateTransactionResponse{}, errors.New(http.StatusBadGateway, status.BAD_GATEWAY, "an error occurred while creating payment transaction through midtrans")
	}

	defer hresp.Body.Close()

	respBody, err := io.ReadAll(hresp.Body)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return CreateTransactionResponse{}, errors.New(http.StatusBadGateway, status.BAD_GATEWAY, "an error occurred while creating payment transaction through midtrans")
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		err := fmt.Errorf("midtrans responded with status %d: %s", hresp.StatusCode, string(respBody))
		r.logger.WithContext(ctx).WithError(err).Error()
		return CreateTransactionResponse{}, errors.New(http.StatusBadGateway, status.BAD_GATEWAY, "an error occurred while creating payment transaction through midtrans")
	}

	var resp CreateTransactionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return CreateTransactionResponse{}, errors.New(http.StatusBadGateway, status.BAD_GATEWAY, "an error occurred while creating payment transaction through midtrans")
	}

	if resp.TransactionID == "" || resp.RedirectURL == "" {
		err := fmt.Errorf("midtrans responded with an incomplete payload")
		r.logger.WithContext(ctx).WithError(err).Error()
		return CreateTransactionResponse{}, errors.New(http.StatusBadGateway, status.BAD_GATEWAY, "an error occurred while creating payment transaction through midtrans")
	}

	return resp, nil
}
