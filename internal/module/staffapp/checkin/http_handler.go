package checkin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	internalMiddleware "github.com/gigpass/gp-checkout/internal/pkg/middleware"
	"github.com/gigpass/gp-checkout/pkg/errors"
	publicMiddleware "github.com/gigpass/gp-checkout/pkg/middleware"
	"github.com/gigpass/gp-checkout/pkg/response"
	"github.com/gigpass/gp-checkout/pkg/status"
)

type HTTPHandler struct {
	Validate       *validator.Validate
	CheckInUseCase CheckInUseCase
}

func InitHTTPHandler(router *mux.Router, staffSession *internalMiddleware.StaffSession, validate *validator.Validate, checkInUseCase CheckInUseCase) {
	handler := &HTTPHandler{
		Validate:       validate,
		CheckInUseCase: checkInUseCase,
	}

	router.HandleFunc("/gp-checkout/v1/staffapp/check-ins", publicMiddleware.SetRouteChain(handler.CheckIn, staffSession.Verify)).Methods(http.MethodPost)
}

func (handler HTTPHandler) validate(ctx context.Context, payload interface{}) error {
	err := handler.Validate.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	errorFields := err.(validator.ValidationErrors)

	errMessages := make([]string, len(errorFields))

	for k, errorField := range errorFields {
		errMessages[k] = fmt.Sprintf("invalid '%s' with value '%v'", errorField.Field(), errorField.Value())
	}

	return fmt.Errorf("%s", strings.Join(errMessages, ", "))
}

func (handler HTTPHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CheckInRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.CheckInUseCase.CheckIn(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)

		// A duplicate scan still carries the attendee's identity so
		// the operator can see who it was.
		var data interface{}
		if resp.ID != "" {
			data = resp
		}

		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
			Data:    data,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "attendee has been successfully checked in",
		Data:    resp,
	})
}
