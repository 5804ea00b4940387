package middleware

import (
	"errors"
	"net/http"

	"github.com/gigpass/gp-checkout/internal/pkg/jwt"
	"github.com/gigpass/gp-checkout/internal/pkg/session"
	"github.com/gigpass/gp-checkout/pkg/response"
	"github.com/gigpass/gp-checkout/pkg/status"
)

var errMissingToken = errors.New("authorization token is missing")

type StaffSession struct {
	jsonWebToken jwt.JSONWebToken
	store        session.Store
}

func NewStaffSessionMiddleware(jsonWebToken jwt.JSONWebToken, store session.Store) *StaffSession {
	return &StaffSession{
		jsonWebToken: jsonWebToken,
		store:        store,
	}
}

// Verify requires an authenticated session with the staff role.
func (m *StaffSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, err := resolveAccount(r, m.jsonWebToken, m.store)
		if err != nil {
			response.JSON(w, http.StatusUnauthorized, response.RESTEnvelope{
				Status:  status.UNAUTHORIZED,
				Message: "staff session is required",
			})

			return
		}

		if acc.Role != session.RoleStaff {
			response.JSON(w, http.StatusForbidden, response.RESTEnvelope{
				Status:  status.FORBIDDEN,
				Message: "account is not allowed to perform check-in",
			})

			return
		}

		next(w, r.WithContext(session.SetAccountToCtx(r.Context(), acc)))
	}
}
