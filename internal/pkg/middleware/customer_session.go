package middleware

import (
	"net/http"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/gigpass/gp-checkout/internal/pkg/jwt"
	"github.com/gigpass/gp-checkout/internal/pkg/session"
	"github.com/gigpass/gp-checkout/pkg/response"
	"github.com/gigpass/gp-checkout/pkg/status"
)

type sessionClaims struct {
	gojwt.RegisteredClaims
	SessionID string `json:"sid"`
}

type CustomerSession struct {
	jsonWebToken jwt.JSONWebToken
	store        session.Store
}

func NewCustomerSessionMiddleware(jsonWebToken jwt.JSONWebToken, store session.Store) *CustomerSession {
	return &CustomerSession{
		jsonWebToken: jsonWebToken,
		store:        store,
	}
}

func bearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if !strings.HasPrefix(authorization, "Bearer ") {
		return ""
	}

	return strings.TrimPrefix(authorization, "Bearer ")
}

func resolveAccount(r *http.Request, jsonWebToken jwt.JSONWebToken, store session.Store) (session.Account, error) {
	token := bearerToken(r)
	if token == "" {
		return session.Account{}, errMissingToken
	}

	claims := &sessionClaims{}
	if err := jsonWebToken.Parse(token, claims); err != nil {
		return session.Account{}, err
	}

	return store.Get(r.Context(), claims.SessionID)
}

// Verify requires an authenticated customer session.
func (m *CustomerSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, err := resolveAccount(r, m.jsonWebToken, m.store)
		if err != nil {
			response.JSON(w, http.StatusUnauthorized, response.RESTEnvelope{
				Status:  status.UNAUTHORIZED,
				Message: "customer session is required",
			})

			return
		}

		next(w, r.WithContext(session.SetAccountToCtx(r.Context(), acc)))
	}
}

// VerifyOptional attaches the account when a valid session is
// presented and lets the request through as a guest otherwise.
func (m *CustomerSession) VerifyOptional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, err := resolveAccount(r, m.jsonWebToken, m.store)
		if err != nil {
			next(w, r)
			return
		}

		next(w, r.WithContext(session.SetAccountToCtx(r.Context(), acc)))
	}
}
