package jwt

import (
	"crypto/rsa"
	"net/http"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/gigpass/gp-checkout/pkg/errors"
	"github.com/gigpass/gp-checkout/pkg/status"
)

type JSONWebToken interface {
	Sign(claims gojwt.Claims) (string, error)
	Parse(tokenString string, claims gojwt.Claims) error
}

type jsonWebToken struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewJSONWebToken(privateKeyPEM, publicKeyPEM []byte) JSONWebToken {
	j := &jsonWebToken{}

	if len(privateKeyPEM) > 0 {
		if pk, err := gojwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM); err == nil {
			j.privateKey = pk
		}
	}

	if len(publicKeyPEM) > 0 {
		if pub, err := gojwt.ParseRSAPublicKeyFromPEM(publicKeyPEM); err == nil {
			j.publicKey = pub
		}
	}

	return j
}

// Sign implements JSONWebToken.
func (j *jsonWebToken) Sign(claims gojwt.Claims) (string, error) {
	if j.privateKey == nil {
		return "", errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "signing key is not configured")
	}

	return gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims).SignedString(j.privateKey)
}

// Parse implements JSONWebToken.
func (j *jsonWebToken) Parse(tokenString string, claims gojwt.Claims) error {
	if j.publicKey == nil {
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "verification key is not configured")
	}

	token, err := gojwt.ParseWithClaims(tokenString, claims, func(t *gojwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodRSA); !ok {
			return nil, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "unexpected token signing method")
		}
		return j.publicKey, nil
	})
	if err != nil || !token.Valid {
		return errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "token is invalid")
	}

	return nil
}
