package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/finlens/bank_recon_app/internal/middleware"
)

// signTestToken builds an HS256 bearer token carrying the organization claim.
func signTestToken(require *require.Assertions, secret string, organizationID string, userID string) string {
	claims := middleware.AppClaims{
		OrganizationID: organizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "recon-test",
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(err)
	return signed
}

// doAuthenticatedRequest performs a request against the router with a freshly
// signed bearer token and returns the recorder.
func doAuthenticatedRequest(require *require.Assertions, router *gin.Engine, secret string, organizationID string, userID string, method string, url string, body any) *httptest.ResponseRecorder {
	reader := bytes.NewReader(nil)
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(err)
	req.Header.Set("Authorization", "Bearer "+signTestToken(require, secret, organizationID, userID))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
