package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anirudh9794/container-service-extension/internal/errors"
)

func newAuthRouter(validator TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(validator))
	router.GET("/cluster", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": GetToken(c)})
	})
	return router
}

func authedRequest(token, accept string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/cluster", nil)
	if token != "" {
		req.Header.Set(AuthorizationHeader, token)
	}
	if accept != "" {
		req.Header.Set(AcceptHeader, accept)
	}
	return req
}

func TestAuthAcceptsValidRequest(t *testing.T) {
	router := newAuthRouter(AcceptAnyToken())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("session-token", "application/*+json;version=35.0"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "session-token")
}

func TestAuthRejectsMissingToken(t *testing.T) {
	router := newAuthRouter(AcceptAnyToken())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("", "application/*+json;version=35.0"))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "x-vcloud-authorization")
}

func TestAuthRejectsUnversionedAccept(t *testing.T) {
	router := newAuthRouter(AcceptAnyToken())

	cases := []string{"", "application/json", "application/*+json"}
	for _, accept := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest("session-token", accept))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "accept=%q", accept)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	validator := TokenValidatorFunc(func(token string) error {
		if token != "the-one-token" {
			return errors.ErrUnauthorized
		}
		return nil
	})
	router := newAuthRouter(validator)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("wrong-token", "application/*+json;version=35.0"))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("the-one-token", "application/*+json;version=35.0"))
	require.Equal(t, http.StatusOK, w.Code)
}
