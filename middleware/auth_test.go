package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-base/models"
)

type stubIdentity struct {
	identity *models.Identity
	err      error
	token    string
}

func (s *stubIdentity) Resolve(_ context.Context, token string) (*models.Identity, error) {
	s.token = token
	return s.identity, s.err
}

func newTestRouter(identity *stubIdentity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(), Metrics(), Authenticate(identity, slog.New(slog.NewTextHandler(io.Discard, nil))))
	router.GET("/whoami", func(c *gin.Context) {
		caller := models.IdentityFromContext(c.Request.Context())
		if caller == nil {
			c.JSON(http.StatusOK, gin.H{"user_id": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": caller.UserID.String()})
	})
	return router
}

func TestAuthenticateStoresCaller(t *testing.T) {
	caller := &models.Identity{UserID: uuid.New(), Role: models.RoleEditor}
	stub := &stubIdentity{identity: caller}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc.def.ghi", stub.token)
	assert.JSONEq(t, `{"user_id":"`+caller.UserID.String()+`"}`, w.Body.String())
}

func TestAuthenticateAllowsAnonymous(t *testing.T) {
	stub := &stubIdentity{}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", stub.token)
	assert.JSONEq(t, `{"user_id":null}`, w.Body.String())
}

func TestAuthenticateAbortsOnProviderFailure(t *testing.T) {
	stub := &stubIdentity{err: models.NewTransientError("identity lookup failed", errors.New("db down"))}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TRANSIENT_STORE_FAILURE", body["code_type"])
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(&stubIdentity{})

	req := httptest.NewRequest(http.MethodOptions, "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"Bearer", ""},
		{"Token abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BearerToken(tt.header), "header %q", tt.header)
	}
}
