package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/shortlink"
	"github.com/foodgram/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveError(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()

	router := gin.New()
	router.Use(ErrorHandler(testhelpers.Logger()))
	router.GET("/", handler)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr, resp
}

func TestErrorHandlerStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"unknown short link", shortlink.ErrNotFound, http.StatusNotFound},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"duplicate", fmt.Errorf("recipe 1 in favorites: %w", service.ErrAlreadyExists), http.StatusBadRequest},
		{"missing relation", service.ErrNotExists, http.StatusBadRequest},
		{"self subscription", service.ErrSelfSubscription, http.StatusBadRequest},
		{"credentials", service.ErrInvalidCredentials, http.StatusBadRequest},
		{"token", service.ErrInvalidToken, http.StatusUnauthorized},
		{"store outage", errors.New("dial tcp: connection refused"), http.StatusInternalServerError},
		{"allocator exhausted", fmt.Errorf("failed to create recipe: %w", shortlink.ErrExhausted), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, resp := serveError(t, func(c *gin.Context) { c.Error(tt.err) })
			assert.Equal(t, tt.status, rr.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestErrorHandlerHidesInternalDetails(t *testing.T) {
	rr, resp := serveError(t, func(c *gin.Context) {
		c.Error(errors.New("pq: password authentication failed"))
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", resp.Error)
}

func TestErrorHandlerValidationFields(t *testing.T) {
	rr, resp := serveError(t, func(c *gin.Context) {
		v := &service.ValidationError{}
		v.Add("cooking_time", "must be between 1 and 32000")
		c.Error(v)
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, []string{"must be between 1 and 32000"}, resp.Fields["cooking_time"])
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	rr, resp := serveError(t, func(c *gin.Context) {
		panic("boom")
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", resp.Error)
}

func TestErrorHandlerLeavesWrittenResponses(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(testhelpers.Logger()))
	router.GET("/", func(c *gin.Context) {
		c.Error(errors.New("logged only"))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
}
