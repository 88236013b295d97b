package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func authRouter(configuredKey string) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	reached := false
	router := gin.New()
	router.POST("/guarded", RequireAPIKey(configuredKey), func(c *gin.Context) {
		reached = true
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router, &reached
}

func TestAuthUnconfiguredFailsClosed(t *testing.T) {
	router, reached := authRouter("")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
	req.Header.Set("x-api-key", "anything")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.False(t, *reached)
}

func TestAuthMissingKey(t *testing.T) {
	router, reached := authRouter("secret")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/guarded", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, *reached)
}

func TestAuthMismatchedKey(t *testing.T) {
	router, reached := authRouter("secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
	req.Header.Set("x-api-key", "wrong")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.False(t, *reached)
}

func TestAuthHeaderMatch(t *testing.T) {
	router, reached := authRouter("secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
	req.Header.Set("x-api-key", "secret")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, *reached)
}

func TestAuthQueryParamMatch(t *testing.T) {
	router, reached := authRouter("secret")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/guarded?api_key=secret", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, *reached)
}
