package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"evaluation-workflow-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	registry := realtime.NewRegistry()
	return SetupRoutes(registry, realtime.NewDispatcher(registry))
}

func TestHealth(t *testing.T) {
	r := setupTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := setupTestRouter()
	for _, path := range []string{"/api/users", "/api/projects", "/api/evaluations", "/api/ws", "/api/admin/stats"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}
