package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"evaluation-workflow-api/internal/auth"
	"evaluation-workflow-api/internal/database"
	"evaluation-workflow-api/internal/middleware"
	"evaluation-workflow-api/internal/models"
	"evaluation-workflow-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestGetAllUsers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db
	usersCache.Clear()

	// Seed some users
	_ = db.Create(&models.User{ID: "u-1", Username: "alice", Password: "x"}).Error
	_ = db.Create(&models.User{ID: "u-2", Username: "bob", Password: "x"}).Error

	r := gin.New()
	r.Use(middleware.JWTAuthMiddleware())
	r.GET("/api/users", GetAllUsers)

	token, _ := auth.GenerateToken("u-1", "alice")
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Second request is served from the cache
	cached, ok := usersCache.Get(usersCacheKey)
	require.True(t, ok)
	require.Len(t, cached, 2)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
