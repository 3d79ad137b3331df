package handlers

import (
	"net/http"
	"time"

	"evaluation-workflow-api/internal/cache"
	"evaluation-workflow-api/internal/database"
	"evaluation-workflow-api/internal/models"

	"github.com/gin-gonic/gin"
)

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// The user directory changes rarely relative to how often evaluator pickers
// request it, so responses are cached for a short TTL.
var (
	usersCache    = cache.New[string, []UserResponse]()
	usersCacheTTL = 30 * time.Second
)

const usersCacheKey = "all"

// invalidateUsersCache drops the cached directory after a mutation.
func invalidateUsersCache() {
	usersCache.Delete(usersCacheKey)
}

// GetAllUsers returns all users (protected)
// GET /api/users
func GetAllUsers(c *gin.Context) {
	if cached, ok := usersCache.Get(usersCacheKey); ok {
		c.JSON(http.StatusOK, gin.H{
			"users": cached,
			"count": len(cached),
		})
		return
	}

	var users []models.User
	if err := database.GetDB().Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	// Map to safe response payload
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, UserResponse{
			ID:       u.ID,
			Username: u.Username,
			FullName: u.FullName,
		})
	}
	usersCache.Set(usersCacheKey, resp, usersCacheTTL)

	c.JSON(http.StatusOK, gin.H{
		"users": resp,
		"count": len(resp),
	})
}
