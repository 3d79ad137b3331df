package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"evaluation-workflow-api/internal/database"
	"evaluation-workflow-api/internal/models"
	"evaluation-workflow-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateEvaluationRequest represents the request payload for creating an
// evaluation assignment
type CreateEvaluationRequest struct {
	Title       string                    `json:"title" binding:"required"`
	Description string                    `json:"description"`
	ProjectID   string                    `json:"projectId" binding:"required"`
	Evaluator   models.Evaluator          `json:"evaluator" binding:"required"`
	DueDate     string                    `json:"dueDate" binding:"required"`
	Priority    models.EvaluationPriority `json:"priority"`
}

// UpdateEvaluationRequest represents the request payload for updating an
// evaluation
type UpdateEvaluationRequest struct {
	Title       *string                    `json:"title"`
	Description *string                    `json:"description"`
	Evaluator   *models.Evaluator          `json:"evaluator"`
	Score       *int                       `json:"score"`
	Comments    *string                    `json:"comments"`
	DueDate     *string                    `json:"dueDate"`
	Priority    *models.EvaluationPriority `json:"priority"`
}

// UpdateEvaluationStatusRequest represents a minimal request to change status
type UpdateEvaluationStatusRequest struct {
	Status models.EvaluationStatus `json:"status" binding:"required"`
}

func parseDateFlexible(dateStr string) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}
	layouts := []string{
		"2006-01-02",  // ISO date
		"2 Jan 2006",  // e.g., 30 Oct 2025
		time.RFC3339,  // full RFC3339
		"02 Jan 2006", // zero-padded day
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EvaluationHandler serves the evaluation CRUD endpoints and dispatches
// assignment/completion notifications.
type EvaluationHandler struct {
	dispatcher *realtime.Dispatcher
}

func NewEvaluationHandler(dispatcher *realtime.Dispatcher) *EvaluationHandler {
	return &EvaluationHandler{dispatcher: dispatcher}
}

// enrichEvaluators fills the response-only Evaluator field from the users table.
func enrichEvaluators(evaluations []models.Evaluation) {
	var users []models.User
	if err := database.GetDB().Find(&users).Error; err != nil {
		return
	}
	userByID := make(map[string]models.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}
	for i := range evaluations {
		if u, ok := userByID[evaluations[i].EvaluatorID]; ok {
			evaluations[i].Evaluator = models.Evaluator{
				ID:   u.ID,
				Name: u.Username,
			}
		}
	}
}

/*
*
GetEvaluations handles GET /api/evaluations
Returns evaluations team-wide for authenticated users.
Optional query params: projectId, evaluatorId, status; page/limit/sort as in
the rest of the API.
*/
func (h *EvaluationHandler) GetEvaluations(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	// Query params: page (default 1), limit (default 5), sort (asc|desc on created_at, default desc)
	pageStr := c.DefaultQuery("page", "1")
	limitStr := c.DefaultQuery("limit", "5")
	sortParam := strings.ToLower(c.DefaultQuery("sort", "desc"))

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = 5
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit

	order := "created_at desc"
	if sortParam == "asc" {
		order = "created_at asc"
	}

	db := database.GetDB()
	query := db.Model(&models.Evaluation{})
	if projectID := c.Query("projectId"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if evaluatorID := c.Query("evaluatorId"); evaluatorID != "" {
		query = query.Where("evaluator_id = ?", evaluatorID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	// Total count (without pagination)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count evaluations"})
		return
	}

	var evaluations []models.Evaluation
	result := query.Session(&gorm.Session{}).Order(order).Limit(limit).Offset(offset).Find(&evaluations)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch evaluations"})
		return
	}

	enrichEvaluators(evaluations)

	c.JSON(http.StatusOK, gin.H{
		"evaluations": evaluations,
		"count":       len(evaluations),
		"total":       total,
		"page":        page,
		"limit":       limit,
		"sort":        sortParam,
	})
}

// GetEvaluationByID handles GET /api/evaluations/:id
func (h *EvaluationHandler) GetEvaluationByID(c *gin.Context) {
	var evaluation models.Evaluation
	if err := database.GetDB().First(&evaluation, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch evaluation"})
		}
		return
	}

	evals := []models.Evaluation{evaluation}
	enrichEvaluators(evals)
	c.JSON(http.StatusOK, evals[0])
}

/*
*
CreateEvaluation handles POST /api/evaluations
Creates an evaluation assignment and notifies the evaluator.
*/
func (h *EvaluationHandler) CreateEvaluation(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var req CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, ok := parseDateFlexible(req.DueDate); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dueDate"})
		return
	}

	// Validate the parent project exists
	var project models.Project
	if err := database.GetDB().First(&project, "id = ?", req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid projectId: project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate projectId"})
		}
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = models.EvalPriorityMedium
	}

	evaluation := models.Evaluation{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      models.EvaluationPending,
		ProjectID:   req.ProjectID,
		EvaluatorID: req.Evaluator.ID,
		Evaluator:   req.Evaluator,
		DueDate:     req.DueDate,
		Priority:    priority,
		UserID:      userID,
	}
	if err := database.GetDB().Create(&evaluation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create evaluation"})
		return
	}

	h.dispatcher.AssignmentCreated(evaluation.EvaluatorID, evaluation.ID, evaluation.Title)

	c.JSON(http.StatusCreated, evaluation)
}

// UpdateEvaluation handles PUT /api/evaluations/:id
func (h *EvaluationHandler) UpdateEvaluation(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var evaluation models.Evaluation
	if err := database.GetDB().First(&evaluation, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch evaluation"})
		}
		return
	}

	var req UpdateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reassigned := false
	if req.Title != nil {
		evaluation.Title = *req.Title
	}
	if req.Description != nil {
		evaluation.Description = *req.Description
	}
	if req.Evaluator != nil && req.Evaluator.ID != evaluation.EvaluatorID {
		evaluation.EvaluatorID = req.Evaluator.ID
		evaluation.Evaluator = *req.Evaluator
		reassigned = true
	}
	if req.Score != nil {
		evaluation.Score = req.Score
	}
	if req.Comments != nil {
		evaluation.Comments = *req.Comments
	}
	if req.DueDate != nil {
		if _, ok := parseDateFlexible(*req.DueDate); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dueDate"})
			return
		}
		evaluation.DueDate = *req.DueDate
		// A moved deadline re-arms the reminder.
		evaluation.Reminded = false
	}
	if req.Priority != nil {
		evaluation.Priority = *req.Priority
	}

	if err := database.GetDB().Save(&evaluation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update evaluation"})
		return
	}

	if reassigned {
		h.dispatcher.AssignmentCreated(evaluation.EvaluatorID, evaluation.ID, evaluation.Title)
	}

	c.JSON(http.StatusOK, evaluation)
}

// UpdateEvaluationStatus handles PATCH /api/evaluations/:id/status
// A transition to completed notifies the evaluation's creator.
func (h *EvaluationHandler) UpdateEvaluationStatus(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var req UpdateEvaluationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case models.EvaluationPending, models.EvaluationInProgress, models.EvaluationCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var evaluation models.Evaluation
	if err := database.GetDB().First(&evaluation, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch evaluation"})
		}
		return
	}

	completing := req.Status == models.EvaluationCompleted && evaluation.Status != models.EvaluationCompleted
	evaluation.Status = req.Status

	if err := database.GetDB().Save(&evaluation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	if completing {
		evaluatorName := c.GetString("username")
		h.dispatcher.EvaluationCompleted(evaluation.UserID, evaluation.ID, evaluatorName)
	}

	c.JSON(http.StatusOK, evaluation)
}

// DeleteEvaluation handles DELETE /api/evaluations/:id
func (h *EvaluationHandler) DeleteEvaluation(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var evaluation models.Evaluation
	if err := database.GetDB().First(&evaluation, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch evaluation"})
		}
		return
	}
	if evaluation.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the creator can delete an evaluation"})
		return
	}

	if err := database.GetDB().Delete(&evaluation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete evaluation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Evaluation deleted successfully",
		"id":      evaluation.ID,
	})
}
