package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"evaluation-workflow-api/internal/database"
	"evaluation-workflow-api/internal/models"
	"evaluation-workflow-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateProjectRequest represents the request payload for creating a project
type CreateProjectRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
}

// UpdateProjectRequest represents the request payload for updating a project
type UpdateProjectRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status"`
}

// ProjectHandler serves the project CRUD endpoints and dispatches
// project_updated notifications to the project's room.
type ProjectHandler struct {
	dispatcher *realtime.Dispatcher
}

func NewProjectHandler(dispatcher *realtime.Dispatcher) *ProjectHandler {
	return &ProjectHandler{dispatcher: dispatcher}
}

// GetProjects handles GET /api/projects
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	db := database.GetDB()
	query := db.Model(&models.Project{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if ownerID := c.Query("ownerId"); ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}

	var projects []models.Project
	if err := query.Order("created_at desc").Find(&projects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch projects"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"count":    len(projects),
	})
}

// GetProjectByID handles GET /api/projects/:id
func (h *ProjectHandler) GetProjectByID(c *gin.Context) {
	var project models.Project
	if err := database.GetDB().First(&project, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project"})
		}
		return
	}
	c.JSON(http.StatusOK, project)
}

// CreateProject handles POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := req.Status
	if status == "" {
		status = models.ProjectActive
	}

	project := models.Project{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		OwnerID:     userID,
	}
	if err := database.GetDB().Create(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, project)
}

// UpdateProject handles PUT /api/projects/:id
// Only the project owner may update; watchers of the project's room are
// notified.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var project models.Project
	if err := database.GetDB().First(&project, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project"})
		}
		return
	}
	if project.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the project owner can update it"})
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}

	if err := database.GetDB().Save(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	h.dispatcher.ProjectUpdated(project.ID, project.Name, "updated")

	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var project models.Project
	if err := database.GetDB().First(&project, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project"})
		}
		return
	}
	if project.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the project owner can delete it"})
		return
	}

	if err := database.GetDB().Delete(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	h.dispatcher.ProjectUpdated(project.ID, project.Name, "deleted")

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
		"id":      project.ID,
	})
}

// ExportProjectEvaluations handles GET /api/projects/:id/export
// Streams the project's evaluations as CSV.
func (h *ProjectHandler) ExportProjectEvaluations(c *gin.Context) {
	projectID := c.Param("id")

	var project models.Project
	if err := database.GetDB().First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project"})
		}
		return
	}

	var evaluations []models.Evaluation
	if err := database.GetDB().
		Where("project_id = ?", projectID).
		Order("created_at asc").
		Find(&evaluations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch evaluations"})
		return
	}

	filename := fmt.Sprintf("%s-evaluations.csv", strings.ReplaceAll(project.Name, " ", "-"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "title", "status", "evaluator_id", "score", "due_date", "priority", "comments"})
	for _, e := range evaluations {
		score := ""
		if e.Score != nil {
			score = fmt.Sprintf("%d", *e.Score)
		}
		_ = w.Write([]string{
			e.ID,
			e.Title,
			string(e.Status),
			e.EvaluatorID,
			score,
			e.DueDate,
			string(e.Priority),
			e.Comments,
		})
	}
	w.Flush()
}
