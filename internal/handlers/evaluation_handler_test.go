package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"evaluation-workflow-api/internal/auth"
	"evaluation-workflow-api/internal/database"
	"evaluation-workflow-api/internal/middleware"
	"evaluation-workflow-api/internal/models"
	"evaluation-workflow-api/internal/realtime"
	"evaluation-workflow-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestCreateEvaluation_NotifiesEvaluator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry)
	h := NewEvaluationHandler(dispatcher)

	require.NoError(t, db.Create(&models.Project{ID: "p-1", Name: "Apollo", OwnerID: "u-1"}).Error)
	require.NoError(t, db.Create(&models.User{ID: "u-2", Username: "bob", Password: "x"}).Error)

	evaluatorConn := &memTransport{}
	registry.Connect(evaluatorConn, "u-2", "web")

	r := gin.New()
	r.Use(middleware.JWTAuthMiddleware())
	r.POST("/api/evaluations", h.CreateEvaluation)

	token, _ := auth.GenerateToken("u-1", "alice")
	payload := map[string]any{
		"title":     "Vendor audit",
		"projectId": "p-1",
		"evaluator": map[string]string{"id": "u-2", "name": "bob"},
		"dueDate":   "2026-09-15",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/evaluations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Evaluation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, models.EvaluationPending, created.Status)
	require.Equal(t, models.EvalPriorityMedium, created.Priority)

	assigned := envelopesOfType(evaluatorConn.envelopes(t), realtime.TypeAssignmentCreated)
	require.Len(t, assigned, 1)
	require.Equal(t, created.ID, assigned[0].Data["evaluationId"])
}

func TestCreateEvaluation_UnknownProject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	h := NewEvaluationHandler(realtime.NewDispatcher(realtime.NewRegistry()))

	r := gin.New()
	r.Use(middleware.JWTAuthMiddleware())
	r.POST("/api/evaluations", h.CreateEvaluation)

	token, _ := auth.GenerateToken("u-1", "alice")
	payload := map[string]any{
		"title":     "Vendor audit",
		"projectId": "missing",
		"evaluator": map[string]string{"id": "u-2", "name": "bob"},
		"dueDate":   "2026-09-15",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/evaluations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateEvaluationStatus_CompletionNotifiesCreator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry)
	h := NewEvaluationHandler(dispatcher)

	require.NoError(t, db.Create(&models.Evaluation{
		ID: "e-1", Title: "Vendor audit", Status: models.EvaluationInProgress,
		ProjectID: "p-1", EvaluatorID: "u-2", DueDate: "2026-09-15", UserID: "u-1",
	}).Error)

	creatorConn := &memTransport{}
	registry.Connect(creatorConn, "u-1", "web")

	r := gin.New()
	r.Use(middleware.JWTAuthMiddleware())
	r.PATCH("/api/evaluations/:id/status", h.UpdateEvaluationStatus)

	token, _ := auth.GenerateToken("u-2", "bob")
	body, _ := json.Marshal(map[string]string{"status": "completed"})
	req := httptest.NewRequest(http.MethodPatch, "/api/evaluations/e-1/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	completed := envelopesOfType(creatorConn.envelopes(t), realtime.TypeEvaluationCompleted)
	require.Len(t, completed, 1)
	require.Contains(t, completed[0].Message, "bob")

	// Completing an already-completed evaluation must not notify again
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/api/evaluations/e-1/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, envelopesOfType(creatorConn.envelopes(t), realtime.TypeEvaluationCompleted), 1)
}

func TestGetEvaluations_FilterByProject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	h := NewEvaluationHandler(realtime.NewDispatcher(realtime.NewRegistry()))

	require.NoError(t, db.Create(&models.Evaluation{
		ID: "e-1", Title: "A", ProjectID: "p-1", EvaluatorID: "u-2", UserID: "u-1",
	}).Error)
	require.NoError(t, db.Create(&models.Evaluation{
		ID: "e-2", Title: "B", ProjectID: "p-2", EvaluatorID: "u-2", UserID: "u-1",
	}).Error)

	r := gin.New()
	r.Use(middleware.JWTAuthMiddleware())
	r.GET("/api/evaluations", h.GetEvaluations)

	token, _ := auth.GenerateToken("u-1", "alice")
	req := httptest.NewRequest(http.MethodGet, "/api/evaluations?projectId=p-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Evaluations []models.Evaluation `json:"evaluations"`
		Total       int64               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Evaluations, 1)
	require.Equal(t, "e-1", resp.Evaluations[0].ID)
	require.EqualValues(t, 1, resp.Total)
}
