package routes

import (
	"evaluation-workflow-api/internal/handlers"
	"evaluation-workflow-api/internal/middleware"
	"evaluation-workflow-api/internal/realtime"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(registry *realtime.Registry, dispatcher *realtime.Dispatcher) *gin.Engine {
	// Create a new GIN Router
	ginRouter := gin.Default()

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204) // This depends on the implementation of the frontend
			return
		}

		c.Next()
	})

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Evaluation Workflow API is running",
		})
	})

	projectHandler := handlers.NewProjectHandler(dispatcher)
	evaluationHandler := handlers.NewEvaluationHandler(dispatcher)
	adminHandler := handlers.NewAdminHandler(registry, dispatcher)

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/register", handlers.Register)
		api.POST("/login", handlers.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware())
	{
		// Users endpoint
		protectedRoutes.GET("/users", handlers.GetAllUsers)

		// Project endpoints
		protectedRoutes.GET("/projects", projectHandler.GetProjects)
		protectedRoutes.GET("/projects/:id", projectHandler.GetProjectByID)
		protectedRoutes.POST("/projects", projectHandler.CreateProject)
		protectedRoutes.PUT("/projects/:id", projectHandler.UpdateProject)
		protectedRoutes.DELETE("/projects/:id", projectHandler.DeleteProject)
		protectedRoutes.GET("/projects/:id/export", projectHandler.ExportProjectEvaluations)

		// Evaluation endpoints
		protectedRoutes.GET("/evaluations", evaluationHandler.GetEvaluations)
		protectedRoutes.GET("/evaluations/:id", evaluationHandler.GetEvaluationByID)
		protectedRoutes.POST("/evaluations", evaluationHandler.CreateEvaluation)
		protectedRoutes.PUT("/evaluations/:id", evaluationHandler.UpdateEvaluation)
		protectedRoutes.PATCH("/evaluations/:id/status", evaluationHandler.UpdateEvaluationStatus)
		protectedRoutes.DELETE("/evaluations/:id", evaluationHandler.DeleteEvaluation)

		// Admin endpoints
		protectedRoutes.POST("/admin/maintenance", adminHandler.AnnounceMaintenance)
		protectedRoutes.GET("/admin/stats", adminHandler.GetStats)

		// Real-time notifications (token accepted via query param)
		protectedRoutes.GET("/ws", handlers.WebSocketHandler(registry))
	}

	return ginRouter
}
