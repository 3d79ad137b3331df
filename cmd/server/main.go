package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evaluation-workflow-api/internal/database"
	"evaluation-workflow-api/internal/realtime"
	"evaluation-workflow-api/internal/reminder"
	"evaluation-workflow-api/internal/routes"
)

func main() {
	// Init database
	database.InitDB()

	// One registry instance for the whole process; everything that needs to
	// dispatch gets a handle to it.
	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry)

	// Setup the routes (public and protected routes)
	ginRoutes := routes.SetupRoutes(registry, dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Deadline reminders run for the lifetime of the server
	go reminder.New(database.GetDB(), dispatcher).Run(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8008"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: ginRoutes,
	}

	go func() {
		log.Printf("Server starting on port :%s", port)
		log.Println("API endpoints:")
		log.Println("  POST   /api/register")
		log.Println("  POST   /api/login")
		log.Println("  GET    /api/users")
		log.Println("  CRUD   /api/projects[/:id]")
		log.Println("  GET    /api/projects/:id/export")
		log.Println("  CRUD   /api/evaluations[/:id]")
		log.Println("  PATCH  /api/evaluations/:id/status")
		log.Println("  POST   /api/admin/maintenance")
		log.Println("  GET    /api/admin/stats")
		log.Println("  GET    /api/ws")
		log.Println("  GET    /health")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("HTTP shutdown error:", err)
	}

	// Close every live websocket through the registry's purge path
	registry.Shutdown()
}
