package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/librarycentral/server/internal/api"
	"github.com/librarycentral/server/internal/config"
	"github.com/librarycentral/server/internal/repository"
	"github.com/librarycentral/server/internal/service"
	"github.com/librarycentral/server/internal/utils"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	logger := utils.NewLogger(cfg.Server.Environment)
	defer logger.Sync()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to set up database", zap.Error(err))
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret)

	// Create API handler
	handler := api.NewHandler(svc, logger)

	// Set up Gin router
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting server", zap.String("addr", serverAddr))
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
