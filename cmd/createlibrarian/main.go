// Command createlibrarian provisions a librarian account. Self-service
// signup only creates regular users, so the first librarian has to be
// created out of band with this tool.
//
// Credentials come from LIBRARIAN_USERNAME, LIBRARIAN_EMAIL and
// LIBRARIAN_PASSWORD; none of them have defaults.
package main

import (
	"context"
	"os"

	"github.com/librarycentral/server/internal/config"
	"github.com/librarycentral/server/internal/models"
	"github.com/librarycentral/server/internal/repository"
	"github.com/librarycentral/server/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.LoadConfig()

	logger := utils.NewLogger(cfg.Server.Environment)
	defer logger.Sync()

	username := os.Getenv("LIBRARIAN_USERNAME")
	email := os.Getenv("LIBRARIAN_EMAIL")
	password := os.Getenv("LIBRARIAN_PASSWORD")
	if username == "" || email == "" || password == "" {
		logger.Fatal("LIBRARIAN_USERNAME, LIBRARIAN_EMAIL and LIBRARIAN_PASSWORD must be set")
	}

	db, err := config.SetupDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to set up database", zap.Error(err))
	}
	defer db.Close()

	repo := repository.NewPostgresRepository(db)
	ctx := context.Background()

	existing, err := repo.GetUserByUsername(ctx, username)
	if err != nil {
		logger.Fatal("Failed to check existing user", zap.Error(err))
	}
	if existing != nil {
		logger.Fatal("Username is already taken", zap.String("username", username))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("Failed to hash password", zap.Error(err))
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Role:     models.RoleLibrarian,
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		logger.Fatal("Failed to create librarian", zap.Error(err))
	}

	logger.Info("Librarian created",
		zap.String("id", user.ID),
		zap.String("username", user.Username))
}
