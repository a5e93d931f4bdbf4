package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/librarycentral/server/internal/api"
	"github.com/librarycentral/server/internal/config"
	"github.com/librarycentral/server/internal/models"
	"github.com/librarycentral/server/internal/repository"
	"github.com/librarycentral/server/internal/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router       *gin.Engine
	Repository   repository.Repository
	Service      service.Service
	JWTSecret    []byte
	DB           *sqlx.DB
	LibrarianID  string
	LibrarianJWT string
	UserID       string
	UserJWT      string
}

// SetupTestContext creates a new test context with initialized
// dependencies, a seeded librarian and a seeded regular user.
func SetupTestContext(t *testing.T) *TestContext {
	// Load configuration from environment
	cfg := config.LoadConfig()

	// Override with test-specific config
	if cfg.Database.DBName == "libraryapp" && cfg.Database.TestDBName != "" {
		cfg.Database.DBName = cfg.Database.TestDBName
	} else if cfg.Database.TestDBName == "" {
		// Fallback to hardcoded test DB if not in environment
		cfg.Database.DBName = "libraryapp_test"
	}

	// Use a test JWT secret
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "test-secret-key"
	}

	// Set up database
	db, err := config.SetupDatabase(cfg)
	assert.NoError(t, err, "Failed to set up test database")

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret)

	// Create API handler
	handler := api.NewHandler(svc, zap.NewNop())

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	testCtx := &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
		DB:         db,
	}

	// Start from a clean database, then seed the two standing accounts
	cleanupTestDatabase(t, repo)
	testCtx.LibrarianID, testCtx.LibrarianJWT = CreateTestAccount(
		t, repo, cfg.Auth.JWTSecret, "testlibrarian", "librarian@example.com", models.RoleLibrarian)
	testCtx.UserID, testCtx.UserJWT = CreateTestAccount(
		t, repo, cfg.Auth.JWTSecret, "testuser", "testuser@example.com", models.RoleUser)

	return testCtx
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(t *TestContext) {
	// Clean up database
	if t.DB != nil {
		cleanupTestDatabase(nil, t.Repository)
		t.DB.Close()
	}
}

// cleanupTestDatabase removes any existing test users and data
func cleanupTestDatabase(t *testing.T, repo repository.Repository) {
	// Execute cleanup SQL directly through the DB connection
	pgRepo, ok := repo.(*repository.PostgresRepository)
	if !ok {
		return
	}
	db := pgRepo.GetDB()

	// Child tables first, then the entities they reference
	tables := []string{"feedback", "issued_books", "book_requests", "ebooks", "sections", "users"}
	for _, table := range tables {
		_, err := db.Exec("DELETE FROM " + table)
		if t != nil && err != nil {
			t.Logf("Warning: Failed to clean %s: %v", table, err)
		}
	}
}

// CreateTestAccount inserts an account with the given role and returns
// its id together with a signed JWT for it.
func CreateTestAccount(t *testing.T, repo repository.Repository, jwtSecret, username, email, role string) (string, string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)

	user := &models.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
	}

	err := repo.CreateUser(context.Background(), user)
	assert.NoError(t, err, "Failed to create test account")

	// Generate JWT token with the provided secret key
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(jwtSecret))
	assert.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
