package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/librarycentral/server/internal/models"
	"github.com/librarycentral/server/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// loanPeriod is how long a granted ebook stays with its holder before
// it is due back.
const loanPeriod = 7 * 24 * time.Hour

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Section management
	CreateSection(ctx context.Context, req models.CreateSectionRequest) (*models.Section, error)
	UpdateSection(ctx context.Context, sectionID string, req models.UpdateSectionRequest) (*models.Section, error)
	DeleteSection(ctx context.Context, sectionID string) error
	GetSection(ctx context.Context, sectionID string) (*models.Section, error)
	ListSections(ctx context.Context) ([]models.Section, error)

	// Ebook management
	CreateEbook(ctx context.Context, req models.CreateEbookRequest) (*models.EbookView, error)
	UpdateEbook(ctx context.Context, ebookID string, req models.UpdateEbookRequest) (*models.EbookView, error)
	DeleteEbook(ctx context.Context, ebookID string) error
	RevokeEbook(ctx context.Context, ebookID string) (*models.EbookView, error)
	GetEbook(ctx context.Context, ebookID string) (*models.EbookView, error)
	ListEbooks(ctx context.Context) ([]models.EbookView, error)

	// Request lifecycle
	RequestEbook(ctx context.Context, userID, ebookID string) (*models.BookRequest, error)
	ListRequests(ctx context.Context) ([]models.RequestView, error)
	UpdateRequestStatus(ctx context.Context, requestID, status string) (*models.UpdateRequestStatusResponse, error)

	// Users and dashboards
	DeleteUser(ctx context.Context, callerID, userID string) error
	LibrarianDashboard(ctx context.Context) (*models.LibrarianDashboardResponse, error)
	UserDashboard(ctx context.Context, userID string) (*models.UserDashboardResponse, error)
	ListIssuedBooks(ctx context.Context, userID string) ([]models.EbookView, error)
	SubmitFeedback(ctx context.Context, userID string, req models.SubmitFeedbackRequest) (*models.Feedback, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, jwtSecret string) Service {
	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
	}
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	existingUser, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}
	if existingUser != nil {
		return nil, conflictError("Username is already taken")
	}

	existingUser, err = s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}
	if existingUser != nil {
		return nil, conflictError("Email is already registered")
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// Self-registered accounts are always regular users; librarians are
	// provisioned with the createlibrarian command.
	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return &models.AuthResponse{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, forbiddenError("Invalid credentials")
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, forbiddenError("Invalid credentials")
	}

	// Generate JWT token
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// DeleteUser removes an account. Librarians may not delete themselves,
// and accounts holding issued books may not be removed.
func (s *DefaultService) DeleteUser(ctx context.Context, callerID, userID string) error {
	if callerID == userID {
		return forbiddenError("You cannot delete your own account")
	}

	err := s.repo.DeleteUser(ctx, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFoundError("User not found")
	case errors.Is(err, repository.ErrUserHasBooks):
		return conflictError("User has ebooks issued")
	default:
		return fmt.Errorf("error deleting user: %w", err)
	}
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub":  user.ID, // subject
		"role": user.Role,
		"exp":  expirationTime.Unix(),
		"iat":  time.Now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
