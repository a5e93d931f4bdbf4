package repository

import (
	"context"
	"errors"
	"time"

	"github.com/librarycentral/server/internal/models"
)

// Guard and lookup failures surfaced by the repository. The checks
// behind ErrSectionHasEbooks, ErrEbookIssued, ErrUserHasBooks and
// ErrEbookTaken run inside the same transaction as the mutation they
// protect, so a concurrent issuance cannot slip between check and write.
var (
	ErrNotFound         = errors.New("record not found")
	ErrEbookNotFound    = errors.New("ebook not found")
	ErrDuplicateName    = errors.New("name already in use")
	ErrDuplicateRequest = errors.New("an open request for this ebook already exists")
	ErrRequestClosed    = errors.New("request is already granted or rejected")
	ErrSectionHasEbooks = errors.New("section has related ebooks")
	ErrEbookIssued      = errors.New("ebook is issued to a user")
	ErrEbookNotIssued   = errors.New("ebook is not issued")
	ErrEbookTaken       = errors.New("ebook already assigned to another user")
	ErrUserHasBooks     = errors.New("user has ebooks issued")
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error

	// Section operations
	CreateSection(ctx context.Context, section *models.Section) error
	UpdateSection(ctx context.Context, section *models.Section) error
	GetSection(ctx context.Context, id string) (*models.Section, error)
	GetSectionByName(ctx context.Context, name string) (*models.Section, error)
	ListSections(ctx context.Context) ([]models.Section, error)
	DeleteSection(ctx context.Context, id string) error

	// Ebook operations
	CreateEbook(ctx context.Context, ebook *models.Ebook) error
	UpdateEbook(ctx context.Context, ebook *models.Ebook) error
	GetEbook(ctx context.Context, id string) (*models.Ebook, error)
	GetEbookByName(ctx context.Context, name string) (*models.Ebook, error)
	ListEbooks(ctx context.Context) ([]models.Ebook, error)
	DeleteEbook(ctx context.Context, id string) error
	RevokeEbook(ctx context.Context, id string) error

	// Book request operations
	CreateBookRequest(ctx context.Context, request *models.BookRequest) error
	GetBookRequest(ctx context.Context, id string) (*models.BookRequest, error)
	ListBookRequests(ctx context.Context) ([]models.BookRequest, error)
	ListBookRequestsByUser(ctx context.Context, userID string) ([]models.BookRequest, error)
	UpdateBookRequestStatus(ctx context.Context, requestID, status string, issuedAt, returnAt time.Time) (*models.BookRequest, error)

	// Loan and feedback operations
	ListIssuedEbooks(ctx context.Context, userID string) ([]models.Ebook, error)
	CreateFeedback(ctx context.Context, feedback *models.Feedback) error
	ListFeedbackByUser(ctx context.Context, userID string) ([]models.Feedback, error)

	// Dashboard counts
	CountUsersByRole(ctx context.Context, role string) (int, error)
	CountSections(ctx context.Context) (int, error)
	CountEbooks(ctx context.Context) (int, error)
	CountIssuedBooks(ctx context.Context) (int, error)
}
