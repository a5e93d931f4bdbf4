package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/librarycentral/server/internal/models"
	"github.com/librarycentral/server/internal/repository"
)

// RequestEbook files a pending request row for the user. A user may
// hold at most one open (pending or granted) request per ebook.
func (s *DefaultService) RequestEbook(ctx context.Context, userID, ebookID string) (*models.BookRequest, error) {
	ebook, err := s.repo.GetEbook(ctx, ebookID)
	if err != nil {
		return nil, fmt.Errorf("error getting ebook: %w", err)
	}
	if ebook == nil {
		return nil, notFoundError("E-book not found")
	}

	request := &models.BookRequest{
		UserID:  userID,
		EbookID: ebookID,
	}

	if err := s.repo.CreateBookRequest(ctx, request); err != nil {
		if errors.Is(err, repository.ErrDuplicateRequest) {
			return nil, conflictError("You have already requested this e-book")
		}
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	return request, nil
}

// ListRequests returns every request row across users with the
// requesting username and ebook resolved, for the librarian view.
func (s *DefaultService) ListRequests(ctx context.Context) ([]models.RequestView, error) {
	requests, err := s.repo.ListBookRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing requests: %w", err)
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	usernames := make(map[string]string, len(users))
	for _, user := range users {
		usernames[user.ID] = user.Username
	}

	ebooks, err := s.repo.ListEbooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing ebooks: %w", err)
	}
	ebooksByID := make(map[string]*models.Ebook, len(ebooks))
	for i := range ebooks {
		ebooksByID[ebooks[i].ID] = &ebooks[i]
	}

	views := make([]models.RequestView, 0, len(requests))
	for _, request := range requests {
		ebook, ok := ebooksByID[request.EbookID]
		if !ok {
			continue
		}
		views = append(views, newRequestView(&request, usernames[request.UserID], ebook))
	}

	return views, nil
}

// UpdateRequestStatus transitions a pending request to granted or
// rejected. A grant assigns the ebook to the requesting user and
// records the loan on both sides atomically; if the ebook is already
// held by someone else the whole operation fails with no mutation.
func (s *DefaultService) UpdateRequestStatus(ctx context.Context, requestID, status string) (*models.UpdateRequestStatusResponse, error) {
	now := time.Now().UTC()
	request, err := s.repo.UpdateBookRequestStatus(ctx, requestID, status, now, now.Add(loanPeriod))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFoundError("Request not found")
		case errors.Is(err, repository.ErrEbookNotFound):
			return nil, notFoundError("E-book not found")
		case errors.Is(err, repository.ErrEbookTaken):
			return nil, conflictError("E-book already assigned to another user")
		case errors.Is(err, repository.ErrRequestClosed):
			return nil, conflictError("Request has already been processed")
		default:
			return nil, fmt.Errorf("error updating request status: %w", err)
		}
	}

	user, err := s.repo.GetUserByID(ctx, request.UserID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	username := ""
	if user != nil {
		username = user.Username
	}

	ebook, err := s.repo.GetEbook(ctx, request.EbookID)
	if err != nil {
		return nil, fmt.Errorf("error getting ebook: %w", err)
	}
	if ebook == nil {
		return nil, notFoundError("E-book not found")
	}

	return &models.UpdateRequestStatusResponse{
		Msg:     "Request status updated",
		Request: newRequestView(request, username, ebook),
	}, nil
}

// LibrarianDashboard aggregates counts across the store plus a user
// listing. Read-only.
func (s *DefaultService) LibrarianDashboard(ctx context.Context) (*models.LibrarianDashboardResponse, error) {
	usersCount, err := s.repo.CountUsersByRole(ctx, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}

	sections, err := s.repo.CountSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting sections: %w", err)
	}

	ebooks, err := s.repo.CountEbooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting ebooks: %w", err)
	}

	issued, err := s.repo.CountIssuedBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting issued books: %w", err)
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, models.UserSummary{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		})
	}

	return &models.LibrarianDashboardResponse{
		UsersCount:       usersCount,
		Sections:         sections,
		Ebooks:           ebooks,
		TotalBooksIssued: issued,
		Users:            summaries,
	}, nil
}

// UserDashboard assembles the user's requested books, issued books with
// section names resolved, and feedback. Read-only.
func (s *DefaultService) UserDashboard(ctx context.Context, userID string) (*models.UserDashboardResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, notFoundError("User not found")
	}

	requests, err := s.repo.ListBookRequestsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing requests: %w", err)
	}

	requestViews := make([]models.RequestView, 0, len(requests))
	for _, request := range requests {
		ebook, err := s.repo.GetEbook(ctx, request.EbookID)
		if err != nil {
			return nil, fmt.Errorf("error getting ebook: %w", err)
		}
		if ebook == nil {
			continue
		}
		requestViews = append(requestViews, newRequestView(&request, user.Username, ebook))
	}

	issuedBooks, err := s.ListIssuedBooks(ctx, userID)
	if err != nil {
		return nil, err
	}

	feedback, err := s.repo.ListFeedbackByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing feedback: %w", err)
	}

	feedbackViews := make([]models.FeedbackView, 0, len(feedback))
	for _, entry := range feedback {
		view := models.FeedbackView{
			EbookID: entry.EbookID,
			Rating:  entry.Rating,
			Comment: entry.Comment,
		}
		if ebook, err := s.repo.GetEbook(ctx, entry.EbookID); err == nil && ebook != nil {
			view.EbookName = ebook.Name
		}
		feedbackViews = append(feedbackViews, view)
	}

	return &models.UserDashboardResponse{
		RequestedBooks: requestViews,
		IssuedBooks:    issuedBooks,
		Feedback:       feedbackViews,
	}, nil
}

// ListIssuedBooks returns the user's active loans with section names
// resolved.
func (s *DefaultService) ListIssuedBooks(ctx context.Context, userID string) ([]models.EbookView, error) {
	ebooks, err := s.repo.ListIssuedEbooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing issued books: %w", err)
	}

	sectionNames, err := s.sectionNames(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]models.EbookView, 0, len(ebooks))
	for i := range ebooks {
		view := newEbookView(&ebooks[i])
		if ebooks[i].SectionID.Valid {
			view.SectionName = sectionNames[ebooks[i].SectionID.String]
		}
		views = append(views, view)
	}

	return views, nil
}

func (s *DefaultService) SubmitFeedback(ctx context.Context, userID string, req models.SubmitFeedbackRequest) (*models.Feedback, error) {
	ebook, err := s.repo.GetEbook(ctx, req.EbookID)
	if err != nil {
		return nil, fmt.Errorf("error getting ebook: %w", err)
	}
	if ebook == nil {
		return nil, notFoundError("E-book not found")
	}

	feedback := &models.Feedback{
		UserID:  userID,
		EbookID: req.EbookID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}

	if err := s.repo.CreateFeedback(ctx, feedback); err != nil {
		return nil, fmt.Errorf("error creating feedback: %w", err)
	}

	return feedback, nil
}

// newRequestView joins a request row with its requesting username and
// resolved ebook. Loan dates are surfaced only on granted rows.
func newRequestView(request *models.BookRequest, username string, ebook *models.Ebook) models.RequestView {
	view := models.RequestView{
		ID:            request.ID,
		Username:      username,
		Ebook:         newEbookView(ebook),
		Status:        request.Status,
		DateRequested: request.DateRequested,
	}

	if request.Status == models.RequestGranted {
		view.DateIssued = view.Ebook.DateIssued
		view.ReturnDate = view.Ebook.ReturnDate
	}

	return view
}
