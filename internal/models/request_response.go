package models

import "time"

// Request models
type SignUpRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateSectionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type UpdateSectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateEbookRequest struct {
	Name      string   `json:"name" binding:"required"`
	Content   string   `json:"content" binding:"required"`
	Authors   []string `json:"authors" binding:"required,min=1"`
	SectionID string   `json:"section" binding:"required"`
}

type UpdateEbookRequest struct {
	Name      string   `json:"name"`
	Content   string   `json:"content"`
	Authors   []string `json:"authors"`
	SectionID string   `json:"section"`
}

type UpdateRequestStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=granted rejected"`
}

type RequestEbookRequest struct {
	EbookID string `json:"ebookId" binding:"required"`
}

type SubmitFeedbackRequest struct {
	EbookID string `json:"ebookId" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
}

// Response models
type AuthResponse struct {
	UserID    string `json:"userId,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// EbookView is the JSON projection of an Ebook with nullable loan
// fields flattened to pointers.
type EbookView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Content     string     `json:"content"`
	Authors     []string   `json:"authors"`
	SectionID   *string    `json:"section,omitempty"`
	SectionName string     `json:"sectionName,omitempty"`
	IssuedTo    *string    `json:"issuedTo,omitempty"`
	DateIssued  *time.Time `json:"dateIssued,omitempty"`
	ReturnDate  *time.Time `json:"returnDate,omitempty"`
}

// RequestView is one row of the librarian request listing, with the
// requested ebook resolved.
type RequestView struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Ebook         EbookView  `json:"ebook"`
	Status        string     `json:"status"`
	DateRequested time.Time  `json:"dateRequested"`
	DateIssued    *time.Time `json:"dateIssued,omitempty"`
	ReturnDate    *time.Time `json:"returnDate,omitempty"`
}

type UpdateRequestStatusResponse struct {
	Msg     string      `json:"msg"`
	Request RequestView `json:"request"`
}

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type LibrarianDashboardResponse struct {
	UsersCount       int           `json:"usersCount"`
	Sections         int           `json:"sections"`
	Ebooks           int           `json:"ebooks"`
	TotalBooksIssued int           `json:"totalBooksIssued"`
	Users            []UserSummary `json:"users"`
}

type FeedbackView struct {
	EbookID   string `json:"ebookId"`
	EbookName string `json:"ebookName"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type UserDashboardResponse struct {
	RequestedBooks []RequestView  `json:"requestedBooks"`
	IssuedBooks    []EbookView    `json:"issuedBooks"`
	Feedback       []FeedbackView `json:"feedback"`
}

type MessageResponse struct {
	Msg string `json:"msg"`
}

type ErrorResponse struct {
	Msg string `json:"msg"`
}
