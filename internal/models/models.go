package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Request status values for a book request row.
const (
	RequestPending  = "pending"
	RequestGranted  = "granted"
	RequestRejected = "rejected"
)

// User roles.
const (
	RoleLibrarian = "librarian"
	RoleUser      = "user"
)

// User represents an account in the system
type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Section represents a named category grouping e-books
type Section struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	DateCreated time.Time `db:"date_created" json:"dateCreated"`
}

// Ebook represents a library item with at most one active holder.
// IssuedTo is set if and only if DateIssued and ReturnDate are set.
type Ebook struct {
	ID         string         `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	Content    string         `db:"content" json:"content"`
	Authors    pq.StringArray `db:"authors" json:"authors"`
	SectionID  sql.NullString `db:"section_id" json:"-"`
	IssuedTo   sql.NullString `db:"issued_to" json:"-"`
	DateIssued sql.NullTime   `db:"date_issued" json:"-"`
	ReturnDate sql.NullTime   `db:"return_date" json:"-"`
}

// BookRequest is a user's standing ask to borrow a specific e-book
type BookRequest struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"userId"`
	EbookID       string    `db:"ebook_id" json:"ebookId"`
	Status        string    `db:"status" json:"status"`
	DateRequested time.Time `db:"date_requested" json:"dateRequested"`
}

// IssuedBook is the user-side record of an active loan. It is kept in
// lockstep with Ebook.IssuedTo inside the same transaction.
type IssuedBook struct {
	UserID     string    `db:"user_id" json:"userId"`
	EbookID    string    `db:"ebook_id" json:"ebookId"`
	DateIssued time.Time `db:"date_issued" json:"dateIssued"`
}

// Feedback is a user's rating and comment for an e-book
type Feedback struct {
	ID      string `db:"id" json:"id"`
	UserID  string `db:"user_id" json:"userId"`
	EbookID string `db:"ebook_id" json:"ebookId"`
	Rating  int    `db:"rating" json:"rating"`
	Comment string `db:"comment" json:"comment"`
}
