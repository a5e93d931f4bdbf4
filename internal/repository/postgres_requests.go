package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/librarycentral/server/internal/models"
)

// Book request repository methods
func (r *PostgresRepository) CreateBookRequest(ctx context.Context, request *models.BookRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM book_requests
			WHERE user_id = $1 AND ebook_id = $2 AND status IN ('pending', 'granted')
		)`,
		request.UserID, request.EbookID).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		err = ErrDuplicateRequest
		return err
	}

	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	request.Status = models.RequestPending
	request.DateRequested = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO book_requests (id, user_id, ebook_id, status, date_requested)
		VALUES ($1, $2, $3, $4, $5)`,
		request.ID, request.UserID, request.EbookID, request.Status, request.DateRequested)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetBookRequest(ctx context.Context, id string) (*models.BookRequest, error) {
	query := `SELECT * FROM book_requests WHERE id = $1`

	var request models.BookRequest
	err := r.db.GetContext(ctx, &request, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Request not found
		}
		return nil, err
	}

	return &request, nil
}

func (r *PostgresRepository) ListBookRequests(ctx context.Context) ([]models.BookRequest, error) {
	query := `SELECT * FROM book_requests ORDER BY date_requested ASC`

	var requests []models.BookRequest
	err := r.db.SelectContext(ctx, &requests, query)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *PostgresRepository) ListBookRequestsByUser(ctx context.Context, userID string) ([]models.BookRequest, error) {
	query := `SELECT * FROM book_requests WHERE user_id = $1 ORDER BY date_requested ASC`

	var requests []models.BookRequest
	err := r.db.SelectContext(ctx, &requests, query, userID)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

// UpdateBookRequestStatus moves a request out of pending. For a grant it
// also assigns the ebook to the requesting user and records the loan on
// the user side, all in one transaction.
//
// The assignment is a compare-and-set: the ebook row is updated only
// while issued_to is null or already points at the requesting user, so
// of two concurrent grants for the same ebook exactly one commits and
// the loser observes ErrEbookTaken with no partial mutation.
func (r *PostgresRepository) UpdateBookRequestStatus(
	ctx context.Context,
	requestID string,
	status string,
	issuedAt time.Time,
	returnAt time.Time,
) (*models.BookRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	// Lock the request row and its owning user for the duration of the
	// transaction. DeleteUser takes the same user lock.
	var request models.BookRequest
	err = tx.QueryRowContext(ctx,
		`SELECT r.id, r.user_id, r.ebook_id, r.status, r.date_requested
		FROM book_requests r
		JOIN users u ON r.user_id = u.id
		WHERE r.id = $1
		FOR UPDATE`,
		requestID).Scan(
		&request.ID, &request.UserID, &request.EbookID, &request.Status, &request.DateRequested)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return nil, err
	}

	// pending is the only state with outgoing transitions
	if request.Status != models.RequestPending {
		err = ErrRequestClosed
		return nil, err
	}

	if status == models.RequestGranted {
		var result sql.Result
		result, err = tx.ExecContext(ctx,
			`UPDATE ebooks
			SET issued_to = $1, date_issued = $2, return_date = $3
			WHERE id = $4 AND (issued_to IS NULL OR issued_to = $1)`,
			request.UserID, issuedAt, returnAt, request.EbookID)
		if err != nil {
			return nil, err
		}

		var rows int64
		rows, err = result.RowsAffected()
		if err != nil {
			return nil, err
		}

		if rows == 0 {
			// Either the ebook is gone or another user holds it
			var holder sql.NullString
			scanErr := tx.QueryRowContext(ctx,
				`SELECT issued_to FROM ebooks WHERE id = $1`, request.EbookID).Scan(&holder)
			if errors.Is(scanErr, sql.ErrNoRows) {
				err = ErrEbookNotFound
			} else if scanErr != nil {
				err = scanErr
			} else {
				err = ErrEbookTaken
			}
			return nil, err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO issued_books (user_id, ebook_id, date_issued)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, ebook_id) DO NOTHING`,
			request.UserID, request.EbookID, issuedAt)
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE book_requests SET status = $1 WHERE id = $2`, status, requestID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	request.Status = status
	return &request, nil
}

// Loan and feedback repository methods
func (r *PostgresRepository) ListIssuedEbooks(ctx context.Context, userID string) ([]models.Ebook, error) {
	query := `
		SELECT e.* FROM ebooks e
		JOIN issued_books ib ON e.id = ib.ebook_id
		WHERE ib.user_id = $1
		ORDER BY ib.date_issued ASC
	`

	var ebooks []models.Ebook
	err := r.db.SelectContext(ctx, &ebooks, query, userID)
	if err != nil {
		return nil, err
	}

	return ebooks, nil
}

func (r *PostgresRepository) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	query := `
		INSERT INTO feedback (id, user_id, ebook_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
	`

	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx, query,
		feedback.ID, feedback.UserID, feedback.EbookID, feedback.Rating, feedback.Comment)

	return err
}

func (r *PostgresRepository) ListFeedbackByUser(ctx context.Context, userID string) ([]models.Feedback, error) {
	query := `SELECT * FROM feedback WHERE user_id = $1`

	var entries []models.Feedback
	err := r.db.SelectContext(ctx, &entries, query, userID)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Dashboard count methods
func (r *PostgresRepository) CountUsersByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE role = $1`, role)
	return count, err
}

func (r *PostgresRepository) CountSections(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sections`)
	return count, err
}

func (r *PostgresRepository) CountEbooks(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM ebooks`)
	return count, err
}

func (r *PostgresRepository) CountIssuedBooks(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM issued_books`)
	return count, err
}
