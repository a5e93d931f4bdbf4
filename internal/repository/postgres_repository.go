package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/librarycentral/server/internal/models"
)

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (error code 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.Password, user.Role, user.CreatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT * FROM users WHERE username = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT * FROM users ORDER BY username ASC`

	var users []models.User
	err := r.db.SelectContext(ctx, &users, query)
	if err != nil {
		return nil, err
	}

	return users, nil
}

// DeleteUser removes a user after re-validating inside the transaction
// that no loan records reference them. The row lock serializes the
// check against a concurrent grant to the same user.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id string) error {
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

	// Request rows go first so locks are taken in the same order as a
	// grant (request, then user); rolled back if the guard fails.
	_, err = tx.ExecContext(ctx, `DELETE FROM book_requests WHERE user_id = $1`, id)
	if err != nil {
		return err
	}

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return err
	}

	var issuedCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM issued_books WHERE user_id = $1`, id).Scan(&issuedCount)
	if err != nil {
		return err
	}

	if issuedCount > 0 {
		err = ErrUserHasBooks
		return err
	}

	// Feedback cascades with the user row
	_, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Section repository methods
func (r *PostgresRepository) CreateSection(ctx context.Context, section *models.Section) error {
	query := `
		INSERT INTO sections (id, name, description, date_created)
		VALUES ($1, $2, $3, $4)
	`

	if section.ID == "" {
		section.ID = uuid.New().String()
	}
	section.DateCreated = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		section.ID, section.Name, section.Description, section.DateCreated)

	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *PostgresRepository) UpdateSection(ctx context.Context, section *models.Section) error {
	query := `UPDATE sections SET name = $1, description = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, section.Name, section.Description, section.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) GetSection(ctx context.Context, id string) (*models.Section, error) {
	query := `SELECT * FROM sections WHERE id = $1`

	var section models.Section
	err := r.db.GetContext(ctx, &section, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Section not found
		}
		return nil, err
	}

	return &section, nil
}

func (r *PostgresRepository) GetSectionByName(ctx context.Context, name string) (*models.Section, error) {
	query := `SELECT * FROM sections WHERE name = $1`

	var section models.Section
	err := r.db.GetContext(ctx, &section, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Section not found
		}
		return nil, err
	}

	return &section, nil
}

func (r *PostgresRepository) ListSections(ctx context.Context) ([]models.Section, error) {
	query := `SELECT * FROM sections ORDER BY name ASC`

	var sections []models.Section
	err := r.db.SelectContext(ctx, &sections, query)
	if err != nil {
		return nil, err
	}

	return sections, nil
}

// DeleteSection removes a section only if no ebook references it. The
// dependent check and the delete share one transaction; the foreign key
// on ebooks.section_id backs the guard at commit time.
func (r *PostgresRepository) DeleteSection(ctx context.Context, id string) error {
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

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM sections WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return err
	}

	var dependents int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ebooks WHERE section_id = $1`, id).Scan(&dependents)
	if err != nil {
		return err
	}

	if dependents > 0 {
		err = ErrSectionHasEbooks
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Ebook repository methods
func (r *PostgresRepository) CreateEbook(ctx context.Context, ebook *models.Ebook) error {
	query := `
		INSERT INTO ebooks (id, name, content, authors, section_id)
		VALUES ($1, $2, $3, $4, $5)
	`

	if ebook.ID == "" {
		ebook.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx, query,
		ebook.ID, ebook.Name, ebook.Content, ebook.Authors, ebook.SectionID)

	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

// UpdateEbook rewrites the catalog fields. Loan fields are owned by the
// request lifecycle and never touched here.
func (r *PostgresRepository) UpdateEbook(ctx context.Context, ebook *models.Ebook) error {
	query := `
		UPDATE ebooks SET name = $1, content = $2, authors = $3, section_id = $4
		WHERE id = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		ebook.Name, ebook.Content, ebook.Authors, ebook.SectionID, ebook.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) GetEbook(ctx context.Context, id string) (*models.Ebook, error) {
	query := `SELECT * FROM ebooks WHERE id = $1`

	var ebook models.Ebook
	err := r.db.GetContext(ctx, &ebook, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Ebook not found
		}
		return nil, err
	}

	return &ebook, nil
}

func (r *PostgresRepository) GetEbookByName(ctx context.Context, name string) (*models.Ebook, error) {
	query := `SELECT * FROM ebooks WHERE name = $1`

	var ebook models.Ebook
	err := r.db.GetContext(ctx, &ebook, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Ebook not found
		}
		return nil, err
	}

	return &ebook, nil
}

func (r *PostgresRepository) ListEbooks(ctx context.Context) ([]models.Ebook, error) {
	query := `SELECT * FROM ebooks ORDER BY name ASC`

	var ebooks []models.Ebook
	err := r.db.SelectContext(ctx, &ebooks, query)
	if err != nil {
		return nil, err
	}

	return ebooks, nil
}

// DeleteEbook removes an ebook only while it is not on loan. The row is
// locked first so a concurrent grant cannot land between the check and
// the delete.
func (r *PostgresRepository) DeleteEbook(ctx context.Context, id string) error {
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

	// Request rows go first so locks are taken in the same order as a
	// grant (request, then ebook); rolled back if the guard fails.
	_, err = tx.ExecContext(ctx, `DELETE FROM book_requests WHERE ebook_id = $1`, id)
	if err != nil {
		return err
	}

	var issuedTo sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT issued_to FROM ebooks WHERE id = $1 FOR UPDATE`, id).Scan(&issuedTo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return err
	}

	if issuedTo.Valid {
		err = ErrEbookIssued
		return err
	}

	// Feedback for the ebook cascades with it
	_, err = tx.ExecContext(ctx, `DELETE FROM ebooks WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RevokeEbook ends the active loan: clears the holder and loan dates on
// the ebook and removes the user-side loan record in one transaction.
func (r *PostgresRepository) RevokeEbook(ctx context.Context, id string) error {
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

	var issuedTo sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT issued_to FROM ebooks WHERE id = $1 FOR UPDATE`, id).Scan(&issuedTo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return err
	}

	if !issuedTo.Valid {
		err = ErrEbookNotIssued
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ebooks SET issued_to = NULL, date_issued = NULL, return_date = NULL WHERE id = $1`, id)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM issued_books WHERE ebook_id = $1 AND user_id = $2`, id, issuedTo.String)
	if err != nil {
		return err
	}

	return tx.Commit()
}
