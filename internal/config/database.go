package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	// Create users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(10) NOT NULL DEFAULT 'user',
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create sections table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sections (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			description TEXT,
			date_created TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create ebooks table. issued_to, date_issued and return_date are
	// either all null (on the shelf) or all set (on loan).
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS ebooks (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			content TEXT NOT NULL,
			authors TEXT[] NOT NULL,
			section_id VARCHAR(36) REFERENCES sections(id),
			issued_to VARCHAR(36) REFERENCES users(id),
			date_issued TIMESTAMP,
			return_date TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Create book_requests table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS book_requests (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			ebook_id VARCHAR(36) NOT NULL REFERENCES ebooks(id) ON DELETE CASCADE,
			status VARCHAR(10) NOT NULL DEFAULT 'pending',
			date_requested TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create issued_books table (user-side loan records)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS issued_books (
			user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			ebook_id VARCHAR(36) NOT NULL REFERENCES ebooks(id),
			date_issued TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, ebook_id)
		)
	`)
	if err != nil {
		return err
	}

	// Create feedback table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS feedback (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			ebook_id VARCHAR(36) NOT NULL REFERENCES ebooks(id) ON DELETE CASCADE,
			rating INT NOT NULL,
			comment TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_ebooks_section_id ON ebooks(section_id)",
		"CREATE INDEX IF NOT EXISTS idx_ebooks_issued_to ON ebooks(issued_to)",
		"CREATE INDEX IF NOT EXISTS idx_book_requests_user_id ON book_requests(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_book_requests_ebook_id ON book_requests(ebook_id)",
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
