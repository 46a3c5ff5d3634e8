// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/VA7DBI/scholarAPI/config"
	"github.com/VA7DBI/scholarAPI/migrations"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresStore implements UserStore and DocumentStore on a shared
// *sql.DB connection pool.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cfg *config.Config) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("postgres connection failed: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres ping failed: %v", err)
	}

	return &PostgresStore{db: db}, nil
}

// Migrate applies the embedded goose migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, ".")
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.IsActive, user.CreatedAt)

	if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, is_active, created_at
		 FROM users WHERE username = $1`, username).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsActive, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *PostgresStore) UserExists(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 OR username = $2)`,
		email, username).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PostgresStore) InsertDocument(ctx context.Context, doc *Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, filename, title, description, file_path, file_size, page_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.UserID, doc.Filename, doc.Title, doc.Description, doc.FilePath, doc.FileSize, doc.PageCount, doc.CreatedAt)
	return err
}

func (s *PostgresStore) ListDocumentsByUser(ctx context.Context, userID string, limit, offset int) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, filename, title, description, file_path, file_size, page_count, created_at
		 FROM documents WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc := &Document{}
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.Title, &doc.Description,
			&doc.FilePath, &doc.FileSize, &doc.PageCount, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) GetDocument(ctx context.Context, id, userID string) (*Document, error) {
	doc := &Document{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, filename, title, description, file_path, file_size, page_count, created_at
		 FROM documents WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.Title, &doc.Description,
			&doc.FilePath, &doc.FileSize, &doc.PageCount, &doc.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, id, userID string, update DocumentUpdate) (*Document, error) {
	doc := &Document{}
	err := s.db.QueryRowContext(ctx,
		`UPDATE documents
		 SET title = COALESCE($3, title), description = COALESCE($4, description)
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, filename, title, description, file_path, file_size, page_count, created_at`,
		id, userID, update.Title, update.Description).
		Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.Title, &doc.Description,
			&doc.FilePath, &doc.FileSize, &doc.PageCount, &doc.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PostgresStore) SearchDocuments(ctx context.Context, userID, term string, limit int) ([]*Document, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, filename, title, description, file_path, file_size, page_count, created_at
		 FROM documents WHERE user_id = $1
		 AND (title ILIKE $2 OR filename ILIKE $2 OR description ILIKE $2)
		 ORDER BY created_at DESC LIMIT $3`,
		userID, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc := &Document{}
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.Title, &doc.Description,
			&doc.FilePath, &doc.FileSize, &doc.PageCount, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
