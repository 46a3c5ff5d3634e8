// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package store persists accounts and document records in PostgreSQL.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// User is an account row. PasswordHash is a bcrypt hash; the plaintext
// secret is never stored or logged.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Document is an uploaded paper's database record. The blob itself lives
// in the storage backend at FilePath; the text chunks live in the vector
// store keyed by document ID.
type Document struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
	PageCount   int       `json:"page_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// DocumentUpdate carries the user-editable metadata fields. A nil field
// leaves the stored value untouched.
type DocumentUpdate struct {
	Title       *string
	Description *string
}

// UserStore defines the account operations the handlers and the auth
// middleware need.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UserExists(ctx context.Context, email, username string) (bool, error)
}

// DocumentStore defines the document record operations. All reads are
// owner-scoped: a document is only visible to the user that uploaded it.
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *Document) error
	ListDocumentsByUser(ctx context.Context, userID string, limit, offset int) ([]*Document, error)
	GetDocument(ctx context.Context, id, userID string) (*Document, error)
	UpdateDocument(ctx context.Context, id, userID string, update DocumentUpdate) (*Document, error)
	SearchDocuments(ctx context.Context, userID, term string, limit int) ([]*Document, error)
	DeleteDocument(ctx context.Context, id, userID string) error
}
