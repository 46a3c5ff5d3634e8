// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements UserStore and DocumentStore on in-process maps.
// Used by handler tests and local development without Postgres.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User     // keyed by username
	docs  map[string]*Document // keyed by document id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*User),
		docs:  make(map[string]*Document),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.users[user.Username]; found {
		return ErrDuplicate
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}

	copied := *user
	s.users[user.Username] = &copied
	return nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, found := s.users[username]
	if !found {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) UserExists(ctx context.Context, email, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, found := s.users[username]; found {
		return true, nil
	}
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// SetActive flips an account's active flag, for tests exercising the
// inactive-user path.
func (s *MemoryStore) SetActive(username string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, found := s.users[username]; found {
		user.IsActive = active
	}
}

func (s *MemoryStore) InsertDocument(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *MemoryStore) ListDocumentsByUser(ctx context.Context, userID string, limit, offset int) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []*Document
	for _, doc := range s.docs {
		if doc.UserID == userID {
			copied := *doc
			docs = append(docs, &copied)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	if offset >= len(docs) {
		return nil, nil
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs, nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, id, userID string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, found := s.docs[id]
	if !found || doc.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (s *MemoryStore) UpdateDocument(ctx context.Context, id, userID string, update DocumentUpdate) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, found := s.docs[id]
	if !found || doc.UserID != userID {
		return nil, ErrNotFound
	}
	if update.Title != nil {
		doc.Title = *update.Title
	}
	if update.Description != nil {
		doc.Description = *update.Description
	}
	copied := *doc
	return &copied, nil
}

func (s *MemoryStore) SearchDocuments(ctx context.Context, userID, term string, limit int) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term = strings.ToLower(term)
	var docs []*Document
	for _, doc := range s.docs {
		if doc.UserID != userID {
			continue
		}
		if strings.Contains(strings.ToLower(doc.Title), term) ||
			strings.Contains(strings.ToLower(doc.Filename), term) ||
			strings.Contains(strings.ToLower(doc.Description), term) {
			copied := *doc
			docs = append(docs, &copied)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs, nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, found := s.docs[id]
	if !found || doc.UserID != userID {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}
