// Package storage keeps the gallery scopes of HTTP clients in memory.
package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/gallery/internal/gallery"
	"github.com/lehigh-university-libraries/gallery/internal/savedstate"
	"github.com/lehigh-university-libraries/gallery/internal/viewmodel"
)

// Session is one client's gallery list scope
type Session struct {
	ID        string
	CreatedAt time.Time
	Gallery   *viewmodel.GalleryViewModel
}

type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create starts a new scope seeded from saved
func (s *SessionStore) Create(saved *savedstate.Handle, repo gallery.Repository) *Session {
	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Gallery:   viewmodel.NewGalleryViewModel(saved, repo),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return session
}

func (s *SessionStore) Get(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

// GetAll returns every session, oldest first
func (s *SessionStore) GetAll() []*Session {
	s.mu.RLock()
	result := make([]*Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete removes a session and tears its scope down. It reports whether the
// session existed.
func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	session, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if exists {
		session.Gallery.Close()
	}
	return exists
}

// CloseAll tears down every session
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Gallery.Close()
	}
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
