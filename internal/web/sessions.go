package web

import (
	"context"
	"fmt"

	"github.com/contamio/recallctl/internal/session"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Session is one browser's shell and its memoizing client.
type Session struct {
	ID     string
	Shell  *session.Shell
	Client *session.CachingClient

	closer func()
}

// NewSession wires a shell to client. closer, if set, runs when the session
// is evicted or the server shuts down.
func NewSession(id string, client *session.CachingClient, closer func()) *Session {
	return &Session{
		ID:     id,
		Shell:  session.NewShell(client),
		Client: client,
		closer: closer,
	}
}

// Close releases the session's cache backend.
func (s *Session) Close() {
	if s.closer != nil {
		s.closer()
	}
}

// SessionFactory builds the session for a new id.
type SessionFactory func(ctx context.Context, id string) (*Session, error)

// SessionStore keeps the most recently used sessions. The least recently
// used session is closed when the store is full.
type SessionStore struct {
	sessions *lru.Cache[string, *Session]
	factory  SessionFactory
}

// NewSessionStore creates a store holding at most size sessions.
func NewSessionStore(size int, factory SessionFactory) (*SessionStore, error) {
	sessions, err := lru.NewWithEvict(size, func(_ string, evicted *Session) {
		evicted.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}

	return &SessionStore{
		sessions: sessions,
		factory:  factory,
	}, nil
}

// Get returns the live session for id.
func (s *SessionStore) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}

	return s.sessions.Get(id)
}

// Create starts a session under a fresh id.
func (s *SessionStore) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()

	created, err := s.factory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.sessions.Add(id, created)

	return created, nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	return s.sessions.Len()
}

// Close closes every session.
func (s *SessionStore) Close() {
	s.sessions.Purge()
}
