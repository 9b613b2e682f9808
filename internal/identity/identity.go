// ABOUTME: Anonymous session identity backed by the durable key/value scope
// ABOUTME: Creates the id once per profile, reuses it, and degrades to memory when storage fails

package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/edi-chat/internal/store"
)

// SessionKey is the fixed key the session identifier is stored under.
const SessionKey = "edi_chat_session_id"

// Store owns the anonymous session identifier. The zero value is not usable;
// construct with New.
type Store struct {
	mu       sync.Mutex
	kv       store.Store
	logger   *slog.Logger
	id       string
	degraded bool
}

// New creates an identity Store over kv. A nil kv is allowed and behaves like
// an unavailable durable scope.
func New(kv store.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     kv,
		logger: logger.With("component", "identity"),
	}
}

// GetOrCreate returns the session identifier, creating and persisting a new
// UUID on first use. It never fails: when the durable scope cannot be read or
// written, the identifier lives only as long as this Store.
func (s *Store) GetOrCreate(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return s.id
	}

	if s.kv == nil {
		s.id = s.degrade(nil)
		return s.id
	}

	value, err := s.kv.Get(ctx, SessionKey)
	switch {
	case err == nil && strings.TrimSpace(string(value)) != "":
		s.id = string(value)
		s.logger.Debug("reusing session id")
		return s.id
	case err != nil && !errors.Is(err, store.ErrNotFound):
		s.id = s.degrade(err)
		return s.id
	}

	id := uuid.New().String()
	if err := s.kv.Set(ctx, SessionKey, []byte(id)); err != nil {
		s.logger.Warn("persisting session id failed, id will not survive restart", "error", err)
		s.degraded = true
	} else {
		s.logger.Info("created session id")
	}

	s.id = id
	return s.id
}

// Degraded reports whether the identifier is held in memory only.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Clear removes the durable identifier so the next process run creates a new
// one. The identifier cached in this Store is left unchanged.
func (s *Store) Clear(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	return s.kv.Delete(ctx, SessionKey)
}

func (s *Store) degrade(err error) string {
	if err != nil {
		s.logger.Warn("session storage unavailable, using in-memory id", "error", err)
	} else {
		s.logger.Warn("no session storage configured, using in-memory id")
	}
	s.degraded = true
	return uuid.New().String()
}
