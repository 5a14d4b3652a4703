package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// AssistantAPI is the part of the runtime needed to provision a session
type AssistantAPI interface {
	CreateAssistant(ctx context.Context, req openai.AssistantRequest) (openai.Assistant, error)
	CreateThread(ctx context.Context, req openai.ThreadRequest) (openai.Thread, error)
}

// Manager loads sessions and lazily provisions their remote thread. The
// assistant carries no conversation state, so one is created per process and
// shared by every session. Callers serialize work on a single session.
type Manager struct {
	store      Store
	api        AssistantAPI
	definition openai.AssistantRequest
	now        func() time.Time

	mu          sync.Mutex // guards assistantID and its creation
	assistantID string
}

// NewManager creates a manager. A non-empty assistantID is used instead of
// creating one remotely.
func NewManager(store Store, api AssistantAPI, definition openai.AssistantRequest, assistantID string) *Manager {
	return &Manager{
		store:       store,
		api:         api,
		definition:  definition,
		assistantID: assistantID,
		now:         time.Now,
	}
}

// Load returns the stored session or a fresh one with the given id
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, errors.New("session id is required")
	}
	s, err := m.store.Get(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	now := m.now()
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

// Save persists the session
func (m *Manager) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = m.now()
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Forget drops a session. Its next submission starts on a new thread.
func (m *Manager) Forget(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("forget session %s: %w", id, err)
	}
	log.Printf("[Session] Session %s forgotten", id)
	return nil
}

// Count reports the live sessions of the backing store
func (m *Manager) Count(ctx context.Context) (int, error) {
	c, ok := m.store.(Counter)
	if !ok {
		return 0, errors.New("session store cannot count sessions")
	}
	return c.Count(ctx)
}

// EnsureAssistant returns the session's assistant id. The shared assistant
// is created on first use by any session.
func (m *Manager) EnsureAssistant(ctx context.Context, s *Session) (string, error) {
	if s.AssistantID != "" {
		return s.AssistantID, nil
	}
	id, err := m.sharedAssistant(ctx)
	if err != nil {
		return "", err
	}
	s.AssistantID = id
	log.Printf("[Session] Session %s uses assistant %s", s.ID, id)
	return s.AssistantID, m.Save(ctx, s)
}

func (m *Manager) sharedAssistant(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.assistantID != "" {
		return m.assistantID, nil
	}
	a, err := m.api.CreateAssistant(ctx, m.definition)
	if err != nil {
		return "", err
	}
	m.assistantID = a.ID
	return m.assistantID, nil
}

// EnsureThread returns the session's thread id, creating the thread on first use
func (m *Manager) EnsureThread(ctx context.Context, s *Session) (string, error) {
	if s.ThreadID != "" {
		return s.ThreadID, nil
	}
	th, err := m.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", err
	}
	s.ThreadID = th.ID
	log.Printf("[Session] Session %s uses thread %s", s.ID, th.ID)
	return s.ThreadID, m.Save(ctx, s)
}
