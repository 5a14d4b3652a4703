package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Session holds the remote identifiers cached for one browser session
type Session struct {
	ID          string    `json:"id"`
	AssistantID string    `json:"assistant_id,omitempty"`
	ThreadID    string    `json:"thread_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists sessions for a bounded time
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Counter is implemented by stores that can report their live sessions
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Sweeper is implemented by stores that must evict expired entries themselves
type Sweeper interface {
	Sweep(now time.Time) int
}
