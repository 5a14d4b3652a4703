package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("summary not found")

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const defaultListLimit = 20

// Summary records one summarize interaction
type Summary struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SessionID   string         `json:"session_id" gorm:"index;size:64"`
	Topic       string         `json:"topic"`
	PageSize    string         `json:"page_size"`
	AssistantID string         `json:"assistant_id"`
	ThreadID    string         `json:"thread_id"`
	RunID       string         `json:"run_id"`
	Status      string         `json:"status" gorm:"size:16"`
	Text        string         `json:"text"`
	Error       string         `json:"error,omitempty"`
	ToolCalls   datatypes.JSON `json:"tool_calls"`
	DurationMs  int64          `json:"duration_ms"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"index"`
}

// ToolCall is the stored shape of one served callback
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// SetToolCalls encodes calls into the JSON column
func (s *Summary) SetToolCalls(calls []ToolCall) error {
	if calls == nil {
		calls = []ToolCall{}
	}
	data, err := json.Marshal(calls)
	if err != nil {
		return err
	}
	s.ToolCalls = datatypes.JSON(data)
	return nil
}

// DecodeToolCalls returns the stored calls
func (s *Summary) DecodeToolCalls() ([]ToolCall, error) {
	var calls []ToolCall
	if len(s.ToolCalls) == 0 {
		return calls, nil
	}
	if err := json.Unmarshal(s.ToolCalls, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// Repository reads and writes summaries
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the summaries table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Summary{})
}

func (r *Repository) Save(ctx context.Context, s *Summary) error {
	if len(s.ToolCalls) == 0 {
		if err := s.SetToolCalls(nil); err != nil {
			return err
		}
	}
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// ListBySession returns the newest summaries of a session first
func (r *Repository) ListBySession(ctx context.Context, sessionID string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var out []Summary
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	return out, nil
}

// Get returns a summary owned by sessionID
func (r *Repository) Get(ctx context.Context, sessionID string, id uint) (*Summary, error) {
	var s Summary
	err := r.db.WithContext(ctx).Where("id = ? AND session_id = ?", id, sessionID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get summary %d: %w", id, err)
	}
	return &s, nil
}

// Delete removes a summary owned by sessionID
func (r *Repository) Delete(ctx context.Context, sessionID string, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND session_id = ?", id, sessionID).Delete(&Summary{})
	if res.Error != nil {
		return fmt.Errorf("delete summary %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PruneOlderThan deletes summaries created before cutoff
func (r *Repository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&Summary{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune summaries: %w", res.Error)
	}
	return res.RowsAffected, nil
}
