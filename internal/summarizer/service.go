package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"news-assistant/internal/assistant"
	"news-assistant/internal/history"
	"news-assistant/internal/session"
)

var (
	ErrRunInProgress  = errors.New("a summary is already running for this session")
	ErrInvalidRequest = errors.New("invalid summarize request")
)

const recordTimeout = 5 * time.Second

// ThreadAPI appends messages and starts runs
type ThreadAPI interface {
	CreateMessage(ctx context.Context, threadID string, req openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, req openai.RunRequest) (openai.Run, error)
}

// RunWaiter blocks until a run reaches an outcome
type RunWaiter interface {
	Wait(ctx context.Context, threadID, runID string, observe assistant.StatusObserver) (*assistant.Outcome, error)
}

// Recorder persists interaction history
type Recorder interface {
	Save(ctx context.Context, s *history.Summary) error
}

// Options wires a Service. History may be nil to disable recording.
type Options struct {
	Sessions          *session.Manager
	API               ThreadAPI
	Poller            RunWaiter
	History           Recorder
	RunInstructions   string
	MaxConcurrentRuns int
}

// Request is one form submission
type Request struct {
	SessionID string
	Topic     string
	PageSize  string
}

// Result is a completed summary
type Result struct {
	ID          uint                       `json:"id,omitempty"`
	Summary     string                     `json:"summary"`
	AssistantID string                     `json:"assistant_id"`
	ThreadID    string                     `json:"thread_id"`
	RunID       string                     `json:"run_id"`
	ToolCalls   []assistant.ToolCallRecord `json:"tool_calls"`
	Duration    time.Duration              `json:"duration"`
}

// Stats summarizes service activity
type Stats struct {
	Active    int    `json:"active"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Rejected  uint64 `json:"rejected"`
}

// Service runs the summarize sequence for sessions
type Service struct {
	sessions        *session.Manager
	api             ThreadAPI
	poller          RunWaiter
	history         Recorder
	runInstructions string

	semaphore chan struct{} // Limit concurrent runs

	mu     sync.Mutex
	active map[string]struct{}
	stats  Stats
}

func New(opts Options) *Service {
	limit := opts.MaxConcurrentRuns
	if limit <= 0 {
		limit = 4
	}
	return &Service{
		sessions:        opts.Sessions,
		api:             opts.API,
		poller:          opts.Poller,
		history:         opts.History,
		runInstructions: opts.RunInstructions,
		semaphore:       make(chan struct{}, limit),
		active:          make(map[string]struct{}),
	}
}

// UserMessage is the text appended to the thread for a submission
func UserMessage(topic, pageSize string) string {
	return fmt.Sprintf("Summarize all the news on this content %s with the number of articles being %s", topic, pageSize)
}

// Summarize asks the session's assistant for a summary of topic news and
// returns the final text verbatim. Topic and page size reach the assistant
// exactly as submitted. observe may be nil.
func (s *Service) Summarize(ctx context.Context, req Request, observe assistant.StatusObserver) (*Result, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: session is required", ErrInvalidRequest)
	}
	topic, pageSize := req.Topic, req.PageSize

	if !s.claim(req.SessionID) {
		return nil, ErrRunInProgress
	}
	defer s.release(req.SessionID)

	select {
	case s.semaphore <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.semaphore }()

	start := time.Now()
	result := &Result{}
	err := s.run(ctx, req.SessionID, topic, pageSize, observe, result)
	result.Duration = time.Since(start)

	s.mu.Lock()
	if err != nil {
		s.stats.Failed++
	} else {
		s.stats.Completed++
	}
	s.mu.Unlock()

	s.record(ctx, req.SessionID, topic, pageSize, result, err)
	if err != nil {
		log.Printf("[Summarizer] Session %s failed after %s: %v", req.SessionID, result.Duration, err)
		return nil, err
	}
	log.Printf("[Summarizer] Session %s summarized %q in %s", req.SessionID, topic, result.Duration)
	return result, nil
}

func (s *Service) run(ctx context.Context, sessionID, topic, pageSize string, observe assistant.StatusObserver, result *Result) error {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if result.AssistantID, err = s.sessions.EnsureAssistant(ctx, sess); err != nil {
		return err
	}
	if result.ThreadID, err = s.sessions.EnsureThread(ctx, sess); err != nil {
		return err
	}
	// refresh the store TTL for sessions that keep submitting
	if err := s.sessions.Save(ctx, sess); err != nil {
		return err
	}

	msg := openai.MessageRequest{Role: openai.ChatMessageRoleUser, Content: UserMessage(topic, pageSize)}
	if _, err := s.api.CreateMessage(ctx, result.ThreadID, msg); err != nil {
		return err
	}

	run, err := s.api.CreateRun(ctx, result.ThreadID, openai.RunRequest{
		AssistantID:  result.AssistantID,
		Instructions: s.runInstructions,
	})
	if err != nil {
		return err
	}
	result.RunID = run.ID

	outcome, err := s.poller.Wait(ctx, result.ThreadID, run.ID, observe)
	if err != nil {
		return err
	}
	result.Summary = outcome.Text
	result.ToolCalls = outcome.ToolCalls
	return nil
}

// record stores the interaction even when ctx has been cancelled
func (s *Service) record(ctx context.Context, sessionID, topic, pageSize string, result *Result, runErr error) {
	if s.history == nil {
		return
	}
	entry := &history.Summary{
		SessionID:   sessionID,
		Topic:       topic,
		PageSize:    pageSize,
		AssistantID: result.AssistantID,
		ThreadID:    result.ThreadID,
		RunID:       result.RunID,
		Status:      history.StatusCompleted,
		Text:        result.Summary,
		DurationMs:  result.Duration.Milliseconds(),
	}
	if runErr != nil {
		entry.Status = history.StatusFailed
		entry.Error = runErr.Error()
	}
	calls := make([]history.ToolCall, 0, len(result.ToolCalls))
	for _, c := range result.ToolCalls {
		calls = append(calls, history.ToolCall{Name: c.Name, Arguments: c.Arguments})
	}
	if err := entry.SetToolCalls(calls); err != nil {
		log.Printf("[Summarizer] Failed to encode tool calls: %v", err)
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.history.Save(rctx, entry); err != nil {
		log.Printf("[Summarizer] Failed to record history for session %s: %v", sessionID, err)
		return
	}
	result.ID = entry.ID
}

func (s *Service) claim(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[sessionID]; busy {
		s.stats.Rejected++
		return false
	}
	s.active[sessionID] = struct{}{}
	return true
}

func (s *Service) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, sessionID)
}

// GetStats returns current service statistics
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.Active = len(s.active)
	return stats
}
