package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrUnknownTool      = errors.New("unknown tool requested by run")
	ErrRunFailed        = errors.New("run did not complete")
	ErrRunTimeout       = errors.New("timed out waiting for run")
	ErrUnexpectedStatus = errors.New("unexpected run status")
	ErrNoMessages       = errors.New("run completed without an assistant message")
)

const cancelTimeout = 5 * time.Second

// RunAPI is the subset of the runtime the poller drives
type RunAPI interface {
	RetrieveRun(ctx context.Context, threadID, runID string) (openai.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []openai.ToolOutput) (openai.Run, error)
	ListMessages(ctx context.Context, threadID string, limit int, order string) (openai.MessagesList, error)
	CancelRun(ctx context.Context, threadID, runID string) (openai.Run, error)
}

// ToolDispatcher executes local callbacks by function name
type ToolDispatcher interface {
	Has(name string) bool
	Dispatch(ctx context.Context, name string, params map[string]interface{}) (string, error)
}

// StatusObserver is told about every polled status
type StatusObserver func(status openai.RunStatus)

// RunFailedError carries the terminal status of a run that did not complete
type RunFailedError struct {
	RunID     string
	Status    openai.RunStatus
	LastError *openai.RunLastError
}

func (e *RunFailedError) Error() string {
	if e.LastError != nil {
		return fmt.Sprintf("run %s ended with status %s: %s: %s", e.RunID, e.Status, e.LastError.Code, e.LastError.Message)
	}
	return fmt.Sprintf("run %s ended with status %s", e.RunID, e.Status)
}

func (e *RunFailedError) Unwrap() error { return ErrRunFailed }

// ToolCallRecord describes one callback served during a run
type ToolCallRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Arguments   string `json:"arguments"`
	OutputBytes int    `json:"output_bytes"`
}

// Outcome is the result of a completed run
type Outcome struct {
	Text      string
	ToolCalls []ToolCallRecord
	Polls     int
}

// Poller waits for runs to finish, serving tool calls along the way
type Poller struct {
	api      RunAPI
	tools    ToolDispatcher
	interval time.Duration
	timeout  time.Duration
}

// NewPoller creates a poller that checks the run every interval and gives up
// after timeout.
func NewPoller(api RunAPI, tools ToolDispatcher, interval, timeout time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Poller{api: api, tools: tools, interval: interval, timeout: timeout}
}

// Wait polls the run until it completes, fails, times out or ctx is done.
// observe may be nil.
func (p *Poller) Wait(ctx context.Context, threadID, runID string, observe StatusObserver) (*Outcome, error) {
	ctx, cancel := context.WithTimeoutCause(ctx, p.timeout, ErrRunTimeout)
	defer cancel()

	outcome := &Outcome{}
	for {
		run, err := p.api.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, p.abort(ctx, threadID, runID)
			}
			return nil, err
		}
		outcome.Polls++
		if observe != nil {
			observe(run.Status)
		}

		switch run.Status {
		case openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusCancelling:
			// keep polling

		case openai.RunStatusRequiresAction:
			log.Printf("[Poller] Run %s requires action", runID)
			outputs, records, err := p.serveToolCalls(ctx, run)
			if err != nil {
				if ctx.Err() != nil {
					return nil, p.abort(ctx, threadID, runID)
				}
				p.cancelQuietly(ctx, threadID, runID)
				return nil, err
			}
			if _, err := p.api.SubmitToolOutputs(ctx, threadID, runID, outputs); err != nil {
				if ctx.Err() != nil {
					return nil, p.abort(ctx, threadID, runID)
				}
				return nil, err
			}
			outcome.ToolCalls = append(outcome.ToolCalls, records...)

		case openai.RunStatusCompleted:
			text, err := p.latestMessage(ctx, threadID)
			if err != nil {
				return nil, err
			}
			outcome.Text = text
			log.Printf("[Poller] Run %s completed after %d polls", runID, outcome.Polls)
			return outcome, nil

		default:
			if terminal(run.Status) {
				return nil, &RunFailedError{RunID: runID, Status: run.Status, LastError: run.LastError}
			}
			return nil, fmt.Errorf("%w: %q", ErrUnexpectedStatus, run.Status)
		}

		select {
		case <-ctx.Done():
			return nil, p.abort(ctx, threadID, runID)
		case <-time.After(p.interval):
		}
	}
}

// serveToolCalls executes every pending call. Nothing is executed when any
// requested name is unknown.
func (p *Poller) serveToolCalls(ctx context.Context, run openai.Run) ([]openai.ToolOutput, []ToolCallRecord, error) {
	calls := pendingToolCalls(run)
	if len(calls) == 0 {
		return nil, nil, fmt.Errorf("run %s requires action but has no tool calls", run.ID)
	}
	for _, call := range calls {
		if call.Type != "" && call.Type != openai.ToolTypeFunction {
			return nil, nil, fmt.Errorf("%w: unsupported tool type %q", ErrUnknownTool, call.Type)
		}
		if !p.tools.Has(call.Function.Name) {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownTool, call.Function.Name)
		}
	}

	outputs := make([]openai.ToolOutput, 0, len(calls))
	records := make([]ToolCallRecord, 0, len(calls))
	for _, call := range calls {
		params := map[string]interface{}{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &params); err != nil {
				return nil, nil, fmt.Errorf("decode arguments for %s: %w", call.Function.Name, err)
			}
		}

		log.Printf("[Poller] Calling %s(%s) for tool call %s", call.Function.Name, call.Function.Arguments, call.ID)
		output, err := p.tools.Dispatch(ctx, call.Function.Name, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			log.Printf("[Poller] Tool %s failed, reporting error to run: %v", call.Function.Name, err)
			output = "error: " + err.Error()
		}

		outputs = append(outputs, openai.ToolOutput{ToolCallID: call.ID, Output: output})
		records = append(records, ToolCallRecord{
			ID:          call.ID,
			Name:        call.Function.Name,
			Arguments:   call.Function.Arguments,
			OutputBytes: len(output),
		})
	}
	return outputs, records, nil
}

func (p *Poller) latestMessage(ctx context.Context, threadID string) (string, error) {
	list, err := p.api.ListMessages(ctx, threadID, 1, "desc")
	if err != nil {
		return "", err
	}
	if len(list.Messages) == 0 {
		return "", ErrNoMessages
	}
	text := MessageText(list.Messages[0])
	if text == "" {
		return "", ErrNoMessages
	}
	return text, nil
}

// abort cancels the remote run and returns why waiting stopped
func (p *Poller) abort(ctx context.Context, threadID, runID string) error {
	p.cancelQuietly(ctx, threadID, runID)
	cause := context.Cause(ctx)
	if errors.Is(cause, ErrRunTimeout) {
		return fmt.Errorf("%w %s after %s", ErrRunTimeout, runID, p.timeout)
	}
	return cause
}

func (p *Poller) cancelQuietly(ctx context.Context, threadID, runID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()
	if _, err := p.api.CancelRun(cctx, threadID, runID); err != nil {
		log.Printf("[Poller] Failed to cancel run %s: %v", runID, err)
		return
	}
	log.Printf("[Poller] Cancelled run %s", runID)
}
