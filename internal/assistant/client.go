package assistant

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"news-assistant/internal/config"
)

// betaHeader replaces the assistants=v1 revision the SDK sends. The request
// shapes used here are the same under v2.
const betaHeader = "assistants=v2"

// betaTransport overrides the OpenAI-Beta header on every request
type betaTransport struct {
	base http.RoundTripper
}

func (t betaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("OpenAI-Beta", betaHeader)
	return t.base.RoundTrip(r)
}

// Client talks to the assistant runtime through go-openai
type Client struct {
	api *openai.Client
}

// NewClient creates a client from config
func NewClient(cfg config.AssistantConfig) *Client {
	timeout := cfg.RequestTimeout()
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.OrgID = cfg.OrgID
	oc.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: betaTransport{base: http.DefaultTransport},
	}
	return &Client{api: openai.NewClientWithConfig(oc)}
}

// CreateAssistant registers a new assistant definition
func (c *Client) CreateAssistant(ctx context.Context, req openai.AssistantRequest) (openai.Assistant, error) {
	a, err := c.api.CreateAssistant(ctx, req)
	if err != nil {
		return a, fmt.Errorf("create assistant: %w", err)
	}
	log.Printf("[Assistant] Created assistant %s (model: %s)", a.ID, a.Model)
	return a, nil
}

// CreateThread starts a conversation thread
func (c *Client) CreateThread(ctx context.Context, req openai.ThreadRequest) (openai.Thread, error) {
	th, err := c.api.CreateThread(ctx, req)
	if err != nil {
		return th, fmt.Errorf("create thread: %w", err)
	}
	log.Printf("[Assistant] Created thread %s", th.ID)
	return th, nil
}

// CreateMessage appends a message to a thread
func (c *Client) CreateMessage(ctx context.Context, threadID string, req openai.MessageRequest) (openai.Message, error) {
	msg, err := c.api.CreateMessage(ctx, threadID, req)
	if err != nil {
		return msg, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// CreateRun starts the assistant against a thread
func (c *Client) CreateRun(ctx context.Context, threadID string, req openai.RunRequest) (openai.Run, error) {
	run, err := c.api.CreateRun(ctx, threadID, req)
	if err != nil {
		return run, fmt.Errorf("create run: %w", err)
	}
	log.Printf("[Assistant] Run %s commencing on thread %s", run.ID, threadID)
	return run, nil
}

// RetrieveRun returns the current state of a run
func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	run, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return run, fmt.Errorf("retrieve run: %w", err)
	}
	return run, nil
}

// ListMessages lists thread messages. A zero limit or empty order leaves the
// runtime default.
func (c *Client) ListMessages(ctx context.Context, threadID string, limit int, order string) (openai.MessagesList, error) {
	var limitPtr *int
	if limit > 0 {
		limitPtr = &limit
	}
	var orderPtr *string
	if order != "" {
		orderPtr = &order
	}
	list, err := c.api.ListMessage(ctx, threadID, limitPtr, orderPtr, nil, nil)
	if err != nil {
		return list, fmt.Errorf("list messages: %w", err)
	}
	return list, nil
}

// SubmitToolOutputs hands local tool results back to a waiting run
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []openai.ToolOutput) (openai.Run, error) {
	run, err := c.api.SubmitToolOutputs(ctx, threadID, runID, openai.SubmitToolOutputsRequest{ToolOutputs: outputs})
	if err != nil {
		return run, fmt.Errorf("submit tool outputs: %w", err)
	}
	return run, nil
}

// CancelRun asks the runtime to stop a run
func (c *Client) CancelRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	run, err := c.api.CancelRun(ctx, threadID, runID)
	if err != nil {
		return run, fmt.Errorf("cancel run: %w", err)
	}
	return run, nil
}
