// internal/tools/types.go
package tools

import (
	"context"
	"errors"
	"time"
)

var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Tool defines the interface that all locally executed callbacks implement
type Tool interface {
	// Name returns the function name the assistant calls
	Name() string

	// Description returns a human-readable description of what the tool does
	Description() string

	// Parameters returns the JSON schema of the tool arguments
	Parameters() map[string]interface{}

	// Execute runs the tool with the decoded arguments
	Execute(ctx context.Context, params map[string]interface{}) (*ToolResult, error)
}

// ToolResult contains the outcome of a tool execution
type ToolResult struct {
	Output   string                 `json:"output"`
	Duration time.Duration          `json:"duration"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Definition is the function declaration published to the assistant
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Constants for tool names
const (
	ToolNameGetNews = "get_news"
)
