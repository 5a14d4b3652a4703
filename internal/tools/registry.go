// internal/tools/registry.go
package tools

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

const defaultToolTimeout = 30 * time.Second

// Registry maps function names requested by the assistant to local tools
type Registry struct {
	tools   map[string]Tool
	timeout time.Duration
	mu      sync.RWMutex
}

// NewRegistry creates a registry whose executions are bounded by timeout
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}
	return &Registry{
		tools:   make(map[string]Tool),
		timeout: timeout,
	}
}

// Register adds a tool to the registry
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}

	r.tools[name] = tool
	log.Printf("[ToolRegistry] Registered tool: %s - %s", name, tool.Description())
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool, nil
}

// Has reports whether a tool is registered under name
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Execute runs a tool with the given parameters under the registry timeout
func (r *Registry) Execute(ctx context.Context, toolName string, params map[string]interface{}) (*ToolResult, error) {
	tool, err := r.Get(toolName)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	log.Printf("[ToolRegistry] Executing tool '%s' (timeout: %s)", toolName, r.timeout)

	startTime := time.Now()
	result, err := tool.Execute(timeoutCtx, params)
	duration := time.Since(startTime)

	if err != nil {
		log.Printf("[ToolRegistry] Tool '%s' failed after %s: %v", toolName, duration, err)
		return nil, err
	}

	result.Duration = duration
	log.Printf("[ToolRegistry] Tool '%s' completed in %s (%d bytes of output)",
		toolName, duration, len(result.Output))
	return result, nil
}

// Dispatch executes a tool and returns only its text output
func (r *Registry) Dispatch(ctx context.Context, name string, params map[string]interface{}) (string, error) {
	result, err := r.Execute(ctx, name, params)
	if err != nil {
		return "", err
	}
	return result.Output, nil
}

// Definitions returns the declarations of every registered tool, sorted by name
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, Definition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
