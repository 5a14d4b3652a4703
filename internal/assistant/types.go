package assistant

import (
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// StatusIncomplete is reported by newer runtimes when a run stops early. The
// SDK does not declare it.
const StatusIncomplete openai.RunStatus = "incomplete"

// terminal reports whether no further transition can happen
func terminal(s openai.RunStatus) bool {
	switch s {
	case openai.RunStatusCompleted, openai.RunStatusFailed, openai.RunStatusCancelled,
		openai.RunStatusExpired, StatusIncomplete:
		return true
	}
	return false
}

// FunctionTool wraps a function definition as an assistant tool
func FunctionTool(def openai.FunctionDefinition) openai.AssistantTool {
	return openai.AssistantTool{Type: openai.AssistantToolTypeFunction, Function: &def}
}

// MessageText joins the text parts of a message
func MessageText(m openai.Message) string {
	var parts []string
	for _, c := range m.Content {
		if c.Type == "text" && c.Text != nil {
			parts = append(parts, c.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}

// pendingToolCalls returns the calls the run is waiting on, if any
func pendingToolCalls(run openai.Run) []openai.ToolCall {
	if run.RequiredAction == nil || run.RequiredAction.Type != openai.RequiredActionTypeSubmitToolOutputs ||
		run.RequiredAction.SubmitToolOutputs == nil {
		return nil
	}
	return run.RequiredAction.SubmitToolOutputs.ToolCalls
}
