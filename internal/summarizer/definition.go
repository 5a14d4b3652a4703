package summarizer

import (
	openai "github.com/sashabaranov/go-openai"

	"news-assistant/internal/assistant"
	"news-assistant/internal/config"
	"news-assistant/internal/tools"
)

// AssistantDefinition builds the assistant shared by every session, with one
// function tool per registered local tool.
func AssistantDefinition(cfg config.AssistantConfig, defs []tools.Definition) openai.AssistantRequest {
	name, instructions := cfg.Name, cfg.Instructions
	req := openai.AssistantRequest{
		Model:        cfg.Model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        make([]openai.AssistantTool, 0, len(defs)),
	}
	for _, d := range defs {
		req.Tools = append(req.Tools, assistant.FunctionTool(openai.FunctionDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		}))
	}
	return req
}
