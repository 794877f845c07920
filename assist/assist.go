// Package assist wraps an OpenAI-compatible text-generation endpoint for
// the optional task-refinement features. Nothing in the sync protocol
// depends on it; callers must treat every method as best-effort.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	optimizeSystemPrompt = "You are a professional business analyst for a team task tracker. " +
		"You transform casual task descriptions into formal, structured business requirements. " +
		"Respond with a JSON object containing the keys \"title\" and \"description\" only."

	synergyFallback = "Workload data is still being analyzed."
)

// Client calls the configured language model.
type Client struct {
	model llms.Model
}

// New creates a client against an OpenAI-compatible endpoint. An empty
// baseURL keeps the provider default.
func New(apiKey, baseURL, model string) (*Client, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("assist: create model client: %w", err)
	}
	return &Client{model: llm}, nil
}

// NewWithModel wires an existing model, used by tests.
func NewWithModel(m llms.Model) *Client {
	return &Client{model: m}
}

// OptimizedTask is the refined text pair returned by the model.
type OptimizedTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// OptimizeTask asks the model to refine a task's title and description.
// When the model response cannot be parsed the original inputs come back
// unchanged rather than an error.
func (c *Client) OptimizeTask(ctx context.Context, title, description string) (OptimizedTask, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, optimizeSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman,
			fmt.Sprintf("Refine this task.\nTitle: %q\nDescription: %q", title, description)),
	}

	resp, err := c.model.GenerateContent(ctx, messages, llms.WithJSONMode())
	if err != nil {
		return OptimizedTask{}, fmt.Errorf("assist: optimize task: %w", err)
	}
	text := firstChoice(resp)

	var out OptimizedTask
	if err := json.Unmarshal([]byte(text), &out); err != nil || out.Title == "" {
		fallback := OptimizedTask{Title: title, Description: description}
		if text != "" {
			fallback.Description = text
		}
		return fallback, nil
	}
	return out, nil
}

// SuggestTeamSynergy produces a short workload summary for the dashboard.
func (c *Client) SuggestTeamSynergy(ctx context.Context, taskCount, teamCount int) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman,
			fmt.Sprintf("Analyze current workload: %d tasks for %d team members. "+
				"Provide a brief three-sentence summary of team health and potential "+
				"bottlenecks in the style of a corporate report.", taskCount, teamCount)),
	}

	resp, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("assist: team synergy: %w", err)
	}
	text := strings.TrimSpace(firstChoice(resp))
	if text == "" {
		return synergyFallback, nil
	}
	return text, nil
}

func firstChoice(resp *llms.ContentResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Content
}
