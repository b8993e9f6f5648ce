package classify

import (
	"context"
	"fmt"

	"github.com/aktagon/llmkit/anthropic/agents"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/ports"
)

// chatFunc sends one prompt and returns the reply text. The indirection
// keeps the agent swappable in tests.
type chatFunc func(prompt string, opts *agents.ChatOptions) (string, error)

// AgentClassifier codes single records synchronously through a chat agent.
// The batch stage is the workhorse for full corpus runs; this path serves
// spot checks and small reruns where waiting on a batch is not worth it.
type AgentClassifier struct {
	chat      chatFunc
	maxTokens int
}

var _ ports.Classifier = (*AgentClassifier)(nil)

// NewAgentClassifier builds a classifier over the Anthropic chat agent.
func NewAgentClassifier(apiKey string, maxTokens int) (*AgentClassifier, error) {
	agent, err := agents.New(apiKey)
	if err != nil {
		return nil, fmt.Errorf("creating classifier agent: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	chat := func(prompt string, opts *agents.ChatOptions) (string, error) {
		response, err := agent.Chat(prompt, opts)
		if err != nil {
			return "", err
		}
		return response.Text, nil
	}
	return &AgentClassifier{chat: chat, maxTokens: maxTokens}, nil
}

// Classify assigns codebook codes to one translated record.
func (c *AgentClassifier) Classify(ctx context.Context, rec domain.Record) ([]domain.CodeAssignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rec.TranslatedText == "" {
		return nil, fmt.Errorf("record %s has no translated text", rec.Key())
	}

	text, err := c.chat(articlePrompt(rec), &agents.ChatOptions{
		SystemPrompt: Codebook,
		MaxTokens:    c.maxTokens,
		Temperature:  0,
	})
	if err != nil {
		return nil, fmt.Errorf("classifier agent chat: %w", err)
	}

	assignments, err := ParseAssignments(text)
	if err != nil {
		return nil, err
	}
	for i := range assignments {
		assignments[i].URL = rec.URL
		assignments[i].Date = rec.Date
		assignments[i].Publication = rec.Publication
	}
	return assignments, nil
}
