// Package search enriches plan and quiz prompts with context about the exam
// gathered from an external search/answer API. The API speaks the OpenAI
// chat-completions protocol, so the client reuses the same SDK with a
// different base URL.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/prepflow/prepflow/internal/llm/prompts"
	"github.com/prepflow/prepflow/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Client queries a search/answer API for exam context.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New creates a search client. A typical configuration points baseURL at
// https://api.perplexity.ai with the "sonar" model.
func New(baseURL, apiKey, modelName string, timeout time.Duration) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		timeout: timeout,
	}
}

// Search returns a block of contextual text about the exam and topics,
// or an error when the API yields nothing usable. Callers treat failure
// as "no search context", never as fatal.
func (c *Client) Search(ctx context.Context, exam model.Exam, topics []string, materialText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.SearchSystem()},
			{Role: openai.ChatMessageRoleUser, Content: prompts.SearchQuery(exam.Title, exam.Country, topics, exam.Proficiency, materialText)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("search API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("search API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
