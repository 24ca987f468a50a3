// Package assistant answers questions about a ledger through an OpenAI
// compatible chat completion API.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"rupaiya/internal/core"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama3-8b-8192"

	// FallbackAnswer is returned when the API replies without a choice.
	FallbackAnswer = "Sorry, I couldn't get a response."
	// Greeting opens a new conversation.
	Greeting = "Hello! I'm FinPal, your financial assistant. How can I help you analyze your finances today?"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("chat assistant is not configured")

// Message is one prior turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Client struct {
	api    *openai.Client
	model  string
	now    func() time.Time
	logger *slog.Logger
}

// New returns a client. An empty API key yields a client whose Ask always
// fails with ErrNotConfigured.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{model: cfg.Model, now: time.Now, logger: logger.With("component", "assistant")}
	if c.model == "" {
		c.model = DefaultModel
	}
	if cfg.APIKey == "" {
		return c
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	c.api = openai.NewClientWithConfig(oc)
	return c
}

func (c *Client) Configured() bool { return c.api != nil }

// Ask sends the snapshot, the prior turns and the question, and returns the
// assistant's answer.
func (c *Client) Ask(ctx context.Context, snapshot core.Ledger, history []Message, question string) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("empty question")
	}

	system, err := SystemPrompt(snapshot, c.now())
	if err != nil {
		return "", err
	}
	history = withoutGreeting(history)
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "Chat completion failed", "model", c.model, "error", err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	c.logger.InfoContext(ctx, "Chat completion",
		"model", c.model,
		"turns", len(history),
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds())

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return FallbackAnswer, nil
	}
	return resp.Choices[0].Message.Content, nil
}

// withoutGreeting drops the opening greeting the client shows before the
// first question; it is not part of the conversation the model sees.
func withoutGreeting(history []Message) []Message {
	if len(history) > 0 && history[0].Role == openai.ChatMessageRoleAssistant &&
		strings.TrimSpace(history[0].Content) == Greeting {
		return history[1:]
	}
	return history
}

// SystemPrompt embeds the whole ledger as indented JSON together with
// today's date.
func SystemPrompt(snapshot core.Ledger, today time.Time) (string, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	var b strings.Builder
	b.WriteString("You are a friendly and helpful financial assistant called 'FinPal'. ")
	b.WriteString("Your goal is to analyze the user's financial data and provide clear, concise, and actionable insights. ")
	b.WriteString("The user's complete financial data for all time is provided below in JSON format. ")
	b.WriteString("Use this data exclusively to answer the user's questions. Do not make up any information. ")
	b.WriteString("When presenting data, use formatting like lists or tables to make it easy to read. ")
	b.WriteString("Always be polite and encouraging. Today's date is ")
	b.WriteString(today.Format("Mon Jan 02 2006"))
	b.WriteString(".\n\nHere is the user's financial data:\n")
	b.Write(data)
	return b.String(), nil
}
