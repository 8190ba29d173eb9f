// Package llm is a small client for OpenAI-compatible chat completion APIs.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrNotConfigured = errors.New("llm api key is not configured")

// UpstreamError is returned when the provider cannot be reached or answers
// with a non-2xx status.
type UpstreamError struct {
	Status   int
	Message  string
	Response json.RawMessage
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("llm upstream status %d: %s", e.Status, e.Message)
	}
	return "llm upstream: " + e.Message
}

// Detail is the client-facing description of the failure.
func (e *UpstreamError) Detail() map[string]any {
	detail := map[string]any{"message": e.Message}
	if e.Status > 0 {
		detail["status"] = e.Status
	}
	if len(e.Response) > 0 {
		detail["response"] = e.Response
	} else {
		detail["response"] = nil
	}
	return detail
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Client struct {
	http   *resty.Client
	apiKey string
	model  string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{http: http, apiKey: strings.TrimSpace(cfg.APIKey), model: cfg.Model}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) Model() string {
	return c.model
}

type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete returns the first choice's message content, which may be empty.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var out chatResponse
	var failure errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(&body).
		SetResult(&out).
		SetError(&failure).
		Post("/chat/completions")
	if err != nil {
		return "", &UpstreamError{Message: err.Error()}
	}
	if resp.IsError() {
		message := failure.Error.Message
		if message == "" {
			message = resp.Status()
		}
		upstream := &UpstreamError{Status: resp.StatusCode(), Message: message}
		if json.Valid(resp.Body()) {
			upstream.Response = json.RawMessage(resp.Body())
		}
		return "", upstream
	}

	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
