// Package openai implements the evaluation client against an
// OpenAI-compatible chat-completion endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/jobsourcing/match-scorer/internal/logger"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4"
)

type completionService interface {
	New(ctx context.Context, params openaisdk.ChatCompletionNewParams, opts ...option.RequestOption) (*openaisdk.ChatCompletion, error)
}

// Client wraps the OpenAI SDK to provide simple prompt-based interactions.
type Client struct {
	completions completionService
	model       string
	logger      *zap.Logger
}

// NewClient creates a chat-completion client. Empty baseURL and model fall
// back to the OpenAI API and gpt-4.
func NewClient(apiKey, baseURL, model string, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	if baseURL = strings.TrimSpace(baseURL); baseURL == "" {
		baseURL = defaultBaseURL
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	client := openaisdk.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)

	return &Client{
		completions: client.Chat.Completions,
		model:       model,
		logger:      logger.WithFields(log, logger.ProviderFields("openai", model)...),
	}, nil
}

// GenerateContent sends a non-streaming two-message conversation and returns
// the first choice's content.
func (c *Client) GenerateContent(ctx context.Context, system, user string) (string, error) {
	if c == nil || c.completions == nil {
		return "", errors.New("openai client is not initialized")
	}

	if strings.TrimSpace(user) == "" {
		return "", errors.New("prompt must not be empty")
	}

	params := openaisdk.ChatCompletionNewParams{
		Messages: openaisdk.F([]openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		}),
		Model: openaisdk.F(c.model),
	}

	c.logger.Debug("chat completion request", zap.Int("prompt_length", len(user)))

	resp, err := c.completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", errors.New("chat completion returned empty content")
	}

	return output, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}
