// Package ai talks to an OpenAI-compatible LLM and builds the prompts used by
// the content pipeline.
package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/lysyi3m/adcomb/app/apperr"
)

// Completer returns the raw JSON text produced for a prompt.
type Completer interface {
	CompleteJSON(ctx context.Context, prompt string) (string, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

var (
	_ Completer      = (*Client)(nil)
	_ ImageGenerator = (*Client)(nil)
)

const systemPrompt = "You are a senior performance marketer and copywriter. Always answer with a single valid JSON object and nothing else."

type Client struct {
	api        *openai.Client
	chatModel  string
	imageModel string
}

// NewClient builds a client for the given credentials. An empty apiKey yields
// a client whose calls fail with a config error.
func NewClient(apiKey, baseURL, chatModel, imageModel string) *Client {
	c := &Client{chatModel: chatModel, imageModel: imageModel}
	if apiKey == "" {
		return c
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	c.api = openai.NewClientWithConfig(config)

	return c
}

func (c *Client) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	if c.api == nil {
		return "", apperr.New(apperr.KindConfig, "LLM API key is not configured")
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", upstreamError("LLM completion failed", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", apperr.New(apperr.KindUpstream, "LLM returned an empty response")
	}

	slog.Debug("LLM completion received",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

// GenerateImage returns PNG bytes for the prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if c.api == nil {
		return nil, apperr.New(apperr.KindConfig, "LLM API key is not configured")
	}

	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, upstreamError("Image generation failed", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, apperr.New(apperr.KindUpstream, "Image generation returned no data")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, "Image data is not valid base64", err)
	}

	return data, nil
}

func upstreamError(message string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apperr.Wrap(apperr.KindUpstream, message, err).
			WithDetails(fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperr.Wrap(apperr.KindUpstream, message, err).
			WithDetails(fmt.Sprintf("status %d: %s", reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body))))
	}

	return apperr.Wrap(apperr.KindUpstream, message, err)
}
