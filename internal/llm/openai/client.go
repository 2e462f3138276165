package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/joseph-ayodele/claims-validator/internal/llm"
)

var errNoContent = errors.New("openai: no message content in response")

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []message         `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// Complete sends one chat completion and returns choices[0].message.content.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	body := chatRequest{
		Model:       c.cfg.Model,
		Temperature: req.Temperature,
		Messages: []message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}
	if req.JSONMode {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}

	raw, err := llm.PostJSON(ctx, c.http, c.cfg.URL, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, c.logger)
	if err != nil {
		return "", err
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() || content.Type != gjson.String {
		return "", errNoContent
	}
	return strings.TrimSpace(content.String()), nil
}
