// internal/reasoning/client.go

// Package reasoning is the single gateway to the external reasoning service.
// Every assessor call flows through Client.Ask, which sends one structured
// question and returns the raw JSON answer. One attempt per question; faults
// are classified and reported, never retried here.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const answersPath = "/v1/answers"

var (
	ErrTimeout        = errors.New("REASONING_TIMEOUT")
	ErrRefusal        = errors.New("REASONING_REFUSAL")
	ErrSchemaMismatch = errors.New("REASONING_SCHEMA_INVALID")
	ErrTransport      = errors.New("REASONING_TRANSPORT")
)

// Logger interface definition
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Client struct {
	config *Config
	client *http.Client
	logger Logger
}

func NewClient(config *Config, log Logger) *Client {
	return &Client{
		config: config,
		client: &http.Client{
			// Rely on per-call context deadlines, not a client-wide timeout
		},
		logger: log,
	}
}

// Ask sends one question and returns the structured answer body. Errors wrap
// exactly one of the package sentinels so callers can classify the fault with
// errors.Is.
func (c *Client) Ask(ctx context.Context, q *Question) (json.RawMessage, error) {
	maxTokens := c.config.MaxOutputTokens
	if q.MaxOutputTokens > 0 {
		maxTokens = q.MaxOutputTokens
	}

	requestBody := askRequest{
		Model:           c.config.Model,
		System:          q.System,
		Prompt:          q.Prompt,
		ResponseSchema:  q.ResponseSchema,
		MaxOutputTokens: maxTokens,
		Temperature:     c.config.Temperature,
	}

	body, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+answersPath, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, string(snippet))
	}

	var envelope askResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrSchemaMismatch, err)
	}

	if envelope.Refusal != "" {
		c.logger.Info("reasoning service declined", map[string]interface{}{
			"reason": envelope.Refusal,
		})
		return nil, fmt.Errorf("%w: %s", ErrRefusal, envelope.Refusal)
	}

	if len(envelope.Output) == 0 || string(envelope.Output) == "null" {
		return nil, fmt.Errorf("%w: empty answer", ErrRefusal)
	}

	c.logger.Debug("reasoning answer received", map[string]interface{}{
		"responseId": envelope.ID,
		"model":      envelope.Model,
		"bytes":      len(envelope.Output),
	})

	return envelope.Output, nil
}
