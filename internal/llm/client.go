// Package llm converts free-text incident descriptions into candidate
// event records by calling an OpenAI-style chat completions endpoint.
// The rest of the system treats its output as an ordinary create
// payload.
package llm

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/vkivaturi/traffis/config"
	"github.com/vkivaturi/traffis/internal/errs"
	"github.com/vkivaturi/traffis/internal/models"
	"github.com/vkivaturi/traffis/internal/timeutil"
)

const systemPrompt = "You are a traffic incident extraction assistant. " +
	"Given a free-text report, reply with only a JSON object of the form " +
	`{"latitude": <number>, "longitude": <number>, "status": "<string>"}. ` +
	"Do not add any other text."

// draftWindow is how long a reported incident is assumed to last when
// the text gives no end time.
const draftWindow = 2 * time.Hour

// Client calls the configured chat completions endpoint.
type Client struct {
	url    string
	model  string
	apiKey string
	client *http.Client
}

// NewClient builds an adapter client from configuration.
func NewClient(cfg config.LLMConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tr := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
	}
	return &Client{
		url:    cfg.URL,
		model:  cfg.Model,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout, Transport: tr},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// extraction is the JSON shape the model is instructed to reply with.
type extraction struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Status    string   `json:"status"`
}

// Draft turns a free-text incident description into a candidate event.
// The draft's window starts now and ends two hours later; the note keeps
// the original text.
func (c *Client) Draft(ctx context.Context, prompt string) (*models.EventDraft, error) {
	if c.apiKey == "" {
		return nil, &errs.AdapterError{Reason: "LLM API key is not configured"}
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, &errs.AdapterError{Reason: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &errs.AdapterError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &errs.AdapterError{Reason: "upstream call failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &errs.AdapterError{
			Reason: "upstream call failed",
			Err:    errors.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &errs.AdapterError{Reason: "unparseable reply", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &errs.AdapterError{Reason: "reply has no choices"}
	}

	var ext extraction
	content := stripFences(parsed.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &ext); err != nil {
		return nil, &errs.AdapterError{Reason: "unparseable reply", Err: err}
	}
	if ext.Latitude == nil || ext.Longitude == nil || ext.Status == "" {
		return nil, &errs.AdapterError{Reason: "reply is missing required fields"}
	}

	now := time.Now().UTC()
	return &models.EventDraft{
		Latitude:  *ext.Latitude,
		Longitude: *ext.Longitude,
		Status:    ext.Status,
		StartTime: timeutil.Format(now),
		EndTime:   timeutil.Format(now.Add(draftWindow)),
		Note:      prompt,
	}, nil
}

// stripFences tolerates models that wrap JSON in markdown code fences.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
