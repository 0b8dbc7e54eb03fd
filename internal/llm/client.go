// Package llm is the gateway to an OpenAI-compatible chat-completions API
// (Groq). Rate limits are retried with bounded exponential backoff; every
// other upstream failure surfaces immediately.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"scout/internal/retry"
)

// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Model aliases. Short names map to provider model IDs; unknown names pass
// through unchanged.
var models = map[string]string{
	"qwen-qwq-32b":                  "qwen-qwq-32b",
	"llama-3.3-70b":                 "llama-3.3-70b-versatile",
	"llama-3.1-8b":                  "llama-3.1-8b-instant",
	"gemma2-9b":                     "gemma2-9b-it",
	"mixtral-8x7b":                  "mixtral-8x7b-32768",
	"llama-3.3-70b-specdec":         "llama-3.3-70b-specdec",
	"deepseek-r1-distill-llama-70b": "deepseek-r1-distill-llama-70b",
}

const (
	// DefaultFastModel serves the triage and locate stages.
	DefaultFastModel = "qwen-qwq-32b"
	// DefaultPowerfulModel serves the briefing stage.
	DefaultPowerfulModel = "llama-3.3-70b"
)

// Request is one completion request.
type Request struct {
	Prompt      string
	Model       string
	System      string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Client is the gateway consumed by the stage agents.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	CompleteStructured(ctx context.Context, req Request, schema Schema) (map[string]any, error)
}

// GroqClient implements Client against the Groq API. The HTTP client is
// constructed with the gateway and owned by it; nothing is process-global.
type GroqClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	policy  retry.Policy
	logger  *zap.Logger
}

// NewGroqClient creates a gateway. apiKey must be non-empty; checking it
// here keeps missing credentials a configuration error caught before any
// run starts.
func NewGroqClient(baseURL, apiKey string, logger *zap.Logger) (*GroqClient, error) {
	if apiKey == "" {
		return nil, errors.New("llm: api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroqClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 2 * time.Minute,
		},
		policy: retry.Policy{
			MaxAttempts:  5,
			InitialDelay: 4 * time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2,
			Retryable: func(err error) bool {
				var rle *RateLimitError
				return errors.As(err, &rle)
			},
		},
		logger: logger,
	}, nil
}

// SetRetryPolicy replaces the retry policy; used to shorten backoff in tests.
func (c *GroqClient) SetRetryPolicy(p retry.Policy) { c.policy = p }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one completion round-trip. Only rate limits are retried;
// exhaustion surfaces the rate-limit error.
func (c *GroqClient) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultFastModel
	}
	if id, ok := models[model]; ok {
		model = id
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	payload := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}
	if req.JSONMode {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var content string
	err := c.policy.Do(ctx, func() error {
		var err error
		content, err = c.post(ctx, model, payload)
		if err != nil {
			var rle *RateLimitError
			if errors.As(err, &rle) {
				c.logger.Warn("rate limited, backing off", zap.String("model", model))
			}
		}
		return err
	})
	return content, err
}

func (c *GroqClient) post(ctx context.Context, model string, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &APIError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &APIError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return "", &RateLimitError{Model: model}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &APIError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(result.Choices) == 0 {
		return "", &APIError{Err: errors.New("response has no choices")}
	}
	return result.Choices[0].Message.Content, nil
}

// CompleteStructured wraps Complete with a schema-describing instruction
// and validates the decoded response against the contract. Parse and
// validation failures return a DecodeError carrying the raw response;
// upstream failures keep their own error kinds.
func (c *GroqClient) CompleteStructured(ctx context.Context, req Request, schema Schema) (map[string]any, error) {
	system := schema.Instruction()
	if req.System != "" {
		system = req.System + "\n\n" + system
	}
	req.System = system
	req.JSONMode = true
	if req.Temperature == 0 {
		req.Temperature = 0.3
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 8192
	}

	raw, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(StripFences(raw)), &decoded); err != nil {
		return nil, &DecodeError{Raw: raw, Err: err}
	}
	if err := schema.Validate(decoded); err != nil {
		return nil, &DecodeError{Raw: raw, Err: err}
	}
	return decoded, nil
}

// StripFences removes an incidental markdown code fence wrapping a JSON
// response.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
