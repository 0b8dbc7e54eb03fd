package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout/internal/retry"
)

func instantPolicy(maxAttempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		Multiplier:   1,
		Retryable: func(err error) bool {
			var rle *RateLimitError
			return errors.As(err, &rle)
		},
		Sleep: func(context.Context, time.Duration) error { return nil },
	}
}

func chatReply(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return body
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGroqClient(srv.URL, "test-key", nil)
	require.NoError(t, err)
	client.SetRetryPolicy(instantPolicy(4))
	return client
}

func TestNewGroqClientRequiresAPIKey(t *testing.T) {
	_, err := NewGroqClient("", "", nil)
	assert.Error(t, err)
}

func TestCompleteRetriesRateLimits(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(chatReply("hello"))
	})

	out, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, int32(4), calls.Load())
}

func TestCompleteExhaustsRateLimitRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	var rle *RateLimitError
	assert.ErrorAs(t, err, &rle)
	assert.Equal(t, int32(4), calls.Load())
}

func TestCompleteDoesNotRetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteSendsSystemAndModelAlias(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write(chatReply("ok"))
	})

	_, err := client.Complete(context.Background(), Request{
		Prompt: "question",
		Model:  "llama-3.3-70b",
		System: "be terse",
	})
	require.NoError(t, err)

	assert.Equal(t, "llama-3.3-70b-versatile", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be terse", got.Messages[0].Content)
	assert.Equal(t, "question", got.Messages[1].Content)
}

func TestCompleteStructured(t *testing.T) {
	schema := Schema{
		Name: "test",
		Fields: []Field{
			{Name: "answer", Kind: String, Required: true},
			{Name: "items", Kind: StringList},
		},
	}

	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write(chatReply("```json\n{\"answer\": \"yes\", \"items\": [\"a\", \"b\"]}\n```"))
	})

	decoded, err := client.CompleteStructured(context.Background(), Request{Prompt: "q"}, schema)
	require.NoError(t, err)

	assert.Equal(t, "yes", GetString(decoded, "answer", ""))
	assert.Equal(t, []string{"a", "b"}, GetStringList(decoded, "items"))
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Contains(t, got.Messages[0].Content, "valid JSON object")
}

func TestCompleteStructuredDecodeErrorCarriesRaw(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply("this is not json"))
	})

	_, err := client.CompleteStructured(context.Background(), Request{Prompt: "q"}, Schema{Name: "test"})
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "this is not json", decodeErr.Raw)
}

func TestCompleteStructuredValidationFailure(t *testing.T) {
	schema := Schema{
		Name:   "test",
		Fields: []Field{{Name: "answer", Kind: String, Required: true}},
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply(`{"other": 1}`))
	})

	_, err := client.CompleteStructured(context.Background(), Request{Prompt: "q"}, schema)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, decodeErr.Err.Error(), "answer")
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, StripFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripFences("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripFences(`{"a": 1}`))
	assert.Equal(t, `{"a": 1}`, StripFences("  {\"a\": 1}  "))
}

func TestSchemaValidate(t *testing.T) {
	min, max := 0.0, 100.0
	schema := Schema{
		Name: "score",
		Fields: []Field{
			{Name: "total", Kind: Integer, Required: true, Min: &min, Max: &max},
			{Name: "notes", Kind: StringList},
			{Name: "hits", Kind: ObjectList},
		},
	}

	assert.NoError(t, schema.Validate(map[string]any{"total": 50.0}))
	assert.Error(t, schema.Validate(map[string]any{}))
	assert.Error(t, schema.Validate(map[string]any{"total": "fifty"}))
	assert.Error(t, schema.Validate(map[string]any{"total": 150.0}))
	assert.Error(t, schema.Validate(map[string]any{"total": 50.0, "notes": []any{1.0}}))
	assert.NoError(t, schema.Validate(map[string]any{
		"total": 50.0,
		"notes": []any{"a"},
		"hits":  []any{map[string]any{"path": "x"}},
	}))
}
