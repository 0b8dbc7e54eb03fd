package llm

import "fmt"

// RateLimitError reports an upstream 429. It is the only retryable
// condition in the gateway.
type RateLimitError struct {
	Model string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by API (model %s)", e.Model)
}

// APIError is any other upstream failure: bad request, server error, or
// transport failure. It is never retried.
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api request failed: %v", e.Err)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// DecodeError reports a structured response that could not be parsed or
// failed schema validation. Raw carries the model's response for
// diagnostics.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode structured response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
