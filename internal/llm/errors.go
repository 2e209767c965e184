package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ProviderError is returned for any failed provider call. Body holds the raw
// upstream error body and must only reach server-side logs.
type ProviderError struct {
	Provider   string
	StatusCode int // 0 for transport failures
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the failure looks transient.
func (e *ProviderError) Retryable() bool {
	if e.StatusCode == 0 {
		return !errors.Is(e.Err, errNotRetryable)
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsProviderError reports whether err is or wraps a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

var errNotRetryable = errors.New("not retryable")
