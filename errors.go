package kisan

import "fmt"

// ConfigError indicates the provider is not usable as configured
// (missing API key, unknown model). No request is sent.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Message)
}

// ProviderError indicates a transport failure: network error, non-2xx status, rate limit.
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ProtocolError indicates the provider answered but the body did not carry
// a usable translation.
type ProtocolError struct {
	Message string
	Cause   error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a persistence failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// ProcessorError indicates a content processing failure (parse error, etc.).
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string // The type of content that failed to process
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates a batch response carried a different number
// of segments than texts were sent.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}
