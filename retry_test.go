package kisan

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastRetry(retries int) RetryConfig {
	return RetryConfig{
		MaxRetries: retries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func TestWithRetry(t *testing.T) {
	transient := &ProviderError{Message: "503", Retryable: true}
	permanent := &ProviderError{Message: "invalid API key"}

	tests := []struct {
		name      string
		retries   int
		failures  []error // returned by successive calls, then success
		wantCalls int
		wantErr   bool
	}{
		{"first try", 3, nil, 1, false},
		{"recovers", 3, []error{transient, transient}, 3, false},
		{"non-retryable", 3, []error{permanent}, 1, true},
		{"exhausted", 2, []error{transient, transient, transient, transient}, 3, true},
		{"plain error", 3, []error{errors.New("boom")}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := WithRetry(context.Background(), fastRetry(tt.retries), func() (string, error) {
				calls++
				if calls <= len(tt.failures) {
					return "", tt.failures[calls-1]
				}
				return "कपास", nil
			})

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "कपास" {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := WithRetry(ctx, cfg, func() (string, error) {
		calls++
		return "", &ProviderError{Message: "429", Retryable: true}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryConfigDelay(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for attempt, w := range want {
		if got := cfg.delay(attempt); got != w {
			t.Errorf("delay(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("plain"), false},
		{context.Canceled, false},
		{context.DeadlineExceeded, false},
		{&ProviderError{Message: "429", Retryable: true}, true},
		{&ProviderError{Message: "401"}, false},
		{fmt.Errorf("wrapped: %w", &ProviderError{Message: "500", Retryable: true}), true},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRetryProvider(t *testing.T) {
	stub := &stubProvider{
		errs:      []error{&ProviderError{Message: "503", Retryable: true}},
		responses: []string{"कपास"},
	}
	p := NewRetryProvider(stub, fastRetry(2))

	got, err := p.Generate(context.Background(), GenerateRequest{Prompt: BuildSinglePrompt("Cotton", LangHindi), Count: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "कपास" {
		t.Errorf("got %q", got)
	}
	if stub.Calls() != 2 {
		t.Errorf("calls = %d, want 2", stub.Calls())
	}
}
