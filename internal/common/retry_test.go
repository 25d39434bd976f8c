package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/leech-actions/internal/service"
)

func quickRetry() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		failures  []error
		wantErr   error
		name      string
		wantCalls int
	}{
		{
			name:      "succeeds first time",
			wantCalls: 1,
		},
		{
			name:      "busy then success",
			failures:  []error{fmt.Errorf("step: %w", ErrDatabaseBusy)},
			wantCalls: 2,
		},
		{
			name:      "permanent error is not retried",
			failures:  []error{errBoom},
			wantErr:   errBoom,
			wantCalls: 1,
		},
		{
			name:      "marked retryable",
			failures:  []error{&RetryableError{Err: errBoom, Retryable: true}},
			wantCalls: 2,
		},
		{
			name:      "marked not retryable",
			failures:  []error{&RetryableError{Err: errBoom, Retryable: false}},
			wantErr:   errBoom,
			wantCalls: 1,
		},
		{
			name:      "exhausted",
			failures:  []error{ErrDatabaseBusy, ErrDatabaseBusy, ErrDatabaseBusy},
			wantErr:   ErrMaxRetries,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			}, quickRetry())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := quickRetry()
	opts.InitialDelay = time.Hour
	opts.MaxDelay = time.Hour

	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		cancel()
		return ErrDatabaseBusy
	}, opts)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestUserError(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := NewUserError("could not open collection", cause)

	assert.Equal(t, "could not open collection: disk I/O error", err.Error())
	assert.ErrorIs(t, err, cause)

	var userErr *UserError
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &userErr)
	assert.Equal(t, "could not open collection", userErr.UserMessage)

	assert.Equal(t, "no cause", NewUserError("no cause", nil).Error())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "loud", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLoggerTo(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, slog.LevelInfo, "json"))

	slog.Debug("hidden")
	slog.Info("shown", "cards", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"cards":3`)

	assert.Error(t, SetupLoggerTo(&buf, slog.LevelInfo, "xml"))
}
