package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"
)

// timeoutErr mimics the error net/http returns when Client.Timeout fires.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts}
}

func TestPolicyExhaustsOnTimeouts(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(int) error {
		calls++
		return &url.Error{Op: "Get", URL: "https://transact.ti.com", Err: timeoutErr{}}
	})

	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want ExhaustedError", err)
	}
	if exhausted.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", exhausted.Attempts)
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Error("exhausted error should unwrap to the timeout")
	}
}

func TestPolicyTransientErrorTypes(t *testing.T) {
	failures := []error{
		timeoutErr{},
		Retryable(fmt.Errorf("status 408")),
		Retryable(fmt.Errorf("status 500")),
		&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
		io.ErrUnexpectedEOF,
	}

	calls := 0
	err := fastPolicy(len(failures)+1).Do(context.Background(), func(attempt int) error {
		calls++
		if attempt <= len(failures) {
			return failures[attempt-1]
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() = %v, want success on last attempt", err)
	}
	if calls != len(failures)+1 {
		t.Errorf("calls = %d, want %d", calls, len(failures)+1)
	}
}

func TestPolicyDoesNotRetryPermanentErrors(t *testing.T) {
	permanent := errors.New("malformed response body")
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(int) error {
		calls++
		return permanent
	})
	if err != permanent {
		t.Errorf("err = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPolicyAttemptNumbers(t *testing.T) {
	var seen []int
	_ = fastPolicy(3).Do(context.Background(), func(attempt int) error {
		seen = append(seen, attempt)
		return Retryable(errors.New("again"))
	})
	want := []int{1, 2, 3}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Errorf("attempts = %v, want %v", seen, want)
	}
}

func TestPolicyZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Policy{}.Do(context.Background(), func(int) error {
		calls++
		return Retryable(errors.New("again"))
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPolicyContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{Attempts: 3, BaseDelay: time.Hour}
	err := p.Do(ctx, func(int) error {
		return Retryable(errors.New("again"))
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	tests := []struct {
		failed int
		want   time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.failed); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.failed, got, tt.want)
		}
	}

	if got := (Policy{}).Delay(3); got != 0 {
		t.Errorf("zero policy Delay = %v, want 0", got)
	}
}

func TestPolicyDelayJitterBounds(t *testing.T) {
	p := Policy{BaseDelay: time.Second, Jitter: 0.5}
	for range 100 {
		d := p.Delay(1)
		if d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Fatalf("Delay(1) = %v, outside jitter bounds", d)
		}
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"retryable", Retryable(errors.New("503")), true},
		{"wrapped retryable", fmt.Errorf("lookup: %w", Retryable(errors.New("503"))), true},
		{"timeout", timeoutErr{}, true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
