package errors

import (
	"fmt"
	"testing"
)

func TestScoutError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeRequestTimeout, "request timed out")
	if err.Code != ErrCodeRequestTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeRequestTimeout, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeNetworkUnavailable, "connection refused")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeNetworkUnavailable) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeRequestTimeout) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("endpoint", "/chat").WithDetail("timeout", "30s")
	if detailed.Details["endpoint"] != "/chat" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	// Timeout and network errors must carry distinct codes so the
	// user-visible message can distinguish connectivity from a slow server.
	timeoutErr := RequestTimeout("/chat", "30s")
	if timeoutErr.Code != ErrCodeRequestTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeRequestTimeout, timeoutErr.Code)
	}

	netErr := NetworkUnavailable("/chat", fmt.Errorf("connection refused"))
	if netErr.Code != ErrCodeNetworkUnavailable {
		t.Errorf("expected code %s, got %s", ErrCodeNetworkUnavailable, netErr.Code)
	}
	if netErr.Code == timeoutErr.Code {
		t.Error("timeout and network errors must not share a code")
	}

	// Test JobFailed fallback reason
	err := JobFailed("J1", "")
	if err.Details["jobId"] != "J1" {
		t.Error("JobFailed should include jobId detail")
	}
	if err.Message == "document generation failed: " {
		t.Error("JobFailed should substitute a fallback reason")
	}

	// Test HardTimeout
	err = HardTimeout("J1", "2m0s")
	if err.Code != ErrCodeHardTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeHardTimeout, err.Code)
	}
	if err.Details["budget"] != "2m0s" {
		t.Error("HardTimeout should include budget detail")
	}
}
