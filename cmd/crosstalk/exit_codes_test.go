package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"crosstalk/internal/exchange"
)

func TestExitCodeForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitCodeSuccess},
		{"timeout", &exchange.TimeoutError{Target: "alpha", Timeout: time.Second}, exitCodeTimeout},
		{"not found", &exchange.NotFoundError{Target: "alpha"}, exitCodeNotFound},
		{"transmit", &exchange.TransmitError{Target: "alpha", Err: errors.New("boom")}, exitCodeTransmit},
		{"wrapped timeout", fmt.Errorf("ask: %w", &exchange.TimeoutError{Target: "alpha"}), exitCodeTimeout},
		{"unclassified", errors.New("boom"), exitCodeTransmit},
	}
	for _, tc := range cases {
		if got := exitCodeForError(tc.err); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}
