package main

import (
	"errors"

	"crosstalk/internal/exchange"
)

const (
	exitCodeSuccess  = 0
	exitCodeUsage    = 1
	exitCodeNotFound = 2
	exitCodeTransmit = 3
	exitCodeTimeout  = 4
)

// exitCodeForError maps exchange failures onto the documented exit codes.
// Anything unclassified counts as a transmit/IO failure.
func exitCodeForError(err error) int {
	if err == nil {
		return exitCodeSuccess
	}
	var timeout *exchange.TimeoutError
	if errors.As(err, &timeout) {
		return exitCodeTimeout
	}
	var notFound *exchange.NotFoundError
	if errors.As(err, &notFound) {
		return exitCodeNotFound
	}
	return exitCodeTransmit
}
