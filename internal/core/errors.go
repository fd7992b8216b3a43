package core

import "errors"

// Failure conditions surfaced by the chat pipeline. Handlers translate these
// to HTTP statuses; the raw provider/store detail stays in the server logs.
var (
	// ErrRateLimited signals provider backpressure on the generation call.
	ErrRateLimited = errors.New("generation provider rate limited")

	// ErrModelUnavailable covers every other generation failure, including
	// an expired call deadline.
	ErrModelUnavailable = errors.New("generation provider unavailable")
)
