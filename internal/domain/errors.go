package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by services and handlers. Services wrap these with
// fmt.Errorf("...: %w", err) and handlers map them to status codes with errors.Is.
var (
	// ErrInvalidInput marks malformed or missing request fields and identifiers.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks an absent prompt, user or leaderboard row.
	ErrNotFound = errors.New("not found")

	// ErrInappropriateContent marks a drawing rejected by the safety gate.
	ErrInappropriateContent = errors.New("inappropriate content")

	// ErrRejectedName marks a player name refused by the name filter.
	ErrRejectedName = errors.New("rejected name")

	// ErrUpstreamUnavailable marks a failed or timed out vision/embedding call.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrPersistence marks a failed store operation.
	ErrPersistence = errors.New("persistence error")
)

// ErrNoDrawing marks a checkDrawing request without a drawing payload.
var ErrNoDrawing = fmt.Errorf("%w: no drawing data provided", ErrInvalidInput)
