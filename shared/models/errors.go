package models

import "errors"

// Application-wide standard errors
var (
	// Resource errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = errors.New("quiz session not found")

	// Request errors
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidInput = errors.New("invalid input data")

	// Quiz flow errors
	ErrInvalidTransition = errors.New("action not allowed in the current quiz state")
	ErrAlreadyAnswered   = errors.New("question already answered")

	// Configuration errors: a required credential is missing.
	ErrNotConfigured = errors.New("not configured")

	// Upstream collaborators (AI narrative, voice synthesis)
	ErrUpstream          = errors.New("upstream service failed")
	ErrMalformedResponse = errors.New("upstream returned a malformed response")

	ErrInternalServer = errors.New("internal server error")
)

// ConfigError names the missing setting. Its message is safe to return to
// clients, e.g. "GEMINI_API_KEY not configured".
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string { return e.Key + " not configured" }

// Is makes errors.Is(err, ErrNotConfigured) match.
func (e *ConfigError) Is(target error) bool { return target == ErrNotConfigured }
