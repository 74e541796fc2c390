package core

import (
	"errors"
	"fmt"
	"time"
)

// Purpose tags a token with the flow it was minted for. Session tokens carry
// no purpose.
type Purpose string

const (
	PurposeSession           Purpose = ""
	PurposeEmailVerification Purpose = "email-verification"
)

// Identity is the decoded payload of a valid token.
type Identity struct {
	SubjectID string    `json:"subject_id"`
	Email     string    `json:"email"`
	Purpose   Purpose   `json:"purpose,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InvalidReason is an internal, non user-facing classification of a token
// rejection. It is only ever logged or counted.
type InvalidReason string

const (
	ReasonNone         InvalidReason = ""
	ReasonMalformed    InvalidReason = "malformed"
	ReasonBadSignature InvalidReason = "bad_signature"
	ReasonExpired      InvalidReason = "expired"
	ReasonWrongPurpose InvalidReason = "wrong_purpose"
)

// Err wraps ErrInvalidToken with the reason; nil for ReasonNone.
func (r InvalidReason) Err() error {
	if r == ReasonNone {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidToken, string(r))
}

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrWeakSecret        = errors.New("signing secret is required")
	ErrUnknownBackend    = errors.New("unknown rate limiter backend")
)
