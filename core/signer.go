package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultSessionTTL      = 30 * 24 * time.Hour
	DefaultVerificationTTL = 24 * time.Hour
)

type claims struct {
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret          string
	SessionTTL      time.Duration
	VerificationTTL time.Duration
	Now             func() time.Time

	// StrictSessionPurpose makes Validate reject purpose-tagged tokens.
	// Off by default: a verification token is accepted as a bearer token.
	StrictSessionPurpose bool
}

// TokenService mints and verifies HS256 bearer tokens without server-side
// session storage.
type TokenService struct {
	secret          []byte
	sessionTTL      time.Duration
	verificationTTL time.Duration
	now             func() time.Time
	strict          bool
	parser          *jwt.Parser
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, ErrWeakSecret
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	verificationTTL := cfg.VerificationTTL
	if verificationTTL <= 0 {
		verificationTTL = DefaultVerificationTTL
	}
	return &TokenService{
		secret:          []byte(cfg.Secret),
		sessionTTL:      sessionTTL,
		verificationTTL: verificationTTL,
		now:             nowFn,
		strict:          cfg.StrictSessionPurpose,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(nowFn),
		),
	}, nil
}

// Issue produces a session token for the subject.
func (s *TokenService) Issue(subjectID, email string) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("subject id is required")
	}
	return s.sign(subjectID, email, PurposeSession, s.sessionTTL)
}

// IssueVerification produces an email-verification token. Single use is the
// caller's concern: it must clear its stored copy once consumed.
func (s *TokenService) IssueVerification(email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	return s.sign("", email, PurposeEmailVerification, s.verificationTTL)
}

func (s *TokenService) sign(subjectID, email string, purpose Purpose, ttl time.Duration) (string, error) {
	now := s.now()
	c := claims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Validate checks signature and expiry of a bearer token. Every failure
// collapses to ok == false.
func (s *TokenService) Validate(raw string) (Identity, bool) {
	id, reason := s.Inspect(raw)
	if reason != ReasonNone {
		return Identity{}, false
	}
	if s.strict && id.Purpose != PurposeSession {
		return Identity{}, false
	}
	return id, true
}

// ValidateVerification is Validate plus an exact purpose match on
// email-verification.
func (s *TokenService) ValidateVerification(raw string) (Identity, bool) {
	id, reason := s.Inspect(raw)
	if reason != ReasonNone {
		return Identity{}, false
	}
	if id.Purpose != PurposeEmailVerification {
		return Identity{}, false
	}
	return id, true
}

// Inspect decodes a token and reports why it was rejected. The reason is for
// logs and metrics only and must not reach a response body.
func (s *TokenService) Inspect(raw string) (Identity, InvalidReason) {
	if raw == "" {
		return Identity{}, ReasonMalformed
	}
	var c claims
	_, err := s.parser.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return Identity{}, classify(err)
	}
	id := Identity{
		SubjectID: c.Subject,
		Email:     c.Email,
		Purpose:   c.Purpose,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id, ReasonNone
}

// InspectVerification is Inspect with the verification purpose check applied.
func (s *TokenService) InspectVerification(raw string) InvalidReason {
	id, reason := s.Inspect(raw)
	if reason != ReasonNone {
		return reason
	}
	if id.Purpose != PurposeEmailVerification {
		return ReasonWrongPurpose
	}
	return ReasonNone
}

func classify(err error) InvalidReason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonBadSignature
	default:
		return ReasonMalformed
	}
}
