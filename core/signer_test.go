package core

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "signer-test-secret-signer-test-secret"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTokens(t *testing.T, clock *fakeClock, strict bool) *TokenService {
	t.Helper()
	s, err := NewTokenService(TokenConfig{Secret: testSecret, Now: clock.Now, StrictSessionPurpose: strict})
	require.NoError(t, err)
	return s
}

func TestIssueValidateRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTokens(t, clock, false)

	for _, tc := range []struct{ sub, email string }{
		{"u-1", "scribe@example.com"},
		{"0b3e0f5a-6b5c-4e0e-9d2b-6f1a7c2d9e11", ""},
		{"ünïcode", "ꜥnḫ@example.com"},
	} {
		tok, err := s.Issue(tc.sub, tc.email)
		require.NoError(t, err)

		id, ok := s.Validate(tok)
		require.True(t, ok)
		assert.Equal(t, tc.sub, id.SubjectID)
		assert.Equal(t, tc.email, id.Email)
		assert.Equal(t, PurposeSession, id.Purpose)
		assert.True(t, clock.t.Add(DefaultSessionTTL).Equal(id.ExpiresAt))
	}

	_, err := s.Issue("", "x@example.com")
	assert.Error(t, err)
}

func TestSessionExpiresAfterThirtyDays(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTokens(t, clock, false)
	tok, err := s.Issue("u-1", "a@example.com")
	require.NoError(t, err)

	clock.Advance(29 * 24 * time.Hour)
	_, ok := s.Validate(tok)
	assert.True(t, ok)

	clock.Advance(2 * 24 * time.Hour)
	_, ok = s.Validate(tok)
	assert.False(t, ok)
	_, reason := s.Inspect(tok)
	assert.Equal(t, ReasonExpired, reason)
}

func TestVerificationPurpose(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTokens(t, clock, false)

	vt, err := s.IssueVerification("a@example.com")
	require.NoError(t, err)
	st, err := s.Issue("u-1", "a@example.com")
	require.NoError(t, err)

	id, ok := s.ValidateVerification(vt)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", id.Email)
	assert.Empty(t, id.SubjectID)

	_, ok = s.ValidateVerification(st)
	assert.False(t, ok)
	assert.Equal(t, ReasonWrongPurpose, s.InspectVerification(st))

	// Session validation does not look at purpose unless strict.
	_, ok = s.Validate(vt)
	assert.True(t, ok)
	_, ok = newTokens(t, clock, true).Validate(vt)
	assert.False(t, ok)

	clock.Advance(24*time.Hour + time.Second)
	_, ok = s.ValidateVerification(vt)
	assert.False(t, ok)
	assert.Equal(t, ReasonExpired, s.InspectVerification(vt))

	_, err = s.IssueVerification("")
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTokens(t, clock, false)
	tok, err := s.Issue("u-1", "a@example.com")
	require.NoError(t, err)

	other, err := NewTokenService(TokenConfig{Secret: "a-completely-different-secret-value", Now: clock.Now})
	require.NoError(t, err)
	_, ok := other.Validate(tok)
	assert.False(t, ok)
	_, reason := other.Inspect(tok)
	assert.Equal(t, ReasonBadSignature, reason)

	for _, raw := range []string{"", "not-a-token", "a.b.c", tok[:len(tok)-5]} {
		_, ok := s.Validate(raw)
		assert.False(t, ok, raw)
	}
	_, reason = s.Inspect("not-a-token")
	assert.Equal(t, ReasonMalformed, reason)

	// alg=none and other algorithms are refused.
	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u-1",
		"exp": clock.t.Add(time.Hour).Unix(),
		"iat": clock.t.Unix(),
	})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok = s.Validate(raw)
	assert.False(t, ok)

	// Tokens without an expiry are refused.
	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1"})
	raw, err = noExp.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, ok = s.Validate(raw)
	assert.False(t, ok)
}

func TestTokensAreUnique(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTokens(t, clock, false)
	a, err := s.IssueVerification("a@example.com")
	require.NoError(t, err)
	b, err := s.IssueVerification("a@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, strings.Count(a, "."))
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(TokenConfig{})
	assert.ErrorIs(t, err, ErrWeakSecret)
}
