package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tunaaoguzhann/glyphgate/core"
	"github.com/tunaaoguzhann/glyphgate/mailer"
	"github.com/tunaaoguzhann/glyphgate/signs"
	"github.com/tunaaoguzhann/glyphgate/store"
)

const (
	MinPasswordLen = 8
	// bcrypt ignores input past 72 bytes.
	MaxPasswordLen = 72
	MaxNameLen     = 64
)

type AccountsConfig struct {
	Store      store.Store
	Tokens     *core.TokenService
	Mailer     mailer.Sender
	Signs      *signs.Dictionary
	PublicURL  string
	BcryptCost int
	Now        func() time.Time
	Logger     *zap.Logger
}

// Accounts owns registration, login, email verification and the caller's
// own profile.
type Accounts struct {
	store     store.Store
	tokens    *core.TokenService
	mailer    mailer.Sender
	signs     *signs.Dictionary
	publicURL string
	cost      int
	now       func() time.Time
	log       *zap.Logger

	// serializes read-modify-write of a user document within this process
	mu sync.Mutex
}

func NewAccounts(cfg AccountsConfig) (*Accounts, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sender := cfg.Mailer
	if sender == nil {
		sender = mailer.NewLogSender(log)
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Accounts{
		store:     cfg.Store,
		tokens:    cfg.Tokens,
		mailer:    sender,
		signs:     cfg.Signs,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		cost:      cost,
		now:       nowFn,
		log:       log.With(zap.String("component", "accounts")),
	}, nil
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type AuthResult struct {
	User  PublicUser `json:"user"`
	Token string     `json:"token"`
	// EmailSent reports whether the verification email went out. A failed
	// send does not fail registration.
	EmailSent *bool `json:"emailSent,omitempty"`
}

func (a *Accounts) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email := normalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return AuthResult{}, err
	}
	if len(in.Password) < MinPasswordLen {
		return AuthResult{}, invalid(fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	if len(in.Password) > MaxPasswordLen {
		return AuthResult{}, invalid(fmt.Sprintf("password must be at most %d bytes", MaxPasswordLen))
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	if len(name) > MaxNameLen {
		return AuthResult{}, invalid(fmt.Sprintf("name must be at most %d characters", MaxNameLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.cost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}
	verification, err := a.tokens.IssueVerification(email)
	if err != nil {
		return AuthResult{}, err
	}

	u := User{
		ID:                uuid.NewString(),
		Email:             email,
		Name:              name,
		PasswordHash:      string(hash),
		VerificationToken: verification,
		Favorites:         []string{},
		CreatedAt:         a.now().UTC(),
	}

	if err := a.store.Create(ctx, store.UserEmails, email, emailIndex{UserID: u.ID}); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return AuthResult{}, invalid("email already registered")
		}
		return AuthResult{}, err
	}
	if err := a.store.Create(ctx, store.Users, u.ID, u); err != nil {
		if delErr := a.store.Delete(ctx, store.UserEmails, email); delErr != nil {
			a.log.Error("email index rollback failed", zap.String("user_id", u.ID), zap.Error(delErr))
		}
		return AuthResult{}, err
	}

	session, err := a.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return AuthResult{}, err
	}
	sent := a.sendVerification(ctx, u.Email, verification)
	a.log.Info("user registered", zap.String("user_id", u.ID), zap.Bool("email_sent", sent))
	return AuthResult{User: u.Public(), Token: session, EmailSent: &sent}, nil
}

func (a *Accounts) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := a.byEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	session, err := a.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u.Public(), Token: session}, nil
}

// VerifyEmail consumes a verification token. The token must still be the
// one stored on the user; it is cleared on success so it works only once.
func (a *Accounts) VerifyEmail(ctx context.Context, raw string) (PublicUser, error) {
	id, ok := a.tokens.ValidateVerification(raw)
	if !ok {
		a.log.Debug("verification token rejected", zap.String("reason", string(a.tokens.InspectVerification(raw))))
		return PublicUser{}, invalid("invalid or expired verification token")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	u, err := a.byEmail(ctx, id.Email)
	if errors.Is(err, store.ErrNotFound) {
		return PublicUser{}, invalid("invalid or expired verification token")
	}
	if err != nil {
		return PublicUser{}, err
	}
	if u.VerificationToken == "" || u.VerificationToken != raw {
		return PublicUser{}, invalid("invalid or expired verification token")
	}
	u.Verified = true
	u.VerificationToken = ""
	if err := a.store.Put(ctx, store.Users, u.ID, u); err != nil {
		return PublicUser{}, err
	}
	return u.Public(), nil
}

// ResendVerification mints a fresh verification token, replacing the
// previous one. Unknown addresses report emailSent=false without an error.
func (a *Accounts) ResendVerification(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return false, err
	}

	u, tok, err := a.rotateVerification(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.sendVerification(ctx, u.Email, tok), nil
}

func (a *Accounts) rotateVerification(ctx context.Context, email string) (User, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, err := a.byEmail(ctx, email)
	if err != nil {
		return User{}, "", err
	}
	if u.Verified {
		return User{}, "", invalid("email already verified")
	}
	tok, err := a.tokens.IssueVerification(u.Email)
	if err != nil {
		return User{}, "", err
	}
	u.VerificationToken = tok
	if err := a.store.Put(ctx, store.Users, u.ID, u); err != nil {
		return User{}, "", err
	}
	return u, tok, nil
}

// Me returns the caller's profile.
func (a *Accounts) Me(ctx context.Context, subjectID string) (PublicUser, error) {
	u, err := a.user(ctx, subjectID)
	if err != nil {
		return PublicUser{}, err
	}
	return u.Public(), nil
}

func (a *Accounts) Favorites(ctx context.Context, subjectID string) ([]signs.Sign, error) {
	u, err := a.user(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	out := make([]signs.Sign, 0, len(u.Favorites))
	for _, code := range u.Favorites {
		if a.signs == nil {
			out = append(out, signs.Sign{Code: code})
			continue
		}
		if s, ok := a.signs.Get(code); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (a *Accounts) AddFavorite(ctx context.Context, subjectID, code string) ([]string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, invalid("sign code is required")
	}
	if a.signs != nil {
		s, ok := a.signs.Get(code)
		if !ok {
			return nil, invalid("unknown sign code")
		}
		code = s.Code
	}
	return a.updateFavorites(ctx, subjectID, func(favs []string) []string {
		if slices.Contains(favs, code) {
			return favs
		}
		return append(favs, code)
	})
}

func (a *Accounts) RemoveFavorite(ctx context.Context, subjectID, code string) ([]string, error) {
	return a.updateFavorites(ctx, subjectID, func(favs []string) []string {
		return slices.DeleteFunc(favs, func(c string) bool { return strings.EqualFold(c, code) })
	})
}

func (a *Accounts) updateFavorites(ctx context.Context, subjectID string, fn func([]string) []string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, err := a.user(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	u.Favorites = fn(u.Favorites)
	if u.Favorites == nil {
		u.Favorites = []string{}
	}
	if err := a.store.Put(ctx, store.Users, u.ID, u); err != nil {
		return nil, err
	}
	return u.Favorites, nil
}

// user loads the caller. A token whose subject no longer exists (or a
// verification token, which has none) is treated as unauthenticated.
func (a *Accounts) user(ctx context.Context, subjectID string) (User, error) {
	return lookupUser(ctx, a.store, subjectID)
}

func (a *Accounts) byEmail(ctx context.Context, email string) (User, error) {
	idx, err := store.GetAs[emailIndex](ctx, a.store, store.UserEmails, email)
	if err != nil {
		return User{}, err
	}
	return store.GetAs[User](ctx, a.store, store.Users, idx.UserID)
}

func (a *Accounts) sendVerification(ctx context.Context, email, token string) bool {
	link := a.publicURL + "/api/auth/verify?token=" + url.QueryEscape(token)
	body := "Welcome to Glyphgate.\n\n" +
		"Confirm your email address by opening the link below.\n\n" +
		link + "\n"
	if err := a.mailer.Send(ctx, email, "Verify your email", body); err != nil {
		a.log.Warn("verification email not sent", zap.Error(err))
		return false
	}
	return true
}

func lookupUser(ctx context.Context, s store.Store, subjectID string) (User, error) {
	if subjectID == "" {
		return User{}, ErrUnauthenticated
	}
	u, err := store.GetAs[User](ctx, s, store.Users, subjectID)
	if errors.Is(err, store.ErrNotFound) {
		return User{}, ErrUnauthenticated
	}
	return u, err
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email is invalid")
	}
	return nil
}
