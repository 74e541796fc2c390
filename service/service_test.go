package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tunaaoguzhann/glyphgate/core"
	"github.com/tunaaoguzhann/glyphgate/signs"
	"github.com/tunaaoguzhann/glyphgate/store"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	body := m.sent[len(m.sent)-1].body
	i := strings.Index(body, "token=")
	require.GreaterOrEqual(t, i, 0)
	raw := strings.TrimSpace(body[i+len("token="):])
	tok, err := url.QueryUnescape(raw)
	require.NoError(t, err)
	return tok
}

type fixture struct {
	clock     *clock
	store     store.Store
	tokens    *core.TokenService
	mail      *fakeMailer
	accounts  *Accounts
	forum     *Forum
	analytics *Analytics
	admin     *Admin
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock: &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		store: store.NewMemoryStore(),
		mail:  &fakeMailer{},
	}
	var err error
	f.tokens, err = core.NewTokenService(core.TokenConfig{Secret: "test-secret-test-secret-test-secret", Now: f.clock.Now})
	require.NoError(t, err)
	dict, err := signs.Default()
	require.NoError(t, err)

	f.accounts, err = NewAccounts(AccountsConfig{
		Store:      f.store,
		Tokens:     f.tokens,
		Mailer:     f.mail,
		Signs:      dict,
		PublicURL:  "https://glyphgate.test/",
		BcryptCost: bcrypt.MinCost,
		Now:        f.clock.Now,
	})
	require.NoError(t, err)
	f.forum, err = NewForum(ForumConfig{Store: f.store, Now: f.clock.Now})
	require.NoError(t, err)
	f.analytics, err = NewAnalytics(AnalyticsConfig{Store: f.store, Now: f.clock.Now})
	require.NoError(t, err)
	f.admin, err = NewAdmin(AdminConfig{Store: f.store, Forum: f.forum, Analytics: f.analytics})
	require.NoError(t, err)
	return f
}

func (f *fixture) register(t *testing.T, email string) AuthResult {
	t.Helper()
	res, err := f.accounts.Register(context.Background(), RegisterInput{Email: email, Password: "password123", Name: "Scribe"})
	require.NoError(t, err)
	return res
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.register(t, " Scribe@Example.com ")
	assert.Equal(t, "scribe@example.com", res.User.Email)
	assert.False(t, res.User.Verified)
	require.NotNil(t, res.EmailSent)
	assert.True(t, *res.EmailSent)

	id, ok := f.tokens.Validate(res.Token)
	require.True(t, ok)
	assert.Equal(t, res.User.ID, id.SubjectID)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.accounts.Register(ctx, RegisterInput{Email: "scribe@example.com", Password: "password123"})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, "email already registered", err.Error())
	})

	t.Run("login", func(t *testing.T) {
		got, err := f.accounts.Login(ctx, "SCRIBE@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, got.User.ID)
		assert.Nil(t, got.EmailSent)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.accounts.Login(ctx, "scribe@example.com", "nope-nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.accounts.Login(ctx, "ghost@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]RegisterInput{
		"missing email":  {Password: "password123"},
		"bad email":      {Email: "not-an-email", Password: "password123"},
		"short password": {Email: "a@example.com", Password: "short"},
		"long password":  {Email: "a@example.com", Password: strings.Repeat("p", MaxPasswordLen+1)},
		"long name":      {Email: "a@example.com", Password: "password123", Name: strings.Repeat("n", MaxNameLen+1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.accounts.Register(ctx, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegisterEmailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("smtp down")

	res := f.register(t, "quiet@example.com")
	require.NotNil(t, res.EmailSent)
	assert.False(t, *res.EmailSent)
	assert.NotEmpty(t, res.Token)
}

func TestVerifyEmailIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "v@example.com")
	tok := f.mail.lastToken(t)

	u, err := f.accounts.VerifyEmail(ctx, tok)
	require.NoError(t, err)
	assert.True(t, u.Verified)

	_, err = f.accounts.VerifyEmail(ctx, tok)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.accounts.ResendVerification(ctx, "v@example.com")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVerifyEmailRejectsSessionAndExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "late@example.com")

	_, err := f.accounts.VerifyEmail(ctx, res.Token)
	assert.ErrorIs(t, err, ErrValidation)

	tok := f.mail.lastToken(t)
	f.clock.Advance(25 * time.Hour)
	_, err = f.accounts.VerifyEmail(ctx, tok)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResendReplacesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "r@example.com")
	first := f.mail.lastToken(t)

	sent, err := f.accounts.ResendVerification(ctx, "r@example.com")
	require.NoError(t, err)
	assert.True(t, sent)
	second := f.mail.lastToken(t)
	require.NotEqual(t, first, second)

	_, err = f.accounts.VerifyEmail(ctx, first)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.accounts.VerifyEmail(ctx, second)
	assert.NoError(t, err)

	sent, err = f.accounts.ResendVerification(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestFavorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "fav@example.com")
	sub := res.User.ID

	favs, err := f.accounts.AddFavorite(ctx, sub, "s34")
	require.NoError(t, err)
	assert.Equal(t, []string{"S34"}, favs)

	favs, err = f.accounts.AddFavorite(ctx, sub, "S34")
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	_, err = f.accounts.AddFavorite(ctx, sub, "Z999")
	assert.ErrorIs(t, err, ErrValidation)

	list, err := f.accounts.Favorites(ctx, sub)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ꜥnḫ", list[0].Transliteration)

	favs, err = f.accounts.RemoveFavorite(ctx, sub, "s34")
	require.NoError(t, err)
	assert.Empty(t, favs)

	_, err = f.accounts.Favorites(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.accounts.Me(ctx, "deleted-user")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestForumOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com").User.ID
	bob := f.register(t, "bob@example.com").User.ID

	p, err := f.forum.Create(ctx, alice, PostInput{Title: "Reading cartouches", Body: "Where to start?"})
	require.NoError(t, err)
	assert.Equal(t, "Scribe", p.AuthorName)

	replied, err := f.forum.Reply(ctx, bob, p.ID, "Start with the uniliterals.")
	require.NoError(t, err)
	require.Len(t, replied.Replies, 1)
	assert.Equal(t, bob, replied.Replies[0].AuthorID)

	err = f.forum.Delete(ctx, bob, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.forum.Delete(ctx, alice, p.ID))
	_, err = f.forum.Get(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.forum.Create(ctx, alice, PostInput{Title: " ", Body: "x"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.forum.Reply(ctx, alice, "missing", "hi")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestForumPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "writer@example.com").User.ID

	var ids []string
	for i := 0; i < 5; i++ {
		p, err := f.forum.Create(ctx, author, PostInput{Title: "post", Body: "body"})
		require.NoError(t, err)
		ids = append(ids, p.ID)
		f.clock.Advance(time.Minute)
	}

	first, err := f.forum.List(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, first.Posts, 2)
	require.NotNil(t, first.Next)
	assert.Equal(t, ids[4], first.Posts[0].ID)
	assert.Equal(t, ids[3], first.Posts[1].ID)

	second, err := f.forum.List(ctx, first.Next, 2)
	require.NoError(t, err)
	require.Len(t, second.Posts, 2)
	assert.Equal(t, ids[2], second.Posts[0].ID)

	last, err := f.forum.List(ctx, second.Next, 2)
	require.NoError(t, err)
	require.Len(t, last.Posts, 1)
	assert.Equal(t, ids[0], last.Posts[0].ID)
	assert.Nil(t, last.Next)
}

func TestAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.analytics.Record(ctx, Event{Type: "bogus"})
	assert.ErrorIs(t, err, ErrValidation)

	for _, q := range []string{"ankh", "ANKH", "ḥtp", "htp", "htp", "owl"} {
		f.analytics.Track(ctx, Event{Type: EventSearch, Query: q})
	}
	_, err = f.analytics.Record(ctx, Event{Type: EventPageView, Path: "/signs"})
	require.NoError(t, err)

	sum, err := f.admin.Analytics(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 7, sum.Total)
	assert.Equal(t, 6, sum.ByType[EventSearch])
	assert.Equal(t, 1, sum.ByType[EventPageView])
	assert.Equal(t, []QueryCount{{Query: "htp", Count: 3}, {Query: "ankh", Count: 2}}, sum.TopQueries)
}

func TestAnalyticsTrackSwallowsUnavailableStore(t *testing.T) {
	a, err := NewAnalytics(AnalyticsConfig{Store: store.NewLazy(nil, nil)})
	require.NoError(t, err)
	a.Track(context.Background(), Event{Type: EventSearch, Query: "x"})

	_, err = a.Record(context.Background(), Event{Type: EventSearch})
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestAdminUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.register(t, "first@example.com")
	f.clock.Advance(time.Second)
	f.register(t, "second@example.com")

	users, err := f.admin.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "first@example.com", users[0].Email)

	require.NoError(t, f.admin.DeleteUser(ctx, first.User.ID))
	assert.ErrorIs(t, f.admin.DeleteUser(ctx, first.User.ID), store.ErrNotFound)

	// Email is free again and the old session no longer resolves.
	_, err = f.accounts.Me(ctx, first.User.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	f.register(t, "first@example.com")
}

func TestAdminDeletePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author@example.com").User.ID
	p, err := f.forum.Create(ctx, author, PostInput{Title: "t", Body: "b"})
	require.NoError(t, err)

	require.NoError(t, f.admin.DeletePost(ctx, p.ID))
	assert.ErrorIs(t, f.admin.DeletePost(ctx, p.ID), store.ErrNotFound)
}
