package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tunaaoguzhann/glyphgate/store"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxTitleLen     = 200
	MaxBodyLen      = 10_000
)

type ForumConfig struct {
	Store  store.Store
	Now    func() time.Time
	Logger *zap.Logger
}

type Forum struct {
	store store.Store
	now   func() time.Time
	log   *zap.Logger
	mu    sync.Mutex
}

func NewForum(cfg ForumConfig) (*Forum, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Forum{
		store: cfg.Store,
		now:   nowFn,
		log:   log.With(zap.String("component", "forum")),
	}, nil
}

// PageKey is the position of the last post of a page. Posts are ordered
// newest first, ties broken by id.
type PageKey struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"id"`
}

type Page struct {
	Posts []Post   `json:"posts"`
	Next  *PageKey `json:"-"`
}

func before(a, b PageKey) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func keyOf(p Post) PageKey {
	return PageKey{CreatedAt: p.CreatedAt, ID: p.ID}
}

// List returns up to limit posts after the given key (nil for the first page).
func (f *Forum) List(ctx context.Context, after *PageKey, limit int) (Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	posts, err := store.ListAs(ctx, f.store, store.Posts, func(p Post) bool {
		return after == nil || before(*after, keyOf(p))
	})
	if err != nil {
		return Page{}, err
	}
	sort.Slice(posts, func(i, j int) bool { return before(keyOf(posts[i]), keyOf(posts[j])) })

	page := Page{Posts: posts}
	if len(posts) > limit {
		page.Posts = posts[:limit]
		next := keyOf(page.Posts[limit-1])
		page.Next = &next
	}
	if page.Posts == nil {
		page.Posts = []Post{}
	}
	return page, nil
}

func (f *Forum) Get(ctx context.Context, id string) (Post, error) {
	p, err := store.GetAs[Post](ctx, f.store, store.Posts, id)
	if err != nil {
		return Post{}, err
	}
	if p.Replies == nil {
		p.Replies = []Reply{}
	}
	return p, nil
}

type PostInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (f *Forum) Create(ctx context.Context, subjectID string, in PostInput) (Post, error) {
	author, err := lookupUser(ctx, f.store, subjectID)
	if err != nil {
		return Post{}, err
	}
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Body)
	if title == "" || body == "" {
		return Post{}, invalid("title and body are required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return Post{}, invalid(fmt.Sprintf("title must be at most %d characters", MaxTitleLen))
	}
	if utf8.RuneCountInString(body) > MaxBodyLen {
		return Post{}, invalid(fmt.Sprintf("body must be at most %d characters", MaxBodyLen))
	}
	now := f.now().UTC()
	p := Post{
		ID:         uuid.NewString(),
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Title:      title,
		Body:       body,
		Replies:    []Reply{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := f.store.Create(ctx, store.Posts, p.ID, p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (f *Forum) Reply(ctx context.Context, subjectID, postID, body string) (Post, error) {
	author, err := lookupUser(ctx, f.store, subjectID)
	if err != nil {
		return Post{}, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Post{}, invalid("body is required")
	}
	if utf8.RuneCountInString(body) > MaxBodyLen {
		return Post{}, invalid(fmt.Sprintf("body must be at most %d characters", MaxBodyLen))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.Get(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	now := f.now().UTC()
	p.Replies = append(p.Replies, Reply{
		ID:         uuid.NewString(),
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Body:       body,
		CreatedAt:  now,
	})
	p.UpdatedAt = now
	if err := f.store.Put(ctx, store.Posts, p.ID, p); err != nil {
		return Post{}, err
	}
	return p, nil
}

// Delete removes a post on behalf of its author. Anyone else gets
// ErrForbidden.
func (f *Forum) Delete(ctx context.Context, subjectID, postID string) error {
	if subjectID == "" {
		return ErrUnauthenticated
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := store.GetAs[Post](ctx, f.store, store.Posts, postID)
	if err != nil {
		return err
	}
	if p.AuthorID != subjectID {
		return forbidden("only the author can delete this post")
	}
	return f.store.Delete(ctx, store.Posts, postID)
}

// Remove deletes any post. Moderation only.
func (f *Forum) Remove(ctx context.Context, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.store.Delete(ctx, store.Posts, postID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		f.log.Error("post removal failed", zap.String("post_id", postID), zap.Error(err))
	}
	return err
}
