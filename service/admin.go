package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/tunaaoguzhann/glyphgate/store"
)

type AdminConfig struct {
	Store     store.Store
	Forum     *Forum
	Analytics *Analytics
	Logger    *zap.Logger
}

// Admin is the back-office. Callers are authenticated by the gate's static
// admin credential, so nothing here checks identity.
type Admin struct {
	store     store.Store
	forum     *Forum
	analytics *Analytics
	log       *zap.Logger
}

func NewAdmin(cfg AdminConfig) (*Admin, error) {
	if cfg.Store == nil || cfg.Forum == nil || cfg.Analytics == nil {
		return nil, fmt.Errorf("store, forum and analytics are required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Admin{
		store:     cfg.Store,
		forum:     cfg.Forum,
		analytics: cfg.Analytics,
		log:       log.With(zap.String("component", "admin")),
	}, nil
}

// Users lists every account, oldest first, without credentials.
func (a *Admin) Users(ctx context.Context) ([]PublicUser, error) {
	users, err := store.ListAs[User](ctx, a.store, store.Users, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// DeleteUser removes the account and frees its email. Outstanding session
// tokens stop working because the subject no longer resolves.
func (a *Admin) DeleteUser(ctx context.Context, id string) error {
	u, err := store.GetAs[User](ctx, a.store, store.Users, id)
	if err != nil {
		return err
	}
	if err := a.store.Delete(ctx, store.Users, id); err != nil {
		return err
	}
	if err := a.store.Delete(ctx, store.UserEmails, u.Email); err != nil && !errors.Is(err, store.ErrNotFound) {
		a.log.Error("email index cleanup failed", zap.String("user_id", id), zap.Error(err))
	}
	a.log.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (a *Admin) DeletePost(ctx context.Context, id string) error {
	if err := a.forum.Remove(ctx, id); err != nil {
		return err
	}
	a.log.Info("post removed", zap.String("post_id", id))
	return nil
}

func (a *Admin) Analytics(ctx context.Context, topN int) (Summary, error) {
	return a.analytics.Summary(ctx, topN)
}
