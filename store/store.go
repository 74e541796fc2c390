// Package store is the document database the handlers talk to: JSON
// documents addressed by collection name and id.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names used by the service layer.
const (
	Users      = "users"
	UserEmails = "user_emails"
	Posts      = "posts"
	Analytics  = "analytics"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document already exists")
	// ErrUnavailable means no database connection is available right now.
	ErrUnavailable = errors.New("database unavailable")
)

// Store is implemented by every backend. Documents are stored as JSON.
type Store interface {
	// Create inserts doc and fails with ErrConflict if id is taken.
	Create(ctx context.Context, collection, id string, doc any) error
	// Put inserts or replaces doc.
	Put(ctx context.Context, collection, id string, doc any) error
	// Get decodes the document into out.
	Get(ctx context.Context, collection, id string, out any) error
	Delete(ctx context.Context, collection, id string) error
	// List calls fn for every document in collection. Order is backend
	// specific.
	List(ctx context.Context, collection string, fn func(id string, raw []byte) error) error
	Ping(ctx context.Context) error
	Close() error
}

// GetAs is Get returning a typed value.
func GetAs[T any](ctx context.Context, s Store, collection, id string) (T, error) {
	var out T
	if err := s.Get(ctx, collection, id, &out); err != nil {
		return out, err
	}
	return out, nil
}

// ListAs decodes every document in collection that keep accepts. A nil keep
// accepts all.
func ListAs[T any](ctx context.Context, s Store, collection string, keep func(T) bool) ([]T, error) {
	var out []T
	err := s.List(ctx, collection, func(id string, raw []byte) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		if keep == nil || keep(v) {
			out = append(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func notFound(collection, id string) error {
	return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
}

func conflict(collection, id string) error {
	return fmt.Errorf("%s/%s: %w", collection, id, ErrConflict)
}
