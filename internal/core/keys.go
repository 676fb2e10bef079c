package core

import (
	"context"
	"time"
)

// APIKey is a credential allowed to call the API.
type APIKey struct {
	ID        int64     `db:"id" json:"-" yaml:"-"`
	Key       string    `db:"key" json:"key" yaml:"key"`
	Name      string    `db:"name" json:"name" yaml:"name"`
	IsAdmin   bool      `db:"is_admin" json:"isAdmin" yaml:"isAdmin"`
	CreatedAt time.Time `db:"created_at" json:"createdAt" yaml:"createdAt"`
	// CreatedBy is the key that created this one, kept for auditing.
	CreatedBy *string `db:"created_by" json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
}

// KeyStore persists API keys.
//
//go:generate mockgen -destination=../../mocks/mock_key_store.go -package=mocks . KeyStore
type KeyStore interface {
	CreateKey(ctx context.Context, name string, isAdmin bool, createdBy string) (*APIKey, error)
	// FindByKey returns ErrKeyNotFound when the key does not exist.
	FindByKey(ctx context.Context, key string) (*APIKey, error)
	ListKeys(ctx context.Context) ([]*APIKey, error)
	// DeleteKey reports whether a key was removed.
	DeleteKey(ctx context.Context, key string) (bool, error)
	// EnsureMasterKey inserts key as an admin key unless it already exists and
	// reports whether it was created.
	EnsureMasterKey(ctx context.Context, key string) (bool, error)
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	KeyName string
	Key     string
	IsAdmin bool
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying the caller.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller attached by the auth gate, if any.
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(*Caller)
	return c, ok
}
