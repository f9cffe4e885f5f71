// Package store wraps the external key-value service holding per-session
// cart state. The three (plus count) session keys always change together,
// so multi-key writes and deletes are atomic.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("key not found")
	ErrInvalidTTL = errors.New("non-positive ttl")
)

// Entry is one key in a multi-key atomic write. HasTTL false persists the
// key without expiry.
type Entry struct {
	Key    string
	Value  any
	TTL    time.Duration
	HasTTL bool
}

type Store interface {
	// Get unmarshals the value at key into dest, or returns ErrNotFound.
	Get(ctx context.Context, key string, dest any) error

	// Set writes one key, with expiry when hasTTL is set.
	Set(ctx context.Context, key string, value any, ttl time.Duration, hasTTL bool) error

	// SetMulti writes every entry in one transaction: all or none.
	SetMulti(ctx context.Context, entries []Entry) error

	// Del removes keys and reports how many actually existed.
	Del(ctx context.Context, keys ...string) (int64, error)
}

func CartKey(sessionID string) string {
	return "cart:" + sessionID
}

func CartItemsKey(sessionID string) string {
	return "cartItems:" + sessionID
}

func CartItemCountKey(sessionID string) string {
	return "cartItemCount:" + sessionID
}

func CheckoutKey(sessionID string) string {
	return "checkout:" + sessionID
}

// SessionKeys lists every key owned by one session, for clear-all deletes.
func SessionKeys(sessionID string) []string {
	return []string{
		CartKey(sessionID),
		CartItemsKey(sessionID),
		CartItemCountKey(sessionID),
		CheckoutKey(sessionID),
	}
}
