// Package engine serializes cart mutations per session, keeps the derived
// summary fields consistent with the line-item list, and reconciles
// upstream outcomes with the stored session state.
package engine

import (
	"context"
	"log"
	"time"

	"github.com/simplur/cart-events-service/internal/domain"
	"github.com/simplur/cart-events-service/internal/history"
	"github.com/simplur/cart-events-service/internal/store"
	"github.com/simplur/cart-events-service/internal/upstream"
)

// EventPublisher receives the terminal outcome event of every mutation.
type EventPublisher interface {
	Publish(sessionID string, event domain.Event)
}

// ActionRecorder is the optional per-session observability log.
type ActionRecorder interface {
	Record(ctx context.Context, sessionID string, entry history.Entry) error
}

// AddItemInput carries the caller's display fields for the item being added.
// Transactional fields (cart-line id, price, tax class) come from upstream.
type AddItemInput struct {
	ProductID int64
	Quantity  int
	Name      string
	Slug      string
	Type      domain.ItemType
	Variation *domain.Variation
}

type AddIntent struct {
	SessionID       string
	SessionToken    string
	PaymentIntentID string
	Item            AddItemInput
}

type RemoveIntent struct {
	SessionID       string
	SessionToken    string
	PaymentIntentID string
	CartLineID      string
}

type ClearIntent struct {
	SessionID    string
	SessionToken string
}

func New(up upstream.Client, st store.Store, pub EventPublisher, recorder ActionRecorder) *Engine {
	return &Engine{
		upstream:  up,
		store:     st,
		publisher: pub,
		history:   recorder,
		locks:     newSessionLocks(),
	}
}

type Engine struct {
	upstream  upstream.Client
	store     store.Store
	publisher EventPublisher
	history   ActionRecorder
	locks     *sessionLocks
}

// record appends to the session's action history. Best-effort: failures are
// logged and never affect the mutation outcome.
func (e *Engine) record(ctx context.Context, sessionID, action, detail string) {
	if e.history == nil {
		return
	}
	if err := e.history.Record(ctx, sessionID, history.Entry{Action: action, Detail: detail}); err != nil {
		log.Printf("history record error for session %s: %v", sessionID, err)
	}
}

// clearedSummary is the zeroed cart broadcast after a cart empties out.
func clearedSummary() *domain.CartSummary {
	return &domain.CartSummary{Coupons: []domain.Coupon{}}
}

// formatCoupons reshapes upstream coupons into the client-facing pairs.
func formatCoupons(applied []upstream.AppliedCoupon) []domain.Coupon {
	coupons := make([]domain.Coupon, 0, len(applied))
	for _, c := range applied {
		coupons = append(coupons, domain.Coupon{Code: c.Code, Amount: c.DiscountAmount})
	}
	return coupons
}

// sessionEntries builds the atomic write covering every session key. The
// checkout entry resets the shipping cache in the same transaction that
// changes the item list.
func sessionEntries(sessionID string, summary domain.CartSummary, items []domain.CartLineItem, checkout domain.CheckoutSession, ttl time.Duration, hasTTL bool) []store.Entry {
	return []store.Entry{
		{Key: store.CartKey(sessionID), Value: summary, TTL: ttl, HasTTL: hasTTL},
		{Key: store.CartItemsKey(sessionID), Value: items, TTL: ttl, HasTTL: hasTTL},
		{Key: store.CartItemCountKey(sessionID), Value: len(items), TTL: ttl, HasTTL: hasTTL},
		{Key: store.CheckoutKey(sessionID), Value: checkout, TTL: ttl, HasTTL: hasTTL},
	}
}
