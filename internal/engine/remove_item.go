package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/simplur/cart-events-service/internal/domain"
	"github.com/simplur/cart-events-service/internal/expiry"
	"github.com/simplur/cart-events-service/internal/store"
	"github.com/simplur/cart-events-service/internal/tax"
	"github.com/simplur/cart-events-service/internal/upstream"
)

// removedItem identifies the cart line a remove outcome refers to.
type removedItem struct {
	CartID string `json:"cartId"`
}

// RemoveItem runs one remove-from-cart mutation. Upstream failure classes
// reconcile the local session explicitly: already-empty outcomes clear every
// session key, unknown failures keep the stored state fresh best-effort.
//
// Store errors on this path are returned to the caller without a broadcast.
func (e *Engine) RemoveItem(ctx context.Context, intent RemoveIntent) error {
	release := e.locks.acquire(intent.SessionID)
	defer release()

	var summary domain.CartSummary
	if err := e.store.Get(ctx, store.CartKey(intent.SessionID), &summary); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("removeCart: load summary for session %s: %v", intent.SessionID, err)
		return err
	}

	// Remove responses may not carry a fresh token, so the stored session's
	// payment intent and token stay authoritative where present.
	paymentIntentID := summary.PaymentIntentID
	if paymentIntentID == "" {
		paymentIntentID = intent.PaymentIntentID
	}

	resp, err := e.upstream.RemoveItem(ctx, upstream.RemoveItemRequest{
		SessionID:       intent.SessionID,
		SessionToken:    intent.SessionToken,
		PaymentIntentID: paymentIntentID,
		CartLineID:      intent.CartLineID,
	})
	if err != nil {
		return e.reconcileRemoveError(ctx, intent, summary, err)
	}

	if resp.ClearCart {
		return e.clearSession(ctx, intent.SessionID, "Cart is empty, session cleared", false)
	}

	var items []domain.CartLineItem
	if err := e.store.Get(ctx, store.CartItemsKey(intent.SessionID), &items); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("removeCart: load items for session %s: %v", intent.SessionID, err)
		return err
	}

	remaining := make([]domain.CartLineItem, 0, len(items))
	for _, item := range items {
		if item.CartID != intent.CartLineID {
			remaining = append(remaining, item)
		}
	}

	derived := tax.ComputeDerivedFields(resp.TotalDiscount, remaining)

	summary.Coupons = formatCoupons(resp.AppliedCoupons)
	summary.Subtotal = resp.Subtotal
	summary.TotalDiscount = resp.TotalDiscount
	summary.TaxValue = derived.TaxValue
	summary.HasProducts = derived.HasProducts
	summary.HasPricedClass = derived.HasPricedClass
	summary.HasFreeClass = derived.HasFreeClass
	if len(remaining) == 0 {
		summary.PaymentIntentID = ""
	}

	// TTL comes from the session's stored token, not the intent's.
	ttl, hasTTL, err := expiry.SessionTTL(summary.WooSessionID)
	if err != nil {
		e.publisher.Publish(intent.SessionID, domain.Event{
			Type:     domain.EventError,
			Message:  err.Error(),
			CartItem: removedItem{CartID: intent.CartLineID},
		})
		return fmt.Errorf("derive session ttl: %w", err)
	}

	checkout := domain.CheckoutSession{
		ShippingCharges: []domain.ShippingCharge{},
		HasProducts:     derived.HasProducts,
		HasPricedClass:  derived.HasPricedClass,
	}

	if err := e.store.SetMulti(ctx, sessionEntries(intent.SessionID, summary, remaining, checkout, ttl, hasTTL)); err != nil {
		log.Printf("removeCart: persist session %s: %v", intent.SessionID, err)
		return err
	}

	e.record(ctx, intent.SessionID, string(domain.EventRemoveCart), intent.CartLineID)
	e.publisher.Publish(intent.SessionID, domain.Event{
		Type:     domain.EventRemoveCart,
		Message:  "Item removed from cart",
		Cart:     &summary,
		CartItem: removedItem{CartID: intent.CartLineID},
	})
	return nil
}

// reconcileRemoveError maps a failed upstream remove onto local session
// state. Known already-empty classes clear the session outright; anything
// else refreshes the stored state best-effort and reports the failure.
func (e *Engine) reconcileRemoveError(ctx context.Context, intent RemoveIntent, summary domain.CartSummary, cause error) error {
	known := errors.Is(cause, upstream.ErrNoItemsToRemove) ||
		errors.Is(cause, upstream.ErrCartItemNotFound) ||
		errors.Is(cause, upstream.ErrCartEmpty)
	if known {
		log.Printf("removeCart: upstream reports empty cart for session %s, clearing: %v", intent.SessionID, cause)
		// The request still gets its terminal event even when the keys
		// were already gone locally.
		return e.clearSession(ctx, intent.SessionID, "Cart already empty, session cleared", true)
	}

	e.refreshStoredState(ctx, intent.SessionID, summary)
	e.publisher.Publish(intent.SessionID, domain.Event{
		Type:     domain.EventError,
		Message:  cause.Error(),
		CartItem: removedItem{CartID: intent.CartLineID},
	})
	return cause
}

// clearSession atomically drops every session key and broadcasts the zeroed
// cart summary. With always unset, the broadcast is skipped when no keys
// were actually present.
func (e *Engine) clearSession(ctx context.Context, sessionID, message string, always bool) error {
	deleted, err := e.store.Del(ctx, store.SessionKeys(sessionID)...)
	if err != nil {
		log.Printf("removeCart: clear session %s: %v", sessionID, err)
		return err
	}

	e.record(ctx, sessionID, string(domain.EventRemoveCart), "cleared")
	if always || deleted > 0 {
		e.publisher.Publish(sessionID, domain.Event{
			Type:    domain.EventRemoveCart,
			Message: message,
			Cart:    clearedSummary(),
		})
	}
	return nil
}

// refreshStoredState recomputes the derived fields from whatever is stored
// and rewrites the session keys so a failed upstream call never leaves the
// flags stale. Best-effort: errors are logged only.
func (e *Engine) refreshStoredState(ctx context.Context, sessionID string, summary domain.CartSummary) {
	if summary.WooSessionID == "" {
		return
	}

	var items []domain.CartLineItem
	if err := e.store.Get(ctx, store.CartItemsKey(sessionID), &items); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("removeCart: reconcile load items for session %s: %v", sessionID, err)
		}
		return
	}

	derived := tax.ComputeDerivedFields(summary.TotalDiscount, items)
	summary.TaxValue = derived.TaxValue
	summary.HasProducts = derived.HasProducts
	summary.HasPricedClass = derived.HasPricedClass
	summary.HasFreeClass = derived.HasFreeClass

	ttl, hasTTL, err := expiry.SessionTTL(summary.WooSessionID)
	if err != nil {
		log.Printf("removeCart: reconcile ttl for session %s: %v", sessionID, err)
		return
	}

	checkout := domain.CheckoutSession{
		ShippingCharges: []domain.ShippingCharge{},
		HasProducts:     derived.HasProducts,
		HasPricedClass:  derived.HasPricedClass,
	}
	if err := e.store.SetMulti(ctx, sessionEntries(sessionID, summary, items, checkout, ttl, hasTTL)); err != nil {
		log.Printf("removeCart: reconcile persist for session %s: %v", sessionID, err)
	}
}
