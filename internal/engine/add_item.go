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

var ErrMissingSessionToken = errors.New("upstream add succeeded without a session token")

// failedItem identifies the item a failed add was attempting.
type failedItem struct {
	ID int64 `json:"id"`
}

// AddItem runs one add-to-cart mutation end to end: upstream call, derived
// field recomputation, atomic session write, terminal broadcast. The whole
// sequence holds the session's lock so concurrent adds cannot drop each
// other's list updates.
func (e *Engine) AddItem(ctx context.Context, intent AddIntent) error {
	release := e.locks.acquire(intent.SessionID)
	defer release()

	var items []domain.CartLineItem
	if err := e.store.Get(ctx, store.CartItemsKey(intent.SessionID), &items); err != nil && !errors.Is(err, store.ErrNotFound) {
		return e.failAdd(intent, fmt.Errorf("load cart items: %w", err))
	}

	// The first item of a session always starts a fresh payment intent;
	// the caller's reference only carries over to a non-empty cart.
	paymentIntentID := ""
	if len(items) > 0 {
		paymentIntentID = intent.PaymentIntentID
	}

	req := upstream.AddItemRequest{
		ProductID:       intent.Item.ProductID,
		Quantity:        intent.Item.Quantity,
		SessionID:       intent.SessionID,
		PaymentIntentID: paymentIntentID,
		SessionToken:    intent.SessionToken,
		Variation:       intent.Item.Variation,
	}

	var resp *upstream.AddItemResponse
	var err error
	if intent.Item.Variation != nil {
		resp, err = e.upstream.AddVariableItem(ctx, req)
	} else {
		resp, err = e.upstream.AddSimpleItem(ctx, req)
	}
	if err != nil {
		return e.failAdd(intent, err)
	}
	if resp.SessionToken == "" {
		return e.failAdd(intent, ErrMissingSessionToken)
	}

	line := mergeLineItem(intent.Item, resp.CartItem)
	items = append(items, line)

	derived := tax.ComputeDerivedFields(resp.TotalDiscount, items)

	ttl, hasTTL, err := expiry.SessionTTL(resp.SessionToken)
	if err != nil {
		return e.failAdd(intent, fmt.Errorf("derive session ttl: %w", err))
	}

	summary := domain.CartSummary{
		WooSessionID:    resp.SessionToken,
		PaymentIntentID: resp.PaymentIntentID,
		Coupons:         formatCoupons(resp.AppliedCoupons),
		TotalDiscount:   resp.TotalDiscount,
		Subtotal:        resp.Subtotal,
		TaxValue:        derived.TaxValue,
		HasProducts:     derived.HasProducts,
		HasPricedClass:  derived.HasPricedClass,
		HasFreeClass:    derived.HasFreeClass,
	}
	checkout := domain.CheckoutSession{
		ShippingCharges: []domain.ShippingCharge{},
		HasProducts:     derived.HasProducts,
		HasPricedClass:  derived.HasPricedClass,
	}

	if err := e.store.SetMulti(ctx, sessionEntries(intent.SessionID, summary, items, checkout, ttl, hasTTL)); err != nil {
		// The upstream add is not compensated; the next successful
		// mutation recomputes from a fresh load.
		return e.failAdd(intent, fmt.Errorf("persist session: %w", err))
	}

	e.record(ctx, intent.SessionID, string(domain.EventAddToCart), line.CartID)
	e.publisher.Publish(intent.SessionID, domain.Event{
		Type:     domain.EventAddToCart,
		Message:  "Add to cart is completed successfully!",
		Cart:     &summary,
		CartItem: line,
	})
	return nil
}

// failAdd broadcasts the single terminal failure event for an add request.
func (e *Engine) failAdd(intent AddIntent, err error) error {
	log.Printf("addToCart failed for session %s: %v", intent.SessionID, err)
	e.publisher.Publish(intent.SessionID, domain.Event{
		Type:     domain.EventError,
		Message:  err.Error(),
		CartItem: failedItem{ID: intent.Item.ProductID},
	})
	return err
}

// mergeLineItem joins the caller's display fields with the transactional
// fields upstream assigned on add.
func mergeLineItem(input AddItemInput, added upstream.AddedCartItem) domain.CartLineItem {
	return domain.CartLineItem{
		ProductID:         input.ProductID,
		Name:              input.Name,
		Slug:              input.Slug,
		Type:              input.Type,
		Variation:         input.Variation,
		CartID:            added.CartID,
		Quantity:          added.Quantity,
		Price:             added.Price,
		TaxClass:          added.TaxClass,
		BackordersAllowed: added.BackordersAllowed,
		Width:             added.Width,
		Height:            added.Height,
		Length:            added.Length,
		Weight:            added.Weight,
	}
}
