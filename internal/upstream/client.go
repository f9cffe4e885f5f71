// Package upstream talks to the external commerce backend. It owns the
// backend's error taxonomy: callers branch on the sentinel errors here
// instead of matching message text themselves.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/simplur/cart-events-service/internal/domain"
)

// Remove-item failure classes. The backend only reports message strings, so
// the mapping is by substring; it is confined to this package.
var (
	// ErrNoItemsToRemove: the upstream cart had nothing left to remove.
	ErrNoItemsToRemove = errors.New("upstream: no items to remove")
	// ErrCartItemNotFound: the cart-line key is already gone upstream.
	ErrCartItemNotFound = errors.New("upstream: cart item not found")
	// ErrCartEmpty: the upstream cart is empty.
	ErrCartEmpty = errors.New("upstream: cart is empty")
)

// classifyError maps a backend error message onto the sentinel taxonomy.
// Unmatched messages stay generic.
func classifyError(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "no items to remove"):
		return fmt.Errorf("%w: %s", ErrNoItemsToRemove, msg)
	case strings.Contains(lower, "no cart item found with key"):
		return fmt.Errorf("%w: %s", ErrCartItemNotFound, msg)
	case strings.Contains(lower, "cart is empty"):
		return fmt.Errorf("%w: %s", ErrCartEmpty, msg)
	default:
		return fmt.Errorf("upstream: %s", msg)
	}
}

// AppliedCoupon is a coupon as the backend reports it.
type AppliedCoupon struct {
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discountAmount"`
}

// AddedCartItem carries the transactional fields the backend assigns on add.
// Dimensions are defaulted to 0 when the backend omits them.
type AddedCartItem struct {
	CartID            string
	Quantity          int
	Price             float64
	TaxClass          string
	BackordersAllowed bool
	Width             float64
	Height            float64
	Length            float64
	Weight            float64
}

type AddItemRequest struct {
	ProductID       int64
	Quantity        int
	SessionID       string
	PaymentIntentID string
	SessionToken    string
	Variation       *domain.Variation
}

type AddItemResponse struct {
	SessionToken    string
	PaymentIntentID string
	AppliedCoupons  []AppliedCoupon
	TotalDiscount   float64
	Subtotal        float64
	CartItem        AddedCartItem
}

type RemoveItemRequest struct {
	SessionID       string
	SessionToken    string
	PaymentIntentID string
	CartLineID      string
}

type RemoveItemResponse struct {
	ClearCart      bool
	AppliedCoupons []AppliedCoupon
	Subtotal       float64
	TotalDiscount  float64
}

type Client interface {
	AddSimpleItem(ctx context.Context, req AddItemRequest) (*AddItemResponse, error)
	AddVariableItem(ctx context.Context, req AddItemRequest) (*AddItemResponse, error)
	RemoveItem(ctx context.Context, req RemoveItemRequest) (*RemoveItemResponse, error)
	ClearCart(ctx context.Context, sessionID, sessionToken string) error
}
