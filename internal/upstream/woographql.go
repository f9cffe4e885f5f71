package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/simplur/cart-events-service/internal/domain"
	"github.com/sony/gobreaker/v2"
)

// sessionHeader carries the commerce session token both ways: requests send
// the current token, responses may return a refreshed one.
const sessionHeader = "woocommerce-session"

const addSimpleItemMutation = `mutation AddToCart($input: AddToCartInput!) {
  addToCart(input: $input) {
    paymentIntentId subtotal totalDiscount
    appliedCoupons { code discountAmount }
    cartItem { cartId quantity price taxClass backordersAllowed width height length weight }
  }
}`

const addVariableItemMutation = `mutation AddVariableToCart($input: AddToCartInput!) {
  addToCart(input: $input) {
    paymentIntentId subtotal totalDiscount
    appliedCoupons { code discountAmount }
    cartItem { cartId quantity price taxClass backordersAllowed width height length weight }
  }
}`

const removeItemMutation = `mutation RemoveItemsFromCart($input: RemoveItemsFromCartInput!) {
  removeItemsFromCart(input: $input) {
    clearCart subtotal totalDiscount
    appliedCoupons { code discountAmount }
  }
}`

const clearCartMutation = `mutation EmptyCart($input: EmptyCartInput!) {
  emptyCart(input: $input) { cleared }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// graphqlResult pairs a decoded response body with the refreshed session
// token from the response headers, if the backend rotated it.
type graphqlResult struct {
	body         graphqlResponse
	sessionToken string
}

type wireCoupon struct {
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discountAmount"`
}

type wireCartItem struct {
	CartID            string   `json:"cartId"`
	Quantity          int      `json:"quantity"`
	Price             float64  `json:"price"`
	TaxClass          string   `json:"taxClass"`
	BackordersAllowed bool     `json:"backordersAllowed"`
	Width             *float64 `json:"width"`
	Height            *float64 `json:"height"`
	Length            *float64 `json:"length"`
	Weight            *float64 `json:"weight"`
}

type wireAddPayload struct {
	PaymentIntentID string       `json:"paymentIntentId"`
	Subtotal        float64      `json:"subtotal"`
	TotalDiscount   float64      `json:"totalDiscount"`
	AppliedCoupons  []wireCoupon `json:"appliedCoupons"`
	CartItem        wireCartItem `json:"cartItem"`
}

type wireRemovePayload struct {
	ClearCart      bool         `json:"clearCart"`
	Subtotal       float64      `json:"subtotal"`
	TotalDiscount  float64      `json:"totalDiscount"`
	AppliedCoupons []wireCoupon `json:"appliedCoupons"`
}

// NewWooClient builds the GraphQL client for the commerce backend. The
// circuit breaker opens after repeated transport failures so a dead backend
// fails fast instead of tying up mutation goroutines.
func NewWooClient(endpoint string, timeout time.Duration) *WooClient {
	return &WooClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*graphqlResult](gobreaker.Settings{
			Name: "upstream-commerce",
		}),
	}
}

type WooClient struct {
	endpoint string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*graphqlResult]
}

func (c *WooClient) AddSimpleItem(ctx context.Context, req AddItemRequest) (*AddItemResponse, error) {
	input := map[string]any{
		"databaseId":       req.ProductID,
		"quantity":         req.Quantity,
		"clientMutationId": req.SessionID,
		"paymentIntentId":  req.PaymentIntentID,
	}
	return c.addItem(ctx, addSimpleItemMutation, input, req.SessionToken)
}

func (c *WooClient) AddVariableItem(ctx context.Context, req AddItemRequest) (*AddItemResponse, error) {
	input := map[string]any{
		"databaseId":       req.ProductID,
		"quantity":         req.Quantity,
		"clientMutationId": req.SessionID,
		"paymentIntentId":  req.PaymentIntentID,
		"variation":        variationInput(req.Variation),
	}
	return c.addItem(ctx, addVariableItemMutation, input, req.SessionToken)
}

func (c *WooClient) addItem(ctx context.Context, mutation string, input map[string]any, token string) (*AddItemResponse, error) {
	result, err := c.do(ctx, mutation, map[string]any{"input": input}, token)
	if err != nil {
		return nil, err
	}

	var data struct {
		AddToCart wireAddPayload `json:"addToCart"`
	}
	if err := json.Unmarshal(result.body.Data, &data); err != nil {
		return nil, fmt.Errorf("upstream: decode addToCart payload: %w", err)
	}

	p := data.AddToCart
	return &AddItemResponse{
		SessionToken:    result.sessionToken,
		PaymentIntentID: p.PaymentIntentID,
		AppliedCoupons:  coupons(p.AppliedCoupons),
		TotalDiscount:   p.TotalDiscount,
		Subtotal:        p.Subtotal,
		CartItem: AddedCartItem{
			CartID:            p.CartItem.CartID,
			Quantity:          p.CartItem.Quantity,
			Price:             p.CartItem.Price,
			TaxClass:          p.CartItem.TaxClass,
			BackordersAllowed: p.CartItem.BackordersAllowed,
			Width:             orZero(p.CartItem.Width),
			Height:            orZero(p.CartItem.Height),
			Length:            orZero(p.CartItem.Length),
			Weight:            orZero(p.CartItem.Weight),
		},
	}, nil
}

func (c *WooClient) RemoveItem(ctx context.Context, req RemoveItemRequest) (*RemoveItemResponse, error) {
	variables := map[string]any{
		"input": map[string]any{
			"clientMutationId": req.SessionID,
			"paymentIntentId":  req.PaymentIntentID,
			"keys":             []string{req.CartLineID},
		},
	}

	result, err := c.do(ctx, removeItemMutation, variables, req.SessionToken)
	if err != nil {
		return nil, err
	}

	var data struct {
		RemoveItemsFromCart wireRemovePayload `json:"removeItemsFromCart"`
	}
	if err := json.Unmarshal(result.body.Data, &data); err != nil {
		return nil, fmt.Errorf("upstream: decode removeItemsFromCart payload: %w", err)
	}

	p := data.RemoveItemsFromCart
	return &RemoveItemResponse{
		ClearCart:      p.ClearCart,
		AppliedCoupons: coupons(p.AppliedCoupons),
		Subtotal:       p.Subtotal,
		TotalDiscount:  p.TotalDiscount,
	}, nil
}

func (c *WooClient) ClearCart(ctx context.Context, sessionID, sessionToken string) error {
	variables := map[string]any{
		"input": map[string]any{"clientMutationId": sessionID},
	}
	_, err := c.do(ctx, clearCartMutation, variables, sessionToken)
	return err
}

// do posts one GraphQL document through the circuit breaker and surfaces
// backend errors through the classified taxonomy.
func (c *WooClient) do(ctx context.Context, query string, variables map[string]any, token string) (*graphqlResult, error) {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("upstream: marshal request: %w", err)
	}

	result, err := c.breaker.Execute(func() (*graphqlResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("upstream: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set(sessionHeader, "Session "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("upstream: request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("upstream: read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("upstream: unexpected status %d", resp.StatusCode)
		}

		var decoded graphqlResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, fmt.Errorf("upstream: decode response: %w", err)
		}

		return &graphqlResult{
			body:         decoded,
			sessionToken: refreshedToken(resp.Header.Get(sessionHeader), token),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.body.Errors) > 0 {
		return nil, classifyError(result.body.Errors[0].Message)
	}
	return result, nil
}

func variationInput(v *domain.Variation) map[string]any {
	if v == nil {
		return nil
	}
	input := map[string]any{"databaseId": v.DatabaseID}
	if len(v.Attributes) > 0 {
		input["attributes"] = v.Attributes
	}
	return input
}

func refreshedToken(header, current string) string {
	if header == "" {
		return current
	}
	return header
}

func coupons(wire []wireCoupon) []AppliedCoupon {
	if len(wire) == 0 {
		return nil
	}
	out := make([]AppliedCoupon, len(wire))
	for i, c := range wire {
		out[i] = AppliedCoupon{Code: c.Code, DiscountAmount: c.DiscountAmount}
	}
	return out
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
