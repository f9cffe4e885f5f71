package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/simplur/cart-events-service/internal/domain"
	"github.com/simplur/cart-events-service/internal/engine"
)

// mutationTimeout bounds one dispatched mutation, independent of the HTTP
// request that triggered it.
const mutationTimeout = 30 * time.Second

// Mutator is the slice of the engine the handlers drive.
type Mutator interface {
	AddItem(ctx context.Context, intent engine.AddIntent) error
	RemoveItem(ctx context.Context, intent engine.RemoveIntent) error
	ClearCart(ctx context.Context, intent engine.ClearIntent) error
}

func NewCartHandler(mutator Mutator) *CartHandler {
	return &CartHandler{mutator: mutator, dispatch: dispatchAsync}
}

type CartHandler struct {
	mutator Mutator

	// dispatch runs the mutation after the request is acknowledged. The
	// outcome reaches the client on its push channel, not this response.
	dispatch func(fn func(ctx context.Context))
}

func dispatchAsync(fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		fn(ctx)
	}()
}

type CartItemDTO struct {
	ID        int64             `json:"id"`
	Quantity  int               `json:"quantity"`
	Name      string            `json:"name"`
	Slug      string            `json:"slug"`
	Type      domain.ItemType   `json:"type"`
	Variation *domain.Variation `json:"variation,omitempty"`
}

type AddToCartRequestDTO struct {
	ClientMutationID string      `json:"clientMutationId"`
	WooSessionID     string      `json:"wooSessionId"`
	PaymentIntentID  string      `json:"paymentIntentId,omitempty"`
	CartItem         CartItemDTO `json:"cartItem"`
}

type RemoveCartRequestDTO struct {
	ClientMutationID string `json:"clientMutationId"`
	WooSessionID     string `json:"wooSessionId"`
	PaymentIntentID  string `json:"paymentIntentId,omitempty"`
	CartItemID       string `json:"cartItemId"`
}

type ClearCartRequestDTO struct {
	ClientMutationID string `json:"clientMutationId"`
	WooSessionID     string `json:"wooSessionId"`
}

// AckResponse acknowledges that the mutation was accepted for processing.
type AckResponse struct {
	Error   *string `json:"error"`
	Success bool    `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ClientMutationID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "clientMutationId is required")
		return
	}
	if req.CartItem.ID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "cartItem.id must be positive")
		return
	}
	if req.CartItem.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "cartItem.quantity must be positive")
		return
	}

	intent := engine.AddIntent{
		SessionID:       req.ClientMutationID,
		SessionToken:    req.WooSessionID,
		PaymentIntentID: req.PaymentIntentID,
		Item: engine.AddItemInput{
			ProductID: req.CartItem.ID,
			Quantity:  req.CartItem.Quantity,
			Name:      req.CartItem.Name,
			Slug:      req.CartItem.Slug,
			Type:      req.CartItem.Type,
			Variation: req.CartItem.Variation,
		},
	}

	requestID := getRequestID(r.Context())
	h.dispatch(func(ctx context.Context) {
		if err := h.mutator.AddItem(ctx, intent); err != nil {
			log.Printf("addToCart dispatch for session %s (request %s): %v", intent.SessionID, requestID, err)
		}
	})

	respondJSON(w, http.StatusOK, AckResponse{Success: true})
}

func (h *CartHandler) RemoveCart(w http.ResponseWriter, r *http.Request) {
	var req RemoveCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ClientMutationID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "clientMutationId is required")
		return
	}
	if req.CartItemID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_item_id", "cartItemId is required")
		return
	}

	intent := engine.RemoveIntent{
		SessionID:       req.ClientMutationID,
		SessionToken:    req.WooSessionID,
		PaymentIntentID: req.PaymentIntentID,
		CartLineID:      req.CartItemID,
	}

	requestID := getRequestID(r.Context())
	h.dispatch(func(ctx context.Context) {
		if err := h.mutator.RemoveItem(ctx, intent); err != nil {
			log.Printf("removeCart dispatch for session %s (request %s): %v", intent.SessionID, requestID, err)
		}
	})

	respondJSON(w, http.StatusOK, AckResponse{Success: true})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	var req ClearCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ClientMutationID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "clientMutationId is required")
		return
	}

	intent := engine.ClearIntent{
		SessionID:    req.ClientMutationID,
		SessionToken: req.WooSessionID,
	}

	requestID := getRequestID(r.Context())
	h.dispatch(func(ctx context.Context) {
		if err := h.mutator.ClearCart(ctx, intent); err != nil {
			log.Printf("clearCart dispatch for session %s (request %s): %v", intent.SessionID, requestID, err)
		}
	})

	respondJSON(w, http.StatusOK, AckResponse{Success: true})
}

func (h *CartHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "ready"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
