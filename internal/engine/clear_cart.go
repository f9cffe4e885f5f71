package engine

import (
	"context"
	"log"

	"github.com/simplur/cart-events-service/internal/domain"
)

// ClearCart empties the upstream cart and drops the session's keys. The
// broadcast mirrors the remove-to-empty path: one zeroed summary when keys
// were actually present.
func (e *Engine) ClearCart(ctx context.Context, intent ClearIntent) error {
	release := e.locks.acquire(intent.SessionID)
	defer release()

	if err := e.upstream.ClearCart(ctx, intent.SessionID, intent.SessionToken); err != nil {
		log.Printf("clearCart failed for session %s: %v", intent.SessionID, err)
		e.publisher.Publish(intent.SessionID, domain.Event{
			Type:    domain.EventError,
			Message: err.Error(),
		})
		return err
	}

	return e.clearSession(ctx, intent.SessionID, "Cart cleared", false)
}
