package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires the mutation endpoints and the SSE stream behind the
// shared middleware stack.
func NewRouter(cart *CartHandler, sse *SSEHandler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	r.Post("/api/addToCart", cart.AddToCart)
	r.Post("/api/removeCart", cart.RemoveCart)
	r.Post("/api/clearCart", cart.ClearCart)
	r.Get("/api/status", cart.Status)
	r.Get("/api/sse", sse.Events)

	return otelhttp.NewHandler(r, "cart-events")
}
