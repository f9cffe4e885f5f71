package domain

// EventType discriminates outcome events on a session's push channel.
type EventType string

const (
	EventAddToCart  EventType = "addToCart"
	EventRemoveCart EventType = "removeCart"
	EventError      EventType = "Error"
)

// Event is the envelope published to a session's subscribers. Every mutation
// request terminates in exactly one event for its session.
type Event struct {
	Type     EventType    `json:"type"`
	Message  string       `json:"message"`
	Cart     *CartSummary `json:"cart,omitempty"`
	CartItem any          `json:"cartItem,omitempty"`
	Error    string       `json:"error,omitempty"`
}
