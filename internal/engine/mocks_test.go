package engine

import (
	"context"
	"sync"
	"time"

	"github.com/simplur/cart-events-service/internal/domain"
	"github.com/simplur/cart-events-service/internal/history"
	"github.com/simplur/cart-events-service/internal/store"
	"github.com/simplur/cart-events-service/internal/upstream"
)

// mockUpstream implements upstream.Client for testing
type mockUpstream struct {
	mu sync.Mutex

	addResp *upstream.AddItemResponse
	addErr  error
	// addFunc overrides addResp/addErr when set
	addFunc func(req upstream.AddItemRequest) (*upstream.AddItemResponse, error)

	removeResp *upstream.RemoveItemResponse
	removeErr  error

	clearErr error

	addSimpleCalls   []upstream.AddItemRequest
	addVariableCalls []upstream.AddItemRequest
	removeCalls      []upstream.RemoveItemRequest
}

func (m *mockUpstream) AddSimpleItem(_ context.Context, req upstream.AddItemRequest) (*upstream.AddItemResponse, error) {
	m.mu.Lock()
	m.addSimpleCalls = append(m.addSimpleCalls, req)
	fn := m.addFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return m.addResp, m.addErr
}

func (m *mockUpstream) AddVariableItem(_ context.Context, req upstream.AddItemRequest) (*upstream.AddItemResponse, error) {
	m.mu.Lock()
	m.addVariableCalls = append(m.addVariableCalls, req)
	fn := m.addFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return m.addResp, m.addErr
}

func (m *mockUpstream) RemoveItem(_ context.Context, req upstream.RemoveItemRequest) (*upstream.RemoveItemResponse, error) {
	m.mu.Lock()
	m.removeCalls = append(m.removeCalls, req)
	m.mu.Unlock()
	return m.removeResp, m.removeErr
}

func (m *mockUpstream) ClearCart(_ context.Context, _, _ string) error {
	return m.clearErr
}

// capturePublisher records every published event
type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	SessionID string
	Event     domain.Event
}

func (p *capturePublisher) Publish(sessionID string, event domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{SessionID: sessionID, Event: event})
}

func (p *capturePublisher) captured() []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]capturedEvent, len(p.events))
	copy(out, p.events)
	return out
}

// captureRecorder records history calls
type captureRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (r *captureRecorder) Record(_ context.Context, _ string, entry history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// failingStore returns setErr from SetMulti and delegates nothing else.
type failingStore struct {
	setErr error
}

func (f *failingStore) Get(_ context.Context, _ string, _ any) error {
	return store.ErrNotFound
}

func (f *failingStore) Set(_ context.Context, _ string, _ any, _ time.Duration, _ bool) error {
	return f.setErr
}

func (f *failingStore) SetMulti(_ context.Context, _ []store.Entry) error {
	return f.setErr
}

func (f *failingStore) Del(_ context.Context, _ ...string) (int64, error) {
	return 0, nil
}
