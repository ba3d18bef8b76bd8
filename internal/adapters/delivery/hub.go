package delivery

import (
	"context"
	"errors"
	"sync"

	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/bnema/wallet-bridge/internal/ports"
)

var errNilHandler = errors.New("delivery handler is nil")

type subscription struct {
	id      uint64
	handler ports.DeliveryHandler
}

// Hub fans every published delivery out to all subscribers. Each bridge
// filters by its own request ids, so broadcasting is safe.
type Hub struct {
	mu            sync.RWMutex
	nextID        uint64
	subscriptions []subscription
}

var _ ports.DeliverySource = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) Subscribe(ctx context.Context, handler ports.DeliveryHandler) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, errNilHandler
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.subscriptions = append(h.subscriptions, subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(id) })
	}, nil
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, sub := range h.subscriptions {
		if sub.id == id {
			h.subscriptions = append(h.subscriptions[:i:i], h.subscriptions[i+1:]...)
			return
		}
	}
}

// Subscribers reports how many handlers are currently attached.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscriptions)
}

// Publish returns the number of subscribers the delivery was handed to.
func (h *Hub) Publish(delivery domain.Delivery) int {
	h.mu.RLock()
	subscriptions := make([]subscription, len(h.subscriptions))
	copy(subscriptions, h.subscriptions)
	h.mu.RUnlock()

	for _, sub := range subscriptions {
		sub.handler(delivery)
	}
	return len(subscriptions)
}
