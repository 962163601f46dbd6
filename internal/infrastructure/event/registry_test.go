package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_RegisterAndGet(t *testing.T) {
	registry := NewHandlerRegistry()
	orders := newTestHandler()
	wildcard := newTestHandler()

	registry.Register(orders, "OrderCreated", "OrderPaid")
	registry.Register(wildcard)

	handlers := registry.GetHandlers("OrderPaid")
	assert.Len(t, handlers, 2)
	assert.Same(t, orders, handlers[0])
	assert.Same(t, wildcard, handlers[1])

	assert.Len(t, registry.GetHandlers("CampaignClosed"), 1)
	assert.Len(t, registry.GetAllHandlers(), 2)
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	a := newTestHandler()
	b := newTestHandler()

	registry.Register(a, "OrderPaid")
	registry.Register(b, "OrderPaid")
	registry.Register(a)

	registry.Unregister(a)

	handlers := registry.GetHandlers("OrderPaid")
	assert.Len(t, handlers, 1)
	assert.Same(t, b, handlers[0])

	registry.Unregister(b)
	assert.Empty(t, registry.GetHandlers("OrderPaid"))
	assert.Empty(t, registry.handlers)
}
