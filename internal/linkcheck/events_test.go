package linkcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusDeliversInOrder(t *testing.T) {
	bus := newEventBus(nil)
	var order []string
	bus.OnLink(func(r LinkResult) { order = append(order, "first:"+r.URL) })
	bus.OnLink(func(r LinkResult) { order = append(order, "second:"+r.URL) })

	bus.emitLink(LinkResult{URL: "https://example.com"})

	assert.Equal(t, []string{"first:https://example.com", "second:https://example.com"}, order)
}

func TestEventBusIsolatesPanickingListener(t *testing.T) {
	bus := newEventBus(nil)
	var secondCalled bool
	bus.OnLink(func(LinkResult) { panic("boom") })
	bus.OnLink(func(LinkResult) { secondCalled = true })

	assert.NotPanics(t, func() {
		bus.emitLink(LinkResult{URL: "https://example.com"})
	})
	assert.True(t, secondCalled)
}

func TestEventBusRetryListeners(t *testing.T) {
	bus := newEventBus(nil)
	var got RetryInfo
	bus.OnRetry(func(info RetryInfo) { got = info })
	bus.emitRetry(RetryInfo{URL: "https://example.com", Status: 429})
	assert.Equal(t, 429, got.Status)
}
