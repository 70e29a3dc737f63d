package linkcheck

import (
	"sync"

	"go.uber.org/zap"
)

// eventBus is a synchronous multi-listener observer keyed by event name.
// Listeners run inline, in registration order, at emission time, and never
// concurrently with one another: emitLink/emitRetry are called from many
// goroutines in the engine's process loop, but emitMu serializes the actual
// listener calls so a listener never has to be reentrant-safe on its own. A
// listener panic is isolated so it cannot corrupt engine state; the panic
// is logged and emission continues to the remaining listeners.
type eventBus struct {
	mu       sync.RWMutex
	linkFns  []func(LinkResult)
	retryFns []func(RetryInfo)
	logger   *zap.Logger

	emitMu sync.Mutex
}

func newEventBus(logger *zap.Logger) *eventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &eventBus{logger: logger}
}

// OnLink registers a listener invoked once per URL, strictly after that
// URL's final status is known.
func (b *eventBus) OnLink(fn func(LinkResult)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.linkFns = append(b.linkFns, fn)
}

// OnRetry registers a listener invoked each time a URL is (re-)scheduled.
func (b *eventBus) OnRetry(fn func(RetryInfo)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.retryFns = append(b.retryFns, fn)
}

func (b *eventBus) emitLink(result LinkResult) {
	b.mu.RLock()
	fns := b.linkFns
	b.mu.RUnlock()

	b.emitMu.Lock()
	defer b.emitMu.Unlock()
	for _, fn := range fns {
		b.safeCall(func() { fn(result) })
	}
}

func (b *eventBus) emitRetry(info RetryInfo) {
	b.mu.RLock()
	fns := b.retryFns
	b.mu.RUnlock()

	b.emitMu.Lock()
	defer b.emitMu.Unlock()
	for _, fn := range fns {
		b.safeCall(func() { fn(info) })
	}
}

func (b *eventBus) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("event listener panicked", zap.Any("recovered", r))
		}
	}()
	fn()
}
