package shutdown

import (
	"context"
	"sync"

	"github.com/darkhorse-quant/sentinel-agent/pkg/logger"
)

// Handler is one graceful-shutdown callback.
type Handler func(ctx context.Context, wg *sync.WaitGroup)

// Manager runs every registered shutdown callback concurrently and waits
// for them (bounded by ctx) before returning.
type Manager struct {
	callbacks []Handler
	mu        sync.Mutex
}

// NewManager returns an empty shutdown manager.
func NewManager() *Manager {
	return &Manager{
		callbacks: make([]Handler, 0),
	}
}

// OnShutdown registers a callback to run on Shutdown.
func (m *Manager) OnShutdown(handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, handler)
}

// Shutdown runs every registered callback concurrently and blocks until
// they all finish or ctx is done, whichever comes first. ctx should carry a
// timeout — this call never waits forever.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	callbacks := m.callbacks
	m.mu.Unlock()

	if len(callbacks) == 0 {
		logger.Info("no shutdown callbacks registered")
		return
	}

	logger.Infof("starting graceful shutdown, %d callback(s)", len(callbacks))

	var wg sync.WaitGroup
	wg.Add(len(callbacks))

	for _, cb := range callbacks {
		go func(handler Handler) {
			defer wg.Done()
			handler(ctx, &wg)
		}(cb)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all shutdown callbacks completed")
	case <-ctx.Done():
		logger.Warnf("shutdown timed out: %v", ctx.Err())
	}
}
