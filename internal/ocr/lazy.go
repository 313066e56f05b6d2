package ocr

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
)

// Factory builds an engine.
type Factory func(ctx context.Context) (Engine, error)

// Lazy defers building an expensive engine until it is first needed and then
// reuses the instance. Concurrent first callers block until the single
// construction finishes. A failed construction is not cached.
type Lazy struct {
	factory Factory
	engine  Engine
	name    string
	mu      sync.Mutex
}

// NewLazy wraps factory. name is reported before the engine exists.
func NewLazy(name string, factory Factory) *Lazy {
	return &Lazy{name: name, factory: factory}
}

// Name implements Engine.
func (l *Lazy) Name() string { return l.name }

// Get returns the cached engine, building it on first use.
func (l *Lazy) Get(ctx context.Context) (Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.engine != nil {
		return l.engine, nil
	}
	engine, err := l.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize %s engine: %w", l.name, err)
	}
	l.engine = engine
	return engine, nil
}

// Recognize implements Engine by delegating to the cached engine.
func (l *Lazy) Recognize(ctx context.Context, img image.Image) (string, error) {
	engine, err := l.Get(ctx)
	if err != nil {
		return "", err
	}
	return engine.Recognize(ctx, img)
}

// Close closes the wrapped engine if it was built and holds resources.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	closer, ok := l.engine.(io.Closer)
	if !ok {
		return nil
	}
	l.engine = nil
	return closer.Close()
}
