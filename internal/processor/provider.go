package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoadFunc builds a parser. It may be slow; Provider calls it at most once
// per successful load.
type LoadFunc func(ctx context.Context) (Parser, error)

// Provider is a lazily initialised, cached parser singleton.
// Concurrent first calls share one load. Failed loads are not cached.
//
// Thread-safe.
type Provider struct {
	load  LoadFunc
	group singleflight.Group

	mu     sync.RWMutex
	parser Parser
}

// NewProvider creates a Provider around load.
func NewProvider(load LoadFunc) *Provider {
	return &Provider{load: load}
}

// NewLineParserProvider returns a Provider of the LineParser.
func NewLineParserProvider() *Provider {
	return NewProvider(func(context.Context) (Parser, error) {
		return NewLineParser(), nil
	})
}

// Parser implements ParserProvider.
//
// The shared load is detached from the caller's cancellation; a caller whose
// ctx ends while waiting gets ctx.Err() and the load continues for the others.
func (p *Provider) Parser(ctx context.Context) (Parser, error) {
	p.mu.RLock()
	cached := p.parser
	p.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("waiting for mod parser: %w", err)
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan("parser", func() (any, error) {
		p.mu.RLock()
		cached := p.parser
		p.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		parser, err := p.load(loadCtx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.parser = parser
		p.mu.Unlock()
		slog.Debug("mod parser loaded")
		return parser, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for mod parser: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("loading mod parser (shared=%t): %w", res.Shared, res.Err)
		}
		return res.Val.(Parser), nil
	}
}
