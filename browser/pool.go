// Package browser provides the chromedp-backed browsing sessions the
// recovery engine drives. A pool keeps warm browser contexts so a profile
// fetch does not pay cold-start cost.
package browser

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Pool manages reusable browser contexts. Each Acquire hands out exclusive
// ownership of one context wrapped in a Session; Release refreshes it and
// returns it for reuse, or tears it down when the session was flagged for
// discard.
type Pool struct {
	size        int
	contexts    chan context.Context
	cancelFuncs map[context.Context]context.CancelFunc

	mu          sync.Mutex
	initOnce    sync.Once
	allocCtx    context.Context
	allocCancel context.CancelFunc
	initialized bool
}

// New creates a pool of the given size. Contexts are created lazily on the
// first Acquire.
func New(size int) *Pool {
	return &Pool{
		size:        size,
		contexts:    make(chan context.Context, size),
		cancelFuncs: make(map[context.Context]context.CancelFunc),
	}
}

// DefaultPool serves the HTTP handlers.
var DefaultPool = New(2)

// Initialize starts the shared allocator and warms up the contexts.
func (pool *Pool) Initialize() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.initialized {
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-javascript", true),
		chromedp.WindowSize(1366, 768),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"),
	)

	pool.allocCtx, pool.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)

	for i := 0; i < pool.size; i++ {
		ctx, cancel := chromedp.NewContext(pool.allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
			log.Printf("browser warmup failed: %v", err)
			cancel()
			continue
		}
		pool.contexts <- ctx
		pool.cancelFuncs[ctx] = cancel
	}

	pool.initialized = true
	log.Printf("browser pool initialized with %d contexts", len(pool.contexts))
}

// Acquire takes a browser context from the pool and wraps it in a Session.
// Blocks until a context is free or ctx expires.
func (pool *Pool) Acquire(ctx context.Context) (*Session, error) {
	pool.initOnce.Do(pool.Initialize)

	select {
	case bctx := <-pool.contexts:
		return &Session{pool: pool, ctx: bctx}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout acquiring browser context: %w", ctx.Err())
	}
}

// Release returns a session's context to the pool. When discard is set the
// context is torn down instead: a cancelled recovery may have left the page
// mid-interaction and a fresh context is cheaper than a poisoned one.
func (pool *Pool) Release(s *Session, discard bool) {
	if s == nil || s.ctx == nil {
		return
	}

	if discard {
		pool.mu.Lock()
		if cancel, ok := pool.cancelFuncs[s.ctx]; ok {
			cancel()
			delete(pool.cancelFuncs, s.ctx)
		}
		pool.mu.Unlock()
		pool.replenish()
		return
	}

	// Clear page state before reuse so the next conversation starts clean.
	refreshCtx, cancel := context.WithTimeout(s.ctx, 3*time.Second)
	defer cancel()
	_ = chromedp.Run(refreshCtx,
		network.ClearBrowserCookies(),
		chromedp.Navigate("about:blank"),
	)

	select {
	case pool.contexts <- s.ctx:
	default:
		pool.mu.Lock()
		if cancel, ok := pool.cancelFuncs[s.ctx]; ok {
			cancel()
			delete(pool.cancelFuncs, s.ctx)
		}
		pool.mu.Unlock()
	}
}

// replenish replaces a discarded context so the pool keeps its size.
func (pool *Pool) replenish() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	ctx, cancel := chromedp.NewContext(pool.allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
	err := chromedp.Run(initCtx, chromedp.Navigate("about:blank"))
	initCancel()
	if err != nil {
		log.Printf("failed to replace discarded browser context: %v", err)
		cancel()
		return
	}

	select {
	case pool.contexts <- ctx:
		pool.cancelFuncs[ctx] = cancel
	default:
		cancel()
	}
}

// Shutdown closes every browser context and the allocator.
func (pool *Pool) Shutdown() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if !pool.initialized {
		return
	}
	for ctx, cancel := range pool.cancelFuncs {
		cancel()
		delete(pool.cancelFuncs, ctx)
	}
	if pool.allocCancel != nil {
		pool.allocCancel()
	}
	for len(pool.contexts) > 0 {
		<-pool.contexts
	}
	pool.initialized = false
	log.Println("browser pool shut down")
}
