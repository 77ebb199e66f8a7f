// Package observability provides instrumentation hooks for conversions.
//
// Library packages emit events through the registered hooks; the CLI
// installs implementations that log them. Nothing is recorded unless a
// hook is registered, and the defaults are no-ops.
//
// # Usage
//
// Register hooks at application startup:
//
//	observability.SetConversionHooks(&logHooks{logger})
//	observability.SetHTTPHooks(&logHooks{logger})
//
// Libraries call hooks to emit events:
//
//	observability.Conversion().OnResolveStart(ctx, req.Name)
//	// ... query the index ...
//	observability.Conversion().OnResolveComplete(ctx, req.Name, version, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// ConversionHooks receives events from the conversion engine.
type ConversionHooks interface {
	// Requirements file events. dev tells which dependency set the file feeds.
	OnParseStart(ctx context.Context, file string, dev bool)
	OnParseComplete(ctx context.Context, file string, dev bool, count int, duration time.Duration, err error)

	// Version resolution events, one pair per requirement.
	OnResolveStart(ctx context.Context, name string)
	OnResolveComplete(ctx context.Context, name, version string, duration time.Duration, err error)

	// OnExtract records a setup.py extraction. found is false when the file
	// does not exist.
	OnExtract(ctx context.Context, path string, found bool, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, namespace string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, namespace string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, namespace string, size int)
}

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopConversionHooks is a no-op implementation of ConversionHooks.
type NoopConversionHooks struct{}

func (NoopConversionHooks) OnParseStart(context.Context, string, bool) {}
func (NoopConversionHooks) OnParseComplete(context.Context, string, bool, int, time.Duration, error) {
}
func (NoopConversionHooks) OnResolveStart(context.Context, string) {}
func (NoopConversionHooks) OnResolveComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopConversionHooks) OnExtract(context.Context, string, bool, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

var (
	conversionHooks ConversionHooks = NoopConversionHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetConversionHooks registers custom conversion hooks. A nil h is ignored.
func SetConversionHooks(h ConversionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		conversionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Conversion returns the registered conversion hooks.
func Conversion() ConversionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return conversionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	conversionHooks = NoopConversionHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
