package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stanza/pkg/observability"
)

// logHooks reports library events through the CLI logger at debug level.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.ConversionHooks = logHooks{}
	_ observability.CacheHooks      = logHooks{}
	_ observability.HTTPHooks       = logHooks{}
)

// installHooks routes every observability event to logger.
func installHooks(logger *log.Logger) {
	h := logHooks{logger: logger}
	observability.SetConversionHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h logHooks) OnParseStart(_ context.Context, file string, dev bool) {
	h.logger.Debug("parsing requirements", "file", file, "dev", dev)
}

func (h logHooks) OnParseComplete(_ context.Context, file string, _ bool, count int, d time.Duration, err error) {
	if err != nil {
		return
	}
	h.logger.Debug("parsed requirements", "file", file, "count", count, "duration", d.Round(time.Microsecond))
}

func (h logHooks) OnResolveStart(context.Context, string) {}

func (h logHooks) OnResolveComplete(_ context.Context, name, version string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("resolution failed", "package", name, "err", err)
		return
	}
	h.logger.Debug("resolved", "package", name, "version", version, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnExtract(_ context.Context, path string, found bool, d time.Duration, err error) {
	if found && err == nil {
		h.logger.Debug("read setup.py", "path", path, "duration", d.Round(time.Microsecond))
	}
}

func (h logHooks) OnCacheHit(_ context.Context, namespace string) {
	h.logger.Debug("cache hit", "namespace", namespace)
}

func (h logHooks) OnCacheMiss(_ context.Context, namespace string) {
	h.logger.Debug("cache miss", "namespace", namespace)
}

func (h logHooks) OnCacheSet(_ context.Context, namespace string, size int) {
	h.logger.Debug("cache set", "namespace", namespace, "bytes", size)
}

func (h logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "method", method, "host", host, "path", path, "err", err)
}
