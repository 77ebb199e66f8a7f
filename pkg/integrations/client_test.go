package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/stanza/pkg/cache"
	stanzaerrors "github.com/matzehuels/stanza/pkg/errors"
)

var fastRetry = cache.RetryPolicy{Attempts: 3, Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func newTestClient(t *testing.T, headers map[string]string) (*Client, *cache.FileCache) {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { fc.Close() })
	return NewClient(fc, "test:", time.Hour, headers, WithRetryPolicy(fastRetry)), fc
}

func TestNewClient(t *testing.T) {
	headers := map[string]string{"User-Agent": "stanza/test"}
	client, fc := newTestClient(t, headers)

	if client.http == nil {
		t.Error("NewClient() http client is nil")
	}
	if client.cache != fc {
		t.Error("NewClient() cache not set correctly")
	}
	if client.headers["User-Agent"] != "stanza/test" {
		t.Error("NewClient() headers not set correctly")
	}
}

func TestNewClientNilBackend(t *testing.T) {
	client := NewClient(nil, "test:", time.Hour, nil)
	if _, ok := client.cache.(cache.NullCache); !ok {
		t.Errorf("nil backend should fall back to NullCache, got %T", client.cache)
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		gotUA = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	client, _ := newTestClient(t, map[string]string{"User-Agent": "stanza/test"})

	var resp response
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
	if gotUA != "stanza/test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestClientGetStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		header    map[string]string
		wantErr   error
		retryable bool
	}{
		{"404", http.StatusNotFound, nil, ErrNotFound, false},
		{"500", http.StatusInternalServerError, nil, ErrNetwork, true},
		{"503", http.StatusServiceUnavailable, nil, ErrNetwork, true},
		{"429", http.StatusTooManyRequests, map[string]string{"Retry-After": "7"}, ErrNetwork, true},
		{"403", http.StatusForbidden, nil, ErrNetwork, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client, _ := newTestClient(t, nil)
			var resp map[string]string
			err := client.Get(context.Background(), server.URL, &resp)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if cache.IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", cache.IsRetryable(err), tt.retryable)
			}
		})
	}
}

func TestClientGet429CarriesRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := newTestClient(t, nil)
	var resp map[string]string
	err := client.Get(context.Background(), server.URL, &resp)

	var rl *stanzaerrors.RateLimitedError
	if !errors.As(err, &rl) || rl.RetryAfter != 7 {
		t.Errorf("error = %v, want RateLimitedError{RetryAfter: 7}", err)
	}
}

func TestClientCached(t *testing.T) {
	client, _ := newTestClient(t, nil)

	type payload struct {
		Value string `json:"value"`
	}

	fetches := 0
	load := func() (payload, error) {
		var v payload
		err := client.Cached(context.Background(), "key", false, &v, func() error {
			fetches++
			v = payload{Value: "fetched"}
			return nil
		})
		return v, err
	}

	first, err := load()
	if err != nil || first.Value != "fetched" {
		t.Fatalf("first = %+v, %v", first, err)
	}
	second, err := load()
	if err != nil || second.Value != "fetched" {
		t.Fatalf("second = %+v, %v", second, err)
	}
	if fetches != 1 {
		t.Errorf("fetch count = %d, want 1 (second call served from cache)", fetches)
	}
}

func TestClientCachedRefresh(t *testing.T) {
	client, _ := newTestClient(t, nil)

	fetches := 0
	var value string
	fetch := func() error {
		fetches++
		value = "fetched"
		return nil
	}

	for i := 0; i < 2; i++ {
		if err := client.Cached(context.Background(), "test-key", true, &value, fetch); err != nil {
			t.Fatalf("Cached() error: %v", err)
		}
	}
	if fetches != 2 {
		t.Errorf("fetch count = %d, want 2", fetches)
	}
}

func TestClientCachedRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client, _ := newTestClient(t, nil)
	var resp map[string]string
	err := client.Cached(context.Background(), "retry", false, &resp, func() error {
		return client.Get(context.Background(), server.URL, &resp)
	})
	if err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	if hits.Load() != 3 || resp["status"] != "ok" {
		t.Errorf("hits = %d, resp = %v", hits.Load(), resp)
	}
}

func TestClientCachedFetchError(t *testing.T) {
	client, fc := newTestClient(t, nil)

	fetches := 0
	var value string
	err := client.Cached(context.Background(), "missing", false, &value, func() error {
		fetches++
		return ErrNotFound
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Cached() error = %v, want ErrNotFound", err)
	}
	if fetches != 1 {
		t.Errorf("non-retryable error fetched %d times", fetches)
	}
	if _, hit, _ := fc.Get(context.Background(), cache.NewDefaultKeyer().HTTPKey("test:", "missing")); hit {
		t.Error("failed fetch must not be cached")
	}
}
