// Package integrations holds the shared HTTP plumbing for package index
// clients.
//
// [Client] wraps an [http.Client] with response caching (any [cache.Cache]
// backend), retries with exponential backoff for transient failures, and
// status mapping:
//
//   - 404 becomes [ErrNotFound]
//   - 429 becomes a retryable [ErrNetwork] carrying an [errors.RateLimitedError]
//   - 5xx and transport failures become retryable [ErrNetwork]
//
// Registry-specific clients live in subpackages and embed *Client:
//
//   - [pypi]: Python Package Index JSON API
//
// [cache.Cache]: github.com/matzehuels/stanza/pkg/cache
// [errors.RateLimitedError]: github.com/matzehuels/stanza/pkg/errors
// [pypi]: github.com/matzehuels/stanza/pkg/integrations/pypi
package integrations
