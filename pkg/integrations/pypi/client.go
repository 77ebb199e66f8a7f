package pypi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/stanza/pkg/buildinfo"
	"github.com/matzehuels/stanza/pkg/cache"
	"github.com/matzehuels/stanza/pkg/integrations"
	"github.com/matzehuels/stanza/pkg/requirements"
)

// DefaultBaseURL is the public PyPI JSON API.
const DefaultBaseURL = "https://pypi.org/pypi"

// Project is the release listing of one PyPI project.
//
// Name is the display name PyPI reports (e.g. "Django" for a request of
// "django"). Releases holds every installable version, sorted as strings;
// releases with no files or only yanked files are left out.
type Project struct {
	Name           string   `json:"name"`
	Latest         string   `json:"latest"`
	Releases       []string `json:"releases"`
	RequiresPython string   `json:"requires_python,omitempty"`
}

// Client provides access to the PyPI JSON API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client caching responses in backend for ttl.
// An empty baseURL selects [DefaultBaseURL]; pass a mirror's JSON API root
// to use another index.
func NewClient(backend cache.Cache, ttl time.Duration, baseURL string, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	headers := map[string]string{
		"Accept":     "application/json",
		"User-Agent": buildinfo.UserAgent(),
	}
	return &Client{
		Client:  integrations.NewClient(backend, "pypi:"+baseURL, ttl, headers, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchProject retrieves the release listing for a project.
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// Returns:
//   - [integrations.ErrNotFound] if the project doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, 429)
//   - other errors for JSON decoding failures
func (c *Client) FetchProject(ctx context.Context, name string, refresh bool) (*Project, error) {
	var p Project
	err := c.Cached(ctx, requirements.NormalizeName(name), refresh, &p, func() error {
		return c.fetch(ctx, name, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) fetch(ctx context.Context, name string, p *Project) error {
	var data apiResponse
	endpoint := fmt.Sprintf("%s/%s/json", c.baseURL, url.PathEscape(name))
	if err := c.Get(ctx, endpoint, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi project %s", err, name)
		}
		return err
	}

	*p = Project{
		Name:           data.Info.Name,
		Latest:         data.Info.Version,
		Releases:       installable(data.Releases),
		RequiresPython: data.Info.RequiresPython,
	}
	return nil
}

// installable returns the versions that have at least one file that was
// not yanked.
func installable(releases map[string][]apiFile) []string {
	versions := make([]string, 0, len(releases))
	for v, files := range releases {
		for _, f := range files {
			if !f.Yanked {
				versions = append(versions, v)
				break
			}
		}
	}
	sort.Strings(versions)
	return versions
}

type apiResponse struct {
	Info     apiInfo              `json:"info"`
	Releases map[string][]apiFile `json:"releases"`
}

type apiInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	RequiresPython string `json:"requires_python"`
}

type apiFile struct {
	Filename string `json:"filename"`
	Yanked   bool   `json:"yanked"`
}
