package resolve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stanza/pkg/cache"
	"github.com/matzehuels/stanza/pkg/integrations/pypi"
)

func pypiServer(t *testing.T) *pypi.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pypi/django/json", "/pypi/Django/json":
			json.NewEncoder(w).Encode(map[string]any{
				"info": map[string]any{"name": "Django", "version": "5.0.3"},
				"releases": map[string]any{
					"4.2.11": []map[string]any{{"filename": "Django-4.2.11.tar.gz"}},
					"5.0.3":  []map[string]any{{"filename": "Django-5.0.3.tar.gz"}},
					"5.1a1":  []map[string]any{{"filename": "Django-5.1a1.tar.gz"}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return pypi.NewClient(cache.NewNullCache(), time.Hour, server.URL+"/pypi")
}

func TestPyPIIndex_ReportsRequestedSpelling(t *testing.T) {
	idx := NewPyPIIndex(pypiServer(t), false)

	pkgs, err := idx.FindPackages(context.Background(), "django")
	require.NoError(t, err)
	require.Len(t, pkgs, 3)
	for _, p := range pkgs {
		assert.Equal(t, "django", p.Name)
	}

	dep, err := NewResolver(idx).Resolve(context.Background(), req(t, "django"), false)
	require.NoError(t, err)
	assert.Equal(t, "5.0.3", dep.Version)
}

func TestPyPIIndex_UnknownProject(t *testing.T) {
	idx := NewPyPIIndex(pypiServer(t), false)

	pkgs, err := idx.FindPackages(context.Background(), "no-such-project")
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}
