package resolve

import (
	"context"
	"errors"
	"slices"

	"github.com/matzehuels/stanza/pkg/integrations"
	"github.com/matzehuels/stanza/pkg/integrations/pypi"
	"github.com/matzehuels/stanza/pkg/requirements"
)

// Package is one published release as reported by an index.
type Package struct {
	Name    string
	Version string
}

// Index lists the published releases for a project name. It may return
// releases of other projects with similar names and duplicate entries;
// the resolver filters both. An unknown project yields no packages and no
// error.
type Index interface {
	FindPackages(ctx context.Context, name string) ([]Package, error)
}

// PyPIIndex serves [Index] from the PyPI JSON API.
type PyPIIndex struct {
	client  *pypi.Client
	refresh bool
}

// NewPyPIIndex wraps a PyPI client. With refresh set, cached responses are
// ignored.
func NewPyPIIndex(client *pypi.Client, refresh bool) *PyPIIndex {
	return &PyPIIndex{client: client, refresh: refresh}
}

// FindPackages implements [Index].
//
// PyPI answers for the normalized project name and reports its display
// name, so "django" comes back as "Django". Releases are reported under the
// requested spelling when both normalize to the same name, since they
// denote the same project.
func (p *PyPIIndex) FindPackages(ctx context.Context, name string) ([]Package, error) {
	project, err := p.client.FetchProject(ctx, name, p.refresh)
	if errors.Is(err, integrations.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	reported := project.Name
	if requirements.NormalizeName(reported) == requirements.NormalizeName(name) {
		reported = name
	}
	pkgs := make([]Package, len(project.Releases))
	for i, v := range project.Releases {
		pkgs[i] = Package{Name: reported, Version: v}
	}
	return pkgs, nil
}

// StaticIndex is a fixed listing. Lookups return every package whose name
// shares the requested name's normalized form, mimicking an index search
// that returns near-matches.
type StaticIndex []Package

// FindPackages implements [Index].
func (s StaticIndex) FindPackages(ctx context.Context, name string) ([]Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := requirements.NormalizeName(name)
	return slices.DeleteFunc(slices.Clone(s), func(p Package) bool {
		return requirements.NormalizeName(p.Name) != key
	}), nil
}

var (
	_ Index = (*PyPIIndex)(nil)
	_ Index = StaticIndex(nil)
)
