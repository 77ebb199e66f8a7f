package resolve

import (
	"context"
	"errors"
	"time"

	stanzaerrors "github.com/matzehuels/stanza/pkg/errors"
	"github.com/matzehuels/stanza/pkg/observability"
	"github.com/matzehuels/stanza/pkg/requirements"
)

// DefaultTimeout bounds a single index lookup.
const DefaultTimeout = 30 * time.Second

// Dependency is a requirement after version resolution.
type Dependency struct {
	Name        string // Requirement name as written
	Version     string // Selected release, as the index spells it
	Constraint  string // Exact pin of the selected release
	Dev         bool   // Belongs to the development set
	Requirement requirements.Requirement
}

// Resolver selects versions from an [Index]. It holds no per-call state and
// is safe for concurrent use.
type Resolver struct {
	index       Index
	timeout     time.Duration
	prereleases bool
}

// Option configures a [Resolver].
type Option func(*Resolver)

// WithTimeout bounds each index lookup. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithPrereleases lets pre-releases compete with stable releases.
func WithPrereleases(allow bool) Option {
	return func(r *Resolver) { r.prereleases = allow }
}

// NewResolver creates a Resolver over idx.
func NewResolver(idx Index, opts ...Option) *Resolver {
	r := &Resolver{index: idx, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve picks the release for req. Errors carry VERSION_RESOLUTION,
// or TIMEOUT when the index did not answer in time. Cancellation of ctx is
// returned as ctx.Err().
func (r *Resolver) Resolve(ctx context.Context, req requirements.Requirement, dev bool) (Dependency, error) {
	hooks := observability.Conversion()
	hooks.OnResolveStart(ctx, req.Name)
	start := time.Now()

	dep, err := r.resolve(ctx, req, dev)
	hooks.OnResolveComplete(ctx, req.Name, dep.Version, time.Since(start), err)
	return dep, err
}

func (r *Resolver) resolve(ctx context.Context, req requirements.Requirement, dev bool) (Dependency, error) {
	if err := stanzaerrors.ValidatePythonPackageName(req.Name); err != nil {
		return Dependency{}, stanzaerrors.Wrap(stanzaerrors.ErrCodeVersionResolution, err, "%s: cannot resolve %q", req.Source, req.Name)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pkgs, err := r.index.FindPackages(lookupCtx, req.Name)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return Dependency{}, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded) || lookupCtx.Err() != nil:
			return Dependency{}, stanzaerrors.Wrap(stanzaerrors.ErrCodeTimeout, err,
				"%s: index did not answer for %s within %s", req.Source, req.Name, r.timeout)
		default:
			return Dependency{}, stanzaerrors.Wrap(stanzaerrors.ErrCodeVersionResolution, err,
				"%s: index lookup for %s failed", req.Source, req.Name)
		}
	}

	best, ok := r.pick(req, pkgs)
	if !ok {
		return Dependency{}, stanzaerrors.New(stanzaerrors.ErrCodeVersionResolution,
			"%s: no published release of %s matches %q", req.Source, req.Name, req.String())
	}
	return Dependency{
		Name:        req.Name,
		Version:     best.raw,
		Constraint:  best.raw,
		Dev:         dev,
		Requirement: req,
	}, nil
}

// pick returns the highest acceptable release among the exact-name matches.
func (r *Resolver) pick(req requirements.Requirement, pkgs []Package) (release, bool) {
	var candidates []release
	for _, p := range pkgs {
		if p.Name != req.Name {
			continue
		}
		rel, err := parseRelease(p.Version)
		if err != nil {
			continue
		}
		candidates = append(candidates, rel)
	}

	if clauses, ok := translate(req.Specifier); ok && len(clauses) > 0 {
		candidates = filter(candidates, func(rel release) bool {
			for _, c := range clauses {
				if !c.allows(rel) {
					return false
				}
			}
			return true
		})
	}

	if !r.prereleases {
		if stable := filter(candidates, func(rel release) bool { return rel.stable }); len(stable) > 0 {
			candidates = stable
		}
	}

	var best release
	for i, c := range candidates {
		if i == 0 || c.compare(best) > 0 {
			best = c
		}
	}
	return best, len(candidates) > 0
}

func filter(rels []release, keep func(release) bool) []release {
	var out []release
	for _, rel := range rels {
		if keep(rel) {
			out = append(out, rel)
		}
	}
	return out
}
