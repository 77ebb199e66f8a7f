package convert

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stanza/pkg/errors"
	"github.com/matzehuels/stanza/pkg/manifest"
	"github.com/matzehuels/stanza/pkg/observability"
	"github.com/matzehuels/stanza/pkg/requirements"
	"github.com/matzehuels/stanza/pkg/resolve"
	"github.com/matzehuels/stanza/pkg/setuppy"
)

// Resolver selects a release for a requirement. [*resolve.Resolver]
// implements it.
type Resolver interface {
	Resolve(ctx context.Context, req requirements.Requirement, dev bool) (resolve.Dependency, error)
}

// ExtractFunc reads legacy project metadata from a setup.py path.
type ExtractFunc func(path string) (*setuppy.Metadata, error)

// Converter runs conversions. It holds no per-run state and is safe for
// concurrent use.
type Converter struct {
	resolver Resolver
	logger   *log.Logger
	extract  ExtractFunc
}

// Option configures a [Converter].
type Option func(*Converter)

// WithExtractor replaces the setup.py reader.
func WithExtractor(fn ExtractFunc) Option {
	return func(c *Converter) {
		if fn != nil {
			c.extract = fn
		}
	}
}

// New creates a Converter. A nil logger falls back to log.Default().
func New(resolver Resolver, logger *log.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = log.Default()
	}
	c := &Converter{
		resolver: resolver,
		logger:   logger,
		extract:  setuppy.Extract,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// entry is one requirement waiting for resolution.
type entry struct {
	req requirements.Requirement
	dev bool
}

// Convert builds the descriptor and writes BaseDir/pyproject.toml.
func (c *Converter) Convert(ctx context.Context, opts Options) (*manifest.Descriptor, error) {
	d, err := c.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	baseDir, _ := filepath.Abs(opts.BaseDir)
	if existing, err := manifest.Read(filepath.Join(baseDir, manifest.Filename)); err == nil {
		c.logger.Warn("overwriting existing manifest", "file", manifest.Filename, "project", existing.Name)
	}
	path, err := manifest.Write(d, baseDir)
	if err != nil {
		return nil, err
	}
	c.logger.Info("generated manifest", "path", path,
		"dependencies", len(d.Dependencies), "dev", len(d.DevDependencies))
	return d, nil
}

// Build runs every stage except writing and returns the descriptor.
func (c *Converter) Build(ctx context.Context, opts Options) (*manifest.Descriptor, error) {
	baseDir, err := filepath.Abs(defaultString(opts.BaseDir, "."))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve base directory %s", opts.BaseDir)
	}
	if fi, err := os.Stat(baseDir); err != nil || !fi.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "base directory %s is not a directory", baseDir)
	}

	var entries []entry
	for _, f := range opts.NormalFiles {
		if entries, err = c.parse(ctx, f, false, entries); err != nil {
			return nil, err
		}
	}
	for _, f := range opts.DevFiles {
		if entries, err = c.parse(ctx, f, true, entries); err != nil {
			return nil, err
		}
	}

	meta, err := c.legacy(ctx, baseDir)
	if err != nil {
		return nil, err
	}
	if meta != nil && opts.IncludeSetupRequires {
		if entries, err = appendSetupRequires(entries, meta); err != nil {
			return nil, err
		}
	}

	deps, err := c.resolveAll(ctx, entries, opts.Concurrency)
	if err != nil {
		return nil, err
	}

	name, version := c.identity(baseDir, meta, opts)
	if err := errors.ValidateProjectName(name); err != nil {
		return nil, err
	}
	if version == "" {
		return nil, errors.New(errors.ErrCodeNoProjectIdentity, "project version could not be determined")
	}

	d := manifest.New(name, version)
	if meta != nil {
		d.Description = meta.Description
		d.License = meta.License
		d.Homepage = meta.URL
		d.Author = manifest.FormatAuthor(meta.Author, meta.AuthorEmail)
		if meta.PythonRequires != "" {
			d.Python = meta.PythonRequires
		}
	}
	if err := c.assemble(d, deps); err != nil {
		return nil, err
	}
	return d, nil
}

func (c *Converter) parse(ctx context.Context, file string, dev bool, entries []entry) ([]entry, error) {
	hooks := observability.Conversion()
	hooks.OnParseStart(ctx, file, dev)
	start := time.Now()

	if abs, err := filepath.Abs(file); err == nil {
		if dev {
			c.logger.Info("adding dev dependencies", "file", abs)
		} else {
			c.logger.Info("adding dependencies", "file", abs)
		}
	}

	n := 0
	for req, err := range requirements.Parse(file) {
		if err != nil {
			hooks.OnParseComplete(ctx, file, dev, n, time.Since(start), err)
			return nil, err
		}
		entries = append(entries, entry{req: req, dev: dev})
		n++
	}
	hooks.OnParseComplete(ctx, file, dev, n, time.Since(start), nil)
	return entries, nil
}

// legacy reads baseDir/setup.py. It returns nil metadata when the file
// does not exist.
func (c *Converter) legacy(ctx context.Context, baseDir string) (*setuppy.Metadata, error) {
	path := filepath.Join(baseDir, setuppy.Filename)
	start := time.Now()
	meta, err := c.extract(path)
	found := !errors.Is(err, errors.ErrCodeLegacyFileMissing)
	observability.Conversion().OnExtract(ctx, path, found, time.Since(start), err)

	if !found {
		c.logger.Warn("no setup.py found", "dir", baseDir)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(meta.Unresolved) > 0 {
		c.logger.Warn("setup.py values are not static literals and were skipped",
			"keywords", strings.Join(meta.Unresolved, ","))
	}
	return meta, nil
}

func appendSetupRequires(entries []entry, meta *setuppy.Metadata) ([]entry, error) {
	sets := []struct {
		specs []string
		dev   bool
	}{
		{meta.InstallRequires, false},
		{meta.TestsRequire, true},
	}
	for _, set := range sets {
		for _, spec := range set.specs {
			req, err := requirements.ParseSpecifier(spec)
			if err != nil {
				return nil, err
			}
			req.Source = requirements.Source{File: setuppy.Filename, Text: spec}
			entries = append(entries, entry{req: req, dev: set.dev})
		}
	}
	return entries, nil
}

// resolveAll resolves entries in order. With concurrency above 1 lookups
// run in parallel, but results are stored by index so the outcome matches
// a sequential run.
func (c *Converter) resolveAll(ctx context.Context, entries []entry, concurrency int) ([]resolve.Dependency, error) {
	deps := make([]resolve.Dependency, len(entries))

	if concurrency < 2 {
		for i, e := range entries {
			dep, err := c.resolver.Resolve(ctx, e.req, e.dev)
			if err != nil {
				return nil, err
			}
			c.logger.Debug("resolved", "package", dep.Name, "version", dep.Version)
			deps[i] = dep
		}
		return deps, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, e := range entries {
		g.Go(func() error {
			dep, err := c.resolver.Resolve(ctx, e.req, e.dev)
			if err != nil {
				return err
			}
			c.logger.Debug("resolved", "package", dep.Name, "version", dep.Version)
			deps[i] = dep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return deps, nil
}

// identity picks the project name and version: setup.py first, then the
// explicit overrides, then defaults.
func (c *Converter) identity(baseDir string, meta *setuppy.Metadata, opts Options) (name, version string) {
	if meta != nil {
		name, version = meta.Name, meta.Version
	}
	name = defaultString(name, opts.Name)
	version = defaultString(version, opts.Version)

	defaulted := false
	if name == "" {
		name = dirProjectName(baseDir)
		defaulted = true
	}
	if version == "" {
		version = DefaultVersion
		defaulted = true
	}
	if defaulted {
		c.logger.Warn("using default project identity", "name", name, "version", version)
		c.logger.Warn("if this is not what you want, pass --name and --version")
	}
	return name, version
}

// assemble adds resolved dependencies to d. A package listed twice in one
// set must carry the same constraint both times.
func (c *Converter) assemble(d *manifest.Descriptor, deps []resolve.Dependency) error {
	type seen struct {
		name string
		src  requirements.Source
	}
	runtime := make(map[string]seen)
	dev := make(map[string]seen)

	for _, dep := range deps {
		key := requirements.NormalizeName(dep.Name)
		set, index := d.Dependencies, runtime
		if dep.Dev {
			set, index = d.DevDependencies, dev
		}

		con := constraintFor(dep)
		if prev, ok := index[key]; ok {
			if set[prev.name].Equal(con) {
				c.logger.Debug("duplicate requirement", "package", dep.Name, "first", prev.src, "again", dep.Requirement.Source)
				continue
			}
			return errors.New(errors.ErrCodeDependencyConflict,
				"%s: %s %q conflicts with %s %q at %s",
				dep.Requirement.Source, dep.Name, con, prev.name, set[prev.name], prev.src)
		}
		index[key] = seen{name: dep.Name, src: dep.Requirement.Source}
		set[dep.Name] = con
	}

	for _, key := range slices.Sorted(maps.Keys(runtime)) {
		if other, ok := dev[key]; ok {
			r := runtime[key]
			c.logger.Warn("package is both a runtime and a dev dependency", "package", r.name, "runtime", r.src, "dev", other.src)
		}
	}
	return nil
}

// constraintFor keeps the user's range when one was written and pins the
// resolved release otherwise.
func constraintFor(dep resolve.Dependency) manifest.Constraint {
	version := dep.Requirement.Specifier
	if version == "" {
		version = dep.Constraint
	}
	return manifest.Constraint{
		Version: version,
		Extras:  dep.Requirement.Extras,
		Markers: dep.Requirement.Marker,
	}
}

var nameUnsafeRE = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// dirProjectName derives a distribution name from a directory name:
// "My Project" becomes "my-project".
func dirProjectName(dir string) string {
	name := nameUnsafeRE.ReplaceAllString(filepath.Base(dir), "-")
	return requirements.NormalizeName(strings.Trim(name, "-_."))
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
