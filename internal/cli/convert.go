package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stanza/pkg/convert"
	"github.com/matzehuels/stanza/pkg/errors"
	"github.com/matzehuels/stanza/pkg/integrations"
	"github.com/matzehuels/stanza/pkg/integrations/pypi"
	"github.com/matzehuels/stanza/pkg/manifest"
	"github.com/matzehuels/stanza/pkg/resolve"
)

// convertFlags holds the root command's flag values.
type convertFlags struct {
	requirements    []string
	devRequirements []string
	name            string
	version         string
	jobs            int
	timeout         time.Duration
	indexURL        string
	redisURL        string
	noCache         bool
	refresh         bool
	prereleases     bool
	setupRequires   bool
	dryRun          bool
}

// convertCommand creates the root command, which converts a project.
func (c *CLI) convertCommand() *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "stanza [path]",
		Short: "Convert requirements.txt and setup.py to pyproject.toml",
		Long: `Stanza converts a project's setup.py and requirements files into a Poetry
pyproject.toml.

Every requirement is looked up on the package index. Requirements without a
version constraint are pinned to the latest published release; explicit
constraints are kept as written. Project metadata is read statically from
setup.py in the project directory, without running it.`,
		Example: `  # Runtime and development requirements of the current project
  stanza -r requirements.txt -R requirements-dev.txt

  # Preview the manifest for another directory
  stanza ./legacy-app -r ./legacy-app/requirements.txt --dry-run`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir := "."
			if len(args) == 1 {
				baseDir = args[0]
			}
			return c.runConvert(cmd.Context(), cmd.OutOrStdout(), baseDir, flags)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&flags.requirements, "requirements", "r", nil, "requirements file with normal dependencies (repeatable)")
	f.StringArrayVarP(&flags.devRequirements, "dev-requirements", "R", nil, "requirements file with development dependencies (repeatable)")
	f.StringVarP(&flags.name, "name", "n", "", "project name when setup.py does not provide one")
	f.StringVarP(&flags.version, "version", "V", "", "project version when setup.py does not provide one")
	f.IntVar(&flags.jobs, "jobs", 1, "number of parallel index lookups")
	f.DurationVar(&flags.timeout, "timeout", resolve.DefaultTimeout, "timeout for a single index lookup")
	f.StringVar(&flags.indexURL, "index-url", envDefault(envIndexURL, pypi.DefaultBaseURL), "package index JSON API root (env "+envIndexURL+")")
	f.StringVar(&flags.redisURL, "redis-url", envDefault(envRedisURL, ""), "share the response cache through Redis (env "+envRedisURL+")")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the response cache")
	f.BoolVar(&flags.refresh, "refresh", false, "ignore cached index responses")
	f.BoolVar(&flags.prereleases, "pre", false, "consider pre-releases when picking versions")
	f.BoolVar(&flags.setupRequires, "setup-requires", false, "also convert install_requires and tests_require from setup.py")
	f.BoolVar(&flags.dryRun, "dry-run", false, "print the manifest instead of writing it")

	registerConvertCompletions(cmd)
	return cmd
}

func (c *CLI) runConvert(ctx context.Context, out io.Writer, baseDir string, flags convertFlags) error {
	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", baseDir)
	}
	if err := errors.ValidateURL(flags.indexURL); err != nil {
		return err
	}

	backend, keyer, err := newCache(ctx, flags.noCache, flags.redisURL)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer backend.Close()

	installHooks(c.Logger)

	client := pypi.NewClient(backend, cacheTTL, flags.indexURL, integrations.WithKeyer(keyer))
	resolver := resolve.NewResolver(
		resolve.NewPyPIIndex(client, flags.refresh),
		resolve.WithTimeout(flags.timeout),
		resolve.WithPrereleases(flags.prereleases),
	)
	conv := convert.New(resolver, c.Logger)
	opts := convert.Options{
		NormalFiles:          flags.requirements,
		DevFiles:             flags.devRequirements,
		BaseDir:              baseDir,
		Name:                 flags.name,
		Version:              flags.version,
		Concurrency:          flags.jobs,
		IncludeSetupRequires: flags.setupRequires,
	}

	prog := newProgress(c.Logger)
	if flags.dryRun {
		d, err := conv.Build(ctx, opts)
		if err != nil {
			return err
		}
		data, err := manifest.Encode(d)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	d, err := conv.Convert(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Resolved %d dependencies", len(d.Dependencies)+len(d.DevDependencies)))

	printSuccess("Generated %s", manifest.Filename)
	printFile(filepath.Join(baseDir, manifest.Filename))
	printKeyValue("Project", d.Name)
	printKeyValue("Version", d.Version)
	printStats(len(d.Dependencies), len(d.DevDependencies))
	return nil
}
