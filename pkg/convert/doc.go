// Package convert turns requirements files and a legacy setup.py into a
// Poetry manifest.
//
// A conversion runs in stages:
//
//  1. Parse every normal requirements file, then every development file.
//  2. Read project metadata from BaseDir/setup.py, if there is one.
//  3. Resolve each requirement against the package index, sequentially or
//     with bounded parallelism. Results keep their input order either way.
//  4. Assemble a [manifest.Descriptor], rejecting conflicting duplicates.
//  5. ([Converter.Convert] only) write pyproject.toml.
//
// The first fatal error stops the run, and nothing is written unless every
// stage succeeded. A missing setup.py is not fatal; the project identity
// then comes from the explicit overrides or from defaults, with a warning.
//
// # Usage
//
//	conv := convert.New(resolver, logger)
//	d, err := conv.Convert(ctx, convert.Options{
//	    NormalFiles: []string{"requirements.txt"},
//	    DevFiles:    []string{"requirements-dev.txt"},
//	    BaseDir:     ".",
//	    Concurrency: 8,
//	})
package convert
