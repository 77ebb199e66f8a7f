package requirements

import (
	"bufio"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/matzehuels/stanza/pkg/errors"
)

// Global pip options that may appear in a requirements file but do not
// declare a dependency.
var ignoredOptions = []string{
	"-i", "--index-url", "--extra-index-url", "--no-index",
	"-f", "--find-links", "-c", "--constraint",
	"--pre", "--trusted-host", "--no-binary", "--only-binary",
	"--prefer-binary", "--require-hashes", "--use-feature",
}

// Parse returns the requirements declared in the file at path, including
// the records of every file it includes. See the package documentation for
// the line grammar.
func Parse(path string) iter.Seq2[Requirement, error] {
	return func(yield func(Requirement, error) bool) {
		abs, err := filepath.Abs(path)
		if err != nil {
			yield(Requirement{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", path))
			return
		}
		w := &walker{yield: yield}
		w.file(abs, nil, nil)
	}
}

// Collect drains [Parse] into a slice, stopping at the first error.
func Collect(path string) ([]Requirement, error) {
	var reqs []Requirement
	for req, err := range Parse(path) {
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

type walker struct {
	yield func(Requirement, error) bool
}

// fail yields err and reports that iteration must stop.
func (w *walker) fail(err error) bool {
	w.yield(Requirement{}, err)
	return false
}

// file yields every record of path. chain holds the files currently being
// read, outermost first; from is the directive that included path, nil for
// the top-level file. It returns false once iteration must stop.
func (w *walker) file(path string, chain []string, from *Source) bool {
	if i := slices.Index(chain, path); i >= 0 {
		cycle := append(slices.Clone(chain[i:]), path)
		return w.fail(errors.New(errors.ErrCodeCyclicInclusion,
			"%s: cyclic inclusion: %s", from, strings.Join(cycle, " -> ")))
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			if from == nil {
				return w.fail(errors.New(errors.ErrCodeInclusionNotFound, "requirements file not found: %s", path))
			}
			return w.fail(errors.New(errors.ErrCodeInclusionNotFound, "%s: included file not found: %s", from, path))
		}
		return w.fail(errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path))
	}
	defer f.Close()

	chain = append(slices.Clone(chain), path)

	var (
		sc      = bufio.NewScanner(f)
		pending strings.Builder
		n       int
		start   int
	)
	for sc.Scan() {
		n++
		if pending.Len() == 0 {
			start = n
		}
		text := strings.TrimRightFunc(sc.Text(), unicode.IsSpace)
		if body, ok := strings.CutSuffix(text, `\`); ok && !isComment(text) {
			pending.WriteString(body)
			continue
		}
		pending.WriteString(text)
		src := Source{File: path, Line: start, Text: pending.String()}
		pending.Reset()
		if !w.line(src, chain) {
			return false
		}
	}
	if err := sc.Err(); err != nil {
		return w.fail(errors.Wrap(errors.ErrCodeRequirementParse, err, "read %s", path))
	}
	if pending.Len() > 0 {
		return w.line(Source{File: path, Line: start, Text: pending.String()}, chain)
	}
	return true
}

func (w *walker) line(src Source, chain []string) bool {
	l := strings.TrimSpace(src.Text)
	if l == "" || isComment(l) {
		return true
	}
	l = stripComment(l)

	if _, ok := option(l, "-e", "--editable"); ok {
		return true
	}
	if target, ok := option(l, "-r", "--requirement"); ok {
		if target == "" {
			return w.fail(errors.New(errors.ErrCodeRequirementParse,
				"%s: malformed inclusion directive %q", src, src.Text))
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(src.File), target)
		}
		return w.file(filepath.Clean(target), chain, &src)
	}
	if strings.HasPrefix(l, "-") {
		for _, opt := range ignoredOptions {
			if _, ok := option(l, opt, opt); ok {
				return true
			}
		}
		return w.fail(errors.New(errors.ErrCodeRequirementParse,
			"%s: unsupported option %q", src, strings.Fields(l)[0]))
	}

	req, err := parseSpecifier(stripOptions(l))
	if err != nil {
		return w.fail(errors.New(errors.ErrCodeRequirementParse,
			"%s: malformed requirement %q: %v", src, l, err))
	}
	req.Source = src
	return w.yield(req, nil)
}

func isComment(l string) bool {
	return strings.HasPrefix(strings.TrimSpace(l), "#")
}

// stripComment removes a trailing comment. pip only treats "#" as a comment
// when it starts the line or follows whitespace.
func stripComment(l string) string {
	for i := 1; i < len(l); i++ {
		if l[i] == '#' && (l[i-1] == ' ' || l[i-1] == '\t') {
			return strings.TrimSpace(l[:i])
		}
	}
	return l
}

// stripOptions drops per-requirement options such as --hash.
func stripOptions(l string) string {
	if i := strings.Index(l, " --"); i >= 0 {
		return strings.TrimSpace(l[:i])
	}
	return l
}

// option matches l against a short or long option and returns its value.
// Short options may be glued to their value ("-rbase.txt"); long options
// take "=" or whitespace.
func option(l, short, long string) (string, bool) {
	if rest, ok := strings.CutPrefix(l, long); ok && (rest == "" || rest[0] == '=' || rest[0] == ' ' || rest[0] == '\t') {
		return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "=")), true
	}
	if strings.HasPrefix(short, "--") {
		return "", false
	}
	if rest, ok := strings.CutPrefix(l, short); ok {
		return strings.TrimSpace(strings.TrimPrefix(rest, "=")), true
	}
	return "", false
}
