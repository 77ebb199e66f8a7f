package requirements

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/stanza/pkg/errors"
)

// Source locates a requirement in the file it was read from.
type Source struct {
	File string // Absolute path of the requirements file
	Line int    // 1-based line number of the first physical line
	Text string // The logical line as written, continuations joined
}

func (s Source) String() string {
	if s.File == "" {
		return "<input>"
	}
	return fmt.Sprintf("%s:%d", s.File, s.Line)
}

// Requirement is a single dependency declaration as written in a
// requirements file. It is never modified after being yielded.
type Requirement struct {
	Name      string   // Distribution name as written
	Extras    []string // Optional features, in order of first appearance
	Specifier string   // Version clauses joined by ",", empty means any version
	Marker    string   // Environment marker after ";", empty if none
	Source    Source
}

// Key returns the normalized name used to compare requirements.
func (r Requirement) Key() string { return NormalizeName(r.Name) }

// Any reports whether the requirement accepts every version.
func (r Requirement) Any() bool { return r.Specifier == "" }

// String renders the requirement in canonical PEP 508 form.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	b.WriteString(r.Specifier)
	if r.Marker != "" {
		b.WriteString("; " + r.Marker)
	}
	return b.String()
}

var (
	nameRE       = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)
	extraRE      = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	clauseRE     = regexp.MustCompile(`^(===|==|!=|<=|>=|~=|<|>)\s*([A-Za-z0-9_.*+!-]+)$`)
	separatorsRE = regexp.MustCompile(`[-_.]+`)
)

// NormalizeName returns the PEP 503 normalized form of a distribution name:
// lowercased, with runs of "-", "_" and "." collapsed to a single "-".
func NormalizeName(name string) string {
	return separatorsRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// ParseSpecifier parses a single PEP 508 requirement specifier such as
// "requests[socks]>=2.8,<3; python_version >= '3.8'". The returned
// requirement has an empty Source.
func ParseSpecifier(text string) (Requirement, error) {
	req, err := parseSpecifier(text)
	if err != nil {
		return Requirement{}, errors.New(errors.ErrCodeRequirementParse, "malformed requirement %q: %v", text, err)
	}
	return req, nil
}

func parseSpecifier(text string) (Requirement, error) {
	var req Requirement
	s := strings.TrimSpace(text)

	if head, marker, ok := strings.Cut(s, ";"); ok {
		req.Marker = strings.TrimSpace(marker)
		if req.Marker == "" {
			return req, fmt.Errorf("empty environment marker")
		}
		s = strings.TrimSpace(head)
	}

	req.Name = nameRE.FindString(s)
	if req.Name == "" {
		return req, fmt.Errorf("missing package name")
	}
	s = strings.TrimSpace(s[len(req.Name):])

	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return req, fmt.Errorf("unterminated extras list")
		}
		extras, err := parseExtras(s[1:end])
		if err != nil {
			return req, err
		}
		req.Extras = extras
		s = strings.TrimSpace(s[end+1:])
	}

	if strings.HasPrefix(s, "@") {
		return req, fmt.Errorf("direct references are not supported")
	}

	if strings.HasPrefix(s, "(") {
		if !strings.HasSuffix(s, ")") {
			return req, fmt.Errorf("unbalanced parenthesis in version clauses")
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	spec, err := parseClauses(s)
	if err != nil {
		return req, err
	}
	req.Specifier = spec
	return req, nil
}

func parseExtras(s string) ([]string, error) {
	var extras []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !extraRE.MatchString(e) {
			return nil, fmt.Errorf("invalid extra %q", e)
		}
		if !slices.Contains(extras, e) {
			extras = append(extras, e)
		}
	}
	return extras, nil
}

func parseClauses(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	clauses := strings.Split(s, ",")
	for i, c := range clauses {
		m := clauseRE.FindStringSubmatch(strings.TrimSpace(c))
		if m == nil {
			return "", fmt.Errorf("invalid version clause %q", strings.TrimSpace(c))
		}
		clauses[i] = m[1] + m[2]
	}
	return strings.Join(clauses, ","), nil
}
