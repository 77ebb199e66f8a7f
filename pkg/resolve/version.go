package resolve

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
)

// PEP 440 public version scheme, case-insensitive. Groups: 1 epoch,
// 2 release, 3-4 pre-release, 5 implicit post number, 6-7 post-release,
// 8-9 dev release, 10 local label.
var pep440RE = regexp.MustCompile(`(?i)^\s*v?(?:(\d+)!)?(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(a|alpha|b|beta|c|rc|pre|preview)[-_.]?(\d*))?` +
	`(?:-(\d+)|[-_.]?(post|rev|r)[-_.]?(\d*))?` +
	`(?:[-_.]?(dev)[-_.]?(\d*))?` +
	`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?\s*$`)

var releaseOnlyRE = regexp.MustCompile(`^\d+(?:\.\d+)*$`)

// Pre-release tags mapped to labels that sort correctly under go-version's
// lexical comparison of non-numeric pre-release parts: dev < a < b < rc.
var preLabels = map[string]string{
	"a": "a", "alpha": "a",
	"b": "b", "beta": "b",
	"c": "rc", "rc": "rc", "pre": "rc", "preview": "rc",
}

const devLabel = "0dev"

// release is a parsed PEP 440 version. The release segments and
// pre-release are carried by a go-version Version; post-releases, which
// go-version cannot order, are compared separately.
type release struct {
	raw      string
	v        *version.Version
	post     int   // -1 without post-release, else 2n for postN.dev, 2n+1 for postN
	segments []int // release segments as written
	stable   bool
}

func parseRelease(raw string) (release, error) {
	m := pep440RE.FindStringSubmatch(raw)
	if m == nil {
		return release{}, fmt.Errorf("invalid version %q", raw)
	}
	if m[1] != "" && atoi(m[1]) != 0 {
		return release{}, fmt.Errorf("unsupported version epoch in %q", raw)
	}

	r := release{raw: raw, post: -1, segments: segments(m[2])}
	var pre []string
	if m[3] != "" {
		pre = append(pre, preLabels[strings.ToLower(m[3])], num(m[4]))
	}
	switch {
	case m[5] != "":
		r.post = 2*atoi(m[5]) + 1
	case m[6] != "":
		r.post = 2*atoi(m[7]) + 1
	}
	dev := m[8] != ""
	if dev {
		if r.post >= 0 {
			r.post--
		} else {
			pre = append(pre, devLabel, num(m[9]))
		}
	}

	s := m[2]
	if len(pre) > 0 {
		s += "-" + strings.Join(pre, ".")
	}
	v, err := version.NewVersion(s)
	if err != nil {
		return release{}, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	r.v = v
	r.stable = len(pre) == 0 && !dev
	return r, nil
}

// num normalizes an optional numeric component ("" and "007" become "0" and "7").
func num(s string) string {
	return strconv.Itoa(atoi(s))
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func segments(s string) []int {
	parts := strings.Split(s, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i] = atoi(p)
	}
	return out
}

func (r release) compare(o release) int {
	if c := r.v.Compare(o.v); c != 0 {
		return c
	}
	return cmp.Compare(r.post, o.post)
}

// sameCore reports whether r and o share release segments, ignoring pre-
// and post-releases.
func (r release) sameCore(o release) bool {
	return r.hasPrefix(o.segments) && o.hasPrefix(r.segments)
}

// hasPrefix reports whether r's release segments, zero-padded, start with
// prefix.
func (r release) hasPrefix(prefix []int) bool {
	for i, p := range prefix {
		n := 0
		if i < len(r.segments) {
			n = r.segments[i]
		}
		if n != p {
			return false
		}
	}
	return true
}

// clause is one version clause of a specifier. Pre-releases are not
// excluded here; the resolver decides whether to prefer stable releases.
type clause struct {
	op      string
	bound   release
	prefix  []int  // release prefix for wildcards and "~="
	literal string // set for "===", compared as a string
}

func (c clause) allows(r release) bool {
	switch c.op {
	case "===":
		return strings.EqualFold(strings.TrimSpace(r.raw), c.literal)
	case "==*":
		return r.hasPrefix(c.prefix)
	case "!=*":
		return !r.hasPrefix(c.prefix)
	case "==":
		return r.compare(c.bound) == 0
	case "!=":
		return r.compare(c.bound) != 0
	case "<=":
		return r.compare(c.bound) <= 0
	case ">=":
		return r.compare(c.bound) >= 0
	case "~=":
		return r.compare(c.bound) >= 0 && r.hasPrefix(c.prefix)
	case "<":
		// <V excludes pre-releases of V unless V is one.
		if c.bound.v.Prerelease() == "" && r.v.Prerelease() != "" && r.sameCore(c.bound) {
			return false
		}
		return r.compare(c.bound) < 0
	case ">":
		// >V excludes post-releases of V unless V is one.
		if c.bound.post < 0 && r.post >= 0 && r.sameCore(c.bound) {
			return false
		}
		return r.compare(c.bound) > 0
	}
	return false
}

var specOps = []string{"===", "==", "!=", "<=", ">=", "~=", "<", ">"}

// translate converts a PEP 440 specifier ("~=1.4,!=1.4.2") into clauses.
// ok is false when any clause has no equivalent.
func translate(spec string) (clauses []clause, ok bool) {
	if spec == "" {
		return nil, true
	}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		op := ""
		for _, candidate := range specOps {
			if strings.HasPrefix(part, candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return nil, false
		}
		c, err := translateClause(op, strings.TrimSpace(part[len(op):]))
		if err != nil {
			return nil, false
		}
		clauses = append(clauses, c)
	}
	return clauses, true
}

func translateClause(op, ver string) (clause, error) {
	if op == "===" {
		return clause{op: op, literal: ver}, nil
	}

	if prefix, wildcard := strings.CutSuffix(ver, ".*"); wildcard {
		if op != "==" && op != "!=" {
			return clause{}, fmt.Errorf("wildcard not allowed with %s", op)
		}
		if !releaseOnlyRE.MatchString(prefix) {
			return clause{}, fmt.Errorf("invalid wildcard prefix %q", prefix)
		}
		return clause{op: op + "*", prefix: segments(prefix)}, nil
	}

	r, err := parseRelease(ver)
	if err != nil {
		return clause{}, err
	}
	c := clause{op: op, bound: r}
	if op == "~=" {
		if len(r.segments) < 2 {
			return clause{}, fmt.Errorf("~= needs at least two release segments, got %q", ver)
		}
		c.prefix = r.segments[:len(r.segments)-1]
	}
	return c, nil
}
