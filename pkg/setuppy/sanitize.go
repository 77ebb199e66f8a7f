package setuppy

import (
	"regexp"
	"strings"
)

// Simple statements the grammar rejects, matched at the start of a logical
// line. Each keeps the line's indentation.
var statementRewrites = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`^(import|from)\s`), "pass"},
	{regexp.MustCompile(`^(raise|assert|del|global|nonlocal|yield)\b`), "pass"},
	{regexp.MustCompile(`^print\s+[^\s(=]`), "pass"},
	{regexp.MustCompile(`^@`), "pass"},
}

// Compound statement headers replaced by an if header with the same body.
// Bodies of false branches are never evaluated.
var headerRewrites = map[string]string{
	"try":     "True",
	"finally": "True",
	"with":    "True",
	"while":   "True",
	"except":  "False",
	"class":   "False",
}

// annotated matches "NAME: T" and "NAME: T = value".
var annotated = regexp.MustCompile(`^([A-Za-z_][\w.]*)\s*:[^=]*(=.*)?$`)

var keywords = map[string]bool{
	"if": true, "elif": true, "else": true, "for": true, "while": true,
	"try": true, "except": true, "finally": true, "with": true, "def": true,
	"class": true, "lambda": true, "return": true,
}

// fstringCall wraps f-strings so they parse as calls, which the evaluator
// treats as non-literal.
const fstringCall = "__fstring__"

// sanitizer rewrites Python source into something the Starlark parser
// accepts. It tracks string and bracket state across lines so only real
// statement starts are rewritten.
type sanitizer struct {
	quote     string // delimiter of the string literal spanning lines, if any
	closeCall bool   // the open string is an f-string needing ")"
	depth     int    // bracket nesting
	cont      bool   // previous line ended with a backslash
	skipping  bool   // blanking the tail of a rewritten statement
	adjacent  bool   // the last token was a string literal
	colon     int    // output offset of the first top-level ':' on the line, or -1

	header bool // inside a wrapped header, waiting for its ':'

	last map[string]string // first word of the last statement per indentation
}

func sanitize(src []byte) []byte {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	s := sanitizer{last: make(map[string]string)}
	for i, l := range lines {
		lines[i] = s.line(l)
	}
	return []byte(strings.Join(lines, "\n"))
}

func (s *sanitizer) line(l string) string {
	start := s.quote == "" && s.depth == 0 && !s.cont
	if start {
		s.skipping = false
	}
	transformed := s.scan(l)
	ended := s.quote == "" && s.depth == 0 && !s.cont

	// A wrapped header opens "if (cond" and its last line closes it, so the
	// lines in between stay inside brackets. The grammar rejects blank lines
	// before a block's first statement.
	if s.header {
		if s.colon < 0 {
			if ended {
				s.header = false
				return ")"
			}
			return ""
		}
		s.header = false
		return "):" + s.inline(transformed[s.colon+1:])
	}
	if s.skipping {
		return ""
	}
	if !start {
		return transformed
	}

	trimmed := strings.TrimLeft(transformed, " \t")
	indent := transformed[:len(transformed)-len(trimmed)]
	word := leadingWord(trimmed)
	prev := s.last[indent]
	if word != "" {
		s.last[indent] = word
	}

	cond, ok := headerRewrites[word]
	if word == "else" && prev == "for" {
		cond, ok = "False", true
	}
	if ok {
		if s.colon < 0 && !ended {
			s.header = true
			return indent + "if (" + cond
		}
		if s.colon < 0 {
			return indent + "if " + cond + ":"
		}
		return indent + "if " + cond + ":" + s.inline(transformed[s.colon+1:])
	}

	if out, ok := s.rewrite(trimmed); ok {
		return indent + out
	}

	if m := annotated.FindStringSubmatch(trimmed); m != nil && !keywords[m[1]] {
		if m[2] == "" {
			return indent + "pass"
		}
		return indent + m[1] + " " + m[2]
	}
	return transformed
}

// rewrite applies the simple statement rewrites to stmt. A match blanks the
// rest of the logical line.
func (s *sanitizer) rewrite(stmt string) (string, bool) {
	for _, rw := range statementRewrites {
		if rw.re.MatchString(stmt) {
			s.skipping = true
			return rw.repl, true
		}
	}
	return "", false
}

// inline returns the statement following a header's colon on the same line,
// with a leading space, or "" when there is none.
func (s *sanitizer) inline(body string) string {
	body = strings.TrimSpace(body)
	if body == "" || body[0] == '#' {
		return ""
	}
	if out, ok := s.rewrite(body); ok {
		return " " + out
	}
	return " " + body
}

// scan updates the lexical state with one line of source and returns the
// line with string prefixes and identity operators rewritten.
func (s *sanitizer) scan(l string) string {
	var out strings.Builder
	i := 0
	if s.quote == "" && s.depth == 0 && !s.cont {
		s.adjacent = false
	}
	s.cont = false
	s.colon = -1

	for i < len(l) {
		if s.quote != "" {
			end := closingQuote(l, i, s.quote)
			if end < 0 {
				out.WriteString(l[i:])
				if len(s.quote) == 1 && !strings.HasSuffix(l, `\`) {
					// Unterminated single-quoted string; the parser reports it.
					s.quote, s.closeCall = "", false
				}
				return out.String()
			}
			out.WriteString(l[i:end])
			i = end
			s.quote = ""
			s.adjacent = true
			if s.closeCall {
				out.WriteByte(')')
				s.closeCall = false
			}
			continue
		}

		c := l[i]
		switch {
		case c == '#':
			out.WriteString(l[i:])
			return out.String()
		case c == ' ' || c == '\t' || c == '\\':
			out.WriteByte(c)
			i++
			continue
		case c == '"' || c == '\'':
			s.openString(&out, l, i, "")
			i += len(s.quote)
		case c == '(' || c == '[' || c == '{':
			s.adjacent = false
			s.depth++
			out.WriteByte(c)
			i++
		case c == ')' || c == ']' || c == '}':
			s.adjacent = false
			if s.depth > 0 {
				s.depth--
			}
			out.WriteByte(c)
			i++
		case c == ':' && s.depth == 0 && s.colon < 0:
			s.adjacent = false
			s.colon = out.Len()
			out.WriteByte(c)
			i++
		case isIdentStart(c):
			j := i
			for j < len(l) && isIdentChar(l[j]) {
				j++
			}
			word := l[i:j]
			if j < len(l) && (l[j] == '"' || l[j] == '\'') && isStringPrefix(word) {
				s.openString(&out, l, j, strings.ToLower(word))
				i = j + len(s.quote)
				continue
			}
			s.adjacent = false
			if word == "is" {
				k := j
				for k < len(l) && (l[k] == ' ' || l[k] == '\t') {
					k++
				}
				if strings.HasPrefix(l[k:], "not") && (k+3 == len(l) || !isIdentChar(l[k+3])) {
					out.WriteString("!=")
					i = k + 3
					continue
				}
				out.WriteString("==")
				i = j
				continue
			}
			out.WriteString(word)
			i = j
		default:
			s.adjacent = false
			out.WriteByte(c)
			i++
		}
	}

	if s.quote == "" && strings.HasSuffix(strings.TrimRight(l, " \t"), `\`) {
		s.cont = true
	}
	return out.String()
}

// openString writes the opening of a string literal starting at l[i] and
// records its delimiter. prefix is the lowercased string prefix, if any.
func (s *sanitizer) openString(out *strings.Builder, l string, i int, prefix string) {
	q := string(l[i])
	if strings.HasPrefix(l[i:], q+q+q) {
		q = q + q + q
	}
	s.quote = q

	// Python joins adjacent literals; Starlark needs an explicit +.
	if s.adjacent {
		out.WriteString("+ ")
	}
	s.adjacent = false

	raw := strings.Contains(prefix, "r")
	if strings.Contains(prefix, "f") {
		out.WriteString(fstringCall + "(")
		s.closeCall = true
	}
	if raw {
		out.WriteByte('r')
	}
	out.WriteString(q)
}

// closingQuote returns the index just past the closing delimiter q in l,
// starting at i, or -1.
func closingQuote(l string, i int, q string) int {
	for i < len(l) {
		switch {
		case l[i] == '\\':
			i += 2
		case strings.HasPrefix(l[i:], q):
			return i + len(q)
		default:
			i++
		}
	}
	return -1
}

func leadingWord(s string) string {
	i := 0
	for i < len(s) && isIdentChar(s[i]) {
		i++
	}
	if i == 0 || !isIdentStart(s[0]) {
		return ""
	}
	return s[:i]
}

func isStringPrefix(w string) bool {
	switch strings.ToLower(w) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
