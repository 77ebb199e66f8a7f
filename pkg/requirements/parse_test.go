package requirements

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/stanza/pkg/errors"
)

func names(t *testing.T, path string) []string {
	t.Helper()
	reqs, err := Collect(path)
	if err != nil {
		t.Fatalf("Collect(%s) error: %v", path, err)
	}
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Name
	}
	return out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse_Base(t *testing.T) {
	got := names(t, "testdata/requirements/base.txt")
	want := []string{"pytz", "Django", "requests", "python-dateutil"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestParse_RecordsCarrySource(t *testing.T) {
	reqs, err := Collect("testdata/requirements/base.txt")
	if err != nil {
		t.Fatal(err)
	}
	dateutil := reqs[3]
	if dateutil.Source.Line != 7 {
		t.Errorf("Line = %d, want 7", dateutil.Source.Line)
	}
	if !filepath.IsAbs(dateutil.Source.File) || filepath.Base(dateutil.Source.File) != "base.txt" {
		t.Errorf("File = %q, want absolute path to base.txt", dateutil.Source.File)
	}
	if dateutil.Marker != `python_version >= "3.6"` {
		t.Errorf("Marker = %q", dateutil.Marker)
	}
	if reqs[2].Specifier != ">=2.25" {
		t.Errorf("inline comment not stripped: Specifier = %q", reqs[2].Specifier)
	}
}

func TestParse_InclusionInPlace(t *testing.T) {
	got := names(t, "testdata/requirements/production.txt")
	want := []string{"pytz", "Django", "requests", "python-dateutil", "psycopg2", "gunicorn"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestParse_ContinuationAndHashes(t *testing.T) {
	reqs, err := Collect("testdata/requirements/production.txt")
	if err != nil {
		t.Fatal(err)
	}
	gunicorn := reqs[len(reqs)-1]
	if gunicorn.Specifier != ">=20.1" || gunicorn.Source.Line != 4 {
		t.Errorf("gunicorn = %+v", gunicorn)
	}

	reqs, err = Collect("testdata/requirements/local.txt")
	if err != nil {
		t.Fatal(err)
	}
	coverage := reqs[len(reqs)-1]
	if coverage.Name != "coverage" || coverage.Specifier != "" || len(coverage.Extras) != 1 {
		t.Errorf("coverage = %+v", coverage)
	}
}

func TestParse_RelativeToIncludingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "reqs/common/shared.txt", "attrs\n")
	writeFile(t, dir, "reqs/dev.txt", "-r common/shared.txt\nblack\n")
	top := writeFile(t, dir, "requirements.txt", "--requirement=reqs/dev.txt\n")

	// The working directory must not matter.
	t.Chdir(t.TempDir())

	got := names(t, top)
	if strings.Join(got, " ") != "attrs black" {
		t.Errorf("names = %v, want [attrs black]", got)
	}
}

func TestParse_AbsoluteInclusion(t *testing.T) {
	dir := t.TempDir()
	shared := writeFile(t, dir, "elsewhere/shared.txt", "attrs\n")
	top := writeFile(t, dir, "project/requirements.txt", "-r "+shared+"\nblack\n")

	got := names(t, top)
	if strings.Join(got, " ") != "attrs black" {
		t.Errorf("names = %v, want [attrs black]", got)
	}
}

func TestParse_OneRecordPerLine(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "requirements.txt", strings.Join([]string{
		"# comment",
		"",
		"   ",
		"alpha",
		"-e git+https://example.com/repo.git#egg=proj",
		"--editable .",
		"beta==1.0",
		"alpha",
		"\t# indented comment",
		"gamma",
	}, "\n"))

	got := names(t, path)
	if strings.Join(got, " ") != "alpha beta alpha gamma" {
		t.Errorf("names = %v, want duplicates preserved in file order", got)
	}
}

func TestParse_Restartable(t *testing.T) {
	seq := Parse("testdata/requirements/production.txt")
	var first, second []string
	for req, err := range seq {
		if err != nil {
			t.Fatal(err)
		}
		first = append(first, req.String())
	}
	for req, err := range seq {
		if err != nil {
			t.Fatal(err)
		}
		second = append(second, req.String())
	}
	if strings.Join(first, "|") != strings.Join(second, "|") {
		t.Errorf("second traversal differs:\n%v\n%v", first, second)
	}
}

func TestParse_EarlyBreak(t *testing.T) {
	count := 0
	for _, err := range Parse("testdata/requirements/production.txt") {
		if err != nil {
			t.Fatal(err)
		}
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestParse_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		code    errors.Code
		mention string
	}{
		{"missing include", "-r nope.txt\n", errors.ErrCodeInclusionNotFound, "nope.txt"},
		{"empty include", "six\n-r   \n", errors.ErrCodeRequirementParse, ":2"},
		{"bad specifier", "six\nfoo >= \n", errors.ErrCodeRequirementParse, "foo >="},
		{"unknown option", "--frobnicate\n", errors.ErrCodeRequirementParse, "--frobnicate"},
		{"bare url", "https://example.com/pkg.tar.gz\n", errors.ErrCodeRequirementParse, "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".txt", tt.content)
			_, err := Collect(path)
			if !errors.Is(err, tt.code) {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
			if !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("error %q does not mention %q", err, tt.mention)
			}
		})
	}
}

func TestParse_RecordsBeforeErrorAreYielded(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "requirements.txt", "six\nattrs\n-r missing.txt\nnever\n")

	var got []string
	var last error
	for req, err := range Parse(path) {
		if err != nil {
			last = err
			continue
		}
		got = append(got, req.Name)
	}
	if strings.Join(got, " ") != "six attrs" {
		t.Errorf("names = %v", got)
	}
	if !errors.Is(last, errors.ErrCodeInclusionNotFound) {
		t.Errorf("last error = %v", last)
	}
}

func TestParse_MissingTopLevelFile(t *testing.T) {
	_, err := Collect(filepath.Join(t.TempDir(), "requirements.txt"))
	if !errors.Is(err, errors.ErrCodeInclusionNotFound) {
		t.Errorf("error = %v, want INCLUSION_NOT_FOUND", err)
	}
}

func TestParse_CyclicInclusion(t *testing.T) {
	_, err := Collect("testdata/cycle/a.txt")
	if !errors.Is(err, errors.ErrCodeCyclicInclusion) {
		t.Fatalf("error = %v, want CYCLIC_INCLUSION", err)
	}
	if !strings.Contains(err.Error(), "a.txt -> ") || !strings.Contains(err.Error(), "b.txt") {
		t.Errorf("error %q should list the inclusion chain", err)
	}
}

func TestParse_SelfInclusion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "requirements.txt", "six\n-r requirements.txt\n")
	_, err := Collect(path)
	if !errors.Is(err, errors.ErrCodeCyclicInclusion) {
		t.Errorf("error = %v, want CYCLIC_INCLUSION", err)
	}
}

func TestParse_DiamondIsNotACycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "common.txt", "six\n")
	writeFile(t, dir, "a.txt", "-r common.txt\n")
	writeFile(t, dir, "b.txt", "-r common.txt\n")
	top := writeFile(t, dir, "top.txt", "-r a.txt\n-r b.txt\n")

	got := names(t, top)
	if strings.Join(got, " ") != "six six" {
		t.Errorf("names = %v, want [six six]", got)
	}
}
