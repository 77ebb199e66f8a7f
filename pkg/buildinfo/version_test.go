package buildinfo

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v1.2.3"
	if ua := UserAgent(); !strings.HasPrefix(ua, "stanza/v1.2.3 ") {
		t.Errorf("UserAgent() = %q", ua)
	}
	if !strings.HasPrefix(String(), "version: v1.2.3\n") {
		t.Errorf("String() = %q", String())
	}
}
