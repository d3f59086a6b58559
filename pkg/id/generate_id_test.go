package id

import (
	"regexp"
	"strings"
	"testing"
)

var reUUID = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-4[a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)

func TestNew_FormatIsCanonicalV4(t *testing.T) {
	got := New()
	if !reUUID.MatchString(got) {
		t.Fatalf("not a canonical v4 uuid: %q", got)
	}
	if !Valid(got) {
		t.Fatalf("Valid(%q) = false", got)
	}
}

func TestNew_Uniqueness(t *testing.T) {
	const n = 200
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := New()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id after %d iterations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestParse_Normalizes(t *testing.T) {
	raw := "  {6BA7B810-9DAD-11D1-80B4-00C04FD430C8} "
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	if got != strings.ToLower("6BA7B810-9DAD-11D1-80B4-00C04FD430C8") {
		t.Fatalf("Parse = %q", got)
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "not-a-uuid", "1234", strings.Repeat("a", 32) + "x"} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestValid_RejectsNonCanonical(t *testing.T) {
	for _, s := range []string{
		"6BA7B810-9DAD-11D1-80B4-00C04FD430C8", // uppercase
		"6ba7b8109dad11d180b400c04fd430c8",     // no hyphens
		"",
	} {
		if Valid(s) {
			t.Fatalf("Valid(%q) = true, want false", s)
		}
	}
}
