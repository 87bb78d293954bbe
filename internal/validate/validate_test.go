package validate

import (
	"strings"
	"testing"
)

func TestEmail(t *testing.T) {
	for _, good := range []string{"a@example.com", "first.last+tag@sub.example.org"} {
		if err := Email(good); err != nil {
			t.Fatalf("%q rejected: %v", good, err)
		}
	}
	for _, bad := range []string{"", "plain", "Alice <a@example.com>", "a@"} {
		if err := Email(bad); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if err := DisplayName("Alice"); err != nil {
		t.Fatal(err)
	}
	if err := DisplayName(""); err == nil {
		t.Fatal("empty display name accepted")
	}
	if err := DisplayName(strings.Repeat("x", 129)); err == nil {
		t.Fatal("oversized display name accepted")
	}
}

func TestEntryName(t *testing.T) {
	for _, good := range []string{"a.txt", "Documents", ".hidden", "two words"} {
		if err := EntryName(good); err != nil {
			t.Fatalf("%q rejected: %v", good, err)
		}
	}
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`, "/"} {
		if err := EntryName(bad); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}

func TestRootPath(t *testing.T) {
	got, err := RootPath("/srv/stashd/files/")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/srv/stashd/files" {
		t.Fatalf("normalized to %q", got)
	}
	for _, bad := range []string{"", "relative/path", "/"} {
		if _, err := RootPath(bad); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}
