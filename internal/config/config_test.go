package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stashd.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.HTTP.Port != 5140 || c.HTTP.Bind != "127.0.0.1" {
		t.Fatalf("unexpected http defaults: %+v", c.HTTP)
	}
	if c.Session.TTLHours != 12 || c.SessionTTL() != 12*time.Hour {
		t.Fatalf("unexpected session defaults: %+v", c.Session)
	}
	if c.MaxUploadBytes() != 512<<20 {
		t.Fatalf("unexpected upload limit: %d", c.MaxUploadBytes())
	}
	if c.Log.Level != "info" {
		t.Fatalf("unexpected log level: %s", c.Log.Level)
	}
}

// TestLoadResolvesRelativePaths checks db and storage paths are anchored at
// the config file's directory, not the working directory.
func TestLoadResolvesRelativePaths(t *testing.T) {
	path := writeConfig(t, "db:\n  path: my.db\nstorage:\n  root: files\n")
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	base := filepath.Dir(path)
	if c.DB.Path != filepath.Join(base, "my.db") {
		t.Fatalf("db path: %s", c.DB.Path)
	}
	if c.Storage.Root != filepath.Join(base, "files") {
		t.Fatalf("storage root: %s", c.Storage.Root)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad level":       "log:\n  level: loud\n",
		"bad port":        "http:\n  port: 70000\n",
		"incomplete mail": "mail:\n  host: smtp.example.com\n",
		"bad from":        "mail:\n  host: smtp.example.com\n  from: not-an-email\n  domain: x.example.com\n",
		"not yaml":        "{{{\n",
	}
	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Fatalf("case %q accepted", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatal("empty path accepted")
	}
}
