package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		name string
		xdg  string
		want string
	}{
		{"default", "", filepath.Join(home, ".cache", appName)},
		{"xdg", "/tmp/custom-cache", filepath.Join("/tmp/custom-cache", appName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			dir, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if dir != tt.want {
				t.Errorf("cacheDir() = %q, want %q", dir, tt.want)
			}
		})
	}
}

func TestCachePathCommand(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "shed.toml")
	cfgFile := "[cache]\nbackend = \"sqlite\"\ndir = \"" + filepath.ToSlash(dir) + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfgFile), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := New(io.Discard, LogInfo).cacheCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"path", "--config", cfgPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache path: %v", err)
	}

	want := filepath.Join(dir, "licenses.db")
	if got := strings.TrimSpace(out.String()); got != want {
		t.Errorf("cache path printed %q, want %q", got, want)
	}
}
