package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != DefaultPrompt {
		t.Errorf("prompt = %q", cfg.Prompt)
	}
	if !cfg.History.Enabled {
		t.Error("history should default to enabled")
	}
	if cfg.JobControl.Enabled != nil {
		t.Error("job control should default to auto")
	}
}

func TestLoadFromOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
prompt: "$ "
job_control:
  enabled: false
history:
  enabled: false
  path: ~/hist.jsonl
log:
  path: ~/mysh.log
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != "$ " {
		t.Errorf("prompt = %q", cfg.Prompt)
	}
	if cfg.Banner != DefaultBanner {
		t.Errorf("banner should keep its default, got %q", cfg.Banner)
	}
	if cfg.JobControl.Enabled == nil || *cfg.JobControl.Enabled {
		t.Error("job control should be disabled")
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled")
	}
	if want := filepath.Join(home, "hist.jsonl"); cfg.History.Path != want {
		t.Errorf("history path = %q, want %q", cfg.History.Path, want)
	}
	if want := filepath.Join(home, "mysh.log"); cfg.Log.Path != want {
		t.Errorf("log path = %q, want %q", cfg.Log.Path, want)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("prompt: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestJobControlWant(t *testing.T) {
	on, off := true, false
	tests := []struct {
		enabled  *bool
		terminal bool
		want     bool
	}{
		{nil, true, true},
		{nil, false, false},
		{&on, true, true},
		{&on, false, false},
		{&off, true, false},
	}
	for _, tt := range tests {
		got := JobControlConfig{Enabled: tt.enabled}.Want(tt.terminal)
		if got != tt.want {
			t.Errorf("Want(%v) with enabled=%v: got %v", tt.terminal, tt.enabled, got)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	tests := map[string]string{
		"":          "",
		"~":         home,
		"~/a/b":     filepath.Join(home, "a", "b"),
		"/abs/path": "/abs/path",
		"~other/x":  "~other/x",
	}
	for in, want := range tests {
		if got := expandHome(in); got != want {
			t.Errorf("expandHome(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadReadsStandardPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("banner: hi\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Banner != "hi" {
		t.Errorf("banner = %q, want the one from %s", cfg.Banner, path)
	}
}
