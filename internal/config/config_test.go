package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// isolated keeps the user's real config file out of the test.
func isolated(t *testing.T, extra ...string) []string {
	t.Helper()
	return append([]string{"XDG_CONFIG_HOME=" + t.TempDir()}, extra...)
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs(nil, isolated(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Timeout != DefaultTimeoutSeconds*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.App.Timeout)
	}
	if cfg.App.NvimBinary != "" || cfg.App.EnableSwap || len(cfg.App.Files) != 0 {
		t.Fatalf("unexpected defaults %+v", cfg.App)
	}
	if cfg.File != "" {
		t.Fatalf("no config file expected, got %q", cfg.File)
	}
}

func TestLoadArgsFlagsFilesAndNvimArgs(t *testing.T) {
	args := []string{
		"--nvim-bin-path", "/usr/local/bin/nvim",
		"--timeout=3",
		"--enable-swap",
		"notes.md",
		"--no-fork",
		"todo.txt",
		"--",
		"-u", "NONE", "--cmd", "set nu",
	}
	cfg, err := LoadArgs(args, isolated(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	app := cfg.App
	if app.NvimBinary != "/usr/local/bin/nvim" || app.Timeout != 3*time.Second || !app.EnableSwap || !app.NoFork {
		t.Fatalf("unexpected app config %+v", app)
	}
	if !reflect.DeepEqual(app.Files, []string{"notes.md", "todo.txt"}) {
		t.Fatalf("unexpected files %v", app.Files)
	}
	if !reflect.DeepEqual(app.NvimArgs, []string{"-u", "NONE", "--cmd", "set nu"}) {
		t.Fatalf("unexpected nvim args %v", app.NvimArgs)
	}
	if !reflect.DeepEqual(cfg.Args, args) {
		t.Fatalf("expected raw args to be kept")
	}
}

func TestLoadArgsEnvironmentFallbacks(t *testing.T) {
	cfg, err := LoadArgs([]string{"--width", "90"}, isolated(t,
		"NVIM_BRIDGE_WIDTH=70",
		"NVIM_BRIDGE_HEIGHT=25",
		"NVIM_BRIDGE_TRACE=true",
		"NVIM_BRIDGE_EXT=tabline, ext_multigrid",
		"NVIM_BRIDGE_TIMEOUT=not-a-number",
	))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Width != 90 || cfg.App.Height != 25 {
		t.Fatalf("expected flag over env, got %dx%d", cfg.App.Width, cfg.App.Height)
	}
	if !cfg.Logging.Trace {
		t.Fatalf("expected trace from env")
	}
	if !reflect.DeepEqual(cfg.App.Extensions, []string{"ext_tabline", "ext_multigrid"}) {
		t.Fatalf("unexpected extensions %v", cfg.App.Extensions)
	}
	if cfg.App.Timeout != DefaultTimeoutSeconds*time.Second {
		t.Fatalf("invalid env values should fall back, got %s", cfg.App.Timeout)
	}
}

func TestLoadArgsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.toml")
	content := `
nvim_bin_path = "/from/file/nvim"
nvim_args = ["--clean"]
timeout = 7
ext = ["popupmenu"]
quit_key = "ctrl+q"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadArgs([]string{"--config", path}, isolated(t, "NVIM_BRIDGE_TIMEOUT=8"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.File != path {
		t.Fatalf("expected file %q, got %q", path, cfg.File)
	}
	app := cfg.App
	if app.NvimBinary != "/from/file/nvim" || app.QuitKey != "ctrl+q" {
		t.Fatalf("expected file values, got %+v", app)
	}
	if app.Timeout != 8*time.Second {
		t.Fatalf("expected env over file, got %s", app.Timeout)
	}
	if !reflect.DeepEqual(app.NvimArgs, []string{"--clean"}) {
		t.Fatalf("unexpected nvim args %v", app.NvimArgs)
	}
	if !reflect.DeepEqual(app.Extensions, []string{"ext_popupmenu"}) {
		t.Fatalf("unexpected extensions %v", app.Extensions)
	}
}

func TestLoadArgsDefaultConfigLocation(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, "nvim-bridge")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("width = 120\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadArgs(nil, []string{"XDG_CONFIG_HOME=" + home})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Width != 120 {
		t.Fatalf("expected width from default config, got %d", cfg.App.Width)
	}
}

func TestLoadArgsConfigFileErrors(t *testing.T) {
	if _, err := LoadArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}, isolated(t)); err == nil {
		t.Fatalf("expected an error for a missing explicit config file")
	}

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("colour = \"red\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadArgs(nil, isolated(t, "NVIM_BRIDGE_CONFIG="+path))
	if err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadArgsRejectsInvalidValues(t *testing.T) {
	cases := [][]string{
		{"--width", "-1"},
		{"--height", "-3"},
		{"--timeout", "0"},
		{"--bogus"},
	}
	for _, args := range cases {
		if _, err := LoadArgs(args, isolated(t)); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestLoadArgsHelp(t *testing.T) {
	_, err := LoadArgs([]string{"-h"}, isolated(t))
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
}

func TestUnknownExtensionSuggestsName(t *testing.T) {
	_, err := LoadArgs([]string{"--ext", "popupmnu"}, isolated(t))
	if err == nil || !strings.Contains(err.Error(), `did you mean "ext_popupmenu"`) {
		t.Fatalf("expected a suggestion, got %v", err)
	}
	_, err = LoadArgs([]string{"--ext", "tabln"}, isolated(t))
	if err == nil || !strings.Contains(err.Error(), `"ext_tabline"`) {
		t.Fatalf("expected a suggestion, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := LoadArgs(nil, isolated(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := cfg
	missing.App.NvimBinary = filepath.Join(t.TempDir(), "nvim")
	if err := Validate(missing); err == nil {
		t.Fatalf("expected error for a missing binary")
	}

	dir := cfg
	dir.App.NvimBinary = t.TempDir()
	if err := Validate(dir); err == nil {
		t.Fatalf("expected error for a directory")
	}

	short := cfg
	short.App.Height = 1
	if err := Validate(short); err == nil {
		t.Fatalf("expected error for a one row surface")
	}
}

func TestUsageListsFlagsWithEnvironment(t *testing.T) {
	usage := Usage()
	for _, want := range []string{"--nvim-bin-path PATH", "NVIM_BRIDGE_BIN", "--ext LIST", "NVIM_BRIDGE_CONFIG"} {
		if !strings.Contains(usage, want) {
			t.Fatalf("usage is missing %q:\n%s", want, usage)
		}
	}
}
