package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/atomicstack/nvim-bridge/internal/app"
	"github.com/atomicstack/nvim-bridge/internal/format/table"
	"github.com/atomicstack/nvim-bridge/internal/session"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Config captures runtime configuration for the application.
type Config struct {
	App     app.Config
	Logging Logging
	// File is the TOML file the defaults were read from, if any.
	File  string
	Flags map[string]string
	Args  []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

const (
	envConfig            = "NVIM_BRIDGE_CONFIG"
	envBinPath           = "NVIM_BRIDGE_BIN"
	envTimeout           = "NVIM_BRIDGE_TIMEOUT"
	envDisableWinRestore = "NVIM_BRIDGE_DISABLE_WIN_RESTORE"
	envNoFork            = "NVIM_BRIDGE_NO_FORK"
	envEnableSwap        = "NVIM_BRIDGE_ENABLE_SWAP"
	envWidth             = "NVIM_BRIDGE_WIDTH"
	envHeight            = "NVIM_BRIDGE_HEIGHT"
	envExtensions        = "NVIM_BRIDGE_EXT"
	envQuitKey           = "NVIM_BRIDGE_QUIT_KEY"
	envTrace             = "NVIM_BRIDGE_TRACE"
	envLogFile           = "NVIM_BRIDGE_LOG_FILE"
)

// DefaultTimeoutSeconds bounds nvim startup and attach.
const DefaultTimeoutSeconds = 10

// fileConfig is the shape of config.toml. Keys left out keep their
// defaults.
type fileConfig struct {
	NvimBinPath       string   `toml:"nvim_bin_path"`
	NvimArgs          []string `toml:"nvim_args"`
	Timeout           int      `toml:"timeout"`
	DisableWinRestore bool     `toml:"disable_win_restore"`
	NoFork            bool     `toml:"no_fork"`
	EnableSwap        bool     `toml:"enable_swap"`
	Width             int      `toml:"width"`
	Height            int      `toml:"height"`
	Extensions        []string `toml:"ext"`
	QuitKey           string   `toml:"quit_key"`
	Trace             bool     `toml:"trace"`
	LogFile           string   `toml:"log_file"`
}

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment. Values are
// layered as config file, then environment, then flags.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	flagArgs, nvimArgs := splitArgs(args)
	path, explicit := configPath(flagArgs, env)
	file := fileConfig{Timeout: DefaultTimeoutSeconds}
	loaded, err := loadFile(path, explicit, &file)
	if err != nil {
		return Config{}, err
	}
	if !loaded {
		path = ""
	}

	fs := flag.NewFlagSet("nvim-bridge", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	binPath := fs.String("nvim-bin-path", envOrDefault(env, envBinPath, file.NvimBinPath), "path to the nvim binary (defaults to nvim on PATH)")
	timeout := fs.Int("timeout", envOrInt(env, envTimeout, file.Timeout), "seconds to wait for nvim to start and attach")
	winRestore := fs.Bool("disable-win-restore", envOrBool(env, envDisableWinRestore, file.DisableWinRestore), "accepted for compatibility; the terminal surface keeps no window state")
	noFork := fs.Bool("no-fork", envOrBool(env, envNoFork, file.NoFork), "accepted for compatibility; the bridge always runs in the foreground")
	swap := fs.Bool("enable-swap", envOrBool(env, envEnableSwap, file.EnableSwap), "let nvim use swap files (passes no -n)")
	width := fs.Int("width", envOrInt(env, envWidth, file.Width), "desired surface width in cells (0 uses terminal width)")
	height := fs.Int("height", envOrInt(env, envHeight, file.Height), "desired surface height in rows (0 uses terminal height)")
	ext := fs.String("ext", envOrDefault(env, envExtensions, strings.Join(file.Extensions, ",")), "comma separated UI extensions to request at attach")
	quitKey := fs.String("quit-key", envOrDefault(env, envQuitKey, file.QuitKey), "key that leaves the bridge without asking nvim, e.g. ctrl+q")
	trace := fs.Bool("trace", envOrBool(env, envTrace, file.Trace), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, file.LogFile), "path to the log file")
	fs.String("config", path, "path to a TOML config file")

	var files []string
	rest := flagArgs
	for {
		if err := fs.Parse(rest); err != nil {
			return Config{}, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		// positionals are files; flags may follow them
		files = append(files, rest[0])
		rest = rest[1:]
	}

	if *timeout <= 0 {
		return Config{}, fmt.Errorf("timeout must be > 0 (got %d)", *timeout)
	}
	if *width < 0 {
		return Config{}, fmt.Errorf("width must be >= 0 (got %d)", *width)
	}
	if *height < 0 {
		return Config{}, fmt.Errorf("height must be >= 0 (got %d)", *height)
	}
	extensions, err := parseExtensions(*ext)
	if err != nil {
		return Config{}, err
	}
	if nvimArgs == nil {
		nvimArgs = file.NvimArgs
	}

	cfg := Config{
		App: app.Config{
			NvimBinary:        *binPath,
			NvimArgs:          append([]string(nil), nvimArgs...),
			Files:             files,
			Timeout:           time.Duration(*timeout) * time.Second,
			DisableWinRestore: *winRestore,
			NoFork:            *noFork,
			EnableSwap:        *swap,
			Width:             *width,
			Height:            *height,
			Extensions:        extensions,
			QuitKey:           strings.TrimSpace(*quitKey),
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		File: path,
		Flags: map[string]string{
			"nvimBinPath":       *binPath,
			"timeout":           strconv.Itoa(*timeout),
			"disableWinRestore": strconv.FormatBool(*winRestore),
			"noFork":            strconv.FormatBool(*noFork),
			"enableSwap":        strconv.FormatBool(*swap),
			"width":             strconv.Itoa(*width),
			"height":            strconv.Itoa(*height),
			"ext":               strings.Join(extensions, ","),
			"quitKey":           *quitKey,
			"trace":             strconv.FormatBool(*trace),
			"logFile":           *logFile,
			"config":            path,
		},
		Args: append([]string(nil), args...),
	}

	return cfg, nil
}

// splitArgs separates bridge arguments from the ones after "--", which go
// to nvim untouched.
func splitArgs(args []string) ([]string, []string) {
	for i, arg := range args {
		if arg == "--" {
			return args[:i], append([]string{}, args[i+1:]...)
		}
	}
	return args, nil
}

// configPath finds the config file before the flag set exists, since the
// file supplies the flag defaults. It reports whether the path was asked
// for explicitly.
func configPath(args []string, env map[string]string) (string, bool) {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value, true
		}
		if i+1 < len(args) {
			return args[i+1], true
		}
	}
	if v := strings.TrimSpace(env[envConfig]); v != "" {
		return v, true
	}
	base := env["XDG_CONFIG_HOME"]
	if base == "" {
		home := env["HOME"]
		if home == "" {
			return "", false
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "nvim-bridge", "config.toml"), false
}

// loadFile decodes path into dst. A missing default file is not an error;
// a missing explicit one is.
func loadFile(path string, explicit bool, dst *fileConfig) (bool, error) {
	if path == "" {
		return false, nil
	}
	meta, err := toml.DecodeFile(path, dst)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return false, fmt.Errorf("config file %s: unknown key %q", path, undecoded[0].String())
	}
	return true, nil
}

// parseExtensions validates a comma separated extension list. The ext_
// prefix is optional.
func parseExtensions(list string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !strings.HasPrefix(name, "ext_") {
			name = "ext_" + name
		}
		if !knownExtension(name) {
			if guess := suggestExtension(name); guess != "" {
				return nil, fmt.Errorf("unknown UI extension %q (did you mean %q?)", name, guess)
			}
			return nil, fmt.Errorf("unknown UI extension %q", name)
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}

func knownExtension(name string) bool {
	for _, known := range session.KnownExtensions {
		if known == name {
			return true
		}
	}
	return false
}

// suggestExtension prefers a known name that contains the typed letters in
// order, and otherwise the closest name by edit distance.
func suggestExtension(name string) string {
	if ranks := fuzzy.RankFindNormalizedFold(name, session.KnownExtensions); len(ranks) > 0 {
		best := ranks[0]
		for _, rank := range ranks[1:] {
			if rank.Distance < best.Distance {
				best = rank
			}
		}
		return best.Target
	}
	best, bestDistance := "", len(name)/2+1
	for _, known := range session.KnownExtensions {
		if d := fuzzy.LevenshteinDistance(name, known); d < bestDistance {
			best, bestDistance = known, d
		}
	}
	return best
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if errors.Is(err, flag.ErrHelp) {
		fmt.Fprint(os.Stderr, Usage())
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Usage lists the flags with their environment variables.
func Usage() string {
	var b strings.Builder
	b.WriteString("usage: nvim-bridge [flags] [files...] [-- nvim args...]\n\n")
	rows := [][]string{
		{"--nvim-bin-path PATH", envBinPath, "nvim binary"},
		{"--timeout SECONDS", envTimeout, "startup and attach timeout"},
		{"--enable-swap", envEnableSwap, "let nvim use swap files"},
		{"--width N / --height N", envWidth + ", " + envHeight, "pin the surface size"},
		{"--ext LIST", envExtensions, "UI extensions, e.g. tabline,multigrid"},
		{"--quit-key KEY", envQuitKey, "leave without asking nvim"},
		{"--trace", envTrace, "JSON trace logging"},
		{"--log-file PATH", envLogFile, "log file"},
		{"--config PATH", envConfig, "TOML config file"},
		{"--no-fork, --disable-win-restore", envNoFork + ", " + envDisableWinRestore, "accepted, no effect"},
	}
	for _, line := range table.Format(rows, nil, 2) {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}

// Validate ensures required minimum configuration is present.
func Validate(cfg Config) error {
	if cfg.App.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if bin := cfg.App.NvimBinary; bin != "" {
		info, err := os.Stat(bin)
		if err != nil {
			return fmt.Errorf("nvim binary: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("nvim binary %s is a directory", bin)
		}
	}
	if cfg.App.Height == 1 {
		return fmt.Errorf("height must leave room for the status line (got 1)")
	}
	return nil
}
