package main

import (
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/app"
	"github.com/atomicstack/nvim-bridge/internal/config"
)

func TestCollectTTYDetailsIncludesStandardDescriptors(t *testing.T) {
	info := collectTTYDetails()
	if len(info.Probes) != 3 {
		t.Fatalf("expected 3 probe entries, got %d", len(info.Probes))
	}
	expected := []string{"stdin", "stdout", "stderr"}
	for i, name := range expected {
		if info.Probes[i].Name != name {
			t.Fatalf("expected probe %d name %q, got %q", i, name, info.Probes[i].Name)
		}
	}
}

func TestStartupTracePayloadIncludesFlags(t *testing.T) {
	cfg := config.Config{
		App: app.Config{
			NvimBinary: "/usr/bin/nvim",
			Timeout:    5 * time.Second,
			Width:      80,
			Height:     24,
			Extensions: []string{"ext_tabline"},
		},
		Logging: config.Logging{
			FilePath: "trace.log",
			Trace:    true,
		},
		File: "/home/me/.config/nvim-bridge/config.toml",
		Flags: map[string]string{
			"nvimBinPath": "/usr/bin/nvim",
			"timeout":     "5",
			"width":       "80",
			"height":      "24",
			"ext":         "ext_tabline",
		},
		Args: []string{"--nvim-bin-path", "/usr/bin/nvim"},
	}

	payload := startupTracePayload(cfg)

	flagsValue, ok := payload["flags"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected flags map in payload")
	}
	if flagsValue["nvimBinPath"] != "/usr/bin/nvim" {
		t.Fatalf("expected nvim path flag, got %v", flagsValue["nvimBinPath"])
	}
	if flagsValue["timeout"] != "5" {
		t.Fatalf("expected timeout 5, got %v", flagsValue["timeout"])
	}
	if flagsValue["ext"] != "ext_tabline" {
		t.Fatalf("expected ext flag, got %v", flagsValue["ext"])
	}
	if flagsValue["trace"] != true {
		t.Fatalf("expected trace flag true, got %v", flagsValue["trace"])
	}
	if flagsValue["logFile"] != "trace.log" {
		t.Fatalf("expected log file trace.log, got %v", flagsValue["logFile"])
	}
	if payload["configFile"] != cfg.File {
		t.Fatalf("expected config file in payload, got %v", payload["configFile"])
	}

	if _, ok := payload["tty"].(ttyDetails); !ok {
		t.Fatalf("expected tty details in payload")
	}
	if cfgValue, ok := payload["config"].(config.Config); !ok {
		t.Fatalf("expected config in payload")
	} else if cfgValue.App.NvimBinary != cfg.App.NvimBinary || cfgValue.App.Width != cfg.App.Width {
		t.Fatalf("expected app config %#v, got %#v", cfg.App, cfgValue.App)
	}
}

func TestReadPipedInput(t *testing.T) {
	text, err := readPipedInput(strings.NewReader("line one\nline two\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if text != "line one\nline two\n" {
		t.Fatalf("unexpected text %q", text)
	}
}
