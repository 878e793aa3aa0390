package testutil

import (
	"os/exec"
	"testing"
)

// RequireNvim aborts the calling test when nvim is not present on PATH.
func RequireNvim(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("nvim")
	if err != nil {
		t.Skip("skipping: nvim binary not available")
	}
	return path
}

// CleanNvimArgs start nvim without user config, plugins or shada.
func CleanNvimArgs() []string {
	return []string{"-u", "NONE", "-i", "NONE", "--noplugin"}
}
