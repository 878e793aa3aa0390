//go:build !windows

package nvim

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"syscall"
	"testing"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// fakeEditor writes an executable shell script standing in for nvim.
func fakeEditor(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-nvim")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func waitDone(t *testing.T, p *Process) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("process %d did not exit", p.Pid())
	}
}

func TestCommandArgs(t *testing.T) {
	cases := []struct {
		opts Options
		want []string
	}{
		{Options{}, []string{"--embed", "-n"}},
		{Options{EnableSwap: true}, []string{"--embed"}},
		{Options{Args: []string{"-u", "NONE"}, Files: []string{"a.txt", "-weird"}}, []string{"--embed", "-n", "-u", "NONE", "--", "a.txt", "-weird"}},
	}
	for _, tc := range cases {
		if got := CommandArgs(tc.opts); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("CommandArgs(%+v) = %v, want %v", tc.opts, got, tc.want)
		}
	}
}

func TestResolveBinaryMissing(t *testing.T) {
	_, err := ResolveBinary(filepath.Join(t.TempDir(), "no-such-nvim"))
	if !errors.Is(err, ErrBinaryNotFound) {
		t.Fatalf("expected ErrBinaryNotFound, got %v", err)
	}
}

func TestResolveBinaryDefaultsToPath(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	var asked string
	lookPath = func(name string) (string, error) {
		asked = name
		return "/opt/bin/" + name, nil
	}
	got, err := ResolveBinary("")
	if err != nil || asked != DefaultBinary || got != "/opt/bin/nvim" {
		t.Fatalf("unexpected resolve %q %q %v", asked, got, err)
	}
}

func TestSpawnFailsFast(t *testing.T) {
	_, err := Spawn(context.Background(), Options{Binary: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatalf("expected spawn error")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Spawn(ctx, Options{Binary: fakeEditor(t, "exit 0")}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestConnCarriesStdio(t *testing.T) {
	p, err := Spawn(context.Background(), Options{Binary: fakeEditor(t, "exec cat")})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	conn := p.Conn()
	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(conn, buf); err != nil || string(buf) != "ping" {
		t.Fatalf("read %q: %v", buf, err)
	}
	if err := p.stdin.Close(); err != nil {
		t.Fatalf("close stdin: %v", err)
	}
	waitDone(t, p)
	if p.ExitCode() != 0 {
		t.Fatalf("expected exit 0, got %d", p.ExitCode())
	}
	if _, err := conn.Read(buf); err != io.EOF {
		t.Fatalf("expected EOF after exit, got %v", err)
	}
	_ = conn.Close()
}

func TestExitCodeReported(t *testing.T) {
	p, err := Spawn(context.Background(), Options{Binary: fakeEditor(t, "exit 3")})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if code := p.ExitCode(); code != -1 && code != 3 {
		t.Fatalf("unexpected early exit code %d", code)
	}
	waitDone(t, p)
	if p.ExitCode() != 3 || p.Err() != nil {
		t.Fatalf("expected exit 3, got %d (%v)", p.ExitCode(), p.Err())
	}
}

func TestSignalDeathReportedAsShellStatus(t *testing.T) {
	p, err := Spawn(context.Background(), Options{Binary: fakeEditor(t, "kill -TERM $$")})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	waitDone(t, p)
	if want := 128 + int(syscall.SIGTERM); p.ExitCode() != want || p.Err() != nil {
		t.Fatalf("expected exit %d, got %d (%v)", want, p.ExitCode(), p.Err())
	}
}

func TestTerminateGraceful(t *testing.T) {
	p, err := Spawn(context.Background(), Options{Binary: fakeEditor(t, "exit 0")})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	outcome, err := p.Terminate(5 * time.Second)
	if err != nil || outcome != Graceful {
		t.Fatalf("expected graceful, got %v (%v)", outcome, err)
	}
}

func TestTerminateKills(t *testing.T) {
	p, err := Spawn(context.Background(), Options{Binary: fakeEditor(t, "sleep 30")})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	start := time.Now()
	outcome, err := p.Terminate(50 * time.Millisecond)
	if err != nil || outcome != Killed {
		t.Fatalf("expected killed, got %v (%v)", outcome, err)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatalf("terminate took too long")
	}
	waitDone(t, p)
	_ = p.Conn().Close()
}
