package nvim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/logging"
	"github.com/atomicstack/nvim-bridge/internal/logging/events"
)

// DefaultBinary is looked up on PATH when no explicit path is configured.
const DefaultBinary = "nvim"

var ErrBinaryNotFound = errors.New("nvim binary not found")

// Options describe how to start the editor.
type Options struct {
	// Binary is an explicit path. Empty means DefaultBinary on PATH.
	Binary     string
	Args       []string
	Files      []string
	EnableSwap bool
	Dir        string
	Env        []string
}

// Termination is how a process ended under Terminate.
type Termination int

const (
	Graceful Termination = iota
	Killed
)

func (t Termination) String() string {
	if t == Killed {
		return "killed"
	}
	return "graceful"
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// ResolveBinary returns the executable to run.
func ResolveBinary(path string) (string, error) {
	name := path
	if name == "" {
		name = DefaultBinary
	}
	resolved, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrBinaryNotFound, name, err)
	}
	return resolved, nil
}

// CommandArgs builds the argument list passed to the editor.
func CommandArgs(opts Options) []string {
	args := []string{"--embed"}
	if !opts.EnableSwap {
		args = append(args, "-n")
	}
	args = append(args, opts.Args...)
	if len(opts.Files) > 0 {
		args = append(args, "--")
		args = append(args, opts.Files...)
	}
	return args
}

// Process is a running editor with piped stdio.
type Process struct {
	cmd    *exec.Cmd
	path   string
	stdin  *os.File
	stdout *os.File

	done     chan struct{}
	exitCode int
	waitErr  error

	closeOnce sync.Once
}

// Spawn starts the editor. A failure to start is returned as is; the
// caller treats it as fatal.
func Spawn(ctx context.Context, opts Options) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := ResolveBinary(opts.Binary)
	if err != nil {
		return nil, err
	}

	inR, inW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		inR.Close()
		inW.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	cmd := exec.Command(path, CommandArgs(opts)...)
	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = logging.Writer("nvim")
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	// children that inherit stderr must not keep Wait alive forever
	cmd.WaitDelay = time.Second
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		inR.Close()
		inW.Close()
		outR.Close()
		outW.Close()
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	// the child owns these ends now
	inR.Close()
	outW.Close()

	p := &Process{
		cmd:      cmd,
		path:     path,
		stdin:    inW,
		stdout:   outR,
		done:     make(chan struct{}),
		exitCode: -1,
	}
	events.Process.Spawn(cmd.Process.Pid, path)
	go p.wait()
	return p, nil
}

func (p *Process) wait() {
	err := p.cmd.Wait()
	code := -1
	if p.cmd.ProcessState != nil {
		code = exitStatus(p.cmd.ProcessState)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// a non-zero status is reported through ExitCode
		err = nil
	}
	p.exitCode, p.waitErr = code, err
	events.Process.Exit(p.Pid(), code)
	close(p.done)
}

func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *Process) Path() string { return p.path }

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// ExitCode is the exit status, or -1 while running. A death by signal is
// reported the way a shell does, as 128 plus the signal number.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
		return p.exitCode
	default:
		return -1
	}
}

// Err reports a failure to wait for the process, if any.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return nil
	}
}

// Conn is the byte stream to the editor: reads come from its stdout,
// writes go to its stdin.
func (p *Process) Conn() io.ReadWriteCloser {
	return conn{p: p}
}

type conn struct{ p *Process }

func (c conn) Read(b []byte) (int, error)  { return c.p.stdout.Read(b) }
func (c conn) Write(b []byte) (int, error) { return c.p.stdin.Write(b) }
func (c conn) Close() error                { return c.p.closePipes() }

func (p *Process) closePipes() error {
	var err error
	p.closeOnce.Do(func() {
		err = errors.Join(p.stdin.Close(), p.stdout.Close())
	})
	return err
}

// Terminate waits grace for the process to exit on its own, then signals
// its process group with SIGTERM and finally SIGKILL.
func (p *Process) Terminate(grace time.Duration) (Termination, error) {
	if p.exited(grace) {
		events.Process.Terminate(p.Pid(), Graceful.String())
		return Graceful, nil
	}
	if err := signalGroup(p.cmd, false); err != nil && !p.exited(0) {
		return Killed, fmt.Errorf("terminate %d: %w", p.Pid(), err)
	}
	if !p.exited(grace) {
		if err := signalGroup(p.cmd, true); err != nil && !p.exited(0) {
			return Killed, fmt.Errorf("kill %d: %w", p.Pid(), err)
		}
		<-p.done
	}
	events.Process.Terminate(p.Pid(), Killed.String())
	return Killed, nil
}

func (p *Process) exited(within time.Duration) bool {
	if within <= 0 {
		select {
		case <-p.done:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(within)
	defer t.Stop()
	select {
	case <-p.done:
		return true
	case <-t.C:
		return false
	}
}
