// Package proc runs external commands with per-invocation environment overrides.
package proc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/goplus/rdbuild/internal/logging"
)

// tailSize bounds how much combined output an ExitError keeps.
const tailSize = 4 << 10

// Cmd describes a single subprocess invocation.
type Cmd struct {
	Dir  string
	Name string
	Args []string
	// Env holds overrides merged on top of the inherited environment.
	// They are visible to this subprocess only.
	Env map[string]string

	Stdout io.Writer
	Stderr io.Writer
}

func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes commands.
type Runner interface {
	// Run executes cmd and waits for it to finish.
	Run(ctx context.Context, cmd Cmd) error
	// Output executes cmd and returns its trimmed standard output.
	Output(ctx context.Context, cmd Cmd) (string, error)
}

// ExitError reports a command that could not start or exited non-zero.
type ExitError struct {
	Cmd    string
	Output string // tail of combined output
	Err    error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExecRunner implements Runner with os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner { return &ExecRunner{} }

func (ExecRunner) Run(ctx context.Context, c Cmd) error {
	cmd := command(ctx, c)
	tail := &tailBuffer{max: tailSize}
	cmd.Stdout = teeTo(c.Stdout, tail)
	cmd.Stderr = teeTo(c.Stderr, tail)
	if err := cmd.Run(); err != nil {
		return &ExitError{Cmd: c.String(), Output: tail.String(), Err: err}
	}
	return nil
}

func (ExecRunner) Output(ctx context.Context, c Cmd) (string, error) {
	cmd := command(ctx, c)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &ExitError{Cmd: c.String(), Output: strings.TrimSpace(stderr.String()), Err: err}
	}
	return strings.TrimSpace(stdout.String()), nil
}

func command(ctx context.Context, c Cmd) *exec.Cmd {
	logging.LogCommand(logging.Get("proc").With().Str("dir", c.Dir).Logger(), c.Name, c.Args)
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), c.Env)
	}
	return cmd
}

func teeTo(w io.Writer, tail *tailBuffer) io.Writer {
	if w == nil {
		return tail
	}
	return io.MultiWriter(w, tail)
}

// MergeEnv returns a sorted copy of base with every key in overrides
// replaced or appended. base is not modified.
func MergeEnv(base []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overrides))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range overrides {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// AppendFlag appends a space-separated flag to an existing flag string.
func AppendFlag(cur, flag string) string {
	if cur = strings.TrimSpace(cur); cur != "" {
		return cur + " " + flag
	}
	return flag
}

// tailBuffer keeps the last max bytes written to it. os/exec copies stdout
// and stderr from separate goroutines, so writes are serialized.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
