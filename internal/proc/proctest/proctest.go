// Package proctest provides a recording proc.Runner for tests.
package proctest

import (
	"context"
	"maps"

	"github.com/goplus/rdbuild/internal/proc"
)

// Recorder records every command instead of running it.
// Outputs and Errs are keyed by Cmd.String().
type Recorder struct {
	Calls   []proc.Cmd
	Outputs map[string]string
	Errs    map[string]error
	// OnRun, if set, is called for every command before the result is looked up.
	OnRun func(cmd proc.Cmd) error
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{Outputs: map[string]string{}, Errs: map[string]error{}}
}

func (r *Recorder) Run(ctx context.Context, cmd proc.Cmd) error {
	_, err := r.Output(ctx, cmd)
	return err
}

func (r *Recorder) Output(ctx context.Context, cmd proc.Cmd) (string, error) {
	cmd.Env = maps.Clone(cmd.Env)
	r.Calls = append(r.Calls, cmd)
	if r.OnRun != nil {
		if err := r.OnRun(cmd); err != nil {
			return "", err
		}
	}
	key := cmd.String()
	if err, ok := r.Errs[key]; ok {
		return "", &proc.ExitError{Cmd: key, Output: "failed", Err: err}
	}
	return r.Outputs[key], nil
}

// Commands returns the String form of every recorded call.
func (r *Recorder) Commands() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.String()
	}
	return out
}
