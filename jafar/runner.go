// SPDX-License-Identifier: GPL-3.0-or-later

package jafar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rbmk-project/common/errclass"
	"github.com/rbmk-project/ooniqa/closepool"
	"github.com/rbmk-project/ooniqa/directive"
)

// DefaultExecutable is the default path of the jafar executable.
const DefaultExecutable = "./jafar"

// DefaultMainUser is the default user running the probe.
const DefaultMainUser = "nobody"

// DefaultWaitDelay is the default time we wait for jafar to remove the
// interference rules after we have interrupted it.
const DefaultWaitDelay = 30 * time.Second

// ErrNoOutput indicates that the probe did not write a measurement.
var ErrNoOutput = errors.New("jafar: the probe did not produce any output")

// Invocation describes running an experiment under interference.
type Invocation struct {
	// Experiment is the experiment name (e.g., "web_connectivity").
	Experiment string

	// Inputs contains the optional experiment inputs.
	Inputs []string

	// Tag is the free-form tag passed to jafar.
	Tag string

	// Directives contains the interference directives, in order.
	Directives []directive.Directive
}

// wrapError wraps an error running jafar, mentioning the tag if set.
func (inv *Invocation) wrapError(err error) error {
	if inv.Tag == "" {
		return fmt.Errorf("jafar: %w", err)
	}
	return fmt.Errorf("jafar: %s: %w", inv.Tag, err)
}

// wrapNoOutput returns [ErrNoOutput], mentioning the tag if set.
func (inv *Invocation) wrapNoOutput() error {
	if inv.Tag == "" {
		return ErrNoOutput
	}
	return fmt.Errorf("%w: %s", ErrNoOutput, inv.Tag)
}

// Runner runs jafar invocations.
//
// The Probe field is mandatory; all the other fields are optional.
type Runner struct {
	// Executable is the path to jafar. If empty, we
	// use the [DefaultExecutable] path.
	Executable string

	// Home is the optional probe home directory.
	Home string

	// Logger is the optional structured logger.
	Logger *slog.Logger

	// MainUser is the user that jafar uses to run the probe. If
	// empty, we use the [DefaultMainUser] user.
	MainUser string

	// Probe is the path to the probe executable.
	Probe string

	// RunCommand is the optional function running argv. If nil,
	// we use [os/exec] and wire Stdout and Stderr.
	RunCommand func(ctx context.Context, argv []string) error

	// Stdout is the optional writer for the standard output.
	Stdout io.Writer

	// Stderr is the optional writer for the standard error.
	Stderr io.Writer

	// TempDir is the directory where we create the output files,
	// which must be writable by MainUser. If empty, we use
	// the directory returned by [os.TempDir].
	TempDir string

	// TimeNow is an optional function that returns the current time.
	// If this field is nil, the [time.Now] function will be used.
	TimeNow func() time.Time

	// WaitDelay is the optional time we wait for jafar to exit after
	// interrupting it on context cancellation, before killing it. If
	// zero, we use [DefaultWaitDelay].
	WaitDelay time.Duration
}

// timeNow returns the current time.
func (r *Runner) timeNow() time.Time {
	if r.TimeNow != nil {
		return r.TimeNow()
	}
	return time.Now()
}

// executable returns the path to jafar.
func (r *Runner) executable() string {
	if r.Executable != "" {
		return r.Executable
	}
	return DefaultExecutable
}

// mainUser returns the user running the probe.
func (r *Runner) mainUser() string {
	if r.MainUser != "" {
		return r.MainUser
	}
	return DefaultMainUser
}

// waitDelay returns the time to wait for jafar after interrupting it.
func (r *Runner) waitDelay() time.Duration {
	if r.WaitDelay > 0 {
		return r.WaitDelay
	}
	return DefaultWaitDelay
}

// tempDir returns the directory for the output files.
func (r *Runner) tempDir() string {
	if r.TempDir != "" {
		return r.TempDir
	}
	return os.TempDir()
}

// Run runs jafar for the given invocation and returns the bytes of the
// measurement written by the probe. The returned error wraps [ErrNoOutput]
// when the probe did not write a measurement.
func (r *Runner) Run(ctx context.Context, inv *Invocation) ([]byte, error) {
	// make sure we release the output file on every exit path
	pool := &closepool.Pool{}
	defer pool.Close()
	outfile, err := r.newOutputFile(pool)
	if err != nil {
		return nil, err
	}

	// run jafar and wait for it to terminate
	argv := r.Argv(inv, outfile)
	t0 := r.emitJafarStart(ctx, inv, argv)
	err = r.runCommand(ctx, argv)
	r.emitJafarDone(ctx, inv, t0, err)
	if err != nil {
		return nil, inv.wrapError(err)
	}

	// read the measurement
	data, err := os.ReadFile(outfile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, inv.wrapNoOutput()
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// newOutputFile returns the name of a fresh output file, removing any
// stale file with the same name, and registers its removal in the pool.
func (r *Runner) newOutputFile(pool *closepool.Pool) (string, error) {
	outfile := filepath.Join(r.tempDir(), fmt.Sprintf("ooniqa-%s.jsonl", uuid.New().String()))
	if err := removeIfExists(outfile); err != nil {
		return "", err
	}
	pool.AddFunc(func() error {
		return removeIfExists(outfile)
	})
	return outfile, nil
}

// removeIfExists removes a file ignoring the case where it does not exist.
func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// runCommand runs the given argv.
func (r *Runner) runCommand(ctx context.Context, argv []string) error {
	if r.RunCommand != nil {
		return r.RunCommand(ctx, argv)
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	// jafar tears down the interference rules on SIGINT, so we
	// must not SIGKILL it when the context is done
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.waitDelay()

	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

// emitJafarStart emits a structured event before running jafar.
func (r *Runner) emitJafarStart(ctx context.Context, inv *Invocation, argv []string) time.Time {
	t0 := r.timeNow()
	if r.Logger != nil {
		r.Logger.InfoContext(
			ctx,
			"jafarStart",
			slog.Any("argv", argv),
			slog.String("experiment", inv.Experiment),
			slog.String("tag", inv.Tag),
			slog.Time("t", t0),
		)
	}
	return t0
}

// emitJafarDone emits a structured event after running jafar.
func (r *Runner) emitJafarDone(ctx context.Context, inv *Invocation, t0 time.Time, err error) {
	if r.Logger != nil {
		r.Logger.InfoContext(
			ctx,
			"jafarDone",
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.String("experiment", inv.Experiment),
			slog.String("tag", inv.Tag),
			slog.Time("t0", t0),
			slog.Time("t", r.timeNow()),
		)
	}
}
