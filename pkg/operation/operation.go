// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/to-uni/pkg/automaton"
	"github.com/walteh/to-uni/pkg/config"
	"github.com/walteh/to-uni/pkg/errdefs"
	"github.com/walteh/to-uni/pkg/log"
	"github.com/walteh/to-uni/pkg/text"
	"github.com/walteh/to-uni/pkg/update"
)

// 🎯 Job is one file conversion request
type Job struct {
	// Input is a file path, or "-" for stdin
	Input string

	// Output is a separate destination file or directory. Empty converts
	// Input in place.
	Output string

	// Stdout writes the conversion to Options.Stdout instead of a file
	Stdout bool

	// Backup keeps <Input>.bak for in-place conversions
	Backup bool
}

// Mode returns the log.Mode* name of the job's conversion mode
func (j Job) Mode() string {
	switch {
	case j.Stdout:
		return log.ModeStdout
	case j.Output != "":
		return log.ModeCopy
	default:
		return log.ModeInPlace
	}
}

// Validate checks that the job describes a possible conversion
func (j Job) Validate() error {
	if j.Input == "" {
		return errors.Errorf("%w: input is required", errdefs.ErrUsage)
	}
	if j.Stdout && j.Output != "" {
		return errors.Errorf("%w: --stdout and an output path are exclusive", errdefs.ErrUsage)
	}
	if j.Input == update.Stdin && !j.Stdout && j.Output == "" {
		return errors.Errorf("%w: stdin cannot be converted in place, use --stdout or give an output path", errdefs.ErrUsage)
	}
	return nil
}

// 📄 Outcome is the result of one job
type Outcome struct {
	Job     Job
	Result  *update.Result
	Skipped bool // excluded by its config, batch runs only
	Err     error
}

// 📋 Reporter receives one entry per finished job. *log.Logger implements it.
type Reporter interface {
	LogFileOperation(ctx context.Context, op log.FileOperation)
}

// 🔧 Options contains configuration for the runner
type Options struct {
	// Resolver finds the config for each input's directory
	Resolver config.Resolver

	// Jobs bounds parallel conversions, 1 when zero
	Jobs int

	// Stdin and Stdout back the "-" input and the --stdout mode
	Stdin  io.Reader
	Stdout io.Writer

	// Reporter is told about every outcome, may be nil
	Reporter Reporter

	// Update carries file system hooks for the updater
	Update update.Options

	// StreamOptions tune every replacer the runner builds
	StreamOptions []text.Option
}

// 🏃 Runner converts jobs. Configs are resolved once per directory and
// compiled once per config file; the compiled automaton is shared by every
// job that uses it.
type Runner struct {
	opts Options

	mu       sync.Mutex
	byDir    map[string]*compiled
	byConfig map[string]*compiled
}

type compiled struct {
	cfg     *config.Config
	updater *update.Updater
	err     error
}

// 🏭 NewRunner creates a new runner with the given options
func NewRunner(opts Options) (*Runner, error) {
	if opts.Resolver == nil {
		return nil, errors.Errorf("resolver is required")
	}
	if opts.Jobs < 0 {
		return nil, errors.Errorf("%w: jobs must not be negative", errdefs.ErrUsage)
	}
	if opts.Jobs == 0 {
		opts.Jobs = 1
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Update.Stdin == nil {
		opts.Update.Stdin = opts.Stdin
	}
	return &Runner{
		opts:     opts,
		byDir:    make(map[string]*compiled),
		byConfig: make(map[string]*compiled),
	}, nil
}

// 🔍 prepare resolves and compiles the config for input. Results, including
// failures, are cached per directory.
func (r *Runner) prepare(ctx context.Context, input string) *compiled {
	dir := "."
	if input != update.Stdin {
		dir = filepath.Dir(input)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.byDir[dir]; ok {
		return c
	}

	c := r.compile(ctx, dir)
	r.byDir[dir] = c
	return c
}

func (r *Runner) compile(ctx context.Context, dir string) *compiled {
	cfg, err := r.opts.Resolver.Resolve(ctx, dir)
	if err != nil {
		return &compiled{err: err}
	}

	key := cfg.Location()
	if c, ok := r.byConfig[key]; ok && key != "" {
		return c
	}

	set, err := cfg.PatternSet()
	if err != nil {
		return &compiled{err: errors.WithDetails(err, "config", key)}
	}
	a := automaton.New(set)

	zerolog.Ctx(ctx).Debug().
		Str("config", key).
		Int("patterns", set.Len()).
		Int("max_len", set.MaxLen()).
		Int("states", a.States()).
		Int("classes", a.Classes()).
		Msg("automaton built")

	c := &compiled{
		cfg:     cfg,
		updater: update.New(text.NewStreamReplacer(a, r.opts.StreamOptions...), r.opts.Update),
	}
	if key != "" {
		r.byConfig[key] = c
	}
	return c
}

// 🔄 Convert runs a single job. Exclude globs do not apply to a file that
// was named explicitly.
func (r *Runner) Convert(ctx context.Context, job Job) (*update.Result, error) {
	out := r.execute(ctx, job, r.prepare(ctx, job.Input))
	return out.Result, out.Err
}

func (r *Runner) execute(ctx context.Context, job Job, c *compiled) Outcome {
	out := Outcome{Job: job}
	defer r.report(ctx, &out)

	if err := job.Validate(); err != nil {
		out.Err = err
		return out
	}
	if c.err != nil {
		out.Err = errors.WithDetails(c.err, "input", job.Input)
		return out
	}
	switch {
	case job.Stdout:
		out.Result, out.Err = c.updater.ToWriter(ctx, job.Input, r.opts.Stdout)
	case job.Output != "":
		out.Result, out.Err = c.updater.ToFile(ctx, job.Input, job.Output)
	default:
		out.Result, out.Err = c.updater.InPlace(ctx, job.Input, job.Backup)
	}
	if out.Err != nil {
		out.Err = errors.Errorf("converting %s: %w", job.Input, out.Err)
	}
	return out
}

func (r *Runner) report(ctx context.Context, out *Outcome) {
	if r.opts.Reporter == nil {
		return
	}

	op := log.FileOperation{
		Path: out.Job.Input,
		Mode: out.Job.Mode(),
		Err:  out.Err,
	}
	if out.Err != nil {
		op.Status = failureStatus(out.Err)
	} else {
		op.Output = out.Result.Output
		op.Status = out.Result.Status.String()
		op.IsModified = out.Result.Status == update.StatusModified
		op.HasBackup = out.Result.Backup != ""
		op.Replacements = out.Result.Replacement.ReplacementCount
	}
	r.opts.Reporter.LogFileOperation(ctx, op)
}

func failureStatus(err error) string {
	switch errdefs.ExitCode(err) {
	case errdefs.ExitConfig:
		return "config error"
	case errdefs.ExitSource:
		return "read failed"
	case errdefs.ExitSink:
		return "write failed"
	case errdefs.ExitBackup:
		return "backup failed"
	case errdefs.ExitRename:
		return "rename failed"
	case errdefs.ExitUsage:
		return "usage error"
	default:
		return "failed"
	}
}
