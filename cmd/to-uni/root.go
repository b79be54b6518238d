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

package main

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/to-uni/pkg/config"
	"github.com/walteh/to-uni/pkg/errdefs"
	"github.com/walteh/to-uni/pkg/log"
	"github.com/walteh/to-uni/pkg/operation"
)

// envPrefix namespaces the environment variables that mirror flags,
// e.g. TO_UNI_NO_BACKUP for --no-backup
const envPrefix = "TO_UNI"

// app holds the streams and settings shared by every command
type app struct {
	v      *viper.Viper
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &app{
		v:      v,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

// newRootCmd builds the to-uni command tree
func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "to-uni [flags] <input> [<output>]",
		Short: "Replace LaTeX-style sequences with Unicode characters",
		Long: `to-uni rewrites sequences such as \alpha or \to into the characters they
stand for, using the patterns of the nearest to-uni.yml.

Without an output the input is converted in place, keeping the original
as <input>.bak. The input may be "-" to read standard input.

A file named like a subcommand (all, version) must be given as ./all.`,
		Example: `  to-uni paper.tex
  to-uni -B notes.md
  to-uni paper.tex out/
  cat draft.tex | to-uni --stdout -
  to-uni all --jobs 8 "chapters/**/*.tex"`,
		Args:              usageArgs(cobra.RangeArgs(1, 2)),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runConvert,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file, or directory to start the config search from")
	flags.String("config-name", config.DefaultName, "config file name searched for in parent directories")
	flags.BoolP("no-backup", "B", false, "do not keep a .bak copy of files converted in place")
	flags.Bool("debug", false, "enable debug logging")

	cmd.Flags().Bool("stdout", false, "write the result to standard output")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errdefs.Wrap(errdefs.ErrUsage, err)
	})

	cmd.AddCommand(
		newAllCmd(a),
		newVersionCmd(a),
	)

	return cmd
}

// usageArgs marks argument validation failures as usage errors
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return errdefs.Wrap(errdefs.ErrUsage, err)
		}
		return nil
	}
}

// setup binds the flags of the running command to viper and installs the
// context logger
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Errorf("binding flags: %w", err)
	}

	level := zerolog.WarnLevel
	if a.v.GetBool("debug") {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: a.stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().
		Logger()
	cmd.SetContext(logger.WithContext(cmd.Context()))

	logger.Debug().
		Str("command", cmd.Name()).
		Str("config", a.v.GetString("config")).
		Str("config_name", a.v.GetString("config-name")).
		Msg("starting")

	return nil
}

// logger builds the console logger. Its mirrored zerolog events only show
// with --debug.
func (a *app) logger() *log.Logger {
	level := zerolog.Disabled
	if a.v.GetBool("debug") {
		level = zerolog.DebugLevel
	}
	return log.New(a.stdout, level)
}

func (a *app) resolver() config.Resolver {
	return config.NewResolver(a.v.GetString("config"), a.v.GetString("config-name"))
}

// runConvert converts a single input
func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	job := operation.Job{
		Input:  args[0],
		Stdout: a.v.GetBool("stdout"),
		Backup: !a.v.GetBool("no-backup"),
	}
	if len(args) == 2 {
		job.Output = args[1]
	}
	if err := job.Validate(); err != nil {
		return err
	}

	opts := operation.Options{
		Resolver: a.resolver(),
		Stdin:    a.stdin,
		Stdout:   a.stdout,
	}
	// stdout carries the converted text, so nothing else is printed there
	var logger *log.Logger
	if !job.Stdout {
		logger = a.logger()
		opts.Reporter = logger
	}

	runner, err := operation.NewRunner(opts)
	if err != nil {
		return errors.Errorf("creating runner: %w", err)
	}

	res, err := runner.Convert(ctx, job)
	if err != nil {
		return err
	}
	if logger != nil && res.Backup != "" {
		logger.Infof("original kept as %s", res.Backup)
	}
	return nil
}
