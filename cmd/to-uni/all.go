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
	"context"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/to-uni/pkg/errdefs"
	"github.com/walteh/to-uni/pkg/log"
	"github.com/walteh/to-uni/pkg/operation"
	"github.com/walteh/to-uni/pkg/update"
)

// newAllCmd creates the batch command
func newAllCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all [--jobs N] <glob>...",
		Short: "Convert every file matching the globs in place",
		Long: `All converts every file matching the given globs in place. Globs
support ** for any number of directories. Each file uses the config found
from its own directory, and files matching that config's exclude list are
skipped. Backup and temporary files are never selected.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: a.runAll,
	}

	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "number of files converted in parallel")

	return cmd
}

func (a *app) runAll(cmd *cobra.Command, globs []string) error {
	jobs := a.v.GetInt("jobs")
	if jobs < 1 {
		return errors.Errorf("%w: --jobs must be at least 1, got %d", errdefs.ErrUsage, jobs)
	}

	files, err := expandGlobs(globs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.Errorf("%w: no files match %s", errdefs.ErrUsage, strings.Join(globs, " "))
	}

	logger := a.logger()
	ctx := log.NewContext(cmd.Context(), logger)

	runner, err := operation.NewRunner(operation.Options{
		Resolver: a.resolver(),
		Jobs:     jobs,
		Stdin:    a.stdin,
		Stdout:   a.stdout,
		Reporter: logger,
	})
	if err != nil {
		return errors.Errorf("creating runner: %w", err)
	}

	batch := make([]operation.Job, len(files))
	for i, f := range files {
		batch[i] = operation.Job{Input: f, Backup: !a.v.GetBool("no-backup")}
	}

	logger.Header("converting " + strings.Join(globs, " "))
	logger.StartBatch(ctx, log.BatchOperation{Patterns: globs, Files: len(files), Jobs: jobs})
	outcomes, err := runner.Run(ctx, batch)
	logger.EndBatch(ctx)

	reportBatch(ctx, outcomes)

	return err
}

// reportBatch prints the closing lines of a batch: excluded files, then
// either the failure count or the success line
func reportBatch(ctx context.Context, outcomes []operation.Outcome) {
	logger := log.FromContext(ctx)

	var skipped, failed, modified int
	for _, out := range outcomes {
		switch {
		case out.Skipped:
			skipped++
		case out.Err != nil:
			failed++
		case out.Result.Status == update.StatusModified:
			modified++
		}
	}
	converted := len(outcomes) - skipped

	if skipped > 0 {
		logger.Warningf("%d files excluded by config", skipped)
	}
	if failed > 0 {
		logger.Errorf("%d of %d files failed", failed, converted)
		return
	}
	logger.Successf("%d files converted, %d modified", converted, modified)
}

// expandGlobs returns the sorted, de-duplicated regular files matched by
// globs, leaving out backups and in-flight temporary files
func expandGlobs(globs []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, g := range globs {
		if !doublestar.ValidatePattern(filepath.ToSlash(g)) {
			return nil, errors.Errorf("%w: malformed glob %q", errdefs.ErrUsage, g)
		}

		matches, err := doublestar.FilepathGlob(g, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.WithDetails(errors.Errorf("expanding %q: %w", g, err), "glob", g)
		}

		for _, m := range matches {
			if seen[m] || isSidecar(m) {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}

	slices.Sort(files)
	return files, nil
}

// isSidecar reports whether path is a file to-uni writes next to its inputs
func isSidecar(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, update.BackupSuffix) {
		return true
	}
	ok, _ := doublestar.Match(update.TempPattern("*"), base)
	return ok
}
