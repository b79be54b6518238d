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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/to-uni/pkg/update"
)

// 🏃 Run converts every job and returns one outcome per job, in job order.
// Jobs whose input matches an exclude glob of its config are skipped. A
// failed job does not stop the others; the returned error joins every
// failure.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Outcome, error) {
	// configs are resolved up front so that parallel jobs only share
	// finished, read-only compilations
	prepared := make([]*compiled, len(jobs))
	outcomes := make([]Outcome, len(jobs))
	for i, job := range jobs {
		c := r.prepare(ctx, job.Input)
		if c.err == nil && job.Input != update.Stdin && c.cfg.Excludes(job.Input) {
			zerolog.Ctx(ctx).Debug().Str("path", job.Input).Msg("excluded by config")
			outcomes[i] = Outcome{Job: job, Skipped: true}
			continue
		}
		prepared[i] = c
	}

	zerolog.Ctx(ctx).Debug().
		Int("jobs", len(jobs)).
		Int("parallel", r.opts.Jobs).
		Msg("running conversions")

	if r.opts.Jobs <= 1 {
		r.runSync(ctx, jobs, prepared, outcomes)
	} else {
		r.runAsync(ctx, jobs, prepared, outcomes)
	}

	var errs []error
	for _, out := range outcomes {
		if out.Err != nil {
			errs = append(errs, out.Err)
		}
	}
	if len(errs) > 0 {
		return outcomes, errors.Join(errs...)
	}
	return outcomes, nil
}

// 🔄 runSync runs jobs one after another
func (r *Runner) runSync(ctx context.Context, jobs []Job, prepared []*compiled, outcomes []Outcome) {
	for i, job := range jobs {
		if prepared[i] == nil {
			continue
		}
		outcomes[i] = r.execute(ctx, job, prepared[i])
	}
}

// ⚡ runAsync runs up to Options.Jobs conversions at once
func (r *Runner) runAsync(ctx context.Context, jobs []Job, prepared []*compiled, outcomes []Outcome) {
	var g errgroup.Group
	g.SetLimit(r.opts.Jobs)

	for i, job := range jobs {
		if prepared[i] == nil {
			continue
		}
		// failures land in outcomes[i] so one bad file never stops the rest
		g.Go(func() error {
			outcomes[i] = r.execute(ctx, job, prepared[i])
			return nil
		})
	}

	_ = g.Wait()
}
