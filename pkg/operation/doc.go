/*
Package operation runs file conversions for to-uni.

	+-------------+
	|    Jobs     |
	| (CLI input) |
	+------+------+
	       |
	+------+------+      +-------------+
	|   Runner    +------+  Resolver   |
	| (per dir)   |      |  (config)   |
	+------+------+      +-------------+
	       |
	+------+------+
	|   Updater   |
	| (temp+swap) |
	+------+------+

🎯 Purpose:
- Find the config for each input's directory
- Compile its patterns once and share the automaton between jobs
- Dispatch each job to in-place, copy or stdout conversion
- Report every outcome to a Reporter

🔄 Flow:
1. Run resolves configs serially, caching by directory and config file
2. Excluded inputs are skipped
3. Conversions run on an errgroup bounded by Options.Jobs
4. Failures are collected and joined; other jobs keep going

🔍 Example:

	r, err := operation.NewRunner(operation.Options{
		Resolver: config.NewResolver("", config.DefaultName),
		Jobs:     4,
		Reporter: logger,
	})
	if err != nil {
		return err
	}
	outcomes, err := r.Run(ctx, jobs)
*/
package operation
