/*
Package config loads the pattern configuration for to-uni.

	            +-------------+
	            |  Resolver   |
	            | (where is?) |
	            +------+------+
	                   |
	      +-----------+-----------+-----------+
	      |           |           |           |
	+-----+----+ +----+-----+ +---+----+ +----+-----+
	|   YAML   | |   JSON   | |  HCL   | |  Config  |
	|  Parser  | |  Parser  | | Parser | | Validate |
	+----------+ +----------+ +--------+ +----------+

🎯 Purpose:
- Find the config that applies to an input file
- Parse it with the parser registered for its extension
- Turn it into a validated pattern.Set

🔄 Flow:
1. A Resolver maps a directory to a config file
2. GetParser picks YAML, JSON or HCL by extension
3. Validate checks patterns, prefix and exclude globs
4. PatternSet prepends the prefix to every key

📄 Schema:

	prefix: "\\"
	patterns:
	  alpha: "α"
	  to: "→"
	exclude:
	  - "vendor/**"

Keys and values must be strings; YAML scalars like 1 or true are not
coerced. Patterns keep the order they were written in, which is their
priority in the pattern set. Unknown fields are an error.

⚡ Errors:
- errdefs.ErrConfigNotFound: nothing found up to the file system root
- errdefs.ErrInvalidConfig: unreadable file, bad syntax, unknown fields
- errdefs.ErrInvalidPattern: empty or duplicate pattern after the prefix

🔍 Example:

	r := &config.UpwardResolver{Name: config.DefaultName}
	cfg, err := r.Resolve(ctx, filepath.Dir(input))
	if err != nil {
		return err
	}
	set, err := cfg.PatternSet()
*/
package config
