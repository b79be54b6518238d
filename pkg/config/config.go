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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/to-uni/pkg/errdefs"
	"github.com/walteh/to-uni/pkg/pattern"
)

// DefaultName is the file name searched for when none is given
const DefaultName = "to-uni.yml"

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// 📚 Config is one to-uni configuration file
type Config struct {
	// Prefix is prepended to every pattern key
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Patterns maps pattern keys to replacements in declaration order
	Patterns Patterns `json:"patterns" yaml:"patterns"`

	// Exclude lists doublestar globs, relative to the config file, that batch
	// runs skip
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	location string
}

// 🎯 Load reads and parses the configuration file at path
func Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.WithDetails(errdefs.Wrap(errdefs.ErrConfigNotFound, err), "path", path)
		}
		return nil, errors.WithDetails(errdefs.Wrap(errdefs.ErrInvalidConfig, err), "path", path)
	}
	return Parse(ctx, path, data)
}

// 📝 Parse decodes data with the parser registered for filename's extension
// and validates the result.
func Parse(ctx context.Context, filename string, data []byte) (*Config, error) {
	zerolog.Ctx(ctx).Debug().Str("path", filename).Msg("parsing configuration")

	p := GetParser(filename)
	if p == nil {
		return nil, errors.WithDetails(
			errors.Errorf("%w: no parser found for file: %s", errdefs.ErrInvalidConfig, filename),
			"path", filename,
		)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.WithDetails(errdefs.Wrap(errdefs.ErrInvalidConfig, err), "path", filename)
	}

	if abs, err := filepath.Abs(filename); err == nil {
		filename = abs
	}
	cfg.location = filename

	if err := cfg.Validate(); err != nil {
		return nil, errors.WithDetails(errors.Errorf("validating config: %w", err), "path", filename)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if len(cfg.Patterns) == 0 {
		return errors.Errorf("%w: patterns is required", errdefs.ErrInvalidConfig)
	}

	for _, g := range cfg.Exclude {
		if !doublestar.ValidatePattern(g) {
			return errors.Errorf("%w: exclude pattern %q is malformed", errdefs.ErrInvalidConfig, g)
		}
	}

	if _, err := cfg.PatternSet(); err != nil {
		return err
	}

	return nil
}

// 🧩 PatternSet builds the pattern set described by the config
func (cfg *Config) PatternSet() (*pattern.Set, error) {
	pairs := make([]pattern.Pair, 0, len(cfg.Patterns))
	for _, e := range cfg.Patterns {
		pairs = append(pairs, pattern.Pair{
			Pattern:     []byte(cfg.Prefix + e.Pattern),
			Replacement: []byte(e.Replacement),
		})
	}
	return pattern.New(pairs...)
}

// Location returns the absolute path the config was parsed from, or "" for
// configs built in memory.
func (cfg *Config) Location() string {
	return cfg.location
}

// Excludes reports whether path matches one of the exclude globs. Relative
// globs are resolved against the directory holding the config.
func (cfg *Config) Excludes(path string) bool {
	if len(cfg.Exclude) == 0 {
		return false
	}

	rel := path
	if cfg.location != "" {
		if abs, err := filepath.Abs(path); err == nil {
			if r, err := filepath.Rel(filepath.Dir(cfg.location), abs); err == nil {
				rel = r
			}
		}
	}
	rel = filepath.ToSlash(rel)

	for _, g := range cfg.Exclude {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	where := cfg.location
	if where == "" {
		where = "<memory>"
	}
	return fmt.Sprintf("%s (%d patterns)", where, len(cfg.Patterns))
}
