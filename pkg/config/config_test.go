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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/to-uni/pkg/errdefs"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		wantKind error
		contains string
	}{
		{
			name:     "unsupported_extension",
			filename: "to-uni.toml",
			data:     "patterns = {}",
			wantKind: errdefs.ErrInvalidConfig,
			contains: "no parser found",
		},
		{
			name:     "syntax_error",
			filename: "to-uni.yml",
			data:     "patterns: [",
			wantKind: errdefs.ErrInvalidConfig,
			contains: "parsing YAML",
		},
		{
			name:     "no_patterns",
			filename: "to-uni.yml",
			data:     "patterns: {}\n",
			wantKind: errdefs.ErrInvalidConfig,
			contains: "patterns is required",
		},
		{
			name:     "empty_pattern",
			filename: "to-uni.yml",
			data:     "patterns:\n  \"\": x\n",
			wantKind: errdefs.ErrInvalidPattern,
			contains: "empty pattern",
		},
		{
			name:     "duplicate_pattern",
			filename: "to-uni.json",
			data:     `{"patterns": {"alpha": "a", "alpha": "b"}}`,
			wantKind: errdefs.ErrInvalidPattern,
			contains: "defined by entries 0 and 1",
		},
		{
			name:     "malformed_exclude",
			filename: "to-uni.yml",
			data:     "patterns: {a: b}\nexclude: [\"[\"]\n",
			wantKind: errdefs.ErrInvalidConfig,
			contains: "malformed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), tt.filename, []byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Equal(t, errdefs.ExitConfig, errdefs.ExitCode(err))
		})
	}
}

func TestParse_SetsLocation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "to-uni.yml")

	cfg, err := Parse(context.Background(), path, []byte("patterns: {a: b}\n"))
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Location())
	assert.Contains(t, cfg.String(), "(1 patterns)")
}

func TestPatternSet(t *testing.T) {
	cfg := &Config{
		Prefix:   `\`,
		Patterns: Patterns{{"alpha", "α"}, {"a", "á"}},
	}

	set, err := cfg.PatternSet()
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, `\alpha`, string(set.Pattern(0)), "prefix should be prepended")
	assert.Equal(t, "α", string(set.Replacement(0)))
	assert.Equal(t, `\a`, string(set.Pattern(1)))
	assert.Equal(t, len(`\alpha`), set.MaxLen())
}

func TestPatternSet_DuplicateKeys(t *testing.T) {
	cfg := &Config{
		Prefix:   "x",
		Patterns: Patterns{{"xa", "1"}, {"a", "2"}},
	}
	_, err := cfg.PatternSet()
	require.NoError(t, err, "xxa and xa differ")

	cfg.Patterns = Patterns{{"a", "1"}, {"a", "2"}}
	_, err = cfg.PatternSet()
	assert.ErrorIs(t, err, errdefs.ErrInvalidPattern)
}

func TestExcludes(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Parse(context.Background(), filepath.Join(dir, "to-uni.yml"), []byte(`
patterns: {a: b}
exclude:
  - "build/**"
  - "*.bak"
`))
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "nested_in_build", path: filepath.Join(dir, "build", "out", "doc.tex"), want: true},
		{name: "top_level_backup", path: filepath.Join(dir, "doc.tex.bak"), want: true},
		{name: "nested_backup", path: filepath.Join(dir, "sub", "doc.tex.bak"), want: false},
		{name: "regular_file", path: filepath.Join(dir, "doc.tex"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Excludes(tt.path))
		})
	}

	assert.False(t, (&Config{}).Excludes("anything"), "no globs excludes nothing")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(context.Background(), filepath.Join(dir, "nope.yml"))
		assert.ErrorIs(t, err, errdefs.ErrConfigNotFound)
	})

	t.Run("valid_file", func(t *testing.T) {
		path := filepath.Join(dir, "custom.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"patterns": {"beta": "β"}}`), 0o644))

		cfg, err := Load(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, Patterns{{"beta", "β"}}, cfg.Patterns)
		assert.Equal(t, path, cfg.Location())
	})
}
