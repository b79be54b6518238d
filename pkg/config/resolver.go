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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/to-uni/pkg/errdefs"
)

// 🔎 Resolver finds the configuration that applies to a directory
type Resolver interface {
	// Resolve returns the config for files in dir, or an error matching
	// errdefs.ErrConfigNotFound when there is none.
	Resolve(ctx context.Context, dir string) (*Config, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(ctx context.Context, dir string) (*Config, error)

// Resolve implements Resolver
func (f ResolverFunc) Resolve(ctx context.Context, dir string) (*Config, error) {
	return f(ctx, dir)
}

// ⬆️ UpwardResolver looks for Name in dir, then in each parent up to the
// file system root.
type UpwardResolver struct {
	// Name is the config file name, DefaultName when empty
	Name string

	// ReadFile reads a candidate, os.ReadFile when nil. A missing candidate
	// must be reported with an error matching fs.ErrNotExist.
	ReadFile func(path string) ([]byte, error)
}

// Resolve implements Resolver
func (r *UpwardResolver) Resolve(ctx context.Context, dir string) (*Config, error) {
	name := r.Name
	if name == "" {
		name = DefaultName
	}
	readFile := r.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	start, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Errorf("resolving %s: %w", dir, err)
	}

	logger := zerolog.Ctx(ctx)
	for cur := start; ; {
		candidate := filepath.Join(cur, name)
		logger.Debug().Str("candidate", candidate).Msg("looking for configuration")

		data, err := readFile(candidate)
		switch {
		case err == nil:
			return Parse(ctx, candidate, data)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, errors.WithDetails(errdefs.Wrap(errdefs.ErrInvalidConfig, err), "path", candidate)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	return nil, errors.WithDetails(
		errors.Errorf("%w: no %s in %s or any parent directory", errdefs.ErrConfigNotFound, name, start),
		"start", start,
		"name", name,
	)
}

// 📄 FileResolver always loads the same file
type FileResolver struct {
	Path string
}

// Resolve implements Resolver
func (r *FileResolver) Resolve(ctx context.Context, _ string) (*Config, error) {
	return Load(ctx, r.Path)
}

// 🏭 NewResolver builds the resolver for the --config and --config-name
// flags. An empty path searches upward from each input's directory; a
// directory path searches upward from there; any other path is loaded as is.
func NewResolver(path, name string) Resolver {
	up := &UpwardResolver{Name: name}
	if path == "" {
		return up
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return ResolverFunc(func(ctx context.Context, _ string) (*Config, error) {
			return up.Resolve(ctx, path)
		})
	}
	return &FileResolver{Path: path}
}
