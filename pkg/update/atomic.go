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

package update

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/to-uni/pkg/errdefs"
)

// TempPattern returns the os.CreateTemp pattern used for files written next
// to target. The leading dot and tilde keep them out of most globs.
func TempPattern(target string) string {
	return ".~" + filepath.Base(target) + ".*.tmp"
}

// 💾 writeTemp creates a temporary file beside target with the given mode,
// lets fill write its content, and syncs and closes it. On any failure the
// temporary file is removed and its path is not returned.
func (u *Updater) writeTemp(ctx context.Context, target string, mode os.FileMode, fill func(io.Writer) error) (string, error) {
	tmp, err := u.opts.CreateTemp(filepath.Dir(target), TempPattern(target))
	if err != nil {
		return "", errdefs.Wrap(errdefs.ErrSinkWrite, errors.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmp.Name()

	fail := func(err error) (string, error) {
		tmp.Close()
		u.removeTemp(ctx, tmpPath)
		return "", err
	}

	if err := tmp.Chmod(mode.Perm()); err != nil {
		return fail(errdefs.Wrap(errdefs.ErrSinkWrite, errors.Errorf("setting temp file mode: %w", err)))
	}
	if err := fill(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(errdefs.Wrap(errdefs.ErrSinkWrite, errors.Errorf("syncing temp file: %w", err)))
	}
	if err := tmp.Close(); err != nil {
		u.removeTemp(ctx, tmpPath)
		return "", errdefs.Wrap(errdefs.ErrSinkWrite, errors.Errorf("closing temp file: %w", err))
	}

	return tmpPath, nil
}

// 📦 backup copies src, the already converted original, to path+".bak",
// replacing any earlier backup in one rename.
func (u *Updater) backup(ctx context.Context, src io.ReadSeeker, path string, mode os.FileMode) (string, error) {
	backupPath := path + BackupSuffix

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", errdefs.Wrap(errdefs.ErrBackup, errors.Errorf("rewinding original: %w", err))
	}

	tmpPath, err := u.writeTemp(ctx, backupPath, mode, func(w io.Writer) error {
		if _, err := io.Copy(w, src); err != nil {
			return errors.Errorf("copying original: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", errdefs.Wrap(errdefs.ErrBackup, err)
	}

	if err := u.opts.Rename(tmpPath, backupPath); err != nil {
		u.removeTemp(ctx, tmpPath)
		return "", errdefs.Wrap(errdefs.ErrBackup, errors.Errorf("renaming backup: %w", err))
	}

	zerolog.Ctx(ctx).Debug().Str("backup", backupPath).Msg("backup written")
	return backupPath, nil
}

func (u *Updater) removeTemp(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		zerolog.Ctx(ctx).Debug().Err(err).Str("temp", path).Msg("removing temp file failed")
	}
}
