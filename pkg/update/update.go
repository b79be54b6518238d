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
	"github.com/walteh/to-uni/pkg/text"
)

// Stdin is the input name that selects the updater's stdin reader
const Stdin = "-"

// BackupSuffix is appended to the original path to name its backup
const BackupSuffix = ".bak"

// 📊 Status is the file-level outcome of a conversion
type Status int

const (
	StatusUnknown   Status = iota
	StatusModified         // at least one replacement changed the content
	StatusUnchanged        // content is byte-identical to the input
)

// String returns a string representation of Status
func (s Status) String() string {
	switch s {
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// 📄 Result describes one successful conversion
type Result struct {
	Input  string // input path, or "-" for stdin
	Output string // written path, empty when writing to a stream
	Backup string // backup path, empty when no backup was taken
	Status Status

	Replacement *text.ReplacementResult
}

// Options holds the file system hooks used by an Updater. Zero values fall
// back to the os package.
type Options struct {
	// CreateTemp creates the temporary output file, as os.CreateTemp
	CreateTemp func(dir, pattern string) (*os.File, error)

	// Rename moves the temporary file over its target, as os.Rename
	Rename func(oldpath, newpath string) error

	// Stdin is read when the input name is "-"
	Stdin io.Reader
}

// 🔧 Updater runs a TextReplacer against files on disk.
//
// An Updater keeps no per-file state and can serve concurrent jobs as long
// as its TextReplacer can.
type Updater struct {
	replacer text.TextReplacer
	opts     Options
}

// 🏭 New creates a new Updater
func New(replacer text.TextReplacer, opts Options) *Updater {
	if opts.CreateTemp == nil {
		opts.CreateTemp = os.CreateTemp
	}
	if opts.Rename == nil {
		opts.Rename = osReplace
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	return &Updater{
		replacer: replacer,
		opts:     opts,
	}
}

// 🔒 InPlace converts path and swaps the result in with a single rename.
//
// The converted bytes go to a temporary file next to path. The original is
// only ever opened for reading, so any failure before the rename leaves it
// untouched. With backup set, the original content is first saved to
// path+".bak", itself written through a temporary file.
func (u *Updater) InPlace(ctx context.Context, path string, backup bool) (*Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("path", path).Logger()

	src, info, err := openRegular(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var res *text.ReplacementResult
	tmpPath, err := u.writeTemp(ctx, path, info.Mode(), func(w io.Writer) error {
		var err error
		res, err = u.replacer.ReplaceText(ctx, src, w)
		return err
	})
	if err != nil {
		return nil, errors.WithDetails(err, "path", path)
	}
	logger.Debug().Str("temp", tmpPath).Int("replacements", res.ReplacementCount).Msg("conversion written")

	result := &Result{
		Input:       path,
		Output:      path,
		Status:      statusOf(res),
		Replacement: res,
	}

	if backup {
		backupPath, err := u.backup(ctx, src, path, info.Mode())
		if err != nil {
			u.removeTemp(ctx, tmpPath)
			return nil, errors.WithDetails(err, "path", path)
		}
		result.Backup = backupPath
	}

	if err := u.opts.Rename(tmpPath, path); err != nil {
		// the temp file holds the finished conversion, leave it for inspection
		return nil, errors.WithDetails(errdefs.Wrap(errdefs.ErrRename, err), "path", path, "temp", tmpPath)
	}

	if err := syncDir(filepath.Dir(path)); err != nil {
		logger.Debug().Err(err).Msg("directory sync failed")
	}

	logger.Debug().Stringer("status", result.Status).Msg("file replaced")
	return result, nil
}

// 📤 ToFile converts src into dst without touching src.
//
// When dst is a directory the output is named after src inside it. When dst
// is src itself the call is handled by InPlace without a backup, as the
// source must be fully read before it is replaced.
func (u *Updater) ToFile(ctx context.Context, src, dst string) (*Result, error) {
	if dst == Stdin {
		return nil, errors.Errorf("%w: output may not be %q", errdefs.ErrUsage, Stdin)
	}

	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		if src == Stdin {
			return nil, errors.Errorf("%w: output directory needs a named input", errdefs.ErrUsage)
		}
		dst = filepath.Join(dst, filepath.Base(src))
	}

	if src != Stdin && sameFile(src, dst) {
		zerolog.Ctx(ctx).Debug().Str("path", src).Msg("output is the input, converting in place")
		return u.InPlace(ctx, src, false)
	}

	in, mode, closeIn, err := u.openInput(src)
	if err != nil {
		return nil, err
	}
	defer closeIn()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return nil, errors.WithDetails(errdefs.Wrap(errdefs.ErrSinkWrite, err), "path", dst)
	}

	res, err := u.replacer.ReplaceText(ctx, in, out)
	if err != nil {
		out.Close()
		return nil, errors.WithDetails(err, "input", src, "output", dst)
	}
	if err := out.Close(); err != nil {
		return nil, errors.WithDetails(errdefs.Wrap(errdefs.ErrSinkWrite, err), "path", dst)
	}

	return &Result{
		Input:       src,
		Output:      dst,
		Status:      statusOf(res),
		Replacement: res,
	}, nil
}

// 📤 ToWriter converts src into w
func (u *Updater) ToWriter(ctx context.Context, src string, w io.Writer) (*Result, error) {
	in, _, closeIn, err := u.openInput(src)
	if err != nil {
		return nil, err
	}
	defer closeIn()

	res, err := u.replacer.ReplaceText(ctx, in, w)
	if err != nil {
		return nil, errors.WithDetails(err, "input", src)
	}

	return &Result{
		Input:       src,
		Status:      statusOf(res),
		Replacement: res,
	}, nil
}

func (u *Updater) openInput(src string) (io.Reader, os.FileMode, func(), error) {
	if src == Stdin {
		return u.opts.Stdin, 0o644, func() {}, nil
	}
	f, info, err := openRegular(src)
	if err != nil {
		return nil, 0, nil, err
	}
	return f, info.Mode(), func() { f.Close() }, nil
}

func openRegular(path string) (*os.File, os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.WithDetails(errdefs.Wrap(errdefs.ErrSourceRead, err), "path", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, errors.WithDetails(errdefs.Wrap(errdefs.ErrSourceRead, err), "path", path)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, errors.WithDetails(
			errors.Errorf("%w: not a regular file", errdefs.ErrSourceRead),
			"path", path,
		)
	}
	return f, info, nil
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func statusOf(res *text.ReplacementResult) Status {
	if res.WasModified {
		return StatusModified
	}
	return StatusUnchanged
}
