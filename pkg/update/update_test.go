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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/to-uni/pkg/errdefs"
	"github.com/walteh/to-uni/pkg/text"
)

func newReplacer(t *testing.T) *text.StreamReplacer {
	t.Helper()
	r, err := text.NewFromStrings("\\alpha", "α", "\\beta", "β")
	require.NoError(t, err, "creating replacer should succeed")
	return r
}

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), mode), "writing fixture should succeed")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err, "reading %s should succeed", path)
	return string(b)
}

func tempLeftovers(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".~*.tmp"))
	require.NoError(t, err)
	return matches
}

// failingReplacer runs the real replacer against a sink that breaks after
// limit bytes.
type failingReplacer struct {
	inner text.TextReplacer
	limit int
}

type limitWriter struct {
	w     io.Writer
	limit int
}

func (l *limitWriter) Write(p []byte) (int, error) {
	if len(p) > l.limit {
		n, _ := l.w.Write(p[:l.limit])
		l.limit = 0
		return n, fmt.Errorf("no space left on device")
	}
	l.limit -= len(p)
	return l.w.Write(p)
}

func (f *failingReplacer) ReplaceText(ctx context.Context, src io.Reader, dst io.Writer) (*text.ReplacementResult, error) {
	return f.inner.ReplaceText(ctx, src, &limitWriter{w: dst, limit: f.limit})
}

func TestInPlace(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		backup     bool
		want       string
		wantStatus Status
	}{
		{
			name:       "converts_with_backup",
			content:    `\alpha + \beta`,
			backup:     true,
			want:       "α + β",
			wantStatus: StatusModified,
		},
		{
			name:       "converts_without_backup",
			content:    `\alpha + \beta`,
			backup:     false,
			want:       "α + β",
			wantStatus: StatusModified,
		},
		{
			name:       "no_occurrences",
			content:    "plain text\n",
			backup:     true,
			want:       "plain text\n",
			wantStatus: StatusUnchanged,
		},
		{
			name:       "empty_file",
			content:    "",
			backup:     false,
			want:       "",
			wantStatus: StatusUnchanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "doc.tex")
			writeFile(t, path, tt.content, 0o644)

			u := New(newReplacer(t), Options{})
			result, err := u.InPlace(context.Background(), path, tt.backup)
			require.NoError(t, err)

			assert.Equal(t, tt.want, readFile(t, path), "file should hold the conversion")
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, path, result.Output)
			assert.Empty(t, tempLeftovers(t, dir), "no temp file should remain")

			if tt.backup {
				assert.Equal(t, path+".bak", result.Backup)
				assert.Equal(t, tt.content, readFile(t, path+".bak"), "backup should hold the original")
			} else {
				assert.Empty(t, result.Backup)
				assert.NoFileExists(t, path+".bak")
			}
		})
	}
}

func TestInPlace_OverwritesBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.tex")
	writeFile(t, path, `\alpha`, 0o644)
	writeFile(t, path+".bak", "an older and much longer backup", 0o644)

	_, err := New(newReplacer(t), Options{}).InPlace(context.Background(), path, true)
	require.NoError(t, err)

	assert.Equal(t, `\alpha`, readFile(t, path+".bak"), "backup should be replaced, not appended")
	assert.Equal(t, "α", readFile(t, path))
}

func TestInPlace_BackupCopiesConvertedOriginal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("an open file cannot be renamed over on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.tex")
	writeFile(t, path, `\alpha`, 0o644)

	calls := 0
	u := New(newReplacer(t), Options{
		CreateTemp: func(d, pattern string) (*os.File, error) {
			calls++
			if calls == 2 {
				// another writer swaps in a new file between conversion and backup
				swapped := filepath.Join(dir, "swapped")
				writeFile(t, swapped, `\beta edited elsewhere`, 0o644)
				require.NoError(t, os.Rename(swapped, path))
			}
			return os.CreateTemp(d, pattern)
		},
	})

	res, err := u.InPlace(context.Background(), path, true)
	require.NoError(t, err)
	require.Equal(t, 2, calls, "conversion and backup should each use a temp file")

	assert.Equal(t, `\alpha`, readFile(t, res.Backup), "backup should hold the bytes that were converted")
	assert.Equal(t, "α", readFile(t, path))
}

func TestInPlace_SinkFailureLeavesOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.tex")
	original := strings.Repeat(`line with \alpha and \beta`+"\n", 2000)
	writeFile(t, path, original, 0o644)

	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, old, old))

	u := New(&failingReplacer{inner: newReplacer(t), limit: 10000}, Options{})
	_, err := u.InPlace(context.Background(), path, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrSinkWrite)
	assert.Equal(t, errdefs.ExitSink, errdefs.ExitCode(err))

	assert.Equal(t, original, readFile(t, path), "original content should be untouched")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "original mtime should be untouched")
	assert.NoFileExists(t, path+".bak", "no backup should be created")
	assert.Empty(t, tempLeftovers(t, dir), "temp file should be removed")
}

func TestInPlace_SinkFailureKeepsPreviousBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.tex")
	writeFile(t, path, strings.Repeat(`\alpha `, 1000), 0o644)
	writeFile(t, path+".bak", "previous", 0o644)

	u := New(&failingReplacer{inner: newReplacer(t), limit: 0}, Options{})
	_, err := u.InPlace(context.Background(), path, true)
	require.ErrorIs(t, err, errdefs.ErrSinkWrite)

	assert.Equal(t, "previous", readFile(t, path+".bak"), "previous backup should not be altered")
}

func TestInPlace_CreateTempFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.tex")
	writeFile(t, path, `\alpha`, 0o644)

	u := New(newReplacer(t), Options{
		CreateTemp: func(dir, pattern string) (*os.File, error) {
			return nil, os.ErrPermission
		},
	})
	_, err := u.InPlace(context.Background(), path, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrSinkWrite)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, `\alpha`, readFile(t, path))
}

func TestInPlace_TempFileNaming(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.tex")
	writeFile(t, path, `\alpha`, 0o644)

	var patterns []string
	var dirs []string
	u := New(newReplacer(t), Options{
		CreateTemp: func(d, pattern string) (*os.File, error) {
			dirs = append(dirs, d)
			patterns = append(patterns, pattern)
			return os.CreateTemp(d, pattern)
		},
	})
	_, err := u.InPlace(context.Background(), path, true)
	require.NoError(t, err)

	assert.Equal(t, []string{".~doc.tex.*.tmp", ".~doc.tex.bak.*.tmp"}, patterns)
	assert.Equal(t, []string{dir, dir}, dirs, "temp files should live beside their target")
}

func TestInPlace_RenameFailureKeepsTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.tex")
	writeFile(t, path, `\alpha`, 0o644)

	u := New(newReplacer(t), Options{
		Rename: func(oldpath, newpath string) error {
			if newpath == path {
				return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: os.ErrPermission}
			}
			return os.Rename(oldpath, newpath)
		},
	})
	_, err := u.InPlace(context.Background(), path, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrRename)
	assert.Equal(t, errdefs.ExitRename, errdefs.ExitCode(err))

	assert.Equal(t, `\alpha`, readFile(t, path), "original should be intact")

	leftovers := tempLeftovers(t, dir)
	require.Len(t, leftovers, 1, "the finished conversion should be kept")
	assert.Equal(t, "α", readFile(t, leftovers[0]))
}

func TestInPlace_BackupFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.tex")
	writeFile(t, path, `\alpha`, 0o644)

	u := New(newReplacer(t), Options{
		Rename: func(oldpath, newpath string) error {
			if strings.HasSuffix(newpath, BackupSuffix) {
				return os.ErrPermission
			}
			return os.Rename(oldpath, newpath)
		},
	})
	_, err := u.InPlace(context.Background(), path, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, errdefs.ErrBackup)
	assert.Equal(t, errdefs.ExitBackup, errdefs.ExitCode(err))

	assert.Equal(t, `\alpha`, readFile(t, path))
	assert.NoFileExists(t, path+".bak")
	assert.Empty(t, tempLeftovers(t, dir), "both temp files should be removed")
}

func TestInPlace_PreservesMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "script.sh")
	writeFile(t, path, `echo \alpha`, 0o751)
	require.NoError(t, os.Chmod(path, 0o751))

	_, err := New(newReplacer(t), Options{}).InPlace(context.Background(), path, true)
	require.NoError(t, err)

	for _, p := range []string{path, path + ".bak"} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o751), info.Mode().Perm(), "%s should keep the original mode", p)
	}
}

func TestInPlace_SourceErrors(t *testing.T) {
	dir := t.TempDir()
	u := New(newReplacer(t), Options{})

	t.Run("missing_file", func(t *testing.T) {
		_, err := u.InPlace(context.Background(), filepath.Join(dir, "missing.tex"), true)
		assert.ErrorIs(t, err, errdefs.ErrSourceRead)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := u.InPlace(context.Background(), dir, true)
		assert.ErrorIs(t, err, errdefs.ErrSourceRead)
		assert.Contains(t, err.Error(), "not a regular file")
	})
}

func TestToFile(t *testing.T) {
	ctx := context.Background()

	t.Run("separate_output", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "in.tex")
		dst := filepath.Join(dir, "out.tex")
		writeFile(t, src, `\alpha`, 0o644)
		writeFile(t, dst, "stale content that is longer", 0o644)

		result, err := New(newReplacer(t), Options{}).ToFile(ctx, src, dst)
		require.NoError(t, err)
		assert.Equal(t, "α", readFile(t, dst), "output should be truncated and rewritten")
		assert.Equal(t, `\alpha`, readFile(t, src), "source should be untouched")
		assert.Equal(t, dst, result.Output)
		assert.Equal(t, StatusModified, result.Status)
		assert.NoFileExists(t, src+".bak")
	})

	t.Run("output_directory", func(t *testing.T) {
		dir := t.TempDir()
		outDir := filepath.Join(dir, "out")
		require.NoError(t, os.Mkdir(outDir, 0o755))
		src := filepath.Join(dir, "in.tex")
		writeFile(t, src, `\beta`, 0o644)

		result, err := New(newReplacer(t), Options{}).ToFile(ctx, src, outDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(outDir, "in.tex"), result.Output)
		assert.Equal(t, "β", readFile(t, result.Output))
	})

	t.Run("same_file_is_in_place", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "in.tex")
		writeFile(t, src, strings.Repeat(`\alpha`, 5000), 0o644)

		result, err := New(newReplacer(t), Options{}).ToFile(ctx, src, filepath.Join(dir, ".", "in.tex"))
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("α", 5000), readFile(t, src))
		assert.Empty(t, result.Backup)
		assert.NoFileExists(t, src+".bak")
	})

	t.Run("stdin_input", func(t *testing.T) {
		dir := t.TempDir()
		dst := filepath.Join(dir, "out.tex")

		u := New(newReplacer(t), Options{Stdin: strings.NewReader(`\alpha\beta`)})
		result, err := u.ToFile(ctx, Stdin, dst)
		require.NoError(t, err)
		assert.Equal(t, "αβ", readFile(t, dst))
		assert.Equal(t, Stdin, result.Input)
	})

	t.Run("dash_output_is_usage_error", func(t *testing.T) {
		_, err := New(newReplacer(t), Options{}).ToFile(ctx, "in.tex", Stdin)
		assert.ErrorIs(t, err, errdefs.ErrUsage)
	})

	t.Run("missing_output_directory", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "in.tex")
		writeFile(t, src, `\alpha`, 0o644)

		_, err := New(newReplacer(t), Options{}).ToFile(ctx, src, filepath.Join(dir, "nope", "out.tex"))
		assert.ErrorIs(t, err, errdefs.ErrSinkWrite)
	})
}

func TestToWriter(t *testing.T) {
	ctx := context.Background()

	t.Run("file_input", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "in.tex")
		writeFile(t, src, `a \alpha b`, 0o644)

		var out bytes.Buffer
		result, err := New(newReplacer(t), Options{}).ToWriter(ctx, src, &out)
		require.NoError(t, err)
		assert.Equal(t, "a α b", out.String())
		assert.Empty(t, result.Output)
		assert.Equal(t, 1, result.Replacement.ReplacementCount)
	})

	t.Run("stdin_input", func(t *testing.T) {
		var out bytes.Buffer
		u := New(newReplacer(t), Options{Stdin: strings.NewReader(`\beta`)})
		_, err := u.ToWriter(ctx, Stdin, &out)
		require.NoError(t, err)
		assert.Equal(t, "β", out.String())
	})
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "modified", StatusModified.String())
	assert.Equal(t, "unchanged", StatusUnchanged.String())
	assert.Equal(t, "unknown", StatusUnknown.String())
}
