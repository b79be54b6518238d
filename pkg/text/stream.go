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

package text

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/walteh/to-uni/pkg/automaton"
	"github.com/walteh/to-uni/pkg/errdefs"
)

const (
	DefaultReadSize      = 512
	DefaultLiteralBuffer = 512
	sinkBufferSize       = 4096
)

// 🌊 StreamReplacer implements TextReplacer over an Automaton.
//
// A StreamReplacer holds no per-stream state, so one value can serve any
// number of sequential or concurrent conversions.
type StreamReplacer struct {
	automaton     *automaton.Automaton
	readSize      int
	literalBuffer int
}

// Option configures a StreamReplacer
type Option func(*StreamReplacer)

// WithReadSize sets how many bytes are requested from the source per read.
func WithReadSize(n int) Option {
	return func(r *StreamReplacer) {
		if n > 0 {
			r.readSize = n
		}
	}
}

// WithLiteralBuffer sets how many pass-through bytes are batched into one chunk.
func WithLiteralBuffer(n int) Option {
	return func(r *StreamReplacer) {
		if n > 0 {
			r.literalBuffer = n
		}
	}
}

// 🏭 NewStreamReplacer creates a new StreamReplacer
func NewStreamReplacer(a *automaton.Automaton, opts ...Option) *StreamReplacer {
	r := &StreamReplacer{
		automaton:     a,
		readSize:      DefaultReadSize,
		literalBuffer: DefaultLiteralBuffer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReplaceText implements TextReplacer.ReplaceText
func (r *StreamReplacer) ReplaceText(ctx context.Context, src io.Reader, dst io.Writer) (*ReplacementResult, error) {
	bw := bufio.NewWriterSize(dst, sinkBufferSize)

	var written int64
	result, err := r.Chunks(ctx, src, func(c Chunk) error {
		n, err := bw.Write(c.Data)
		written += int64(n)
		if err != nil {
			return errdefs.Wrap(errdefs.ErrSinkWrite, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := bw.Flush(); err != nil {
		return nil, errdefs.Wrap(errdefs.ErrSinkWrite, err)
	}
	result.BytesWritten = written

	return result, nil
}

// 🧩 Chunks reads src to the end and calls fn with every output segment in
// order. An error from fn aborts the stream and is returned unchanged.
func (r *StreamReplacer) Chunks(ctx context.Context, src io.Reader, fn func(Chunk) error) (*ReplacementResult, error) {
	set := r.automaton.Set()
	s := &stream{
		scan:    r.automaton.Scanner(),
		pending: make([]byte, 0, set.MaxLen()+1),
		lit:     make([]byte, 0, r.literalBuffer),
		emit:    fn,
		replace: set.Replacement,
		pattern: set.Pattern,
		result: &ReplacementResult{
			PatternCounts: make([]int, set.Len()),
		},
	}

	buf := make([]byte, r.readSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, rerr := src.Read(buf)
		s.result.BytesRead += int64(n)
		for _, b := range buf[:n] {
			if err := s.push(b); err != nil {
				return nil, err
			}
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, errdefs.Wrap(errdefs.ErrSourceRead, rerr)
		}
	}

	if err := s.finish(); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Int64("bytes_read", s.result.BytesRead).
		Int("replacements", s.result.ReplacementCount).
		Int("peak_window", s.result.PeakWindow).
		Msg("stream converted")

	return s.result, nil
}

// stream is the state of one conversion: the pending window, the scanner
// position inside it, and the best match candidate not yet committed.
//
// pending[:scanned] has been fed to the scanner. Bytes in front of
// scanned-depth can no longer start a match and leave the window as literals.
type stream struct {
	scan    *automaton.Scanner
	pending []byte
	scanned int

	best    automaton.Match
	hasBest bool

	lit  []byte
	emit func(Chunk) error

	replace func(int) []byte
	pattern func(int) []byte
	result  *ReplacementResult
}

func (s *stream) push(b byte) error {
	// len(pending) is the scanner depth here, at most MaxLen, so the append
	// stays within the capacity allocated in Chunks.
	s.pending = append(s.pending, b)
	if len(s.pending) > s.result.PeakWindow {
		s.result.PeakWindow = len(s.pending)
	}
	return s.process()
}

// process scans every pending byte not yet fed to the scanner, committing
// final matches and releasing literals as soon as they are decided.
func (s *stream) process() error {
	for s.scanned < len(s.pending) {
		b := s.pending[s.scanned]
		s.scanned++

		if sig := s.scan.Advance(b); sig.Matched() {
			start := s.scanned - sig.Length
			if !s.hasBest || start < s.best.Start || (start == s.best.Start && sig.Length > s.best.Len()) {
				s.best = automaton.Match{Pattern: sig.Pattern, Start: start, End: s.scanned}
				s.hasBest = true
			}
		}

		live := s.scanned - s.scan.Depth()
		if s.hasBest && live > s.best.Start {
			if err := s.commit(); err != nil {
				return err
			}
			continue
		}

		if live > 0 {
			if err := s.literal(s.pending[:live]); err != nil {
				return err
			}
			s.shift(live)
		}
	}
	return nil
}

// commit emits the best match and restarts scanning right after it. Bytes
// after the match were scanned with state that included the match, so they
// are fed again from the root.
func (s *stream) commit() error {
	if err := s.literal(s.pending[:s.best.Start]); err != nil {
		return err
	}
	if err := s.replacement(s.best.Pattern); err != nil {
		return err
	}

	s.shift(s.best.End)
	s.scanned = 0
	s.scan.Reset()
	s.hasBest = false
	return nil
}

func (s *stream) finish() error {
	for s.hasBest {
		if err := s.commit(); err != nil {
			return err
		}
		if err := s.process(); err != nil {
			return err
		}
	}

	if err := s.literal(s.pending); err != nil {
		return err
	}
	s.shift(len(s.pending))
	return s.flushLiteral()
}

// shift drops the first n pending bytes, keeping the buffer in place.
func (s *stream) shift(n int) {
	m := copy(s.pending, s.pending[n:])
	s.pending = s.pending[:m]
	s.scanned -= n
	if s.scanned < 0 {
		s.scanned = 0
	}
	if s.hasBest {
		s.best.Start -= n
		s.best.End -= n
	}
}

func (s *stream) literal(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if len(s.lit)+len(b) > cap(s.lit) {
		if err := s.flushLiteral(); err != nil {
			return err
		}
		if len(b) > cap(s.lit) {
			return s.emit(Chunk{Kind: ChunkLiteral, Data: b, Pattern: -1})
		}
	}
	s.lit = append(s.lit, b...)
	return nil
}

func (s *stream) flushLiteral() error {
	if len(s.lit) == 0 {
		return nil
	}
	err := s.emit(Chunk{Kind: ChunkLiteral, Data: s.lit, Pattern: -1})
	s.lit = s.lit[:0]
	return err
}

func (s *stream) replacement(id int) error {
	if err := s.flushLiteral(); err != nil {
		return err
	}

	s.result.ReplacementCount++
	s.result.PatternCounts[id]++
	rep := s.replace(id)
	if !bytes.Equal(rep, s.pattern(id)) {
		s.result.WasModified = true
	}

	if len(rep) == 0 {
		return nil
	}
	return s.emit(Chunk{Kind: ChunkReplacement, Data: rep, Pattern: id})
}
