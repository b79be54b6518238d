package text

import (
	"bytes"
	"context"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/to-uni/pkg/automaton"
	"github.com/walteh/to-uni/pkg/pattern"
)

// NewFromStrings builds a StreamReplacer from old, new string pairs
func NewFromStrings(oldnew ...string) (*StreamReplacer, error) {
	set, err := pattern.FromStrings(oldnew...)
	if err != nil {
		return nil, errors.Errorf("building pattern set: %w", err)
	}
	return NewStreamReplacer(automaton.New(set)), nil
}

// ReplaceBytes converts an in-memory buffer
func (r *StreamReplacer) ReplaceBytes(ctx context.Context, content []byte) ([]byte, *ReplacementResult, error) {
	var out bytes.Buffer
	out.Grow(len(content))

	result, err := r.ReplaceText(ctx, bytes.NewReader(content), &out)
	if err != nil {
		return nil, nil, err
	}
	return out.Bytes(), result, nil
}

// ReplaceString converts a string and drops the statistics
func (r *StreamReplacer) ReplaceString(ctx context.Context, s string) (string, error) {
	var out strings.Builder
	if _, err := r.ReplaceText(ctx, strings.NewReader(s), &out); err != nil {
		return "", err
	}
	return out.String(), nil
}
