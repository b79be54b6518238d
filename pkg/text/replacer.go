package text

import (
	"context"
	"io"
)

// ChunkKind says where the bytes of a Chunk came from
type ChunkKind int

const (
	// ChunkLiteral bytes are passed through from the input unchanged
	ChunkLiteral ChunkKind = iota
	// ChunkReplacement bytes are the replacement of a matched pattern
	ChunkReplacement
)

// String returns a string representation of ChunkKind
func (k ChunkKind) String() string {
	switch k {
	case ChunkLiteral:
		return "literal"
	case ChunkReplacement:
		return "replacement"
	default:
		return "unknown"
	}
}

// Chunk is one segment of the output stream
type Chunk struct {
	Kind ChunkKind

	// Data is only valid during the callback and must not be modified
	Data []byte

	// Pattern is the id of the matched pattern for ChunkReplacement, -1 otherwise
	Pattern int
}

// ReplacementResult contains the results of a text replacement operation
type ReplacementResult struct {
	// WasModified indicates if any replacement changed the bytes it replaced
	WasModified bool

	// ReplacementCount is the number of replacements made
	ReplacementCount int

	// PatternCounts holds the number of replacements per pattern id
	PatternCounts []int

	// BytesRead is the number of bytes consumed from the source
	BytesRead int64

	// BytesWritten is the number of bytes handed to the sink
	BytesWritten int64

	// PeakWindow is the largest number of input bytes held back at once
	PeakWindow int
}

// TextReplacer defines the interface for text replacement operations
type TextReplacer interface {
	// ReplaceText streams src to dst, replacing every pattern occurrence.
	// Source failures are reported as errdefs.ErrSourceRead and sink
	// failures as errdefs.ErrSinkWrite.
	ReplaceText(ctx context.Context, src io.Reader, dst io.Writer) (*ReplacementResult, error)
}
