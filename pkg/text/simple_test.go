package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/to-uni/pkg/errdefs"
)

func TestStreamReplacer_ReplaceBytes(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		oldnew       []string
		want         string
		wantCount    int
		wantError    string
		wantModified bool
	}{
		{
			name:         "simple_replacement",
			content:      "Hello World",
			oldnew:       []string{"World", "Universe"},
			want:         "Hello Universe",
			wantCount:    1,
			wantModified: true,
		},
		{
			name:         "multiple_replacements",
			content:      "Hello World World",
			oldnew:       []string{"World", "Universe"},
			want:         "Hello Universe Universe",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:         "multiple_rules",
			content:      "Hello World",
			oldnew:       []string{"Hello", "Hi", "World", "Universe"},
			want:         "Hi Universe",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:         "no_match",
			content:      "Hello World",
			oldnew:       []string{"Goodbye", "Hi"},
			want:         "Hello World",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:         "replacement_equal_to_pattern",
			content:      "keep keep",
			oldnew:       []string{"keep", "keep"},
			want:         "keep keep",
			wantCount:    2,
			wantModified: false,
		},
		{
			name:         "empty_content",
			content:      "",
			oldnew:       []string{"World", "Universe"},
			want:         "",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:         "empty_rules",
			content:      "Hello World",
			oldnew:       []string{},
			want:         "Hello World",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:      "empty_pattern",
			content:   "Hello World",
			oldnew:    []string{"", "x"},
			wantError: "empty pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replacer, err := NewFromStrings(tt.oldnew...)
			if tt.wantError != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, errdefs.ErrInvalidPattern)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)

			got, result, err := replacer.ReplaceBytes(context.Background(), []byte(tt.content))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.wantCount, result.ReplacementCount)
			assert.Equal(t, tt.wantModified, result.WasModified)
			assert.Equal(t, int64(len(tt.content)), result.BytesRead)
			assert.Equal(t, int64(len(tt.want)), result.BytesWritten)
		})
	}
}

func TestStreamReplacer_ReplaceString(t *testing.T) {
	replacer, err := NewFromStrings("\\alpha", "α", "\\beta", "β")
	require.NoError(t, err)

	got, err := replacer.ReplaceString(context.Background(), `\alpha + \beta = \gamma`)
	require.NoError(t, err)
	assert.Equal(t, `α + β = \gamma`, got)
}
