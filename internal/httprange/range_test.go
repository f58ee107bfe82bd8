package httprange

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNoHeader(t *testing.T) {
	r, err := Parse("", 1000)
	require.NoError(t, err)
	require.False(t, r.Partial)
	require.Equal(t, int64(0), r.Start)
	require.Equal(t, int64(999), r.End)
	require.Equal(t, int64(1000), r.Length())
}

func TestParseForms(t *testing.T) {
	tests := []struct {
		name   string
		header string
		total  int64
		start  int64
		end    int64
	}{
		{"bounded", "bytes=100-199", 1000, 100, 199},
		{"open end", "bytes=900-", 1000, 900, 999},
		{"suffix", "bytes=-100", 1000, 900, 999},
		{"suffix longer than blob", "bytes=-5000", 1000, 0, 999},
		{"whole blob", "bytes=0-999", 1000, 0, 999},
		{"case insensitive", "BYTES=0-0", 1000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.header, tt.total)
			require.NoError(t, err)
			require.True(t, r.Partial)
			require.Equal(t, tt.start, r.Start)
			require.Equal(t, tt.end, r.End)
		})
	}
}

func TestParseUnsatisfiable(t *testing.T) {
	headers := []string{
		"bytes=2000-",
		"bytes=500-2000",
		"bytes=200-100",
		"bytes=-0",
		"bytes=-",
		"bytes=abc-def",
		"items=0-10",
	}

	for _, h := range headers {
		t.Run(h, func(t *testing.T) {
			_, err := Parse(h, 1000)
			require.ErrorIs(t, err, ErrUnsatisfiable)
		})
	}
}

func TestContentRange(t *testing.T) {
	r, err := Parse("bytes=100-199", 1000)
	require.NoError(t, err)
	require.Equal(t, "bytes 100-199/1000", r.ContentRange())
	require.Equal(t, int64(100), r.Length())
}
