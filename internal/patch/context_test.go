package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindContext(t *testing.T) {
	cases := []struct {
		name      string
		lines     []string
		context   []string
		start     int
		eof       bool
		wantIndex int
		wantFuzz  int
	}{
		{
			name:      "exact",
			lines:     []string{"a", "b", "c"},
			context:   []string{"b", "c"},
			wantIndex: 1,
		},
		{
			name:      "trailing whitespace",
			lines:     []string{"a  ", "b\t"},
			context:   []string{"a", "b"},
			wantIndex: 0,
			wantFuzz:  fuzzTrailingSpace,
		},
		{
			name:      "surrounding whitespace",
			lines:     []string{"  a", "b"},
			context:   []string{"a", "b"},
			wantIndex: 0,
			wantFuzz:  fuzzTrimmed,
		},
		{
			name:      "exact wins over earlier loose match",
			lines:     []string{"x ", "y", "x", "y"},
			context:   []string{"x", "y"},
			wantIndex: 2,
		},
		{
			name:      "search starts at start",
			lines:     []string{"x", "y", "x", "y"},
			context:   []string{"x", "y"},
			start:     1,
			wantIndex: 2,
		},
		{
			name:      "not found",
			lines:     []string{"a", "b"},
			context:   []string{"c"},
			wantIndex: -1,
		},
		{
			name:      "empty context",
			lines:     []string{"a", "b"},
			context:   nil,
			start:     1,
			wantIndex: 1,
		},
		{
			name:      "eof prefers the tail",
			lines:     []string{"x", "y", "mid", "x", "y  "},
			context:   []string{"x", "y"},
			eof:       true,
			wantIndex: 3,
			wantFuzz:  fuzzTrailingSpace,
		},
		{
			name:      "eof falls back to forward search",
			lines:     []string{"x", "y", "tail"},
			context:   []string{"x", "y"},
			eof:       true,
			wantIndex: 0,
			wantFuzz:  fuzzEOFMissed,
		},
		{
			name:      "eof context longer than file",
			lines:     []string{"a"},
			context:   []string{"a", "b"},
			eof:       true,
			wantIndex: -1,
		},
		{
			name:      "eof empty context anchors at end",
			lines:     []string{"a", "b"},
			context:   nil,
			eof:       true,
			wantIndex: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			index, fuzz := findContext(tc.lines, tc.context, tc.start, tc.eof)
			assert.Equal(t, tc.wantIndex, index)
			assert.Equal(t, tc.wantFuzz, fuzz)
		})
	}
}
