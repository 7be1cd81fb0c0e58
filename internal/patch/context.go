package patch

import (
	"strings"
	"unicode"
)

// Fuzz contributions of the context match tiers.
const (
	fuzzExact         = 0
	fuzzTrailingSpace = 1
	fuzzTrimmed       = 100
	// fuzzEOFMissed is added when an EOF hunk matched somewhere other than the
	// tail of the file.
	fuzzEOFMissed = 10000
)

type matchTier struct {
	fuzz int
	norm func(string) string
}

var matchTiers = []matchTier{
	{fuzz: fuzzExact, norm: identity},
	{fuzz: fuzzTrailingSpace, norm: trimRightSpace},
	{fuzz: fuzzTrimmed, norm: strings.TrimSpace},
}

// findContext locates context in lines at or after start. For EOF hunks the
// tail of the file is tried first. It returns -1 when nothing matches.
func findContext(lines, context []string, start int, eof bool) (int, int) {
	if eof {
		if tail := len(lines) - len(context); tail >= 0 {
			if newIndex, fuzz := findContextCore(lines, context, tail); newIndex != -1 {
				return newIndex, fuzz
			}
		}
		newIndex, fuzz := findContextCore(lines, context, start)
		if newIndex == -1 {
			return -1, 0
		}
		return newIndex, fuzz + fuzzEOFMissed
	}
	return findContextCore(lines, context, start)
}

// findContextCore tries each tier in turn over the whole range before
// falling back to the next, looser one.
func findContextCore(lines, context []string, start int) (int, int) {
	if len(context) == 0 {
		return start, fuzzExact
	}
	for _, tier := range matchTiers {
		for i := start; i+len(context) <= len(lines); i++ {
			if linesEqual(lines[i:i+len(context)], context, tier.norm) {
				return i, tier.fuzz
			}
		}
	}
	return -1, 0
}

func linesEqual(a, b []string, norm func(string) string) bool {
	for i := range b {
		if norm(a[i]) != norm(b[i]) {
			return false
		}
	}
	return true
}

func trimRightSpace(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
