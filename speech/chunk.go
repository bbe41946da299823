package speech

import (
	"strings"
	"unicode/utf8"
)

func isTerminal(r rune) bool { return r == '.' || r == '!' || r == '?' }

// Chunk splits text after every run of sentence-terminal marks. The tail without a
// terminal mark is the last chunk. Whitespace-only pieces are dropped; joining the
// result otherwise reproduces text byte for byte.
func Chunk(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if !isTerminal(r) {
			continue
		}
		for i < len(text) {
			r2, sz := utf8.DecodeRuneInString(text[i:])
			if !isTerminal(r2) {
				break
			}
			i += sz
		}
		out = appendChunk(out, text[start:i])
		start = i
	}
	return appendChunk(out, text[start:])
}

func appendChunk(out []string, c string) []string {
	if strings.TrimSpace(c) == "" {
		return out
	}
	return append(out, c)
}
