package service

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default maximum chunk length in characters.
const DefaultChunkSize = 500

// SplitChunks splits extracted document text into paragraph-aligned chunks.
// Paragraphs (newline-separated) are accumulated greedily; once appending the
// next paragraph would make the buffer reach maxSize, the buffer is closed as
// a chunk and a new one starts with that paragraph. Chunks are trimmed and
// blank chunks are dropped.
//
// A single paragraph longer than maxSize is not split further and becomes its
// own oversized chunk. Known limitation kept for ranking stability; callers
// that need strict bounds must pre-wrap their input.
func SplitChunks(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}

	paragraphs := strings.Split(text, "\n")
	chunks := make([]string, 0, 8)

	var buf strings.Builder
	bufLen := 0
	for _, para := range paragraphs {
		paraLen := utf8.RuneCountInString(para)
		if bufLen+paraLen < maxSize {
			buf.WriteString(para)
			buf.WriteByte('\n')
			bufLen += paraLen + 1
		} else {
			chunks = append(chunks, strings.TrimSpace(buf.String()))
			buf.Reset()
			buf.WriteString(para)
			buf.WriteByte('\n')
			bufLen = paraLen + 1
		}
	}
	if buf.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(buf.String()))
	}

	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
