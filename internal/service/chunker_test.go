package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitChunks_EmptyText(t *testing.T) {
	assert.Empty(t, SplitChunks("", 500))
	assert.Empty(t, SplitChunks("   \n \n  ", 500))
}

func TestSplitChunks_SingleParagraph(t *testing.T) {
	chunks := SplitChunks("The sky is blue.", 500)
	assert.Equal(t, []string{"The sky is blue."}, chunks)
}

func TestSplitChunks_AccumulatesUntilLimit(t *testing.T) {
	text := "first paragraph\nsecond paragraph\nthird paragraph"

	chunks := SplitChunks(text, 500)
	assert.Equal(t, []string{"first paragraph\nsecond paragraph\nthird paragraph"}, chunks)
}

func TestSplitChunks_ClosesChunkAtBoundary(t *testing.T) {
	a := strings.Repeat("a", 300)
	b := strings.Repeat("b", 300)

	chunks := SplitChunks(a+"\n"+b, 500)
	assert.Equal(t, []string{a, b}, chunks)
}

func TestSplitChunks_OversizedParagraphKeptWhole(t *testing.T) {
	long := strings.Repeat("x", 1200)

	chunks := SplitChunks(long, 500)
	assert.Equal(t, []string{long}, chunks)
}

func TestSplitChunks_OversizedParagraphBetweenOthers(t *testing.T) {
	long := strings.Repeat("y", 800)
	text := "intro\n" + long + "\noutro"

	chunks := SplitChunks(text, 500)
	assert.Equal(t, []string{"intro", long, "outro"}, chunks)
}

func TestSplitChunks_BlankParagraphsDropped(t *testing.T) {
	a := strings.Repeat("a", 499)
	// The blank line after a full chunk would otherwise become its own chunk.
	chunks := SplitChunks(a+"\n\n"+strings.Repeat("b", 499), 500)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
	}
}

func TestSplitChunks_DefaultSizeOnNonPositive(t *testing.T) {
	text := strings.Repeat("a", 300) + "\n" + strings.Repeat("b", 300)

	chunks := SplitChunks(text, 0)
	assert.Len(t, chunks, 2)
}

func TestSplitChunks_CountsRunesNotBytes(t *testing.T) {
	// 300 multibyte runes per paragraph; both fit in one 700-rune chunk even
	// though together they exceed 700 bytes.
	a := strings.Repeat("é", 300)
	b := strings.Repeat("ü", 300)

	chunks := SplitChunks(a+"\n"+b, 700)
	assert.Len(t, chunks, 1)
}
