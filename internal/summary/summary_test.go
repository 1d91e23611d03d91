package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBound_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "a short summary", Bound("a short summary"))
	assert.Equal(t, "", Bound(""))
}

func TestBound_ExactLimitUnchanged(t *testing.T) {
	s := strings.Repeat("x", Limit)
	assert.Equal(t, s, Bound(s))
}

func TestBound_RemovesWholeTrailingWords(t *testing.T) {
	// 150 "a " pairs: 300 characters, trailing space trimmed by Fields.
	s := strings.TrimSpace(strings.Repeat("a ", 150))

	got := Bound(s)
	assert.LessOrEqual(t, len([]rune(got)), Limit)
	assert.False(t, strings.HasSuffix(got, " "))
	for _, w := range strings.Fields(got) {
		assert.Equal(t, "a", w)
	}
}

func TestBound_StopsAtFirstFit(t *testing.T) {
	// 279 chars + a 20-char word: dropping just the last word suffices.
	head := strings.Repeat("x", 279)
	got := Bound(head + " " + strings.Repeat("y", 20))
	assert.Equal(t, head, got)
}

func TestBound_SingleOversizedWord(t *testing.T) {
	s := strings.Repeat("z", 400)
	got := Bound(s)
	assert.Equal(t, Limit, len([]rune(got)))
	assert.Equal(t, strings.Repeat("z", Limit), got)
}

func TestBound_OversizedFirstWordWithTail(t *testing.T) {
	got := Bound(strings.Repeat("z", 400) + " tail")
	assert.Equal(t, strings.Repeat("z", Limit), got)
}

func TestBound_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"short",
		strings.TrimSpace(strings.Repeat("word ", 100)),
		strings.Repeat("z", 500),
		"@GPTSummary " + strings.Repeat("lorem ipsum ", 40),
	}
	for _, s := range inputs {
		once := Bound(s)
		assert.Equal(t, once, Bound(once))
		assert.LessOrEqual(t, len([]rune(once)), Limit)
	}
}

func TestBound_RewritesOwnHandle(t *testing.T) {
	got := Bound("thanks @GPTSummary for the recap")
	assert.Equal(t, "thanks GPTSummary for the recap", got)
}

func TestBound_HandleRewriteBeforeLengthAccounting(t *testing.T) {
	// 281 chars with the mention, 280 without: no truncation needed once
	// the handle loses its @.
	s := "@GPTSummary " + strings.Repeat("x", 269)
	got := Bound(s)
	assert.Equal(t, "GPTSummary "+strings.Repeat("x", 269), got)
}

func TestBound_CountsCharactersNotBytes(t *testing.T) {
	// 280 multibyte runes must survive untouched.
	s := strings.Repeat("é", Limit)
	assert.Equal(t, s, Bound(s))
}
