// Package summary constrains generated text to the platform's reply
// length limit without leaving a dangling partial word.
package summary

import "strings"

// Limit is the maximum reply length in characters.
const Limit = 280

// botHandle is rewritten without the @ so the bot never mentions itself
// into a summarize loop.
const botHandle = "@GPTSummary"

// Bound rewrites the bot's own handle to its bare form and truncates the
// text to Limit characters on whole-word boundaries. Trailing words are
// removed, each accounting for its length plus one separating space,
// until the remainder fits; the retained words are rejoined with single
// spaces and clamped to Limit as a final guard. A lone word longer than
// Limit is the only case that gets cut mid-word.
func Bound(text string) string {
	text = strings.ReplaceAll(text, botHandle, strings.TrimPrefix(botHandle, "@"))

	length := len([]rune(text))
	if length <= Limit {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return clamp(text)
	}

	removed := 0
	for i := len(words) - 1; i >= 1; i-- {
		removed += len([]rune(words[i])) + 1
		if length-removed <= Limit {
			return clamp(strings.Join(words[:i], " "))
		}
	}

	// Only the first word is left and it still does not fit.
	return clamp(words[0])
}

func clamp(s string) string {
	runes := []rune(s)
	if len(runes) <= Limit {
		return s
	}
	return string(runes[:Limit])
}
