package tui

import (
	"time"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 128

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters; other keys
// leave the text unchanged. Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// truncateToHeight limits output to maxLines newline-delimited lines.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// formatWhen renders a reservation timestamp as "MM-DD hh:mm:ss".
func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "--"
	}
	return t.Local().Format("01-02 15:04:05")
}

// cycleOption advances through options with h/l, treating "" as a valid
// starting point before the first option.
func cycleOption(options []string, current, key string) string {
	if len(options) == 0 {
		return current
	}
	idx := -1
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	if key == "l" {
		if idx == len(options)-1 {
			return options[0]
		}
		return options[idx+1]
	}
	// key == "h"
	if idx <= 0 {
		return options[len(options)-1]
	}
	return options[idx-1]
}
