package tmux

import "strings"

// decorativeChars is the allow-list of characters that make a line purely
// decorative: whitespace, box-drawing glyphs, block elements, and the common
// ASCII separators. A trimmed line composed only of these is dropped.
const decorativeChars = " \t─│┌┐└┘├┤┬┴┼═║╔╗╚╝╠╣╦╩╬▀▄█▌▐░▒▓■□▪▫-_=~"

// StripDecorativeLines removes lines that are purely decorative separators
// from captured pane output. Blank lines and all other lines are preserved
// verbatim and in order, so the function is idempotent.
func StripDecorativeLines(text string) string {
	lines := strings.Split(text, "\n")
	filtered := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			filtered = append(filtered, line)
			continue
		}
		if isDecorative(trimmed) {
			continue
		}
		filtered = append(filtered, line)
	}

	return strings.Join(filtered, "\n")
}

func isDecorative(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(decorativeChars, r) {
			return false
		}
	}
	return true
}

// TailLines returns the last max non-empty lines of text, preserving their
// original order. Empty input yields "".
func TailLines(text string, max int) string {
	if text == "" || max <= 0 {
		return ""
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, max)
	for i := len(lines) - 1; i >= 0 && len(kept) < max; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		kept = append(kept, lines[i])
	}

	// Reverse back into original order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "\n")
}
