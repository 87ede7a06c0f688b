package tui

import "strings"

// Cursor is appended to partially revealed replies.
const Cursor = "▌"

// Frames splits an already complete reply into cumulative word-by-word frames
// for the typing effect. The last frame is always the reply itself.
// This is a display effect only; the reply is fully known before the first frame.
func Frames(text string) []string {
	words := strings.Fields(text)
	if len(words) <= 1 {
		return []string{text}
	}
	frames := make([]string, 0, len(words))
	var b strings.Builder
	for _, w := range words[:len(words)-1] {
		b.WriteString(w)
		b.WriteByte(' ')
		frames = append(frames, b.String())
	}
	return append(frames, text)
}
