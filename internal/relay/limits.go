// ABOUTME: Message length limits of the Bot API
// ABOUTME: Relayed text is shortened to fit before anything is sent

package relay

import (
	"strings"
	"unicode/utf16"
)

// Telegram counts lengths in UTF-16 code units.
const (
	MaxTextLength    = 4096
	MaxCaptionLength = 1024
)

const ellipsis = "…"

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// truncate shortens s to at most max UTF-16 units, marking the cut with an
// ellipsis.
func truncate(s string, max int) string {
	if utf16Len(s) <= max {
		return s
	}
	if max <= 0 {
		return ""
	}

	var b strings.Builder
	n := 0
	for _, r := range s {
		w := utf16.RuneLen(r)
		if n+w+1 > max {
			break
		}
		b.WriteRune(r)
		n += w
	}
	b.WriteString(ellipsis)
	return b.String()
}
