// ABOUTME: Anchor line contract: the first line of every item card and relayed message is "<label>:<id>"
// ABOUTME: The relay recovers which item a conversation is about from this line alone

package relay

import (
	"fmt"
	"strconv"
	"strings"
)

// AnchorLabel prefixes the anchor line.
const AnchorLabel = "Событие#"

// AnchorLine renders the anchor line for an item.
func AnchorLine(itemID int64) string {
	return fmt.Sprintf("%s:%d", AnchorLabel, itemID)
}

// ParseAnchor extracts the item id from the first line of text. The label
// before the colon is not checked; whitespace around the id is allowed.
func ParseAnchor(text string) (int64, error) {
	line, _, _ := strings.Cut(text, "\n")
	_, raw, ok := strings.Cut(line, ":")
	if !ok {
		return 0, fmt.Errorf("%w: no separator in %q", ErrMalformedAnchor, line)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an item id", ErrMalformedAnchor, strings.TrimSpace(raw))
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: item id %d out of range", ErrMalformedAnchor, id)
	}
	return id, nil
}
