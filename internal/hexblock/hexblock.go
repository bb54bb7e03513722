// Package hexblock converts between the long hex strings stored in set Data
// elements and the tab-indented, 80-column text layout the set file uses for
// them. Re-encoded blocks must match the surrounding indentation so edits do
// not disturb the document's text layout.
package hexblock

import (
	"errors"
	"fmt"
	"strings"
)

// lineWidth is the number of hex digits per wrapped line. Each physical line
// is at most 80+indent characters wide including its indent tabs.
const lineWidth = 80

// Extract recovers the contiguous hex string from an indented data block and
// the indent level the block was written with. The indent is read from the
// second physical line; the first line is the bare newline after the opening
// tag and carries no tabs.
func Extract(text string) (string, int, error) {
	if text == "" {
		return "", 0, errors.New("no text to parse")
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return "", 0, fmt.Errorf("data block has %d lines, expected a wrapped layout", len(lines))
	}
	indent := 0
	for _, r := range lines[1] {
		if r != '\t' {
			break
		}
		indent++
	}
	cleaned := strings.NewReplacer("\t", "", " ", "", "\n", "", "\r", "").Replace(text)
	if cleaned == "" {
		return "", 0, errors.New("data block contains no hex digits")
	}
	return cleaned, indent, nil
}

// Format word-wraps a hex string back into the document layout: a leading
// newline, each line indented with indent tabs and at most 80 hex digits
// wide, and a closing line indented one level shallower to line up with the
// closing tag.
func Format(hexStr string, indent int) string {
	if indent < 1 {
		indent = 1
	}
	prefix := strings.Repeat("\t", indent)

	var b strings.Builder
	b.Grow(len(hexStr) + (len(hexStr)/lineWidth+2)*(indent+1) + indent)
	for start := 0; start < len(hexStr); start += lineWidth {
		end := min(start+lineWidth, len(hexStr))
		b.WriteByte('\n')
		b.WriteString(prefix)
		b.WriteString(hexStr[start:end])
	}
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("\t", indent-1))
	return b.String()
}
