package extract

import "strings"

// boldSplit is the outcome of rebalancing one highlight's content
type boldSplit struct {
	inner  string
	prefix string
	suffix string
}

// rebalanceBold restores an even count of ** markers in a highlight's content.
// A highlight is rendered in its own markdown sub-pass, so an odd marker would
// leave the sub-render's bold state open. One marker is moved to just outside
// the highlight, on the nearest side not already touching a ** in the
// surrounding text. With both sides blocked the last marker is dropped.
func rebalanceBold(content string, tightLeft, tightRight bool) boldSplit {
	count, leftPos, rightPos := 0, -1, -1
	for i := 0; i < len(content); {
		idx := strings.Index(content[i:], boldMarker)
		if idx < 0 {
			break
		}
		pos := i + idx
		if leftPos < 0 {
			leftPos = pos
		}
		rightPos = pos
		count++
		i = pos + len(boldMarker)
	}

	if count%2 == 0 {
		return boldSplit{inner: content}
	}

	allowLeft := !tightLeft
	allowRight := !tightRight
	distLeft := leftPos
	distRight := len(content) - (rightPos + len(boldMarker))

	switch {
	case !allowLeft && !allowRight:
		return boldSplit{inner: removeMarker(content, rightPos)}
	case allowLeft && (!allowRight || distLeft <= distRight):
		return boldSplit{inner: removeMarker(content, leftPos), prefix: boldMarker}
	default:
		return boldSplit{inner: removeMarker(content, rightPos), suffix: boldMarker}
	}
}

func removeMarker(s string, pos int) string {
	return s[:pos] + s[pos+len(boldMarker):]
}

