package proto

import (
	"strings"
	"unicode/utf8"
)

// LogLinePayload encodes a MsgLogLine payload of at most max bytes.
//
// Convention:
// - Payload is UTF-8 bytes without a trailing newline.
// - Long lines are cut on a rune boundary.
// - Delivery is best-effort; callers may drop on overflow.
func LogLinePayload(line string, max int) []byte {
	line = strings.TrimRight(line, "\r\n")
	if max >= 0 && len(line) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		line = line[:cut]
	}
	return []byte(line)
}
