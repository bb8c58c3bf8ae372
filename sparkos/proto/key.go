package proto

import "encoding/binary"

// KeyCode mirrors hal.KeyCode on the wire so that apps do not import hal.
type KeyCode uint16

const (
	KeyNone KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeyDelete
	KeyHome
	KeyEnd
	KeyF1
	KeyF2
	KeyF3
)

// KeyEventPayload encodes a MsgKeyEvent payload.
//
// Layout (little-endian):
//   - u16: key code (KeyNone for plain text input)
//   - u32: rune (0 when the key has no text)
//   - u8:  flags (bit0=repeat)
func KeyEventPayload(code KeyCode, r rune, repeat bool) []byte {
	buf := make([]byte, 7)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(code))
	binary.LittleEndian.PutUint32(buf[2:6], uint32(r))
	if repeat {
		buf[6] = 1
	}
	return buf
}

// DecodeKeyEventPayload decodes a KeyEventPayload.
func DecodeKeyEventPayload(b []byte) (code KeyCode, r rune, repeat bool, ok bool) {
	if len(b) != 7 {
		return 0, 0, false, false
	}
	code = KeyCode(binary.LittleEndian.Uint16(b[0:2]))
	r = rune(binary.LittleEndian.Uint32(b[2:6]))
	return code, r, b[6]&1 != 0, true
}
