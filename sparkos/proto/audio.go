package proto

import "encoding/binary"

// AudioTonePayload encodes a MsgAudioTone request.
//
// Layout (little-endian):
//   - u16: frequency in Hz (0 = silence, stops the current tone)
//   - u16: duration in milliseconds
//   - u8:  volume (0..255)
func AudioTonePayload(freqHz, durationMs uint16, volume uint8) []byte {
	buf := make([]byte, 5)
	binary.LittleEndian.PutUint16(buf[0:2], freqHz)
	binary.LittleEndian.PutUint16(buf[2:4], durationMs)
	buf[4] = volume
	return buf
}

// DecodeAudioTonePayload decodes an AudioTonePayload.
func DecodeAudioTonePayload(b []byte) (freqHz, durationMs uint16, volume uint8, ok bool) {
	if len(b) != 5 {
		return 0, 0, 0, false
	}
	return binary.LittleEndian.Uint16(b[0:2]), binary.LittleEndian.Uint16(b[2:4]), b[4], true
}
