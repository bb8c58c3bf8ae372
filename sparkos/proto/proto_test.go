package proto

import "testing"

func TestKeyEventPayload(t *testing.T) {
	code, r, repeat, ok := DecodeKeyEventPayload(KeyEventPayload(KeyBackspace, 0, true))
	if !ok || code != KeyBackspace || r != 0 || !repeat {
		t.Fatalf("decode = %v %q %v %v, want backspace repeat", code, r, repeat, ok)
	}
	code, r, repeat, ok = DecodeKeyEventPayload(KeyEventPayload(KeyNone, '√', false))
	if !ok || code != KeyNone || r != '√' || repeat {
		t.Fatalf("decode = %v %q %v %v, want rune", code, r, repeat, ok)
	}
	if _, _, _, ok := DecodeKeyEventPayload([]byte{1, 2, 3}); ok {
		t.Fatal("short payload decoded")
	}
}

func TestAudioTonePayloadRejectsBadLength(t *testing.T) {
	if _, _, _, ok := DecodeAudioTonePayload(AudioTonePayload(440, 30, 200)[:4]); ok {
		t.Fatal("short payload decoded")
	}
	f, d, v, ok := DecodeAudioTonePayload(AudioTonePayload(440, 30, 200))
	if !ok || f != 440 || d != 30 || v != 200 {
		t.Fatalf("decode = %d %d %d %v, want 440 30 200", f, d, v, ok)
	}
}

func TestLogLinePayloadCutsOnRuneBoundary(t *testing.T) {
	got := LogLinePayload("abé\n", 3)
	if string(got) != "ab" {
		t.Fatalf("LogLinePayload() = %q, want %q", got, "ab")
	}
	if got := LogLinePayload("calc: ok\r\n", 64); string(got) != "calc: ok" {
		t.Fatalf("LogLinePayload() = %q, want trailing newline stripped", got)
	}
}

func TestDecodeError(t *testing.T) {
	err, ok := DecodeError(ErrorPayload(ErrBadMessage, MsgAudioTone, []byte("len=3")))
	if !ok {
		t.Fatal("DecodeError ok = false")
	}
	if got, want := err.Error(), "audio_tone: bad_message: len=3"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if _, ok := DecodeError([]byte{1}); ok {
		t.Fatal("short error payload decoded")
	}
}
