//go:build !tinygo

package hal

import (
	"fmt"
	"strings"
)

var keyScriptNames = map[string]KeyCode{
	"up":    KeyUp,
	"down":  KeyDown,
	"left":  KeyLeft,
	"right": KeyRight,
	"enter": KeyEnter,
	"esc":   KeyEscape,
	"bs":    KeyBackspace,
	"tab":   KeyTab,
	"del":   KeyDelete,
	"home":  KeyHome,
	"end":   KeyEnd,
	"f1":    KeyF1,
	"f2":    KeyF2,
	"f3":    KeyF3,
}

// ParseKeyScript turns a headless input script into key events.
//
// Plain characters are typed as text. Named keys are written in angle
// brackets ("<enter>", "<esc>", "<bs>", "<f1>"...) and produce a press and a
// release; "<lt>" types a literal '<'.
func ParseKeyScript(s string) ([]KeyEvent, error) {
	var out []KeyEvent
	for len(s) > 0 {
		i := strings.IndexByte(s, '<')
		if i < 0 {
			out = appendText(out, s)
			break
		}
		out = appendText(out, s[:i])
		s = s[i+1:]

		end := strings.IndexByte(s, '>')
		if end < 0 {
			return nil, fmt.Errorf("key script: unterminated <%s", s)
		}
		name := strings.ToLower(s[:end])
		s = s[end+1:]

		if name == "lt" {
			out = append(out, KeyEvent{Press: true, Rune: '<'})
			continue
		}
		code, ok := keyScriptNames[name]
		if !ok {
			return nil, fmt.Errorf("key script: unknown key <%s>", name)
		}
		out = append(out, KeyEvent{Code: code, Press: true}, KeyEvent{Code: code, Press: false})
	}
	return out, nil
}

func appendText(out []KeyEvent, s string) []KeyEvent {
	for _, r := range s {
		out = append(out, KeyEvent{Press: true, Rune: r})
	}
	return out
}
