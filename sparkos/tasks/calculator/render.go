package calculator

import (
	"image/color"
	"unicode/utf8"

	"sparkcalc/hal"
	"sparkcalc/internal/buildinfo"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	colorBG       = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
	colorFG       = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	colorDim      = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
	colorHeaderBG = color.RGBA{R: 0x18, G: 0x18, B: 0x18, A: 0xff}
	colorPanelBG  = color.RGBA{R: 0x08, G: 0x10, B: 0x08, A: 0xff}
	colorResult   = color.RGBA{R: 0x8a, G: 0xf0, B: 0x9a, A: 0xff}
	colorOp       = color.RGBA{R: 0xff, G: 0xdd, B: 0x66, A: 0xff}
	colorError    = color.RGBA{R: 0xff, G: 0x60, B: 0x50, A: 0xff}

	colorKeyBG   = color.RGBA{R: 0x24, G: 0x24, B: 0x24, A: 0xff}
	colorKeyOpBG = color.RGBA{R: 0x30, G: 0x28, B: 0x10, A: 0xff}
	colorKeyFnBG = color.RGBA{R: 0x30, G: 0x14, B: 0x14, A: 0xff}
	colorSelBG   = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	colorSelFG   = color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}
)

var (
	smallFont = &proggy.TinySZ8pt7b
	bigFont   = &freemono.Bold12pt7b
)

const (
	headerH = 18
	statusH = 16
	margin  = 6

	panelY = headerH + 4
	panelH = 86
	keysY  = panelY + panelH + 6
	keyGap = 3

	smallBaseline = 12
	bigAscent     = 17
)

type fbDisplay struct {
	fb hal.Framebuffer
}

var _ drivers.Displayer = (*fbDisplay)(nil)

func newFBDisplay(fb hal.Framebuffer) *fbDisplay {
	return &fbDisplay{fb: fb}
}

func (d *fbDisplay) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	buf := d.fb.Buffer()
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	off := iy*d.fb.StrideBytes() + ix*2
	if off < 0 || off+1 >= len(buf) {
		return
	}
	pixel := rgb565From888(c)
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d *fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return nil
	}
	buf := d.fb.Buffer()
	w, h := d.fb.Width(), d.fb.Height()

	x0 := clampInt(int(x), 0, w)
	y0 := clampInt(int(y), 0, h)
	x1 := clampInt(int(x)+int(width), 0, w)
	y1 := clampInt(int(y)+int(height), 0, h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	pixel := rgb565From888(c)
	lo, hi := byte(pixel), byte(pixel>>8)
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := py * stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			if off+1 >= len(buf) {
				break
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
	return nil
}

// SetRotation is accepted for driver compatibility; the framebuffer has a
// fixed orientation.
func (d *fbDisplay) SetRotation(rotation drivers.Rotation) error {
	_ = rotation
	return nil
}

func rgb565From888(c color.RGBA) uint16 {
	return uint16((uint16(c.R>>3)&0x1F)<<11 | (uint16(c.G>>2)&0x3F)<<5 | (uint16(c.B>>3) & 0x1F))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func textWidth(font tinyfont.Fonter, s string) int16 {
	_, w := tinyfont.LineWidth(font, s)
	return int16(w)
}

// fitRight returns the longest suffix of s that fits in width.
func fitRight(font tinyfont.Fonter, s string, width int16) string {
	for s != "" && textWidth(font, s) > width {
		_, size := utf8.DecodeRuneInString(s)
		s = s[size:]
	}
	return s
}

// writeRight draws s so that it ends at x, switching to the small font when
// the big one does not fit.
func writeRight(d *fbDisplay, x, y, avail int16, s string, c color.RGBA) {
	font := tinyfont.Fonter(bigFont)
	if textWidth(font, s) > avail {
		font = smallFont
		s = fitRight(font, s, avail)
	}
	tinyfont.WriteLine(d, font, x-textWidth(font, s), y, s, c)
}

func (t *Task) render() {
	if t.fb == nil || t.d == nil || t.m == nil {
		return
	}
	d := t.d
	w, h := d.Size()
	view := t.m.Display()

	_ = d.FillRectangle(0, 0, w, h, colorBG)

	_ = d.FillRectangle(0, 0, w, headerH, colorHeaderBG)
	tinyfont.WriteLine(d, smallFont, margin, smallBaseline, "SparkCalc "+buildinfo.Short(), colorFG)
	hint := "F1 reset  ESC exit"
	tinyfont.WriteLine(d, smallFont, w-margin-textWidth(smallFont, hint), smallBaseline, hint, colorDim)

	_ = d.FillRectangle(margin, panelY, w-2*margin, panelH, colorPanelBG)
	opW := int16(28)
	if view.Operator != "" {
		tinyfont.WriteLine(d, bigFont, 2*margin, panelY+8+bigAscent, view.Operator, colorOp)
	}
	resultColor := colorResult
	if view.Result == "NaN" {
		resultColor = colorError
	}
	right := w - 2*margin
	avail := right - 2*margin - opW
	writeRight(d, right, panelY+8+bigAscent, avail, view.Result, resultColor)

	entry := view.Entry
	cursorW := textWidth(bigFont, "_")
	writeRight(d, right-cursorW, panelY+panelH-14, avail-cursorW, entry, colorFG)
	if t.blinkOn {
		tinyfont.WriteLine(d, bigFont, right-cursorW, panelY+panelH-14, "_", colorDim)
	}

	t.renderKeypad(w, h)

	status := t.status
	if status == "" {
		status = "pending " + t.m.Pending().String()
	}
	tinyfont.WriteLine(d, smallFont, margin, h-4, status, colorDim)

	_ = d.Display()
}

func (t *Task) renderKeypad(w, h int16) {
	d := t.d
	keysH := h - statusH - keysY
	cellW := (w - 2*margin) / keypadCols
	cellH := keysH / keypadRows
	if cellW <= keyGap || cellH <= keyGap {
		return
	}

	for i, b := range keypad {
		col := int16(i % keypadCols)
		row := int16(i / keypadCols)
		x := margin + col*cellW
		y := keysY + row*cellH

		bg, fg := colorKeyBG, colorFG
		switch b.kind {
		case btnOp:
			bg, fg = colorKeyOpBG, colorOp
		case btnClear, btnDelete, btnExit:
			bg = colorKeyFnBG
		}
		if t.showCursor && i == t.cursor {
			bg, fg = colorSelBG, colorSelFG
		}
		_ = d.FillRectangle(x, y, cellW-keyGap, cellH-keyGap, bg)

		font := tinyfont.Fonter(bigFont)
		if len(b.label) > 1 {
			font = smallFont
		}
		lw := textWidth(font, b.label)
		baseline := y + (cellH-keyGap)/2 + 5
		tinyfont.WriteLine(d, font, x+(cellW-keyGap-lw)/2, baseline, b.label, fg)
	}
}
