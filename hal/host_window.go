//go:build !tinygo && cgo

package hal

import (
	"errors"
	"image"

	"sparkcalc/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow starts a desktop window that displays the framebuffer and forwards keyboard input.
// It blocks until the window closes or the app step returns ErrShutdown, then
// closes the app.
func RunWindow(newApp func(HAL) App, opts HostOptions) error {
	h := newHostHAL(opts)
	app := newApp(h)

	g := &hostGame{h: h, app: app}
	ebiten.SetWindowTitle("SparkCalc (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.width*h.opts.Scale, h.fb.height*h.opts.Scale)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(g)
	if app != nil {
		if cerr := app.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

type hostGame struct {
	h     *hostHAL
	img   *image.RGBA
	fbImg *ebiten.Image
	app   App
}

func (g *hostGame) Update() error {
	g.h.kbd.poll()
	g.h.t.step(1)
	if g.app != nil {
		if err := g.app.Step(); err != nil {
			if errors.Is(err, ErrShutdown) {
				return ebiten.Termination
			}
			return err
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	g.img = fb.toRGBA(g.img)
	if g.fbImg == nil || g.fbImg.Bounds().Dx() != fb.width || g.fbImg.Bounds().Dy() != fb.height {
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
	}
	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
