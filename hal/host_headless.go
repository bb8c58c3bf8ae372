//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	// Ticks stops the runner after N steps (0 = run until shutdown).
	Ticks uint64
	// Script is fed to the keyboard, one event every ScriptEvery steps.
	Script      []KeyEvent
	ScriptEvery int
	// Screenshot, when set, receives a PNG of the last frame on exit.
	Screenshot string

	Options HostOptions
}

// RunHeadless runs the OS without opening a window. The app is closed on
// every exit path: ErrShutdown, the tick limit, or ctx cancellation.
func RunHeadless(ctx context.Context, newApp func(HAL) App, cfg HeadlessConfig) (err error) {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	if cfg.ScriptEvery <= 0 {
		cfg.ScriptEvery = 2
	}

	h := newHostHAL(cfg.Options)
	app := newApp(h)

	defer func() {
		if cfg.Screenshot == "" {
			return
		}
		if serr := writeScreenshot(h.fb, cfg.Screenshot); serr != nil && err == nil {
			err = serr
		}
	}()
	if app != nil {
		defer func() {
			if cerr := app.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}

	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	script := cfg.Script
	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			h.t.step(1)
			if len(script) > 0 && tick%uint64(cfg.ScriptEvery) == 0 {
				if h.kbd.push(script[0]) {
					script = script[1:]
				}
			}
			if app != nil {
				if err := app.Step(); err != nil {
					if errors.Is(err, ErrShutdown) {
						return nil
					}
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}

func writeScreenshot(fb *hostFramebuffer, path string) error {
	img := fb.toRGBA(nil)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("screenshot %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("screenshot %s: %w", path, err)
	}
	return nil
}
