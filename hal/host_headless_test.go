//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type stepApp struct {
	step   func() error
	closed int
}

func (a *stepApp) Step() error { return a.step() }

func (a *stepApp) Close() error {
	a.closed++
	return nil
}

func TestRunHeadlessStopsOnShutdown(t *testing.T) {
	shot := filepath.Join(t.TempDir(), "shot.png")
	script, err := ParseKeyScript("ab")
	if err != nil {
		t.Fatalf("ParseKeyScript() err = %v", err)
	}

	var got []rune
	app := &stepApp{}
	newApp := func(h HAL) App {
		h.Display().Framebuffer().ClearRGB(10, 20, 30)
		kbd := h.Input().Keyboard().Events()
		app.step = func() error {
			select {
			case ev := <-kbd:
				got = append(got, ev.Rune)
			default:
			}
			if len(got) == 2 {
				return ErrShutdown
			}
			return nil
		}
		return app
	}

	cfg := HeadlessConfig{Enabled: true, Hz: 1000, Ticks: 1000, Script: script, ScriptEvery: 1, Screenshot: shot, Options: HostOptions{Mute: true}}
	if err := RunHeadless(context.Background(), newApp, cfg); err != nil {
		t.Fatalf("RunHeadless() err = %v", err)
	}
	if string(got) != "ab" {
		t.Fatalf("keys = %q, want %q", string(got), "ab")
	}
	if app.closed != 1 {
		t.Fatalf("Close() calls = %d, want 1", app.closed)
	}
	if st, err := os.Stat(shot); err != nil || st.Size() == 0 {
		t.Fatalf("screenshot not written: %v", err)
	}
}

func TestRunHeadlessClosesAppOnEveryStop(t *testing.T) {
	t.Run("tick limit", func(t *testing.T) {
		app := &stepApp{step: func() error { return nil }}
		cfg := HeadlessConfig{Hz: 1000, Ticks: 5, Options: HostOptions{Mute: true}}
		if err := RunHeadless(context.Background(), func(HAL) App { return app }, cfg); err != nil {
			t.Fatalf("RunHeadless() err = %v", err)
		}
		if app.closed != 1 {
			t.Fatalf("Close() calls = %d, want 1", app.closed)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		app := &stepApp{step: func() error {
			cancel()
			return nil
		}}
		cfg := HeadlessConfig{Hz: 1000, Options: HostOptions{Mute: true}}
		err := RunHeadless(ctx, func(HAL) App { return app }, cfg)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("RunHeadless() err = %v, want %v", err, context.Canceled)
		}
		if app.closed != 1 {
			t.Fatalf("Close() calls = %d, want 1", app.closed)
		}
	})
}
