// Package calculator is the SparkCalc foreground app: it feeds key events
// into a calc.Machine, draws the result and keypad, and keeps the machine's
// snapshot in a state store across activations.
package calculator

import (
	"errors"
	"fmt"
	"math"

	"sparkcalc/hal"
	audioclient "sparkcalc/sparkos/client/audio"
	logclient "sparkcalc/sparkos/client/logger"
	"sparkcalc/sparkos/calc"
	"sparkcalc/sparkos/fs/record"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

const blinkTicks = 500

// StateStore persists the encoded machine snapshot.
type StateStore interface {
	Load() ([]byte, error)
	Save(payload []byte) error
}

type Task struct {
	disp   hal.Display
	ep     kernel.Capability
	logCap kernel.Capability
	audio  *audioclient.Client
	store  StateStore

	fb hal.Framebuffer
	d  *fbDisplay

	active bool
	ctlCap kernel.Capability

	m          *calc.Machine
	cursor     int
	showCursor bool
	blinkOn    bool
	status     string

	stopped chan struct{}
}

// New returns the calculator task. audioCap, logCap and store are optional.
func New(disp hal.Display, ep, logCap, audioCap kernel.Capability, store StateStore) *Task {
	t := &Task{disp: disp, ep: ep, logCap: logCap, store: store, stopped: make(chan struct{})}
	if audioCap.Valid() {
		t.audio = audioclient.New(audioCap).WithReply(logCap)
	}
	return t
}

// Stopped is closed when Run returns, after the final save on shutdown.
func (t *Task) Stopped() <-chan struct{} { return t.stopped }

func (t *Task) Run(ctx *kernel.Context) {
	defer close(t.stopped)
	ch, ok := ctx.RecvChan(t.ep)
	if !ok {
		return
	}
	if t.disp == nil {
		return
	}
	t.fb = t.disp.Framebuffer()
	if t.fb == nil {
		return
	}
	t.d = newFBDisplay(t.fb)

	done := make(chan struct{})
	defer close(done)
	tickCh := ctx.TickStream(done, 8)

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			switch proto.Kind(msg.Kind) {
			case proto.MsgAppShutdown:
				t.unload(ctx)
				return

			case proto.MsgAppControl:
				if msg.Cap.Valid() {
					t.ctlCap = msg.Cap
				}
				active, ok := proto.DecodeAppControlPayload(msg.Payload())
				if !ok {
					continue
				}
				t.setActive(ctx, active)

			case proto.MsgKeyEvent:
				if !t.active {
					continue
				}
				code, r, repeat, ok := proto.DecodeKeyEventPayload(msg.Payload())
				if !ok {
					continue
				}
				t.handleKey(ctx, code, r, repeat)
				if t.active {
					t.render()
				}
			}

		case now := <-tickCh:
			if !t.active {
				continue
			}
			on := (now/blinkTicks)%2 == 0
			if on != t.blinkOn {
				t.blinkOn = on
				t.render()
			}
		}
	}
}

func (t *Task) setActive(ctx *kernel.Context, active bool) {
	if active == t.active {
		return
	}
	t.active = active
	if !active {
		t.persist(ctx)
		return
	}
	if t.m == nil {
		t.m = calc.New()
		t.restore(ctx)
	}
	t.render()
}

// unload persists the session once more and drops the machine.
func (t *Task) unload(ctx *kernel.Context) {
	if t.m != nil {
		t.persist(ctx)
	}
	t.active = false
	t.m = nil
}

func (t *Task) requestExit(ctx *kernel.Context) {
	t.persist(ctx)
	_ = logclient.LogRetry(ctx, t.logCap, "calc: exit")

	t.active = false
	if !t.ctlCap.Valid() {
		return
	}
	const exitRetryTicks = 50
	_ = ctx.SendToCapRetry(t.ctlCap, uint16(proto.MsgAppControl), proto.AppControlPayload(false), kernel.Capability{}, exitRetryTicks)
}

func (t *Task) handleKey(ctx *kernel.Context, code proto.KeyCode, r rune, repeat bool) {
	switch code {
	case proto.KeyNone:
		b, ok := buttonForRune(r)
		if !ok {
			return
		}
		t.showCursor = false
		t.press(ctx, b, repeat)

	case proto.KeyEnter:
		if t.showCursor {
			t.press(ctx, keypad[t.cursor], repeat)
			return
		}
		t.press(ctx, opButton(calc.OpEquals), repeat)
	case proto.KeyBackspace:
		t.press(ctx, button{kind: btnDelete}, repeat)
	case proto.KeyDelete:
		t.press(ctx, button{kind: btnClear}, repeat)
	case proto.KeyEscape:
		t.press(ctx, button{kind: btnExit}, repeat)

	case proto.KeyUp:
		t.nudge(0, -1)
	case proto.KeyDown:
		t.nudge(0, 1)
	case proto.KeyLeft:
		t.nudge(-1, 0)
	case proto.KeyRight:
		t.nudge(1, 0)

	case proto.KeyF1:
		t.resetView(ctx)
	}
}

func (t *Task) nudge(dx, dy int) {
	if !t.showCursor {
		t.showCursor = true
		return
	}
	t.cursor = moveCursor(t.cursor, dx, dy)
}

func (t *Task) press(ctx *kernel.Context, b button, repeat bool) {
	switch b.kind {
	case btnDigit:
		t.m.Digit(b.r)
	case btnDelete:
		t.m.Delete()
	case btnClear:
		t.m.Clear()
		t.status = "cleared"
		logclient.Log(ctx, t.logCap, "calc: clear")
	case btnExit:
		t.requestExit(ctx)
		return
	case btnOp:
		t.m.Apply(b.op)
		t.status = ""
		if acc, ok := t.m.Accumulator().Get(); ok && math.IsNaN(acc) {
			t.status = "not a number"
			t.buzz(ctx)
			return
		}
	}
	if !repeat {
		t.click(ctx)
	}
}

// resetView tears the presentation down and rebuilds the machine from its
// own snapshot, dropping any half-typed entry.
func (t *Task) resetView(ctx *kernel.Context) {
	snap := t.m.Snapshot()
	t.m = calc.New()
	t.m.Restore(snap)
	t.cursor = 0
	t.showCursor = false
	t.status = "view reset"
	logclient.Logf(ctx, t.logCap, "calc: view reset (acc=%s op=%q)", snap.Accumulator, snap.PendingOperator)
	t.fb.ClearRGB(0, 0, 0)
}

func (t *Task) persist(ctx *kernel.Context) {
	if t.store == nil || t.m == nil {
		return
	}
	b, err := t.m.Snapshot().MarshalBinary()
	if err == nil {
		err = t.store.Save(b)
	}
	if err != nil {
		_ = logclient.LogRetry(ctx, t.logCap, fmt.Sprintf("calc: save state: %v", err))
		t.status = "save failed"
	}
}

func (t *Task) restore(ctx *kernel.Context) {
	if t.store == nil {
		return
	}
	b, err := t.store.Load()
	if errors.Is(err, record.ErrNoRecord) {
		return
	}
	if err != nil {
		logclient.Logf(ctx, t.logCap, "calc: load state: %v", err)
		return
	}
	var snap calc.Snapshot
	if err := snap.UnmarshalBinary(b); err != nil {
		logclient.Logf(ctx, t.logCap, "calc: discard state: %v", err)
		return
	}
	t.m.Restore(snap)
	t.status = "restored"
	logclient.Logf(ctx, t.logCap, "calc: restored (acc=%s op=%q)", snap.Accumulator, snap.PendingOperator)
}

func (t *Task) click(ctx *kernel.Context) {
	if t.audio == nil {
		return
	}
	_ = t.audio.Click(ctx)
}

func (t *Task) buzz(ctx *kernel.Context) {
	if t.audio == nil {
		return
	}
	if err := t.audio.Buzz(ctx); err != nil {
		logclient.Logf(ctx, t.logCap, "calc: buzz: %v", err)
	}
}
