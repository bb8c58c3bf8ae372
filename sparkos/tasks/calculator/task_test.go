package calculator

import (
	"math"
	"sync"
	"testing"
	"time"

	"sparkcalc/hal"
	"sparkcalc/sparkos/calc"
	"sparkcalc/sparkos/fs/record"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

type fakeFB struct {
	w, h   int
	buf    []byte
	frames int
}

func newFakeFB(w, h int) *fakeFB {
	return &fakeFB{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *fakeFB) Width() int              { return f.w }
func (f *fakeFB) Height() int             { return f.h }
func (f *fakeFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *fakeFB) StrideBytes() int        { return f.w * 2 }
func (f *fakeFB) Buffer() []byte          { return f.buf }

func (f *fakeFB) Present() error {
	f.frames++
	return nil
}

func (f *fakeFB) ClearRGB(r, g, b uint8) {
	for i := range f.buf {
		f.buf[i] = 0
	}
}

type fakeDisplay struct{ fb *fakeFB }

func (d fakeDisplay) Framebuffer() hal.Framebuffer { return d.fb }

type memStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func (s *memStore) Load() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, record.ErrNoRecord
	}
	return append([]byte(nil), s.data...), nil
}

func (s *memStore) Save(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), payload...)
	s.saves++
	return nil
}

func (s *memStore) snapshot(t *testing.T) calc.Snapshot {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var snap calc.Snapshot
	if err := snap.UnmarshalBinary(s.data); err != nil {
		t.Fatalf("UnmarshalBinary() err = %v", err)
	}
	return snap
}

type funcTask func(ctx *kernel.Context)

func (f funcTask) Run(ctx *kernel.Context) { f(ctx) }

type key struct {
	code proto.KeyCode
	r    rune
}

func text(s string) []key {
	var out []key
	for _, r := range s {
		out = append(out, key{r: r})
	}
	return out
}

func send(ctx *kernel.Context, to kernel.Capability, kind proto.Kind, payload []byte, xfer kernel.Capability) {
	for ctx.SendToCapResult(to, uint16(kind), payload, xfer) == kernel.SendErrQueueFull {
		time.Sleep(time.Millisecond)
	}
}

// runSession activates a calculator, types keys, presses Esc and waits for
// the exit request.
func runSession(t *testing.T, store StateStore, keys []key) *fakeFB {
	t.Helper()

	k := kernel.New()
	appEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	ctlEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	fb := newFakeFB(320, 320)

	k.AddTask(New(fakeDisplay{fb: fb}, appEP.Restrict(kernel.RightRecv), kernel.Capability{}, kernel.Capability{}, store))

	exited := make(chan struct{})
	k.AddTask(funcTask(func(ctx *kernel.Context) {
		to := appEP.Restrict(kernel.RightSend)
		send(ctx, to, proto.MsgAppControl, proto.AppControlPayload(true), ctlEP.Restrict(kernel.RightSend))
		for _, kk := range append(keys, key{code: proto.KeyEscape}) {
			send(ctx, to, proto.MsgKeyEvent, proto.KeyEventPayload(kk.code, kk.r, false), kernel.Capability{})
		}
		for {
			msg, ok := ctx.Recv(ctlEP.Restrict(kernel.RightRecv))
			if !ok {
				return
			}
			if active, ok := proto.DecodeAppControlPayload(msg.Payload()); ok && !active {
				close(exited)
				return
			}
		}
	}))

	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for exit request")
	}
	return fb
}

func wantAcc(t *testing.T, snap calc.Snapshot, want float64) {
	t.Helper()
	got, ok := snap.Accumulator.Get()
	if !ok || got != want {
		t.Fatalf("accumulator = %s, want %v", snap.Accumulator, want)
	}
}

func TestExitPersistsSnapshot(t *testing.T) {
	store := &memStore{}
	keys := append(text("12+3"), key{code: proto.KeyEnter})
	fb := runSession(t, store, keys)

	snap := store.snapshot(t)
	wantAcc(t, snap, 15)
	if snap.PendingOperator != calc.OpEquals {
		t.Fatalf("pending = %q, want %q", snap.PendingOperator, calc.OpEquals)
	}

	if fb.frames == 0 {
		t.Fatalf("frames = 0, want rendered frames")
	}
	lit := false
	for _, b := range fb.buf {
		if b != 0 {
			lit = true
			break
		}
	}
	if !lit {
		t.Fatalf("framebuffer is blank")
	}
}

func TestShutdownPersistsAndStops(t *testing.T) {
	store := &memStore{}
	k := kernel.New()
	appEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	task := New(fakeDisplay{fb: newFakeFB(320, 320)}, appEP.Restrict(kernel.RightRecv), kernel.Capability{}, kernel.Capability{}, store)
	k.AddTask(task)

	k.AddTask(funcTask(func(ctx *kernel.Context) {
		to := appEP.Restrict(kernel.RightSend)
		send(ctx, to, proto.MsgAppControl, proto.AppControlPayload(true), kernel.Capability{})
		for _, kk := range text("9+1") {
			send(ctx, to, proto.MsgKeyEvent, proto.KeyEventPayload(kk.code, kk.r, false), kernel.Capability{})
		}
		send(ctx, to, proto.MsgAppShutdown, nil, kernel.Capability{})
	}))

	select {
	case <-task.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for Stopped")
	}
	snap := store.snapshot(t)
	wantAcc(t, snap, 9)
	if snap.PendingOperator != calc.OpAdd {
		t.Fatalf("pending = %q, want %q", snap.PendingOperator, calc.OpAdd)
	}
}

func TestRestoresSavedSession(t *testing.T) {
	b, err := calc.Snapshot{Accumulator: calc.Some(15), OperandBuffer: 3, PendingOperator: calc.OpAdd}.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() err = %v", err)
	}
	store := &memStore{data: b}

	runSession(t, store, text("5="))

	wantAcc(t, store.snapshot(t), 20)
}

func TestResetViewKeepsRegisters(t *testing.T) {
	store := &memStore{}
	keys := append(text("7+8"), key{code: proto.KeyF1})
	keys = append(keys, text("2=")...)

	runSession(t, store, keys)

	wantAcc(t, store.snapshot(t), 9)
}

func TestKeypadCursorPress(t *testing.T) {
	store := &memStore{}
	keys := []key{
		{code: proto.KeyRight}, // shows the cursor on "7"
		{code: proto.KeyRight},
		{code: proto.KeyEnter}, // presses "8"
		{code: proto.KeyDown},
		{code: proto.KeyDown},
		{code: proto.KeyDown},
		{code: proto.KeyEnter}, // "." row, column 1: "0"
	}
	keys = append(keys, text("=")...)

	runSession(t, store, keys)

	wantAcc(t, store.snapshot(t), 80)
}

func TestClearAndDeleteKeys(t *testing.T) {
	store := &memStore{}
	keys := append(text("9*9="), key{code: proto.KeyDelete})
	keys = append(keys, text("45")...)
	keys = append(keys, key{code: proto.KeyBackspace})
	keys = append(keys, text("+1=")...)

	runSession(t, store, keys)

	wantAcc(t, store.snapshot(t), 5)
}

func TestDivideByZeroPersistsNaN(t *testing.T) {
	store := &memStore{}
	runSession(t, store, text("5/0="))

	snap := store.snapshot(t)
	got, ok := snap.Accumulator.Get()
	if !ok || !math.IsNaN(got) {
		t.Fatalf("accumulator = %s, want NaN", snap.Accumulator)
	}
}

func TestButtonForRune(t *testing.T) {
	tests := []struct {
		r    rune
		kind buttonKind
		op   calc.Op
		ok   bool
	}{
		{r: '5', kind: btnDigit, ok: true},
		{r: '.', kind: btnDigit, ok: true},
		{r: '+', kind: btnOp, op: calc.OpAdd, ok: true},
		{r: '%', kind: btnOp, op: calc.OpPercent, ok: true},
		{r: 'x', kind: btnOp, op: calc.OpMul, ok: true},
		{r: 'C', kind: btnClear, ok: true},
		{r: 'q', kind: btnExit, ok: true},
		{r: 0x7f, kind: btnDelete, ok: true},
		{r: 'z', ok: false},
	}
	for _, tt := range tests {
		b, ok := buttonForRune(tt.r)
		if ok != tt.ok {
			t.Fatalf("buttonForRune(%q) ok = %v, want %v", tt.r, ok, tt.ok)
		}
		if !ok {
			continue
		}
		if b.kind != tt.kind || b.op != tt.op {
			t.Fatalf("buttonForRune(%q) = (%d, %q), want (%d, %q)", tt.r, b.kind, b.op, tt.kind, tt.op)
		}
	}
}

func TestMoveCursorWraps(t *testing.T) {
	tests := []struct {
		cur, dx, dy, want int
	}{
		{cur: 0, dx: -1, want: 3},
		{cur: 3, dx: 1, want: 0},
		{cur: 0, dy: -1, want: 16},
		{cur: 17, dy: 1, want: 1},
		{cur: 5, dx: 1, dy: 1, want: 10},
	}
	for _, tt := range tests {
		if got := moveCursor(tt.cur, tt.dx, tt.dy); got != tt.want {
			t.Fatalf("moveCursor(%d, %d, %d) = %d, want %d", tt.cur, tt.dx, tt.dy, got, tt.want)
		}
	}
}

func TestKeypadLayout(t *testing.T) {
	want := []string{
		"7", "8", "9", "/",
		"4", "5", "6", "*",
		"1", "2", "3", "-",
		".", "0", "=", "+",
		"C", "DEL", "%", "EXIT",
	}
	for i, b := range keypad {
		if b.label != want[i] {
			t.Fatalf("keypad[%d] = %q, want %q", i, b.label, want[i])
		}
	}
}
