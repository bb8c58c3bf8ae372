package keypad

import (
	"sparkcalc/hal"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

const (
	// Ticks are 1ms on host and TinyGo.
	repeatDelayTicks = 350
	repeatRateTicks  = 60

	maxPending = 32
)

type keyMsg struct {
	code   proto.KeyCode
	r      rune
	repeat bool
}

// Service turns HAL keyboard events into key_event messages for the
// foreground app. Held Backspace and Delete auto-repeat.
type Service struct {
	in     hal.Input
	outCap kernel.Capability

	events  <-chan hal.KeyEvent
	pending []keyMsg

	held           bool
	heldCode       hal.KeyCode
	nextRepeatTick uint64
}

func New(in hal.Input, outCap kernel.Capability) *Service {
	return &Service{in: in, outCap: outCap}
}

func (s *Service) Run(ctx *kernel.Context) {
	if ctx == nil || s.in == nil {
		return
	}
	kbd := s.in.Keyboard()
	if kbd == nil {
		return
	}
	s.events = kbd.Events()
	if s.events == nil {
		return
	}

	done := make(chan struct{})
	defer close(done)
	tickCh := ctx.TickStream(done, 16)

	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return
			}
			s.handleKeyEvent(ctx, ev)
		case tick := <-tickCh:
			s.handleRepeat(tick)
		}
		s.flush(ctx)
	}
}

func (s *Service) handleKeyEvent(ctx *kernel.Context, ev hal.KeyEvent) {
	if !ev.Press {
		if s.held && ev.Code == s.heldCode {
			s.held = false
			s.nextRepeatTick = 0
		}
		return
	}

	if ev.Code == hal.KeyUnknown && ev.Rune == 0 {
		return
	}
	s.queue(keyMsg{code: proto.KeyCode(ev.Code), r: ev.Rune})

	if !repeatableKey(ev.Code) {
		return
	}
	s.held = true
	s.heldCode = ev.Code
	s.nextRepeatTick = ctx.NowTick() + repeatDelayTicks
}

func (s *Service) handleRepeat(tick uint64) {
	if !s.held || tick < s.nextRepeatTick {
		return
	}
	s.queue(keyMsg{code: proto.KeyCode(s.heldCode), repeat: true})
	s.nextRepeatTick = tick + repeatRateTicks
}

// queue drops the oldest event when the consumer has stalled for long.
func (s *Service) queue(m keyMsg) {
	if len(s.pending) >= maxPending {
		s.pending = s.pending[1:]
	}
	s.pending = append(s.pending, m)
}

func (s *Service) flush(ctx *kernel.Context) {
	if !s.outCap.Valid() {
		s.pending = s.pending[:0]
		return
	}
	for len(s.pending) > 0 {
		m := s.pending[0]
		res := ctx.SendToCapResult(s.outCap, uint16(proto.MsgKeyEvent), proto.KeyEventPayload(m.code, m.r, m.repeat), kernel.Capability{})
		switch res {
		case kernel.SendOK:
			s.pending = s.pending[1:]
		case kernel.SendErrQueueFull:
			return
		default:
			s.pending = s.pending[:0]
			return
		}
	}
}

func repeatableKey(code hal.KeyCode) bool {
	switch code {
	case hal.KeyBackspace, hal.KeyDelete:
		return true
	default:
		return false
	}
}
