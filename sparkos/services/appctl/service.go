// Package appctl activates the foreground app and turns its exit request
// into a system shutdown.
package appctl

import (
	"sync"

	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

const sendRetryLimit = 50

type Service struct {
	ep     kernel.Capability
	appCap kernel.Capability

	once sync.Once
	done chan struct{}

	stopOnce sync.Once
	stop     chan struct{}
}

// New returns a controller that receives on ep and drives the app at appCap.
// ep needs both rights: a send-only copy is handed to the app.
func New(ep, appCap kernel.Capability) *Service {
	return &Service{ep: ep, appCap: appCap, done: make(chan struct{}), stop: make(chan struct{})}
}

// Stop shuts the app down from outside the kernel, as when the host window
// closes. It is safe to call more than once and after the app has exited.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Done is closed once the app has asked to exit.
func (s *Service) Done() <-chan struct{} { return s.done }

// Exited reports whether Done is closed.
func (s *Service) Exited() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Service) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(s.ep)
	if !ok {
		return
	}

	_ = ctx.SendToCapRetry(
		s.appCap,
		uint16(proto.MsgAppControl),
		proto.AppControlPayload(true),
		s.ep.Restrict(kernel.RightSend),
		sendRetryLimit,
	)

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if proto.Kind(msg.Kind) != proto.MsgAppControl {
				continue
			}
			active, ok := proto.DecodeAppControlPayload(msg.Payload())
			if !ok || active {
				continue
			}
			_ = ctx.SendToCapRetry(s.appCap, uint16(proto.MsgAppShutdown), nil, kernel.Capability{}, sendRetryLimit)
			s.once.Do(func() { close(s.done) })

		case <-s.stop:
			// The host may have stopped ticking, so no retry.
			if !s.Exited() {
				_ = ctx.SendToCapResult(s.appCap, uint16(proto.MsgAppShutdown), nil, kernel.Capability{})
			}
			s.once.Do(func() { close(s.done) })
			return
		}
	}
}
