package app

import (
	"errors"
	"fmt"
	"time"

	"sparkcalc/hal"
	"sparkcalc/internal/buildinfo"
	"sparkcalc/sparkos/fs/record"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/services/appctl"
	audiosvc "sparkcalc/sparkos/services/audio"
	"sparkcalc/sparkos/services/keypad"
	"sparkcalc/sparkos/services/logger"
	"sparkcalc/sparkos/tasks/calculator"
)

// closeTimeout bounds how long Close waits for the calculator's final save.
const closeTimeout = 2 * time.Second

type system struct {
	k    *kernel.Kernel
	ctl  *appctl.Service
	calc *calculator.Task
}

// Step reports hal.ErrShutdown once the calculator has exited.
func (s *system) Step() error {
	if s.ctl.Exited() {
		return hal.ErrShutdown
	}
	return nil
}

// Close shuts the calculator down if it is still running and waits until it
// has saved its state.
func (s *system) Close() error {
	s.ctl.Stop()
	select {
	case <-s.calc.Stopped():
		return nil
	case <-time.After(closeTimeout):
		return errors.New("app: calculator did not stop in time; state may be unsaved")
	}
}

// Config selects where the calculator keeps its state.
type Config struct {
	// StateOffset is the flash offset of the state block; it must be
	// erase-block aligned.
	StateOffset uint32
}

// New initializes and starts the OS with default config.
func New(h hal.HAL) hal.App {
	return NewWithConfig(h, Config{})
}

// NewWithConfig starts the OS and returns it for a host runner to drive.
func NewWithConfig(h hal.HAL, cfg Config) hal.App {
	return newSystem(h, cfg)
}

// Run starts the OS and blocks until the calculator exits (TinyGo/native entrypoint).
func Run(h hal.HAL) {
	RunWithConfig(h, Config{})
}

func RunWithConfig(h hal.HAL, cfg Config) {
	s := newSystem(h, cfg)
	<-s.ctl.Done()
	if err := s.Close(); err != nil {
		if l := h.Logger(); l != nil {
			l.WriteLineString(err.Error())
		}
	}
}

func newSystem(h hal.HAL, cfg Config) *system {
	installPanicHandler(h)
	if l := h.Logger(); l != nil {
		l.WriteLineString("sparkcalc " + buildinfo.String())
	}

	k := kernel.New()

	logEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	appEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	ctlEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	k.AddTask(logger.New(h.Logger(), logEP.Restrict(kernel.RightRecv)))

	var audioCap kernel.Capability
	if a := h.Audio(); a != nil {
		if pwm := a.PWM(); pwm != nil {
			audioEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
			k.AddTask(audiosvc.New(audioEP.Restrict(kernel.RightRecv), pwm))
			audioCap = audioEP.Restrict(kernel.RightSend)
		}
	}

	var store calculator.StateStore
	if st, err := record.New(h.Flash(), cfg.StateOffset); err != nil {
		if l := h.Logger(); l != nil {
			l.WriteLineString(fmt.Sprintf("calc: state not persisted: %v", err))
		}
	} else {
		store = st
	}

	calc := calculator.New(
		h.Display(),
		appEP.Restrict(kernel.RightRecv),
		logEP.Restrict(kernel.RightSend),
		audioCap,
		store,
	)
	k.AddTask(calc)
	k.AddTask(keypad.New(h.Input(), appEP.Restrict(kernel.RightSend)))

	ctl := appctl.New(ctlEP, appEP.Restrict(kernel.RightSend))
	k.AddTask(ctl)

	if ht := h.Time(); ht != nil {
		if ch := ht.Ticks(); ch != nil {
			go func() {
				for seq := range ch {
					k.TickTo(seq)
				}
			}()
		}
	}

	return &system{k: k, ctl: ctl, calc: calc}
}
