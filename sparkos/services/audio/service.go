package audio

import (
	"fmt"
	"sync"

	"sparkcalc/hal"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

const (
	toneSampleRate = 22050
	toneAmplitude  = 12000

	// maxBacklogSamples is how much already-queued audio a new tone may sit
	// behind; past that the tone is skipped so clicks stay in step with keys.
	maxBacklogSamples = toneSampleRate / 20
)

// Service plays square-wave tones on a PWM sink. A new tone cancels the one
// being generated; samples already handed to the sink still play out.
type Service struct {
	inCap kernel.Capability
	pwm   hal.PWMAudio

	started bool

	playMu sync.Mutex
	cancel chan struct{}
	done   chan struct{}
}

func New(inCap kernel.Capability, pwm hal.PWMAudio) *Service {
	return &Service{inCap: inCap, pwm: pwm}
}

func (s *Service) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(s.inCap)
	if !ok {
		return
	}
	defer s.shutdown()

	for msg := range ch {
		switch proto.Kind(msg.Kind) {
		case proto.MsgAudioTone:
			s.handleTone(ctx, msg)
		default:
			s.reject(ctx, msg, proto.ErrBadMessage, "unsupported kind")
		}
	}
}

func (s *Service) handleTone(ctx *kernel.Context, msg kernel.Message) {
	freq, durMs, vol, ok := proto.DecodeAudioTonePayload(msg.Payload())
	if !ok {
		s.reject(ctx, msg, proto.ErrBadMessage, "tone payload")
		return
	}
	if s.pwm == nil {
		return
	}

	s.playMu.Lock()
	defer s.playMu.Unlock()
	s.stopLocked()

	if freq == 0 || durMs == 0 {
		return
	}
	if s.started && s.pwm.PendingSamples() > maxBacklogSamples {
		return
	}
	if !s.started {
		if err := s.pwm.Start(toneSampleRate); err != nil {
			s.reject(ctx, msg, proto.ErrInternal, fmt.Sprintf("pwm start: %v", err))
			return
		}
		s.started = true
	}
	s.pwm.SetVolume(vol)

	cancel := make(chan struct{})
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go func() {
		defer close(done)
		s.play(cancel, freq, durMs)
	}()
}

func (s *Service) play(cancel <-chan struct{}, freq, durMs uint16) {
	total := toneSamples(durMs)
	half := toneHalfPeriod(freq)
	for i := 0; i < total; i++ {
		select {
		case <-cancel:
			return
		default:
		}
		s.pwm.WriteSample(squareSample(i, half))
	}
}

func (s *Service) stopLocked() {
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	if cancel != nil {
		close(cancel)
	}
	if done != nil {
		<-done
	}
}

func (s *Service) shutdown() {
	s.playMu.Lock()
	s.stopLocked()
	started := s.started
	s.started = false
	s.playMu.Unlock()

	if started {
		_ = s.pwm.Stop()
	}
}

func (s *Service) reject(ctx *kernel.Context, msg kernel.Message, code proto.ErrCode, detail string) {
	if !msg.Cap.Valid() {
		return
	}
	payload := proto.ErrorPayload(code, proto.Kind(msg.Kind), []byte(detail))
	_ = ctx.SendToCapResult(msg.Cap, uint16(proto.MsgError), payload, kernel.Capability{})
}

func toneSamples(durMs uint16) int {
	return int(uint32(durMs) * toneSampleRate / 1000)
}

// toneHalfPeriod is the number of samples per half wave, at least one.
func toneHalfPeriod(freq uint16) int {
	if freq == 0 {
		return 1
	}
	h := toneSampleRate / (2 * int(freq))
	if h < 1 {
		return 1
	}
	return h
}

func squareSample(i, half int) int16 {
	if (i/half)%2 == 0 {
		return toneAmplitude
	}
	return -toneAmplitude
}
