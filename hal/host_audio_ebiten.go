//go:build !tinygo && cgo

package hal

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// hostAudio exposes audio output on desktop via Ebiten's audio package.
type hostAudio struct {
	pwm *hostPWMAudio
}

func newHostAudio() hostAudio {
	return hostAudio{pwm: &hostPWMAudio{vol: 255}}
}

func (a hostAudio) PWM() PWMAudio {
	if a.pwm == nil {
		return nil
	}
	return a.pwm
}

// hostPWMAudio feeds a mono ring buffer into an Ebiten player.
type hostPWMAudio struct {
	mu   sync.Mutex
	cond *sync.Cond

	ctx    *audio.Context
	player *audio.Player

	ring   []int16
	r, w   int
	n      int
	closed bool
	vol    uint8
}

func (a *hostPWMAudio) Start(sampleRate uint32) error {
	if sampleRate == 0 {
		return errors.New("host audio: invalid sample rate")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cond == nil {
		a.cond = sync.NewCond(&a.mu)
	}
	if a.ctx == nil {
		// Ebiten allows one audio context per process.
		a.ctx = audio.NewContext(int(sampleRate))
	} else if a.ctx.SampleRate() != int(sampleRate) {
		return errors.New("host audio: ebiten audio context sample rate is fixed")
	}
	if a.player != nil {
		_ = a.player.Close()
		a.player = nil
	}

	size := int(sampleRate / 10)
	if size < 2048 {
		size = 2048
	}
	a.ring = make([]int16, size)
	a.r, a.w, a.n = 0, 0, 0
	a.closed = false

	p, err := a.ctx.NewPlayer(&hostAudioReader{a: a})
	if err != nil {
		return err
	}
	p.SetBufferSize(50 * time.Millisecond)
	p.SetVolume(float64(a.vol) / 255.0)
	p.Play()
	a.player = p
	return nil
}

func (a *hostPWMAudio) Stop() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.r, a.w, a.n = 0, 0, 0
	if a.cond != nil {
		a.cond.Broadcast()
	}
	p := a.player
	a.player = nil
	a.mu.Unlock()

	if p != nil {
		return p.Close()
	}
	return nil
}

func (a *hostPWMAudio) SetVolume(vol uint8) {
	a.mu.Lock()
	a.vol = vol
	p := a.player
	a.mu.Unlock()

	if p != nil {
		p.SetVolume(float64(vol) / 255.0)
	}
}

func (a *hostPWMAudio) WriteSample(sample int16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for !a.closed && len(a.ring) > 0 && a.n == len(a.ring) {
		a.cond.Wait()
	}
	if a.closed || len(a.ring) == 0 {
		return
	}
	a.ring[a.w] = sample
	a.w = (a.w + 1) % len(a.ring)
	a.n++
	a.cond.Signal()
}

func (a *hostPWMAudio) PendingSamples() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}

type hostAudioReader struct {
	a *hostPWMAudio
}

// Read emits 16-bit little-endian stereo frames, padding with silence when
// the ring is empty so a short click never stalls the player.
func (r *hostAudioReader) Read(p []byte) (int, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, io.EOF
	}
	for i := 0; i+3 < len(p); i += 4 {
		var s int16
		if a.n > 0 {
			s = a.ring[a.r]
			a.r = (a.r + 1) % len(a.ring)
			a.n--
		}
		p[i+0] = byte(s)
		p[i+1] = byte(s >> 8)
		p[i+2] = byte(s)
		p[i+3] = byte(s >> 8)
	}
	if a.cond != nil {
		a.cond.Signal()
	}
	return len(p) &^ 3, nil
}
