//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
)

// HostOptions configures the desktop HAL.
type HostOptions struct {
	// FlashPath is the file backing the emulated flash. Empty disables flash.
	FlashPath string
	// FlashSize is the size of a newly created flash file.
	FlashSize uint32
	// Scale is the window zoom factor.
	Scale int
	// Mute disables audio output.
	Mute bool
}

const (
	hostScreenWidth  = 320
	hostScreenHeight = 320
)

type hostHAL struct {
	opts   HostOptions
	logger *hostLogger
	fb     *hostFramebuffer
	kbd    *hostKeyboard
	t      *hostTime
	flash  Flash
	aud    Audio
}

// New returns a host HAL implementation with default options.
func New() HAL {
	return newHostHAL(HostOptions{})
}

// NewHost returns a host HAL implementation.
func NewHost(opts HostOptions) HAL {
	return newHostHAL(opts)
}

func newHostHAL(opts HostOptions) *hostHAL {
	if opts.Scale <= 0 {
		opts.Scale = 2
	}
	logger := &hostLogger{w: os.Stdout}

	var flash Flash = stubFlash{}
	if opts.FlashPath != "" {
		f, err := OpenFlashFile(opts.FlashPath, opts.FlashSize)
		if err != nil {
			logger.WriteLineString(fmt.Sprintf("hal: flash disabled: %v", err))
		} else {
			flash = f
		}
	}

	var aud Audio = hostAudio{}
	if !opts.Mute {
		aud = newHostAudio()
	}

	return &hostHAL{
		opts:   opts,
		logger: logger,
		fb:     newHostFramebuffer(hostScreenWidth, hostScreenHeight),
		kbd:    newHostKeyboard(),
		t:      newHostTime(),
		flash:  flash,
		aud:    aud,
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Input() Input     { return hostInput{kbd: h.kbd} }
func (h *hostHAL) Flash() Flash     { return h.flash }
func (h *hostHAL) Time() Time       { return h.t }
func (h *hostHAL) Audio() Audio     { return h.aud }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostInput struct {
	kbd *hostKeyboard
}

func (in hostInput) Keyboard() Keyboard { return in.kbd }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
