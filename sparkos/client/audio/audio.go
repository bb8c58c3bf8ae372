package audio

import (
	"fmt"

	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

const (
	clickHz  = 1800
	clickMs  = 12
	clickVol = 96

	buzzHz  = 220
	buzzMs  = 160
	buzzVol = 160

	retryTicks = 20
)

// Client sends tone requests to the audio service.
type Client struct {
	audioCap kernel.Capability
	replyCap kernel.Capability
}

func New(audioCap kernel.Capability) *Client {
	return &Client{audioCap: audioCap}
}

// WithReply makes the service report rejected requests to replyCap.
func (c *Client) WithReply(replyCap kernel.Capability) *Client {
	c.replyCap = replyCap
	return c
}

// Tone plays a square wave. freqHz 0 stops the current tone.
func (c *Client) Tone(ctx *kernel.Context, freqHz, durationMs uint16, volume uint8) error {
	return c.send(ctx, proto.AudioTonePayload(freqHz, durationMs, volume))
}

// Click plays the short key feedback tone.
func (c *Client) Click(ctx *kernel.Context) error {
	return c.Tone(ctx, clickHz, clickMs, clickVol)
}

// Buzz plays the low error tone.
func (c *Client) Buzz(ctx *kernel.Context) error {
	return c.Tone(ctx, buzzHz, buzzMs, buzzVol)
}

func (c *Client) send(ctx *kernel.Context, payload []byte) error {
	if ctx == nil {
		return fmt.Errorf("audio client: nil context")
	}
	if c == nil || !c.audioCap.Valid() {
		return fmt.Errorf("audio client: missing capability")
	}
	res := ctx.SendToCapRetry(c.audioCap, uint16(proto.MsgAudioTone), payload, c.replyCap, retryTicks)
	if res != kernel.SendOK {
		return fmt.Errorf("audio client send %s: %s", proto.MsgAudioTone, res)
	}
	return nil
}
