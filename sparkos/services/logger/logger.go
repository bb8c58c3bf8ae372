package logger

import (
	"sparkcalc/hal"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

// Service drains log_line messages into the HAL logger.
type Service struct {
	log hal.Logger
	ep  kernel.Capability
}

func New(log hal.Logger, ep kernel.Capability) *Service {
	return &Service{log: log, ep: ep}
}

func (s *Service) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(s.ep)
	if !ok {
		return
	}
	for msg := range ch {
		if s.log == nil {
			continue
		}
		switch proto.Kind(msg.Kind) {
		case proto.MsgLogLine:
			s.log.WriteLineBytes(msg.Payload())
		case proto.MsgError:
			// Services without a reply capability report failures here.
			if err, ok := proto.DecodeError(msg.Payload()); ok {
				s.log.WriteLineString("error: " + err.Error())
			}
		}
	}
}
