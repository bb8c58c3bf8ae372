package proto

// Kind identifies the message type carried in kernel.Message.Kind.
type Kind uint16

const (
	MsgLogLine Kind = iota + 1
	MsgError
	MsgKeyEvent
	MsgAppControl
	MsgAppShutdown
	MsgAudioTone
)

// ErrCode is a generic error category for MsgError responses.
type ErrCode uint16

const (
	ErrUnknown ErrCode = iota
	ErrBadMessage
	ErrUnauthorized
	ErrBusy
	ErrInternal
)

func (c ErrCode) String() string {
	switch c {
	case ErrUnknown:
		return "unknown"
	case ErrBadMessage:
		return "bad_message"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrBusy:
		return "busy"
	case ErrInternal:
		return "internal"
	default:
		return "unknown"
	}
}

func (k Kind) String() string {
	switch k {
	case MsgLogLine:
		return "log_line"
	case MsgError:
		return "error"
	case MsgKeyEvent:
		return "key_event"
	case MsgAppControl:
		return "app_control"
	case MsgAppShutdown:
		return "app_shutdown"
	case MsgAudioTone:
		return "audio_tone"
	default:
		return "unknown"
	}
}
