package logger

import (
	"testing"
	"time"

	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

type funcTask func(ctx *kernel.Context)

func (f funcTask) Run(ctx *kernel.Context) { f(ctx) }

func pumpTicks(k *kernel.Kernel, stop <-chan struct{}) {
	for i := uint64(1); ; i++ {
		select {
		case <-stop:
			return
		default:
		}
		k.TickTo(i)
		time.Sleep(time.Millisecond)
	}
}

// fillThenRetry fills the logger queue, reports it on full, then calls LogRetry.
func fillThenRetry(k *kernel.Kernel, logCap kernel.Capability, full chan<- struct{}, errCh chan<- error) {
	k.AddTask(funcTask(func(ctx *kernel.Context) {
		for Log(ctx, logCap, "fill") == kernel.SendOK {
		}
		close(full)
		errCh <- LogRetry(ctx, logCap, "last words")
	}))
}

func TestLogRetryDeliversOnceDrained(t *testing.T) {
	k := kernel.New()
	ep := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	full := make(chan struct{})
	errCh := make(chan error, 1)
	fillThenRetry(k, ep.Restrict(kernel.RightSend), full, errCh)

	stop := make(chan struct{})
	defer close(stop)
	go pumpTicks(k, stop)

	select {
	case <-full:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout filling the queue")
	}

	got := make(chan string, 1)
	k.AddTask(funcTask(func(ctx *kernel.Context) {
		for {
			msg, ok := ctx.Recv(ep.Restrict(kernel.RightRecv))
			if !ok {
				return
			}
			if proto.Kind(msg.Kind) == proto.MsgLogLine && string(msg.Payload()) == "last words" {
				got <- string(msg.Payload())
				return
			}
		}
	}))

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("LogRetry() err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for LogRetry")
	}
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("retried line never reached the logger")
	}
}

func TestLogRetryGivesUp(t *testing.T) {
	k := kernel.New()
	ep := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	full := make(chan struct{})
	errCh := make(chan error, 1)
	fillThenRetry(k, ep.Restrict(kernel.RightSend), full, errCh)

	stop := make(chan struct{})
	defer close(stop)
	go pumpTicks(k, stop)

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("LogRetry() err = nil with a full queue, want error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("LogRetry did not give up")
	}
}

func TestLogRetryInvalidCap(t *testing.T) {
	k := kernel.New()
	errCh := make(chan error, 1)
	k.AddTask(funcTask(func(ctx *kernel.Context) {
		errCh <- LogRetry(ctx, kernel.Capability{}, "x")
	}))
	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("LogRetry(invalid cap) err = nil, want error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("LogRetry(invalid cap) blocked")
	}
}
