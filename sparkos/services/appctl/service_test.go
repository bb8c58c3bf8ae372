package appctl

import (
	"testing"
	"time"

	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

type funcTask func(ctx *kernel.Context)

func (f funcTask) Run(ctx *kernel.Context) { f(ctx) }

func TestExitRequestShutsDownApp(t *testing.T) {
	k := kernel.New()
	ctlEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	appEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	svc := New(ctlEP, appEP.Restrict(kernel.RightSend))
	if svc.Exited() {
		t.Fatalf("Exited() = true before start")
	}

	gotShutdown := make(chan struct{})
	k.AddTask(funcTask(func(ctx *kernel.Context) {
		in := appEP.Restrict(kernel.RightRecv)
		msg, ok := ctx.Recv(in)
		if !ok || proto.Kind(msg.Kind) != proto.MsgAppControl {
			return
		}
		if active, _ := proto.DecodeAppControlPayload(msg.Payload()); !active || !msg.Cap.Valid() {
			return
		}
		ctx.SendToCapResult(msg.Cap, uint16(proto.MsgAppControl), proto.AppControlPayload(false), kernel.Capability{})
		msg, ok = ctx.Recv(in)
		if ok && proto.Kind(msg.Kind) == proto.MsgAppShutdown {
			close(gotShutdown)
		}
	}))
	k.AddTask(svc)

	select {
	case <-svc.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for Done")
	}
	select {
	case <-gotShutdown:
	case <-time.After(2 * time.Second):
		t.Fatalf("app never received %s", proto.MsgAppShutdown)
	}
	if !svc.Exited() {
		t.Fatalf("Exited() = false, want true")
	}
}

func TestStopShutsDownApp(t *testing.T) {
	k := kernel.New()
	ctlEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	appEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	svc := New(ctlEP, appEP.Restrict(kernel.RightSend))

	gotShutdown := make(chan struct{})
	k.AddTask(funcTask(func(ctx *kernel.Context) {
		in := appEP.Restrict(kernel.RightRecv)
		msg, ok := ctx.Recv(in)
		if !ok || proto.Kind(msg.Kind) != proto.MsgAppControl {
			return
		}
		svc.Stop()
		svc.Stop()
		msg, ok = ctx.Recv(in)
		if ok && proto.Kind(msg.Kind) == proto.MsgAppShutdown {
			close(gotShutdown)
		}
	}))
	k.AddTask(svc)

	select {
	case <-gotShutdown:
	case <-time.After(2 * time.Second):
		t.Fatalf("app never received %s after Stop", proto.MsgAppShutdown)
	}
	select {
	case <-svc.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for Done after Stop")
	}
}
