package kernel

import (
	"context"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type ping struct{ N int }
type pong struct{ N int }
type secret struct{}

var pingOps = OpRights{
	reflect.TypeOf(ping{}):   RightRead,
	reflect.TypeOf(secret{}): RightExec,
}

func echoHandler(shutdowns *atomic.Int32) Handler {
	return func(ctx *ActCtx, msg Message) HandlerSignal {
		switch p := msg.Payload.(type) {
		case ping:
			Reply(ctx, msg, pong{N: p.N + 1})
		case Shutdown:
			shutdowns.Add(1)
		default:
			Reply(ctx, msg, UnknownOperation{})
		}
		return Continue{}
	}
}

func TestSendSyncWithCapability(t *testing.T) {
	var shutdowns atomic.Int32
	k := NewKernel()
	svc := k.RegisterService("echo", pingOps, echoHandler(&shutdowns))
	client := k.RegisterActor("client", func(*ActCtx, Message) HandlerSignal { return Continue{} })
	k.GrantCap(client, svc, RightRead)

	ctx := &ActCtx{K: k, Self: client}
	resp, err := ctx.SendSync(svc, ping{N: 41})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	got, ok := resp.Payload.(pong)
	if !ok || got.N != 42 {
		t.Fatalf("unexpected reply %#v", resp.Payload)
	}

	if err := k.Stop(context.Background(), "test"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if shutdowns.Load() != 1 {
		t.Fatalf("expected one shutdown notification, got %d", shutdowns.Load())
	}
}

func TestSendWithoutCapabilityIsRejected(t *testing.T) {
	var shutdowns atomic.Int32
	k := NewKernel()
	svc := k.RegisterService("echo", pingOps, echoHandler(&shutdowns))
	client := k.RegisterActor("client", func(*ActCtx, Message) HandlerSignal { return Continue{} })
	k.GrantCap(client, svc, RightRead)
	defer k.Stop(context.Background(), "test")

	ctx := &ActCtx{K: k, Self: client}
	if _, err := ctx.SendSync(svc, secret{}); err == nil || !strings.Contains(err.Error(), "E_POLICY") {
		t.Fatalf("expected E_POLICY error, got %v", err)
	}
	if _, err := ctx.SendSync(svc, pong{}); err == nil || !strings.Contains(err.Error(), "no defined rights") {
		t.Fatalf("expected undefined op error, got %v", err)
	}
}

func TestSendSyncWithTimeoutExpires(t *testing.T) {
	release := make(chan struct{})
	k := NewKernel()
	svc := k.RegisterService("slow", pingOps, func(ctx *ActCtx, msg Message) HandlerSignal {
		if _, ok := msg.Payload.(ping); ok {
			<-release
			Reply(ctx, msg, pong{})
		}
		return Continue{}
	})
	client := k.RegisterActor("client", func(*ActCtx, Message) HandlerSignal { return Continue{} })
	k.GrantCap(client, svc, RightRead)

	ctx := &ActCtx{K: k, Self: client}
	start := time.Now()
	_, err := ctx.SendSyncWithTimeout(svc, ping{}, 20*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "E_DEADLINE") {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout took %v", elapsed)
	}

	// The late reply lands in the abandoned buffered channel without blocking
	// the service, so the next request is answered.
	close(release)
	resp, err := ctx.SendSyncWithTimeout(svc, ping{}, time.Second)
	if err != nil {
		t.Fatalf("send after timeout failed: %v", err)
	}
	if _, ok := resp.Payload.(pong); !ok {
		t.Fatalf("unexpected reply %#v", resp.Payload)
	}
	if err := k.Stop(context.Background(), "test"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestStoppedActorFailsFast(t *testing.T) {
	k := NewKernel()
	svc := k.RegisterService("stopper", pingOps, func(ctx *ActCtx, msg Message) HandlerSignal {
		Reply(ctx, msg, nil)
		return Terminate{Reason: "done"}
	})
	client := k.RegisterActor("client", func(*ActCtx, Message) HandlerSignal { return Continue{} })
	k.GrantCap(client, svc, RightRead)
	defer k.Stop(context.Background(), "test")

	ctx := &ActCtx{K: k, Self: client}
	if _, err := ctx.SendSync(svc, ping{}); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := k.ActorByName("stopper"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("terminated actor still registered")
		}
		time.Sleep(time.Millisecond)
	}
	if err := ctx.SendAsync(svc, ping{}); err == nil {
		t.Fatal("expected send to a terminated actor to fail")
	}
}

func TestStatusAndDoubleStop(t *testing.T) {
	k := NewKernel()
	k.RegisterActor("a", func(*ActCtx, Message) HandlerSignal { return Continue{} })
	k.RegisterActor("b", func(*ActCtx, Message) HandlerSignal { return Continue{} })

	status := k.Status()
	if len(status) != 2 || status[0].Name != "a" || status[1].Name != "b" {
		t.Fatalf("unexpected status %+v", status)
	}
	if err := k.Stop(context.Background(), "first"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if len(k.Status()) != 0 {
		t.Fatalf("actors left after stop: %+v", k.Status())
	}
	if err := k.Stop(context.Background(), "second"); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}
