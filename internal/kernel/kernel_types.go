package kernel

import (
	"reflect"
	"sync/atomic"
)

type ActorID int64

type Rights uint64

const (
	RightRead  Rights = 1 << iota // e.g., scopes.lookup, signals.waiters
	RightWrite                    // e.g., scopes.insert, journal.write
	RightExec                     // e.g., jobs.cancel
)

// OpRights declares what rights are required to invoke a given op on a service.
type OpRights map[reflect.Type]Rights

// Capability binds a sender to a target service actor with specific rights.
type Capability struct {
	ID      int64
	Target  ActorID
	Rights  Rights
	Revoked atomic.Bool
}

type Message struct {
	From    ActorID
	To      ActorID
	Payload any
	Resp    chan Message // optional synchronous reply channel
}

type Actor struct {
	Id      ActorID
	Name    string
	inbox   chan Message
	done    chan struct{}
	handler Handler
	Caps    map[int64]*Capability // by cap ID
	// simple accounting
	CpuOps uint64
	IpcIn  uint64
	IpcOut uint64
}

type IKernel interface {
	ActorByName(name string) (ActorID, bool)
	SendInternal(from ActorID, to ActorID, payload any, respCh chan Message) error
}

// ActorStatus is a point-in-time view of one actor.
type ActorStatus struct {
	ID     ActorID
	Name   string
	CPUOps uint64
	IPCIn  uint64
	IPCOut uint64
	Caps   int
}

// Actor handler is a function invoked for each incoming message.
// ==============================================================

type Handler func(ctx *ActCtx, msg Message) HandlerSignal

type HandlerSignal interface {
	Signal()
}

type Continue struct{}

func (c Continue) Signal() {}

type Terminate struct {
	Reason string
}

func (t Terminate) Signal() {}

type Error struct {
	Err error
}

func (e Error) Signal() {}
