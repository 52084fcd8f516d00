package kernel

// The kernel hosts actors. Every actor owns an inbox and a goroutine that
// drains it, so state behind an actor is only ever touched by one goroutine.
// Services are actors with an op→rights table; senders need a capability
// granting those rights before the kernel will enqueue a message.

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	inboxSize   = 256
	busyTimeout = 2 * time.Second
)

var ErrStopped = errors.New("E_STOPPED: kernel is stopped")

type Kernel struct {
	mu          sync.RWMutex
	nextActorID int64
	nextCapID   int64
	actors      map[ActorID]*Actor
	nameIdx     map[string]ActorID // convenient lookup by Name
	opsBySvc    map[ActorID]OpRights
	running     sync.WaitGroup
	stopped     bool
}

func NewKernel() *Kernel {
	return &Kernel{
		actors:   make(map[ActorID]*Actor),
		nameIdx:  make(map[string]ActorID),
		opsBySvc: make(map[ActorID]OpRights),
	}
}

// RegisterActor wires an actor into the kernel.
func (k *Kernel) RegisterActor(name string, handler Handler) ActorID {
	k.mu.Lock()
	defer k.mu.Unlock()
	id := ActorID(k.nextActorID)
	k.nextActorID++
	act := &Actor{
		Id:      id,
		Name:    name,
		inbox:   make(chan Message, inboxSize),
		done:    make(chan struct{}),
		handler: handler,
		Caps:    make(map[int64]*Capability),
	}
	k.actors[id] = act
	if name != "" {
		k.nameIdx[name] = id
	}
	k.running.Add(1)
	go k.runActor(act)
	return id
}

// RegisterService declares a service (actor) with an op→rights mapping, enabling cap checks.
func (k *Kernel) RegisterService(name string, ops OpRights, handler Handler) ActorID {
	id := k.RegisterActor(name, handler)
	k.mu.Lock()
	k.opsBySvc[id] = ops
	k.mu.Unlock()
	return id
}

func (k *Kernel) runActor(a *Actor) {
	defer k.running.Done()
	ctx := &ActCtx{K: k, Self: a.Id}
	for msg := range a.inbox {
		if exit, ok := msg.Payload.(Exit); ok {
			a.handler(ctx, Message{From: msg.From, To: a.Id, Payload: Shutdown(exit)})
			k.cleanupActor(a, exit.Reason)
			Reply(ctx, msg, nil)
			return
		}

		atomic.AddUint64(&a.IpcIn, 1)
		start := time.Now()
		sig := a.handler(ctx, msg)
		atomic.AddUint64(&a.CpuOps, uint64(time.Since(start).Microseconds()))

		switch signal := sig.(type) {
		case nil, Continue:
			continue
		case Terminate:
			k.cleanupActor(a, signal.Reason)
			return
		case Error:
			log.Errorf("actor %d (%s) reported error: %v", a.Id, a.Name, signal.Err)
		}
	}
}

// cleanupActor removes the actor from kernel tracking and revokes its capabilities.
// The inbox is left open; senders observe done and fail fast.
func (k *Kernel) cleanupActor(a *Actor, reason string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	log.Infof("cleaning up actor %d (%s): %s", a.Id, a.Name, reason)

	delete(k.actors, a.Id)
	if a.Name != "" && k.nameIdx[a.Name] == a.Id {
		delete(k.nameIdx, a.Name)
	}
	delete(k.opsBySvc, a.Id)
	for _, c := range a.Caps {
		c.Revoked.Store(true)
	}
	close(a.done)
}

// GrantCap issues a capability from kernel to a specific actor.
func (k *Kernel) GrantCap(to ActorID, target ActorID, rights Rights) *Capability {
	k.mu.Lock()
	defer k.mu.Unlock()
	capID := k.nextCapID
	k.nextCapID++
	capability := &Capability{ID: capID, Target: target, Rights: rights}
	if a, ok := k.actors[to]; ok {
		a.Caps[capID] = capability
		return capability
	}
	return nil
}

// resolveRights returns required rights for an op against a target service.
func (k *Kernel) resolveRights(target ActorID, op reflect.Type) (Rights, bool) {
	k.mu.RLock()
	ops, ok := k.opsBySvc[target]
	k.mu.RUnlock()
	if !ok {
		return 0, false
	}
	r, ok := ops[op]
	return r, ok
}

// hasCap checks if sender owns a non-revoked cap to target with required rights.
func (k *Kernel) hasCap(sender ActorID, target ActorID, want Rights) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	a := k.actors[sender]
	if a == nil {
		return false
	}
	for _, c := range a.Caps {
		if c.Target == target && !c.Revoked.Load() && (c.Rights&want) == want {
			return true
		}
	}
	return false
}

func (k *Kernel) isPermitted(from ActorID, to ActorID, payload any) error {
	if payload == nil {
		log.Warnf("E_POLICY: nil payload from %d to target %d", from, to)
		return fmt.Errorf("E_POLICY: nil payload to target %d", to)
	}
	k.mu.RLock()
	_, isService := k.opsBySvc[to]
	k.mu.RUnlock()
	if !isService {
		// plain actors accept anything
		return nil
	}
	rights, ok := k.resolveRights(to, reflect.TypeOf(payload))
	if !ok {
		log.Warnf("E_POLICY: no defined rights for op %T from %d to target %d", payload, from, to)
		return fmt.Errorf("E_POLICY: no defined rights for op %T to target %d", payload, to)
	}
	if !k.hasCap(from, to, rights) {
		log.Warnf("E_POLICY: cap not granted for rights=%v for op %T from %d to target %d", rights, payload, from, to)
		return fmt.Errorf("E_POLICY: cap not granted for rights=%v for op %T to target %d", rights, payload, to)
	}
	return nil
}

// SendInternal enqueues a message, enforcing capability checks for service ops.
func (k *Kernel) SendInternal(from ActorID, to ActorID, payload any, resp chan Message) error {
	if err := k.isPermitted(from, to, payload); err != nil {
		return err
	}
	target := k.getActor(to)
	if target == nil {
		log.Warnf("E_NO_SUCH: target actor, from %d to %d", from, to)
		return errors.New("E_NO_SUCH: target actor")
	}
	msg := Message{From: from, To: to, Payload: payload, Resp: resp}
	timer := time.NewTimer(busyTimeout)
	defer timer.Stop()
	select {
	case target.inbox <- msg:
		if a := k.getActor(from); a != nil {
			atomic.AddUint64(&a.IpcOut, 1)
		}
		return nil
	case <-target.done:
		return errors.New("E_NO_SUCH: target actor exited")
	case <-timer.C:
		log.Warnf("E_BUSY: target inbox full, from %d to %d", from, to)
		return errors.New("E_BUSY: target inbox full")
	}
}

func (k *Kernel) getActor(id ActorID) *Actor {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.actors[id]
}

// ActorByName is the Name→ActorID lookup helper.
func (k *Kernel) ActorByName(name string) (ActorID, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	id, ok := k.nameIdx[name]
	return id, ok
}

// Stop sends Exit to every actor in reverse registration order and waits
// until each actor loop has returned, or ctx is done.
func (k *Kernel) Stop(ctx context.Context, reason string) error {
	k.mu.Lock()
	if k.stopped {
		k.mu.Unlock()
		return ErrStopped
	}
	k.stopped = true
	actors := make([]*Actor, 0, len(k.actors))
	for _, a := range k.actors {
		actors = append(actors, a)
	}
	k.mu.Unlock()

	sort.Slice(actors, func(i, j int) bool { return actors[i].Id > actors[j].Id })
	for _, a := range actors {
		resp := make(chan Message, 1)
		select {
		case a.inbox <- Message{To: a.Id, Payload: Exit{Reason: reason}, Resp: resp}:
		case <-a.done:
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case <-resp:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	finished := make(chan struct{})
	go func() {
		k.running.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of all live actors ordered by id.
func (k *Kernel) Status() []ActorStatus {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]ActorStatus, 0, len(k.actors))
	for id, a := range k.actors {
		out = append(out, ActorStatus{
			ID:     id,
			Name:   a.Name,
			CPUOps: atomic.LoadUint64(&a.CpuOps),
			IPCIn:  atomic.LoadUint64(&a.IpcIn),
			IPCOut: atomic.LoadUint64(&a.IpcOut),
			Caps:   len(a.Caps),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
