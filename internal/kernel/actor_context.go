package kernel

import (
	"fmt"
	"time"
)

const defaultSendTimeout = 5 * time.Second

type ActCtx struct {
	K    IKernel
	Self ActorID
}

// SendAsync fire-and-forgets.
func (c *ActCtx) SendAsync(to ActorID, payload any) error {
	return c.K.SendInternal(c.Self, to, payload, nil)
}

// SendSync sends and waits for a single reply.
func (c *ActCtx) SendSync(to ActorID, payload any) (Message, error) {
	return c.SendSyncWithTimeout(to, payload, defaultSendTimeout)
}

// SendSyncWithTimeout waits up to timeout for the reply. The reply channel
// is buffered so a late Reply never blocks the responder.
func (c *ActCtx) SendSyncWithTimeout(to ActorID, payload any, timeout time.Duration) (Message, error) {
	respCh := make(chan Message, 1)
	if err := c.K.SendInternal(c.Self, to, payload, respCh); err != nil {
		log.Warnf("error sending %T to %d from %d: %v", payload, to, c.Self, err)
		return Message{}, err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-respCh:
		return resp, nil
	case <-timer.C:
		log.Warnf("E_DEADLINE: reply timeout %v, from %d to %d, %T", timeout, c.Self, to, payload)
		return Message{}, fmt.Errorf("E_DEADLINE: reply timeout %v", timeout)
	}
}

// Reply answers a request if the sender is waiting for one.
func Reply(ctx *ActCtx, req Message, payload any) {
	if req.Resp != nil {
		req.Resp <- Message{From: ctx.Self, To: req.From, Payload: payload}
	}
}
