// Package assoc implements the client-side DICOM Upper Layer association
// state machine: the component that drives a single association through
// idle → requesting → active → lingering → releasing (or aborting) →
// completed, on top of a Port (see port.go) that owns PDU encoding and
// transport. See SPEC_FULL.md for the full design.
package assoc

import (
	"context"

	"github.com/sigdicom/dicom-assoc/pdu"
)

// Client is the public facade (component F): the user-facing
// submit-request / send / abort / subscribe surface wrapping the driver.
//
// A Client drives at most one association at a time; concurrent calls to
// Send are not supported (matching the base spec's "one client drives at
// most one association at a time, serialized").
type Client struct {
	m *machine
}

// NewClient constructs a Client bound to port, with the given association
// parameters and timeouts, and starts its driver goroutine.
func NewClient(port Port, params Params, timeouts Timeouts) *Client {
	m := newMachine(port, params, timeouts)
	c := &Client{m: m}
	go m.run()
	go c.pumpPortEvents()
	return c
}

// pumpPortEvents forwards the Port's single-consumer event stream into the
// driver's event queue. It exits when the Port closes its Events channel.
func (c *Client) pumpPortEvents() {
	for ev := range c.m.port.Events() {
		c.m.postEvent(ev)
	}
}

// AddRequest enqueues req for dispatch. Non-blocking; always succeeds; no
// feedback is given until req.OnResponse fires.
func (c *Client) AddRequest(req *Request) {
	c.m.postEvent(Event{Kind: EventUserEnqueue, Request: req})
}

// Send drains the request queue over one association cycle and blocks
// until that cycle reaches Completed, returning the terminal Outcome. If
// the machine is currently Completed (a Client being reused), Send first
// re-arms it at Idle. If the queue is empty, Send returns
// OutcomeReleasedCleanly at once and the machine stays Idle.
//
// ctx's cancellation maps onto the Cancel event: every non-terminal state
// responds to it by transitioning to Abort.
func (c *Client) Send(ctx context.Context) (Outcome, error) {
	if c.m.stateKind() == KindCompleted {
		c.m.postEvent(Event{Kind: EventResetForReuse})
	}
	resultCh := make(chan Outcome, 1)
	c.m.postEvent(Event{Kind: EventUserSend, ResultCh: resultCh})

	if ctx == nil {
		return <-resultCh, nil
	}
	select {
	case outcome := <-resultCh:
		return outcome, nil
	case <-ctx.Done():
		c.m.postEvent(Event{Kind: EventCancel})
		outcome := <-resultCh
		return outcome, nil
	}
}

// Abort triggers a transition to Abort from any non-terminal state and
// blocks until the machine reaches Completed. Concurrent Abort calls
// coalesce: every caller's wait is satisfied by the same Completed entry.
func (c *Client) Abort(ctx context.Context) error {
	if c.m.stateKind() == KindCompleted {
		return nil
	}
	done := make(chan struct{})
	c.m.addAbortWaiter(done)
	c.m.postEvent(Event{Kind: EventUserAbort})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the driver goroutine. The port-event pump keeps running until
// the Port closes its Events channel. Close does not itself abort an
// in-flight association; call Abort first if one is live.
func (c *Client) Close() {
	c.m.stop()
}

// State returns the machine's current state kind, for diagnostics.
func (c *Client) State() StateKind {
	return c.m.stateKind()
}

// Trace returns the machine's bounded transition history, oldest first.
func (c *Client) Trace() []transitionRecord {
	return c.m.Trace()
}

// OnAssociationAccepted registers a callback invoked each time the Sending
// state is entered: once when the peer accepts the association, and again
// on every return from Linger to Sending. Callbacks run on the driver's
// goroutine and must not call back into Send/Abort synchronously.
func (c *Client) OnAssociationAccepted(cb func(pdu.Association)) {
	c.m.onAssociationAccepted(cb)
}

// OnAssociationRejected registers a callback invoked when the peer rejects
// the association.
func (c *Client) OnAssociationRejected(cb func(pdu.RejectInfo)) {
	c.m.onAssociationRejected(cb)
}

// OnAssociationReleased registers a callback invoked when a graceful
// release completes.
func (c *Client) OnAssociationReleased(cb func()) {
	c.m.onAssociationReleased(cb)
}

// OnStateChanged registers a callback invoked on every transition, in the
// order the transitions occurred.
func (c *Client) OnStateChanged(cb func(old, new StateKind)) {
	c.m.onStateChanged(cb)
}
