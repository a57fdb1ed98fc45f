// Package testport provides a deterministic, in-memory assoc.Port used by
// the root package's tests: a scripted fake transport plus a small fault
// injector, modeled on the teacher lineage's FaultInjector (see
// yasushi-saito-go-netdicom/faultinjector.go) but adapted from a fuzzing
// tool into a test double a case can drive step by step.
package testport

import (
	"context"
	"fmt"
	"sync"

	"github.com/sigdicom/dicom-assoc"
	"github.com/sigdicom/dicom-assoc/dimse"
	"github.com/sigdicom/dicom-assoc/pdu"
)

// Call records one invocation made against a Port, for tests that want to
// assert on what the driver sent without decoding real PDUs.
type Call struct {
	Name   string
	Params pdu.AssociateParams
	Req    *assoc.Request
	Source pdu.AbortSource
	Reason pdu.AbortReason
}

// Port is a scripted assoc.Port: every outbound method either returns a
// canned error (set via the Fail* fields) or records a Call and succeeds,
// unless Injector turns that recorded call into a failure.
// Inbound events are delivered by calling the Inject* methods from the
// test goroutine; Port serializes them onto its Events() channel in the
// order injected, same as the ordering guarantee the real interface
// documents.
type Port struct {
	FailConnect               error
	FailSendAssociationRequest error
	FailSendRequest           error
	FailSendAssociationRelease error
	FailSendAbort             error

	// Injector, if set, is consulted after every successful outbound call
	// (Connect, SendAssociationRequest, SendRequest,
	// SendAssociationRelease, SendAbort) and can convert it into a
	// connection failure (see faults.go).
	Injector *Injector

	mu        sync.Mutex
	calls     []Call
	connected bool
	closed    bool

	events chan assoc.Event
}

// New returns a Port ready to use; its Events channel has the same
// buffering the teacher's upcallCh uses (128) so Inject* calls make ahead
// of the driver reading them do not block.
func New() *Port {
	return &Port{events: make(chan assoc.Event, 128)}
}

func (p *Port) record(c Call) {
	p.mu.Lock()
	p.calls = append(p.calls, c)
	p.mu.Unlock()
}

// Calls returns a snapshot of every call recorded so far, in order.
func (p *Port) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// fault consults Injector, if set, after a call has already been recorded
// as having happened; a non-nil return replaces the call's normal success
// with the injected connection-loss error.
func (p *Port) fault(name string) error {
	if p.Injector == nil {
		return nil
	}
	return p.Injector.afterSend(p, name)
}

func (p *Port) Connect(ctx context.Context) error {
	if p.FailConnect != nil {
		return p.FailConnect
	}
	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()
	p.record(Call{Name: "Connect"})
	return p.fault("Connect")
}

func (p *Port) SendAssociationRequest(ctx context.Context, params pdu.AssociateParams) error {
	if p.FailSendAssociationRequest != nil {
		return p.FailSendAssociationRequest
	}
	p.record(Call{Name: "SendAssociationRequest", Params: params})
	return p.fault("SendAssociationRequest")
}

func (p *Port) SendRequest(ctx context.Context, req *assoc.Request) error {
	if p.FailSendRequest != nil {
		return p.FailSendRequest
	}
	p.record(Call{Name: "SendRequest", Req: req})
	return p.fault("SendRequest")
}

func (p *Port) SendAssociationRelease(ctx context.Context) error {
	if p.FailSendAssociationRelease != nil {
		return p.FailSendAssociationRelease
	}
	p.record(Call{Name: "SendAssociationRelease"})
	return p.fault("SendAssociationRelease")
}

func (p *Port) SendAbort(ctx context.Context, source pdu.AbortSource, reason pdu.AbortReason) error {
	if p.FailSendAbort != nil {
		return p.FailSendAbort
	}
	p.record(Call{Name: "SendAbort", Source: source, Reason: reason})
	return p.fault("SendAbort")
}

func (p *Port) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.connected = false
	return nil
}

func (p *Port) Events() <-chan assoc.Event {
	return p.events
}

// Inject posts ev directly onto the event stream, preserving call order
// with whatever else has already been injected.
func (p *Port) Inject(ev assoc.Event) {
	p.events <- ev
}

// InjectAccept is shorthand for the A-ASSOCIATE-AC inbound event.
func (p *Port) InjectAccept(a pdu.Association) {
	p.Inject(assoc.Event{Kind: assoc.EventAssociationAccept, Association: &a})
}

// InjectReject is shorthand for the A-ASSOCIATE-RJ inbound event.
func (p *Port) InjectReject(r pdu.RejectInfo) {
	p.Inject(assoc.Event{Kind: assoc.EventAssociationReject, Reject: &r})
}

// InjectReleaseResponse is shorthand for the A-RELEASE-RP inbound event.
func (p *Port) InjectReleaseResponse() {
	p.Inject(assoc.Event{Kind: assoc.EventAssociationReleaseResponse})
}

// InjectAbort is shorthand for a peer-initiated A-ABORT.
func (p *Port) InjectAbort(info pdu.AbortInfo) {
	p.Inject(assoc.Event{Kind: assoc.EventAbort, AbortInfo: &info})
}

// InjectConnectionClosed is shorthand for an unexpected transport close.
func (p *Port) InjectConnectionClosed(err error) {
	p.Inject(assoc.Event{Kind: assoc.EventConnectionClosed, Err: err})
}

// InjectResponse is shorthand for a DIMSE response arriving for an
// outstanding request.
func (p *Port) InjectResponse(resp *dimse.Response) {
	p.Inject(assoc.Event{Kind: assoc.EventRequestCompleted, Response: resp})
}

// InjectSendQueueEmpty is shorthand for the connection layer reporting its
// outbound pipeline has drained.
func (p *Port) InjectSendQueueEmpty() {
	p.Inject(assoc.Event{Kind: assoc.EventSendQueueEmpty})
}

// Close closes the event channel; call once, after the test no longer
// needs to inject events, to let pumpPortEvents's range loop exit.
func (p *Port) Close() {
	close(p.events)
}

func (c Call) String() string {
	return fmt.Sprintf("call{%s}", c.Name)
}
