package assoc

import (
	"context"

	"github.com/sigdicom/dicom-assoc/pdu"
)

// Port is the abstraction the state machine uses to drive an actual DICOM
// Upper Layer connection. It is a pure interface — PDU encoding, TCP/TLS
// transport, and presentation-context negotiation tables all live on the
// other side of it (see SPEC_FULL.md §1 scope).
//
// Ordering guarantee: events read from Events() are delivered in the order
// the implementation received them from the wire or from local completion;
// a ConnectionClosed event is always the last event emitted for a given
// association.
type Port interface {
	// Connect establishes the transport. Returns ConnectionFailure-class
	// errors; the caller reacts by treating this the same as an early
	// ConnectionClosed.
	Connect(ctx context.Context) error

	// SendAssociationRequest writes an A-ASSOCIATE-RQ built from params.
	SendAssociationRequest(ctx context.Context, params pdu.AssociateParams) error

	// SendRequest enqueues req on the transport's outbound send pipeline.
	SendRequest(ctx context.Context, req *Request) error

	// SendAssociationRelease is best-effort: completion signals the
	// release request was handed to the transport, not that the peer
	// acknowledged it.
	SendAssociationRelease(ctx context.Context) error

	// SendAbort is best-effort, same caveat as SendAssociationRelease.
	SendAbort(ctx context.Context, source pdu.AbortSource, reason pdu.AbortReason) error

	// Disconnect idempotently closes the transport.
	Disconnect() error

	// Events returns the single-consumer stream of inbound events. The
	// driver is the sole consumer.
	Events() <-chan Event
}
