package assoc

import (
	"fmt"

	"github.com/sigdicom/dicom-assoc/dimse"
	"github.com/sigdicom/dicom-assoc/pdu"
)

// EventKind discriminates the events the driver dispatches to the current
// state. It covers the inbound events from the connection (§4.A), the user
// actions from the facade, and the state-local internal triggers —
// everything funnels through one vocabulary because the driver consumes a
// single event queue (see SPEC_FULL.md §6.E).
type EventKind int

const (
	// Inbound, from the connection port.
	EventAssociationAccept EventKind = iota
	EventAssociationReject
	EventAssociationReleaseResponse
	EventAbort
	EventConnectionClosed
	EventRequestCompleted
	EventSendQueueEmpty

	// User actions, from the facade.
	EventUserEnqueue
	EventUserSend
	EventUserAbort
	EventCancel

	// Internal triggers.
	EventTimeout
	// EventAbortAcked is posted once the best-effort SendAbort call made by
	// the Abort state's onEnter completes; it is one of the Abort state's
	// four race-of-four sources.
	EventAbortAcked
	// EventResetForReuse is the one event Completed ever reacts to: it
	// re-arms the machine at Idle so a Client can be reused for a new
	// association cycle (see SPEC_FULL.md §6.D Completed).
	EventResetForReuse
)

func (k EventKind) String() string {
	switch k {
	case EventAssociationAccept:
		return "AssociationAccept"
	case EventAssociationReject:
		return "AssociationReject"
	case EventAssociationReleaseResponse:
		return "AssociationReleaseResponse"
	case EventAbort:
		return "Abort"
	case EventConnectionClosed:
		return "ConnectionClosed"
	case EventRequestCompleted:
		return "RequestCompleted"
	case EventSendQueueEmpty:
		return "SendQueueEmpty"
	case EventUserEnqueue:
		return "Enqueue"
	case EventUserSend:
		return "Send"
	case EventUserAbort:
		return "AbortRequest"
	case EventCancel:
		return "Cancel"
	case EventTimeout:
		return "Timeout"
	case EventAbortAcked:
		return "AbortAcked"
	case EventResetForReuse:
		return "ResetForReuse"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// TimeoutKind names which armed timer fired.
type TimeoutKind int

const (
	TimeoutRequestAssoc TimeoutKind = iota
	TimeoutReleaseAssoc
	TimeoutLinger
	TimeoutAbortAck
)

func (k TimeoutKind) String() string {
	switch k {
	case TimeoutRequestAssoc:
		return "RequestAssoc"
	case TimeoutReleaseAssoc:
		return "ReleaseAssoc"
	case TimeoutLinger:
		return "Linger"
	case TimeoutAbortAck:
		return "AbortAck"
	default:
		return fmt.Sprintf("TimeoutKind(%d)", int(k))
	}
}

// Event is the single envelope carrying every event kind the driver
// handles. Only the fields relevant to Kind are populated; this is Go's
// idiomatic stand-in for a tagged union (see SPEC_FULL.md §6.A).
type Event struct {
	Kind EventKind

	Association *pdu.Association
	Reject      *pdu.RejectInfo
	AbortInfo   *pdu.AbortInfo
	Err         error // ConnectionClosed cause, if any

	Request  *Request        // EventUserEnqueue
	Response *dimse.Response // EventRequestCompleted

	TimeoutKind TimeoutKind // EventTimeout

	// ResultCh is set on EventUserSend; the driver writes the terminal
	// Outcome to it exactly once, from Completed.onEnter (or immediately,
	// for the empty-queue boundary case).
	ResultCh chan Outcome
}

func (e Event) String() string {
	return fmt.Sprintf("event{kind:%s err:%v}", e.Kind, e.Err)
}
