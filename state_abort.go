package assoc

import (
	"context"
	"time"

	"github.com/sigdicom/dicom-assoc/pdu"
)

type abortOriginKind int

const (
	abortOriginCancel abortOriginKind = iota
	abortOriginTimeout
)

// abortOrigin records why the machine entered Abort, so Completed can
// report the outcome the base spec requires (TimedOut{kind} for a timeout
// origin, AbortedLocally for a cancellation origin) regardless of which of
// the four race sources actually won — see SPEC_FULL.md OQ-2.
type abortOrigin struct {
	kind        abortOriginKind
	timeoutKind TimeoutKind
}

func (o abortOrigin) outcome() Outcome {
	switch o.kind {
	case abortOriginTimeout:
		return Outcome{Kind: OutcomeTimedOut, TimeoutKind: o.timeoutKind}
	default:
		return Outcome{Kind: OutcomeAbortedLocally}
	}
}

// abortState implements Abort: the race-of-four described in
// SPEC_FULL.md §6.D / base spec §4.D. Because every event source in this
// implementation already funnels through the driver's single event queue
// (SPEC_FULL.md §6.E), the race is realized by the four event kinds below
// all being legal here — whichever the driver dequeues first wins, and the
// other three arrive to a state (Completed) that ignores them, which is
// exactly "first winner only" (OQ-2).
type abortState struct {
	origin abortOrigin
	timer  *time.Timer
}

func newAbortState(origin abortOrigin) *abortState {
	return &abortState{origin: origin}
}

func (s *abortState) kind() StateKind { return KindAbort }

func (s *abortState) onEnter(m *machine) *transition {
	s.timer = m.armTimer(TimeoutAbortAck, abortAckTimeout)
	go func() {
		// Best-effort: completion only signals the abort was handed to
		// the transport, never that the peer acknowledged it.
		_ = m.port.SendAbort(context.Background(), pdu.AbortSourceServiceUser, pdu.AbortReasonNotSpecified)
		m.postEvent(Event{Kind: EventAbortAcked})
	}()
	return nil
}

func (s *abortState) onExit(m *machine) {
	m.cancelTimer(s.timer)
}

func (s *abortState) handle(m *machine, ev Event) *transition {
	switch ev.Kind {
	case EventAbortAcked, EventAbort, EventConnectionClosed:
		return goTo(newCompletedState(s.origin.outcome()))
	case EventTimeout:
		if ev.TimeoutKind != TimeoutAbortAck {
			return nil
		}
		return goTo(newCompletedState(s.origin.outcome()))
	default:
		// AbortRequest, Send, Cancel, and anything else: ignored.
		return nil
	}
}
