package assoc

import (
	"context"
	"time"
)

// requestingState implements RequestAssociation: connect, propose the
// association, and wait for the peer's accept/reject (or time out).
type requestingState struct {
	timer *time.Timer
}

func (s *requestingState) kind() StateKind { return KindRequestAssociation }

func (s *requestingState) onEnter(m *machine) *transition {
	s.timer = m.armTimer(TimeoutRequestAssoc, m.timeouts.RequestTimeout)
	go func() {
		ctx := context.Background()
		if err := m.port.Connect(ctx); err != nil {
			m.postEvent(Event{Kind: EventConnectionClosed, Err: err})
			return
		}
		if err := m.port.SendAssociationRequest(ctx, m.buildAssociateParams()); err != nil {
			m.postEvent(Event{Kind: EventConnectionClosed, Err: err})
		}
	}()
	return nil
}

func (s *requestingState) onExit(m *machine) {
	m.cancelTimer(s.timer)
}

func (s *requestingState) handle(m *machine, ev Event) *transition {
	switch ev.Kind {
	case EventAssociationAccept:
		m.association = ev.Association
		return goTo(newSendingState(ev.Association))
	case EventAssociationReject:
		m.notifyRejected(*ev.Reject)
		return goTo(newCompletedState(Outcome{Kind: OutcomeRejectedByPeer, Reject: ev.Reject}))
	case EventAbort:
		return goTo(newCompletedState(Outcome{Kind: OutcomeAbortedByPeer, Abort: ev.AbortInfo}))
	case EventConnectionClosed:
		return goTo(newCompletedState(Outcome{Kind: OutcomeConnectionLost, Cause: ev.Err}))
	case EventTimeout:
		if ev.TimeoutKind != TimeoutRequestAssoc {
			return nil
		}
		return goTo(newAbortState(abortOrigin{kind: abortOriginTimeout, timeoutKind: TimeoutRequestAssoc}))
	case EventCancel, EventUserAbort:
		return goTo(newAbortState(abortOrigin{kind: abortOriginCancel}))
	default:
		return nil
	}
}
