package assoc

import (
	"context"
	"time"
)

// releaseState implements ReleaseAssociation: request a graceful release
// and wait for the peer's A-RELEASE-RP, or time out.
type releaseState struct {
	timer *time.Timer
}

func newReleaseState() *releaseState { return &releaseState{} }

func (s *releaseState) kind() StateKind { return KindReleaseAssociation }

func (s *releaseState) onEnter(m *machine) *transition {
	s.timer = m.armTimer(TimeoutReleaseAssoc, m.timeouts.ReleaseTimeout)
	go func() {
		if err := m.port.SendAssociationRelease(context.Background()); err != nil {
			m.postEvent(Event{Kind: EventConnectionClosed, Err: err})
		}
	}()
	return nil
}

func (s *releaseState) onExit(m *machine) {
	m.cancelTimer(s.timer)
}

func (s *releaseState) handle(m *machine, ev Event) *transition {
	switch ev.Kind {
	case EventAssociationReleaseResponse:
		m.notifyReleased()
		return goTo(newCompletedState(Outcome{Kind: OutcomeReleasedCleanly}))
	case EventAbort:
		return goTo(newCompletedState(Outcome{Kind: OutcomeAbortedByPeer, Abort: ev.AbortInfo}))
	case EventConnectionClosed:
		return goTo(newCompletedState(Outcome{Kind: OutcomeConnectionLost, Cause: ev.Err}))
	case EventTimeout:
		if ev.TimeoutKind != TimeoutReleaseAssoc {
			return nil
		}
		return goTo(newAbortState(abortOrigin{kind: abortOriginTimeout, timeoutKind: TimeoutReleaseAssoc}))
	case EventCancel, EventUserAbort:
		return goTo(newAbortState(abortOrigin{kind: abortOriginCancel}))
	default:
		return nil
	}
}
