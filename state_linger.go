package assoc

import "time"

// lingerState implements Linger: the post-drain idle period during which a
// newly enqueued request is sent without re-negotiating the association.
type lingerState struct {
	timer *time.Timer
}

func newLingerState() *lingerState { return &lingerState{} }

func (s *lingerState) kind() StateKind { return KindLinger }

func (s *lingerState) onEnter(m *machine) *transition {
	s.timer = m.armTimer(TimeoutLinger, m.timeouts.LingerTimeout)
	return nil
}

func (s *lingerState) onExit(m *machine) {
	m.cancelTimer(s.timer)
}

func (s *lingerState) handle(m *machine, ev Event) *transition {
	switch ev.Kind {
	case EventUserEnqueue:
		// The append already happened in machine.dispatch; transitioning
		// back to Sending causes its onEnter to drain the queue, which
		// dispatches the request we just appended exactly once.
		return goTo(newSendingState(m.association))
	case EventTimeout:
		if ev.TimeoutKind != TimeoutLinger {
			return nil
		}
		return goTo(newReleaseState())
	case EventAbort:
		return goTo(newCompletedState(Outcome{Kind: OutcomeAbortedByPeer, Abort: ev.AbortInfo}))
	case EventConnectionClosed:
		return goTo(newCompletedState(Outcome{Kind: OutcomeConnectionLost, Cause: ev.Err}))
	case EventCancel, EventUserAbort:
		return goTo(newAbortState(abortOrigin{kind: abortOriginCancel}))
	default:
		return nil
	}
}
