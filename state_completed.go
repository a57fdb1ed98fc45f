package assoc

// completedState implements Completed: the sole terminal state. Entering
// it closes the connection and fulfills whatever Send/Abort callers are
// waiting. Its only outgoing transition is the explicit reuse escape hatch
// (EventResetForReuse), not a transition in the protocol sense — see
// SPEC_FULL.md §6.D.
type completedState struct {
	outcome Outcome
}

func newCompletedState(outcome Outcome) *completedState {
	return &completedState{outcome: outcome}
}

func (s *completedState) kind() StateKind { return KindCompleted }

func (s *completedState) onEnter(m *machine) *transition {
	_ = m.port.Disconnect()
	m.completeSend(s.outcome)
	m.notifyAbortWaiters()
	return nil
}

func (s *completedState) onExit(m *machine) {}

func (s *completedState) handle(m *machine, ev Event) *transition {
	switch ev.Kind {
	case EventResetForReuse:
		return goTo(&idleState{})
	default:
		return nil
	}
}
