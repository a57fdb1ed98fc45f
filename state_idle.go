package assoc

// idleState is the machine's starting point and the state a completed
// machine returns to when the client is reused for another association
// cycle (SPEC_FULL.md §6.D Idle / Completed).
type idleState struct{}

func (s *idleState) kind() StateKind { return KindIdle }

func (s *idleState) onEnter(m *machine) *transition { return nil }
func (s *idleState) onExit(m *machine)              {}

func (s *idleState) handle(m *machine, ev Event) *transition {
	switch ev.Kind {
	case EventUserEnqueue:
		// Already appended by machine.dispatch; nothing state-local to do.
		return nil
	case EventUserSend:
		m.setSendResult(ev.ResultCh)
		if m.queue.IsEmpty() {
			// Boundary behavior: send on an empty queue completes
			// immediately without ever entering RequestAssociation.
			m.completeSend(Outcome{Kind: OutcomeReleasedCleanly})
			return nil
		}
		return goTo(&requestingState{})
	case EventCancel, EventUserAbort:
		return goTo(newAbortState(abortOrigin{kind: abortOriginCancel}))
	default:
		// All inbound connection events are ignored: the connection is
		// not yet established.
		return nil
	}
}
