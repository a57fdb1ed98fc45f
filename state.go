package assoc

import "fmt"

// StateKind names the seven state variants for logging, tracing, and the
// StateChanged notification — it never drives behavior itself, the
// concrete state value does (see Design Note in SPEC_FULL.md §6.D).
type StateKind int

const (
	KindIdle StateKind = iota
	KindRequestAssociation
	KindSending
	KindLinger
	KindReleaseAssociation
	KindAbort
	KindCompleted
)

func (k StateKind) String() string {
	switch k {
	case KindIdle:
		return "Idle"
	case KindRequestAssociation:
		return "RequestAssociation"
	case KindSending:
		return "Sending"
	case KindLinger:
		return "Linger"
	case KindReleaseAssociation:
		return "ReleaseAssociation"
	case KindAbort:
		return "Abort"
	case KindCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// state is the interface every one of the seven state variants
// implements. Event handling that a state does not mention in SPEC_FULL.md
// falls through to the default "ignored" case — handle returns nil.
type state interface {
	kind() StateKind

	// onEnter runs synchronously as the last step of a transition. A
	// non-nil return requests a further, immediate transition, re-entering
	// the driver's transition protocol at step 1 (SPEC_FULL.md §6.E step
	// 7). None of the seven states currently need this, but the hook
	// exists because the base spec calls it out as part of the driver
	// contract, not as an implementation detail of one state.
	onEnter(m *machine) *transition

	// onExit runs synchronously as the first step of leaving this state.
	// It must release every timer and waiter this state owns and must not
	// itself request a transition.
	onExit(m *machine)

	// handle reacts to one event. A nil return means "stay in this
	// state" (either because the event was consumed with only a
	// side-effect, or because it is not recognized here and is ignored
	// per SPEC_FULL.md §6.D).
	handle(m *machine, ev Event) *transition
}

// transition names the next state a handle() call requests.
type transition struct {
	next state
}

func goTo(s state) *transition { return &transition{next: s} }
