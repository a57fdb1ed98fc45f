package assoc

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sigdicom/dicom-assoc/pdu"
)

// transitionRecord is one entry in the bounded trace ring the driver keeps
// for diagnostics (SPEC_FULL.md §10 supplemented feature), modeled on the
// teacher lineage's FaultInjector.stateHistory.
type transitionRecord struct {
	old StateKind
	new StateKind
}

const traceCapacity = 64

// machine is the state machine driver (component E). It owns the current
// state, the single event queue every event source posts into, and the
// subscriber registries. All transitions run on the goroutine that calls
// run(); every other method is safe to call from any goroutine because it
// only ever posts an Event or reads an atomic/mutex-guarded snapshot.
type machine struct {
	port     Port
	queue    *Queue
	params   Params
	timeouts Timeouts

	eventCh chan Event
	stopCh  chan struct{}

	current     state
	currentKind atomic.Int32

	association *pdu.Association

	mu           sync.Mutex
	sendResult   chan Outcome
	abortWaiters []chan struct{}

	subsMu     sync.Mutex
	onAccepted []func(pdu.Association)
	onRejected []func(pdu.RejectInfo)
	onReleased []func()
	onChanged  []func(old, new StateKind)

	traceMu sync.Mutex
	trace   []transitionRecord
}

func newMachine(port Port, params Params, timeouts Timeouts) *machine {
	m := &machine{
		port:     port,
		queue:    NewQueue(),
		params:   params,
		timeouts: timeouts,
		eventCh:  make(chan Event, 256),
		stopCh:   make(chan struct{}),
	}
	m.current = &idleState{}
	m.currentKind.Store(int32(KindIdle))
	m.current.onEnter(m)
	return m
}

// postEvent enqueues ev without ever blocking the caller, satisfying the
// concurrency contract that a StateChanged subscriber calling back into
// Send/Abort synchronously "is defined to enqueue and return" rather than
// deadlock against the driver's own goroutine.
func (m *machine) postEvent(ev Event) {
	select {
	case m.eventCh <- ev:
	default:
		go func() { m.eventCh <- ev }()
	}
}

// run is the driver's single logical executor: one goroutine, one event
// queue, no locks held across a suspension point (SPEC_FULL.md §7).
func (m *machine) run() {
	for {
		select {
		case ev := <-m.eventCh:
			m.dispatch(ev)
		case <-m.stopCh:
			return
		}
	}
}

func (m *machine) stop() {
	close(m.stopCh)
}

func (m *machine) stateKind() StateKind {
	return StateKind(m.currentKind.Load())
}

// dispatch applies one event to the current state, then performs the
// transition protocol from SPEC_FULL.md §6.E if the state requested one.
//
// EventUserEnqueue is special-cased here, not in every state: the request
// queue is accessible from every state (invariant 2), so the append always
// happens regardless of which state is current; a state's own handle() is
// still invoked afterward so Sending/Linger can react further (immediate
// dispatch, or transition back to Sending).
func (m *machine) dispatch(ev Event) {
	if ev.Kind == EventUserEnqueue {
		m.queue.Enqueue(ev.Request)
	}
	logDebugf("assoc: state %s event %s", m.current.kind(), ev)
	t := m.current.handle(m, ev)
	if t == nil {
		return
	}
	m.transitionTo(t.next)
}

// transitionTo runs the seven-step protocol from SPEC_FULL.md §6.E: it
// must not be reordered, and onEnter may itself request a further
// transition (handled by recursing here).
func (m *machine) transitionTo(next state) {
	old := m.current
	logInfof("assoc: state_changing %s -> %s", old.kind(), next.kind())
	old.onExit(m)
	m.current = next
	m.currentKind.Store(int32(next.kind()))
	m.recordTransition(old.kind(), next.kind())
	m.notifyStateChanged(old.kind(), next.kind())
	if t := next.onEnter(m); t != nil {
		m.transitionTo(t.next)
	}
}

func (m *machine) recordTransition(old, new StateKind) {
	m.traceMu.Lock()
	defer m.traceMu.Unlock()
	m.trace = append(m.trace, transitionRecord{old, new})
	if len(m.trace) > traceCapacity {
		m.trace = m.trace[len(m.trace)-traceCapacity:]
	}
}

// Trace returns a snapshot of the last (at most traceCapacity) transitions
// the machine has made, oldest first. It is a diagnostics aid, not part of
// the association protocol (SPEC_FULL.md §10).
func (m *machine) Trace() []transitionRecord {
	m.traceMu.Lock()
	defer m.traceMu.Unlock()
	out := make([]transitionRecord, len(m.trace))
	copy(out, m.trace)
	return out
}

func (m *machine) armTimer(kind TimeoutKind, d time.Duration) *time.Timer {
	return time.AfterFunc(d, func() {
		m.postEvent(Event{Kind: EventTimeout, TimeoutKind: kind})
	})
}

func (m *machine) cancelTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// completeSend fulfills the outstanding Client.Send future, if any, with
// outcome. It is idempotent: once fulfilled, sendResult is cleared so a
// later Completed re-entry (after EventResetForReuse and a fresh Send)
// does not double-write a stale channel.
func (m *machine) completeSend(outcome Outcome) {
	m.mu.Lock()
	ch := m.sendResult
	m.sendResult = nil
	m.mu.Unlock()
	if ch != nil {
		ch <- outcome
	}
}

func (m *machine) setSendResult(ch chan Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doassert(m.sendResult == nil, "overlapping Client.Send calls on one machine", m.sendResult)
	m.sendResult = ch
}

func (m *machine) addAbortWaiter(ch chan struct{}) {
	m.mu.Lock()
	m.abortWaiters = append(m.abortWaiters, ch)
	m.mu.Unlock()
}

func (m *machine) notifyAbortWaiters() {
	m.mu.Lock()
	waiters := m.abortWaiters
	m.abortWaiters = nil
	m.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

func (m *machine) onAssociationAccepted(cb func(pdu.Association)) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.onAccepted = append(m.onAccepted, cb)
}

func (m *machine) onAssociationRejected(cb func(pdu.RejectInfo)) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.onRejected = append(m.onRejected, cb)
}

func (m *machine) onAssociationReleased(cb func()) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.onReleased = append(m.onReleased, cb)
}

func (m *machine) onStateChanged(cb func(old, new StateKind)) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.onChanged = append(m.onChanged, cb)
}

func (m *machine) notifyAccepted(a pdu.Association) {
	m.subsMu.Lock()
	cbs := append([]func(pdu.Association){}, m.onAccepted...)
	m.subsMu.Unlock()
	for _, cb := range cbs {
		cb(a)
	}
}

func (m *machine) notifyRejected(r pdu.RejectInfo) {
	m.subsMu.Lock()
	cbs := append([]func(pdu.RejectInfo){}, m.onRejected...)
	m.subsMu.Unlock()
	for _, cb := range cbs {
		cb(r)
	}
}

func (m *machine) notifyReleased() {
	m.subsMu.Lock()
	cbs := append([]func(){}, m.onReleased...)
	m.subsMu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

func (m *machine) notifyStateChanged(old, new StateKind) {
	m.subsMu.Lock()
	cbs := append([]func(old, new StateKind){}, m.onChanged...)
	m.subsMu.Unlock()
	for _, cb := range cbs {
		cb(old, new)
	}
}

func (m *machine) buildAssociateParams() pdu.AssociateParams {
	return pdu.AssociateParams{
		CalledAETitle:  m.params.CalledAETitle,
		CallingAETitle: m.params.CallingAETitle,
		Contexts:       m.params.Contexts,
		MaxPDULength:   m.params.MaxPDULength,
	}
}
