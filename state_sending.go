package assoc

import (
	"context"

	"github.com/sigdicom/dicom-assoc/dimse"
	"github.com/sigdicom/dicom-assoc/pdu"
)

// sendingState implements Sending: the association is live, every queued
// request gets dispatched, and newly enqueued ones are dispatched
// immediately rather than waiting for a future drain.
type sendingState struct {
	association *pdu.Association

	// outstanding tracks requests whose final response has not yet
	// arrived, keyed by message ID. Pending/intermediate responses do not
	// remove an entry; only a terminal Status does (SPEC_FULL.md §6.D).
	outstanding map[dimse.MessageID]*Request
}

func newSendingState(a *pdu.Association) *sendingState {
	return &sendingState{association: a, outstanding: make(map[dimse.MessageID]*Request)}
}

func (s *sendingState) kind() StateKind { return KindSending }

func (s *sendingState) onEnter(m *machine) *transition {
	m.association = s.association
	m.notifyAccepted(*s.association)
	for {
		req, ok := m.queue.TryPop()
		if !ok {
			break
		}
		s.dispatch(m, req)
	}
	return nil
}

func (s *sendingState) onExit(m *machine) {}

func (s *sendingState) dispatch(m *machine, req *Request) {
	doassert(req != nil && req.Msg != nil, "dispatch called with an incomplete request", req)
	s.outstanding[req.Msg.MessageID] = req
	if err := m.port.SendRequest(context.Background(), req); err != nil {
		m.postEvent(Event{Kind: EventConnectionClosed, Err: err})
	}
}

// failOutstanding delivers a synthetic failure response to every request
// still awaiting its terminal status, used when the connection drops out
// from under Sending (boundary behavior: "pending request callbacks
// receive a ConnectionLost failure").
func (s *sendingState) failOutstanding(cause error) {
	for id, req := range s.outstanding {
		if req.OnResponse != nil {
			req.OnResponse(&dimse.Response{
				Field:                     req.Msg.Field | 0x8000,
				MessageIDBeingRespondedTo: req.Msg.MessageID,
				AffectedSOPClassUID:       req.Msg.AffectedSOPClassUID,
				Status:                    dimse.Status{Code: dimse.StatusUnableToProcess, ErrorComment: connectionLostComment(cause)},
			})
		}
		delete(s.outstanding, id)
	}
}

func connectionLostComment(cause error) string {
	if cause == nil {
		return "connection lost"
	}
	return "connection lost: " + cause.Error()
}

func (s *sendingState) handle(m *machine, ev Event) *transition {
	switch ev.Kind {
	case EventUserEnqueue:
		// machine.dispatch already appended ev.Request to the queue before
		// calling us; pop it back off here so it is dispatched exactly
		// once instead of also sitting in the queue for a later
		// Linger -> Sending re-entry to redispatch (a request still in the
		// queue is one that has not yet been dispatched).
		req, ok := m.queue.TryPop()
		if !ok {
			return nil
		}
		s.dispatch(m, req)
		return nil
	case EventRequestCompleted:
		resp := ev.Response
		req, ok := s.outstanding[resp.GetMessageID()]
		if !ok {
			return nil
		}
		if req.OnResponse != nil {
			req.OnResponse(resp)
		}
		if resp.Status.Terminal() {
			delete(s.outstanding, resp.GetMessageID())
		}
		return nil
	case EventSendQueueEmpty:
		if len(s.outstanding) == 0 {
			return goTo(newLingerState())
		}
		return nil
	case EventAbort:
		return goTo(newCompletedState(Outcome{Kind: OutcomeAbortedByPeer, Abort: ev.AbortInfo}))
	case EventConnectionClosed:
		s.failOutstanding(ev.Err)
		return goTo(newCompletedState(Outcome{Kind: OutcomeConnectionLost, Cause: ev.Err}))
	case EventCancel, EventUserAbort:
		return goTo(newAbortState(abortOrigin{kind: abortOriginCancel}))
	default:
		return nil
	}
}
