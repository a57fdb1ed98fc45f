package assoc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sigdicom/dicom-assoc"
	"github.com/sigdicom/dicom-assoc/dimse"
	"github.com/sigdicom/dicom-assoc/internal/testport"
	"github.com/sigdicom/dicom-assoc/pdu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, timeouts assoc.Timeouts) (*assoc.Client, *testport.Port) {
	t.Helper()
	params, err := assoc.NewParams("REMOTE", "LOCAL", "127.0.0.1", 11112)
	require.NoError(t, err)
	port := testport.New()
	client := assoc.NewClient(port, params, timeouts)
	t.Cleanup(port.Close)
	return client, port
}

func hasCall(port *testport.Port, name string) bool {
	for _, c := range port.Calls() {
		if c.Name == name {
			return true
		}
	}
	return false
}

func fastTimeouts() assoc.Timeouts {
	return assoc.Timeouts{
		RequestTimeout: time.Second,
		ReleaseTimeout: time.Second,
		LingerTimeout:  15 * time.Millisecond,
	}
}

// TestClient_SendOnEmptyQueue_CompletesWithoutNegotiating covers the
// boundary behavior: Send with nothing queued resolves immediately,
// without ever dialing the peer.
func TestClient_SendOnEmptyQueue_CompletesWithoutNegotiating(t *testing.T) {
	client, port := newTestClient(t, fastTimeouts())

	outcome, err := client.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, assoc.OutcomeReleasedCleanly, outcome.Kind)
	assert.Empty(t, port.Calls())
	assert.Equal(t, assoc.KindIdle, client.State())
}

// TestClient_FullCycle_AcceptSendReleaseComplete walks one request through
// every non-error state: Idle -> RequestAssociation -> Sending -> Linger ->
// ReleaseAssociation -> Completed.
func TestClient_FullCycle_AcceptSendReleaseComplete(t *testing.T) {
	client, port := newTestClient(t, fastTimeouts())

	var gotResp *dimse.Response
	respCh := make(chan struct{})
	req := &assoc.Request{
		Msg: &dimse.Request{Field: dimse.CommandFieldCEchoRQ, MessageID: dimse.NewMessageID(), AffectedSOPClassUID: "1.2.840.10008.1.1"},
		OnResponse: func(r *dimse.Response) {
			gotResp = r
			close(respCh)
		},
	}
	client.AddRequest(req)

	type sendResult struct {
		outcome assoc.Outcome
		err     error
	}
	resultCh := make(chan sendResult, 1)
	go func() {
		o, err := client.Send(context.Background())
		resultCh <- sendResult{o, err}
	}()

	require.Eventually(t, func() bool { return hasCall(port, "SendAssociationRequest") }, time.Second, 2*time.Millisecond)
	assert.Equal(t, assoc.KindRequestAssociation, client.State())

	port.InjectAccept(pdu.Association{CalledAETitle: "REMOTE", CallingAETitle: "LOCAL", MaxPDULength: assoc.DefaultMaxPDULength})

	require.Eventually(t, func() bool { return hasCall(port, "SendRequest") }, time.Second, 2*time.Millisecond)
	assert.Equal(t, assoc.KindSending, client.State())

	port.InjectResponse(&dimse.Response{
		Field:                     dimse.CommandFieldCEchoRSP,
		MessageIDBeingRespondedTo: req.Msg.MessageID,
		Status:                    dimse.Success,
	})
	<-respCh
	assert.Equal(t, dimse.StatusSuccess, gotResp.Status.Code)

	port.InjectSendQueueEmpty()
	require.Eventually(t, func() bool { return client.State() == assoc.KindLinger }, time.Second, 2*time.Millisecond)

	require.Eventually(t, func() bool { return hasCall(port, "SendAssociationRelease") }, time.Second, 2*time.Millisecond)
	assert.Equal(t, assoc.KindReleaseAssociation, client.State())

	port.InjectReleaseResponse()

	res := <-resultCh
	require.NoError(t, res.err)
	assert.Equal(t, assoc.OutcomeReleasedCleanly, res.outcome.Kind)
	assert.Equal(t, assoc.KindCompleted, client.State())
}

// TestClient_RejectedByPeer covers the A-ASSOCIATE-RJ path.
func TestClient_RejectedByPeer(t *testing.T) {
	client, port := newTestClient(t, fastTimeouts())
	client.AddRequest(&assoc.Request{Msg: &dimse.Request{MessageID: dimse.NewMessageID()}})

	resultCh := make(chan assoc.Outcome, 1)
	go func() {
		o, _ := client.Send(context.Background())
		resultCh <- o
	}()

	require.Eventually(t, func() bool { return hasCall(port, "SendAssociationRequest") }, time.Second, 2*time.Millisecond)

	reject := pdu.RejectInfo{Result: pdu.ResultRejectedPermanent, Source: pdu.SourceULServiceUser, Reason: 1}
	port.InjectReject(reject)

	outcome := <-resultCh
	assert.Equal(t, assoc.OutcomeRejectedByPeer, outcome.Kind)
	require.NotNil(t, outcome.Reject)
	assert.Equal(t, reject, *outcome.Reject)
}

// TestClient_ConnectionLostDuringRequest covers an unexpected transport
// close before the handshake completes.
func TestClient_ConnectionLostDuringRequest(t *testing.T) {
	client, port := newTestClient(t, fastTimeouts())
	client.AddRequest(&assoc.Request{Msg: &dimse.Request{MessageID: dimse.NewMessageID()}})

	resultCh := make(chan assoc.Outcome, 1)
	go func() {
		o, _ := client.Send(context.Background())
		resultCh <- o
	}()

	require.Eventually(t, func() bool { return hasCall(port, "SendAssociationRequest") }, time.Second, 2*time.Millisecond)

	cause := errors.New("reset by peer")
	port.InjectConnectionClosed(cause)

	outcome := <-resultCh
	assert.Equal(t, assoc.OutcomeConnectionLost, outcome.Kind)
	assert.Equal(t, cause, outcome.Cause)
}

// TestClient_ConnectionLostWhileSending_FailsOutstandingRequests covers the
// boundary behavior: requests still awaiting a terminal status get a
// synthetic ConnectionLost failure delivered to their callback.
func TestClient_ConnectionLostWhileSending_FailsOutstandingRequests(t *testing.T) {
	client, port := newTestClient(t, fastTimeouts())

	var gotResp *dimse.Response
	respCh := make(chan struct{})
	req := &assoc.Request{
		Msg: &dimse.Request{MessageID: dimse.NewMessageID()},
		OnResponse: func(r *dimse.Response) {
			gotResp = r
			close(respCh)
		},
	}
	client.AddRequest(req)

	resultCh := make(chan assoc.Outcome, 1)
	go func() {
		o, _ := client.Send(context.Background())
		resultCh <- o
	}()

	require.Eventually(t, func() bool { return hasCall(port, "SendAssociationRequest") }, time.Second, 2*time.Millisecond)
	port.InjectAccept(pdu.Association{CalledAETitle: "REMOTE", CallingAETitle: "LOCAL"})
	require.Eventually(t, func() bool { return hasCall(port, "SendRequest") }, time.Second, 2*time.Millisecond)

	port.InjectConnectionClosed(errors.New("link down"))

	<-respCh
	assert.True(t, gotResp.Status.Terminal())
	assert.NotEqual(t, dimse.StatusSuccess, gotResp.Status.Code)

	outcome := <-resultCh
	assert.Equal(t, assoc.OutcomeConnectionLost, outcome.Kind)
}

// TestClient_SendContextCancel_AbortsAssociation covers the cancellation
// token mapping onto the Cancel event, here cancelled while in
// RequestAssociation.
func TestClient_SendContextCancel_AbortsAssociation(t *testing.T) {
	client, port := newTestClient(t, fastTimeouts())
	client.AddRequest(&assoc.Request{Msg: &dimse.Request{MessageID: dimse.NewMessageID()}})

	ctx, cancel := context.WithCancel(context.Background())
	resultCh := make(chan assoc.Outcome, 1)
	go func() {
		o, _ := client.Send(ctx)
		resultCh <- o
	}()

	require.Eventually(t, func() bool { return hasCall(port, "SendAssociationRequest") }, time.Second, 2*time.Millisecond)

	cancel()

	outcome := <-resultCh
	assert.Equal(t, assoc.OutcomeAbortedLocally, outcome.Kind)
	require.Eventually(t, func() bool { return hasCall(port, "SendAbort") }, time.Second, 2*time.Millisecond)
}

// TestClient_RequestAssociationTimeout covers a silent peer: no A-ASSOCIATE
// response ever arrives, so the RequestAssoc timer fires.
func TestClient_RequestAssociationTimeout(t *testing.T) {
	client, port := newTestClient(t, assoc.Timeouts{
		RequestTimeout: 10 * time.Millisecond,
		ReleaseTimeout: time.Second,
		LingerTimeout:  time.Second,
	})
	client.AddRequest(&assoc.Request{Msg: &dimse.Request{MessageID: dimse.NewMessageID()}})

	outcome, err := client.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, assoc.OutcomeTimedOut, outcome.Kind)
	assert.Equal(t, assoc.TimeoutRequestAssoc, outcome.TimeoutKind)
	assert.True(t, hasCall(port, "SendAbort"))
}

// TestClient_Abort_FromSending covers the explicit user Abort call while
// an association is live.
func TestClient_Abort_FromSending(t *testing.T) {
	client, port := newTestClient(t, fastTimeouts())

	resultCh := make(chan assoc.Outcome, 1)
	go func() {
		client.AddRequest(&assoc.Request{Msg: &dimse.Request{MessageID: dimse.NewMessageID()}})
		o, _ := client.Send(context.Background())
		resultCh <- o
	}()

	require.Eventually(t, func() bool { return hasCall(port, "SendAssociationRequest") }, time.Second, 2*time.Millisecond)
	port.InjectAccept(pdu.Association{CalledAETitle: "REMOTE", CallingAETitle: "LOCAL"})
	require.Eventually(t, func() bool { return client.State() == assoc.KindSending }, time.Second, 2*time.Millisecond)

	require.NoError(t, client.Abort(context.Background()))

	outcome := <-resultCh
	assert.Equal(t, assoc.OutcomeAbortedLocally, outcome.Kind)
	assert.Equal(t, assoc.KindCompleted, client.State())
}

// TestClient_AbortRace_FirstWinnerOnly exercises OQ-2: after a request
// timeout, the first Abort race source to be dequeued drives the terminal
// Outcome, and a connection close injected once the machine is already
// Completed is ignored without panicking or double-completing.
func TestClient_AbortRace_FirstWinnerOnly(t *testing.T) {
	client, port := newTestClient(t, assoc.Timeouts{
		RequestTimeout: 10 * time.Millisecond,
		ReleaseTimeout: time.Second,
		LingerTimeout:  time.Second,
	})
	client.AddRequest(&assoc.Request{Msg: &dimse.Request{MessageID: dimse.NewMessageID()}})

	resultCh := make(chan assoc.Outcome, 1)
	go func() {
		o, _ := client.Send(context.Background())
		resultCh <- o
	}()

	outcome := <-resultCh
	assert.Equal(t, assoc.OutcomeTimedOut, outcome.Kind)

	// A stray ConnectionClosed arriving after Completed must not be
	// delivered to a second Send result; this only verifies the driver
	// keeps accepting events without blocking the Port event pump.
	port.InjectConnectionClosed(errors.New("late close"))
	assert.Equal(t, assoc.KindCompleted, client.State())
}

// TestClient_ReuseAfterCompletion covers a second Send on the same Client
// after a first Send has returned. The first Send has an empty queue, so
// the machine stays Idle and the second cycle starts from Idle without the
// Completed reuse escape hatch.
func TestClient_ReuseAfterCompletion(t *testing.T) {
	client, port := newTestClient(t, fastTimeouts())

	first, err := client.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, assoc.OutcomeReleasedCleanly, first.Kind)
	assert.Equal(t, assoc.KindIdle, client.State())

	client.AddRequest(&assoc.Request{Msg: &dimse.Request{MessageID: dimse.NewMessageID()}})
	resultCh := make(chan assoc.Outcome, 1)
	go func() {
		o, _ := client.Send(context.Background())
		resultCh <- o
	}()

	require.Eventually(t, func() bool { return hasCall(port, "SendAssociationRequest") }, time.Second, 2*time.Millisecond)
	port.InjectReject(pdu.RejectInfo{Result: pdu.ResultRejectedTransient})
	outcome := <-resultCh
	assert.Equal(t, assoc.OutcomeRejectedByPeer, outcome.Kind)
}

// TestClient_StateChangedSubscriber covers the StateChanged notification
// firing on every transition, in order.
func TestClient_StateChangedSubscriber(t *testing.T) {
	client, port := newTestClient(t, fastTimeouts())

	var mu sync.Mutex
	var seen []assoc.StateKind
	client.OnStateChanged(func(old, new assoc.StateKind) {
		mu.Lock()
		seen = append(seen, new)
		mu.Unlock()
	})

	client.AddRequest(&assoc.Request{Msg: &dimse.Request{MessageID: dimse.NewMessageID()}})
	resultCh := make(chan assoc.Outcome, 1)
	go func() {
		o, _ := client.Send(context.Background())
		resultCh <- o
	}()

	require.Eventually(t, func() bool { return hasCall(port, "SendAssociationRequest") }, time.Second, 2*time.Millisecond)
	port.InjectReject(pdu.RejectInfo{})
	<-resultCh

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(seen), 2)
	assert.Equal(t, assoc.KindRequestAssociation, seen[0])
	assert.Equal(t, assoc.KindCompleted, seen[len(seen)-1])
}

// TestClient_FaultInjector_DisconnectOnSendRequest drives the connection
// loss through testport's scripted Injector, rather than InjectConnectionClosed
// directly: the dropped connection is synthesized at the Port call site
// itself, the same place a real transport failure would surface.
func TestClient_FaultInjector_DisconnectOnSendRequest(t *testing.T) {
	client, port := newTestClient(t, fastTimeouts())
	port.Injector = &testport.Injector{DisconnectOn: "SendRequest"}

	var gotResp *dimse.Response
	respCh := make(chan struct{})
	req := &assoc.Request{
		Msg: &dimse.Request{MessageID: dimse.NewMessageID()},
		OnResponse: func(r *dimse.Response) {
			gotResp = r
			close(respCh)
		},
	}
	client.AddRequest(req)

	resultCh := make(chan assoc.Outcome, 1)
	go func() {
		o, _ := client.Send(context.Background())
		resultCh <- o
	}()

	require.Eventually(t, func() bool { return hasCall(port, "SendAssociationRequest") }, time.Second, 2*time.Millisecond)
	port.InjectAccept(pdu.Association{CalledAETitle: "REMOTE", CallingAETitle: "LOCAL"})

	<-respCh
	assert.True(t, gotResp.Status.Terminal())
	assert.Equal(t, dimse.StatusUnableToProcess, gotResp.Status.Code)

	outcome := <-resultCh
	assert.Equal(t, assoc.OutcomeConnectionLost, outcome.Kind)
}

// TestClient_FaultInjector_DisconnectAfterNCalls covers the injector's
// call-counting mode: the handshake and the C-ECHO exchange succeed, but
// the 4th outbound call (Connect, SendAssociationRequest, SendRequest,
// then SendAssociationRelease) drops the connection instead.
func TestClient_FaultInjector_DisconnectAfterNCalls(t *testing.T) {
	client, port := newTestClient(t, fastTimeouts())
	port.Injector = &testport.Injector{DisconnectAfter: 4}

	respCh := make(chan struct{})
	req := &assoc.Request{
		Msg:        &dimse.Request{MessageID: dimse.NewMessageID()},
		OnResponse: func(*dimse.Response) { close(respCh) },
	}
	client.AddRequest(req)

	resultCh := make(chan assoc.Outcome, 1)
	go func() {
		o, _ := client.Send(context.Background())
		resultCh <- o
	}()

	require.Eventually(t, func() bool { return hasCall(port, "SendAssociationRequest") }, time.Second, 2*time.Millisecond)
	port.InjectAccept(pdu.Association{CalledAETitle: "REMOTE", CallingAETitle: "LOCAL"})
	require.Eventually(t, func() bool { return hasCall(port, "SendRequest") }, time.Second, 2*time.Millisecond)

	port.InjectResponse(&dimse.Response{MessageIDBeingRespondedTo: req.Msg.MessageID, Status: dimse.Success})
	<-respCh
	port.InjectSendQueueEmpty()

	outcome := <-resultCh
	assert.Equal(t, assoc.OutcomeConnectionLost, outcome.Kind)
}
