// Package pdu holds the small set of plain data structures the association
// state machine needs to describe association-level PDU intents and
// outcomes (accept/reject/abort parameters, presentation contexts). It does
// not implement PS3.8's binary PDU encoding — that is the connection
// layer's responsibility; this module only needs shapes to pass across the
// Port interface.
package pdu

import (
	"fmt"

	"github.com/grailbio/go-dicom/dicomuid"
)

// ResultType is the A-ASSOCIATE-RJ Result field, PS3.8 9.3.4.
type ResultType byte

const (
	ResultRejectedPermanent ResultType = 1
	ResultRejectedTransient ResultType = 2
)

// SourceType is the A-ASSOCIATE-RJ / A-ABORT Source field.
type SourceType byte

const (
	SourceULServiceUser         SourceType = 1
	SourceULServiceProviderACSE SourceType = 2
	SourceULServiceProviderPresentation SourceType = 3
)

// RejectReason is the A-ASSOCIATE-RJ Reason/Diag field; its meaning depends
// on Source (PS3.8 9.3.4).
type RejectReason byte

// AbortSource distinguishes a locally- from a peer-initiated A-ABORT.
type AbortSource byte

const (
	AbortSourceServiceUser     AbortSource = 0
	AbortSourceServiceProvider AbortSource = 2
)

// AbortReason is the A-ABORT Reason/Diag field (PS3.8 9.3.8); NotSpecified
// is used for locally-initiated aborts that have no specific diagnostic.
type AbortReason byte

const (
	AbortReasonNotSpecified  AbortReason = 0
	AbortReasonUnexpectedPDU AbortReason = 2
)

// PresentationContext is one (abstract syntax, transfer syntax) proposal or
// acceptance slot negotiated during A-ASSOCIATE.
type PresentationContext struct {
	ID                byte
	AbstractSyntaxUID string
	TransferSyntaxUID string
}

func (c PresentationContext) String() string {
	return fmt.Sprintf("context{id:%d abstract:%s(%s) transfer:%s}",
		c.ID, dicomuid.UIDString(c.AbstractSyntaxUID), c.AbstractSyntaxUID, c.TransferSyntaxUID)
}

// AssociateParams is the set of fields carried by an A-ASSOCIATE-RQ, enough
// for a Port implementation to build the real PDU.
type AssociateParams struct {
	CalledAETitle  string
	CallingAETitle string
	Contexts       []PresentationContext
	MaxPDULength   uint32
}

// Association is the negotiated result of a successful handshake: the
// accepted presentation contexts and the negotiated max PDU length. It is
// what the state machine calls its "association handle".
type Association struct {
	CalledAETitle    string
	CallingAETitle   string
	AcceptedContexts []PresentationContext
	MaxPDULength     uint32
}

func (a Association) String() string {
	return fmt.Sprintf("association{called:%s calling:%s contexts:%d maxPDU:%d}",
		a.CalledAETitle, a.CallingAETitle, len(a.AcceptedContexts), a.MaxPDULength)
}

// RejectInfo carries the reason an A-ASSOCIATE-RQ was rejected.
type RejectInfo struct {
	Result ResultType
	Source SourceType
	Reason RejectReason
}

func (r RejectInfo) String() string {
	return fmt.Sprintf("reject{result:%d source:%d reason:%d}", r.Result, r.Source, r.Reason)
}

// AbortInfo carries the reason an association was aborted.
type AbortInfo struct {
	Source AbortSource
	Reason AbortReason
}

func (a AbortInfo) String() string {
	return fmt.Sprintf("abort{source:%d reason:%d}", a.Source, a.Reason)
}
