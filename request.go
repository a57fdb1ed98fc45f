package assoc

import "github.com/sigdicom/dicom-assoc/dimse"

// Request is a user-submitted DIMSE request descriptor. It is logically
// mutable only in the sense that the dispatch layer marks it complete; the
// Queue itself only appends at the tail and pops at the head (see
// SPEC_FULL.md §5).
type Request struct {
	Msg *dimse.Request

	// OnResponse is invoked, on the machine's executor, for every response
	// that arrives for this request's message ID — once for a single-reply
	// operation like C-STORE, potentially many times (Pending, ...,
	// terminal) for C-FIND/C-GET/C-MOVE.
	OnResponse func(*dimse.Response)
}
