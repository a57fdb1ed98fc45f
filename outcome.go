package assoc

import (
	"fmt"

	"github.com/sigdicom/dicom-assoc/pdu"
)

// OutcomeKind is the terminal classification of one association's
// lifetime, returned by Client.Send.
type OutcomeKind int

const (
	OutcomeReleasedCleanly OutcomeKind = iota
	OutcomeRejectedByPeer
	OutcomeAbortedByPeer
	OutcomeAbortedLocally
	OutcomeConnectionLost
	OutcomeTimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReleasedCleanly:
		return "ReleasedCleanly"
	case OutcomeRejectedByPeer:
		return "RejectedByPeer"
	case OutcomeAbortedByPeer:
		return "AbortedByPeer"
	case OutcomeAbortedLocally:
		return "AbortedLocally"
	case OutcomeConnectionLost:
		return "ConnectionLost"
	case OutcomeTimedOut:
		return "TimedOut"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the terminal result of Client.Send's association cycle.
type Outcome struct {
	Kind OutcomeKind

	Reject      *pdu.RejectInfo // set iff Kind == RejectedByPeer
	Abort       *pdu.AbortInfo  // set iff Kind == AbortedByPeer
	Cause       error           // set iff Kind == ConnectionLost (may be nil)
	TimeoutKind TimeoutKind     // set iff Kind == TimedOut
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeRejectedByPeer:
		return fmt.Sprintf("Outcome{%s %v}", o.Kind, o.Reject)
	case OutcomeAbortedByPeer:
		return fmt.Sprintf("Outcome{%s %v}", o.Kind, o.Abort)
	case OutcomeConnectionLost:
		return fmt.Sprintf("Outcome{%s cause:%v}", o.Kind, o.Cause)
	case OutcomeTimedOut:
		return fmt.Sprintf("Outcome{%s kind:%s}", o.Kind, o.TimeoutKind)
	default:
		return fmt.Sprintf("Outcome{%s}", o.Kind)
	}
}

// Err adapts Outcome to the error interface for callers that want a single
// error value for any non-ReleasedCleanly outcome (ReleasedCleanly's Err
// is nil).
func (o Outcome) Err() error {
	if o.Kind == OutcomeReleasedCleanly {
		return nil
	}
	return fmt.Errorf("assoc: association ended: %s", o)
}
