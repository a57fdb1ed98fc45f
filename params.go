package assoc

import (
	"errors"
	"time"

	"github.com/sigdicom/dicom-assoc/pdu"
	"github.com/sigdicom/dicom-assoc/sopclass"
)

// abortAckTimeout is the fixed 100ms window the Abort state waits for any
// of its four race winners before giving up and completing anyway. It is
// hard-coded independent of Timeouts, preserving the teacher lineage's
// behavior; flagged here per SPEC_FULL.md OQ-1 for future review rather
// than guessed into configurability.
const abortAckTimeout = 100 * time.Millisecond

// DefaultMaxPDULength is used when Params does not override it.
const DefaultMaxPDULength = 16 * 1024

// Params holds the immutable parameters of one client association
// instance: AE titles, transport address, and the presentation contexts
// to propose.
type Params struct {
	CalledAETitle  string
	CallingAETitle string
	Host           string
	Port           int
	UseTLS         bool

	// Contexts lists the presentation contexts to propose. If empty,
	// NewParams fills in a default Verification-only context so that a
	// freshly constructed Params is always usable for C-ECHO.
	Contexts []pdu.PresentationContext

	// FallbackTextEncoding names the character set used to decode text
	// elements when a data set does not declare one of its own (PS3.5
	// Annex C.12.1.1.2's "if absent, default to the basic repertoire").
	FallbackTextEncoding string

	// AsyncInvoked and AsyncPerformed are the Asynchronous Operations
	// Window negotiation values (PS3.7 D.3.3.3).
	AsyncInvoked   int
	AsyncPerformed int

	MaxPDULength uint32
}

// NewParams validates and fills in defaults for Params, mirroring the
// teacher's NewServiceUserParams constructor-with-validation pattern.
func NewParams(calledAETitle, callingAETitle, host string, port int) (Params, error) {
	if calledAETitle == "" {
		return Params{}, errors.New("assoc: NewParams: empty calledAETitle")
	}
	if callingAETitle == "" {
		return Params{}, errors.New("assoc: NewParams: empty callingAETitle")
	}
	if host == "" {
		return Params{}, errors.New("assoc: NewParams: empty host")
	}
	p := Params{
		CalledAETitle:        calledAETitle,
		CallingAETitle:       callingAETitle,
		Host:                 host,
		Port:                 port,
		FallbackTextEncoding: "ISO_IR 6",
		AsyncInvoked:         1,
		AsyncPerformed:       1,
		MaxPDULength:         DefaultMaxPDULength,
	}
	if len(p.Contexts) == 0 {
		for i, uid := range sopclass.UIDs(sopclass.VerificationClasses) {
			p.Contexts = append(p.Contexts, pdu.PresentationContext{
				ID:                byte(1 + 2*i),
				AbstractSyntaxUID: uid,
			})
		}
	}
	return p, nil
}

// Timeouts holds the configurable association timeouts. AbortAckTimeout is
// intentionally absent here — see abortAckTimeout.
type Timeouts struct {
	RequestTimeout time.Duration
	ReleaseTimeout time.Duration
	LingerTimeout  time.Duration
}

// DefaultTimeouts returns the timeouts named in the external interface
// configuration table.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		RequestTimeout: 5000 * time.Millisecond,
		ReleaseTimeout: 10000 * time.Millisecond,
		LingerTimeout:  50 * time.Millisecond,
	}
}
