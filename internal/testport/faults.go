package testport

import "errors"

// Injector is a scripted connection-loss fault, the deterministic
// counterpart to the teacher lineage's byte-fuzzing FaultInjector (see
// yasushi-saito-go-netdicom/faultinjector.go onSend): instead of mutating
// wire bytes, it decides whether the Nth outbound call should instead
// report a dropped connection, which is the failure mode this module's
// Port interface actually exposes to callers.
type Injector struct {
	// DisconnectAfter, if nonzero, makes the DisconnectAfter'th recorded
	// call (1-indexed, across every outbound method) fail instead of
	// succeed.
	DisconnectAfter int

	// DisconnectOn, if non-empty, makes the next call whose Name matches
	// fail instead of succeed, then clears itself.
	DisconnectOn string

	calls int
}

var errInjectedDisconnect = errors.New("testport: injected connection loss")

func (f *Injector) afterSend(p *Port, name string) error {
	f.calls++
	if f.DisconnectOn == name {
		f.DisconnectOn = ""
		return errInjectedDisconnect
	}
	if f.DisconnectAfter != 0 && f.calls == f.DisconnectAfter {
		return errInjectedDisconnect
	}
	return nil
}
