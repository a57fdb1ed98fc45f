package assoc

import "github.com/grailbio/go-dicom/dicomlog"

// Logging verbosity follows the teacher package's convention: 0 for
// state-change and error-level messages that should always be visible,
// 2 for per-event dispatch noise useful only when debugging the machine
// itself.
func logInfof(format string, args ...interface{}) {
	dicomlog.Vprintf(0, format, args...)
}

func logDebugf(format string, args ...interface{}) {
	dicomlog.Vprintf(2, format, args...)
}
