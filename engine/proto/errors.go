package proto

import (
	"fmt"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwutils"
	"github.com/pkg/errors"
)

// ErrorKind classifies failures of remote calls
type ErrorKind string

const (
	// UnknownOperation means the worker has no operation of the requested name
	UnknownOperation ErrorKind = "UnknownOperation"
	// OperationFailed means the operation returned an error or panicked
	OperationFailed ErrorKind = "OperationFailed"
	// ProcessUnavailable means the worker is not running or died during the call
	ProcessUnavailable ErrorKind = "ProcessUnavailable"
	// Timeout means no result arrived in time
	Timeout ErrorKind = "Timeout"
)

var (
	ErrUnknownOperation   = errors.New("unknown operation")
	ErrOperationFailed    = errors.New("operation failed")
	ErrProcessUnavailable = errors.New("worker process unavailable")
	ErrTimeout            = errors.New("timeout")
	ErrAlreadyRunning     = errors.New("worker process already running")
)

var kindSentinels = map[ErrorKind]error{
	UnknownOperation:   ErrUnknownOperation,
	OperationFailed:    ErrOperationFailed,
	ProcessUnavailable: ErrProcessUnavailable,
	Timeout:            ErrTimeout,
}

// RemoteError describes a failed call. It crosses the process boundary as a plain struct
// and is returned to the caller as an error carrying the original message.
type RemoteError struct {
	Kind    ErrorKind
	Type    string // Go type of the original error, or "panic"
	Message string
	Trace   string
}

// NewError creates a RemoteError of kind
func NewError(kind ErrorKind, format string, args ...interface{}) *RemoteError {
	return &RemoteError{
		Kind:    kind,
		Type:    string(kind),
		Message: fmt.Sprintf(format, args...),
	}
}

// FromError wraps an error returned or panicked by an operation into an OperationFailed RemoteError
func FromError(err error) *RemoteError {
	if re, ok := errors.Cause(err).(*RemoteError); ok {
		return re
	}

	if pe, ok := err.(*gwutils.PanicError); ok {
		return &RemoteError{
			Kind:    OperationFailed,
			Type:    "panic",
			Message: pe.Error(),
			Trace:   pe.Stack,
		}
	}

	return &RemoteError{
		Kind:    OperationFailed,
		Type:    fmt.Sprintf("%T", errors.Cause(err)),
		Message: err.Error(),
		Trace:   fmt.Sprintf("%+v", err),
	}
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrOperationFailed) and friends match by kind
func (e *RemoteError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Format prints the message, and with %+v the remote trace as well
func (e *RemoteError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s (%s/%s)", e.Message, e.Kind, e.Type)
			if e.Trace != "" {
				fmt.Fprintf(s, "\n%s", e.Trace)
			}
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Message)
	case 'q':
		fmt.Fprintf(s, "%q", e.Message)
	}
}

// KindOf returns the ErrorKind of err, or "" if err is not a RemoteError
func KindOf(err error) ErrorKind {
	if re, ok := errors.Cause(err).(*RemoteError); ok {
		return re.Kind
	}
	return ""
}
