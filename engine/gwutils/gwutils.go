package gwutils

import (
	"fmt"
	"runtime/debug"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
)

// RunPanicless calls a function panic-freely
func RunPanicless(f func()) (paniced bool) {
	defer func() {
		err := recover()
		if err != nil {
			gwlog.TraceError("%p panic: %s", f, err)
			paniced = true
		}
	}()

	f()
	return
}

// PanicError is a recovered panic together with the stack it was raised from
type PanicError struct {
	Value interface{}
	Stack string
}

func (pe *PanicError) Error() string {
	if err, ok := pe.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(pe.Value)
}

// CatchPanic calls f and converts a panic into a *PanicError
func CatchPanic(f func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: string(debug.Stack())}
		}
	}()

	return f()
}
