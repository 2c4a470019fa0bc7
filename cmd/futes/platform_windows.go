//go:build windows

package main

import (
	"syscall"

	_ "github.com/go-ole/go-ole" // so that dep can resolve versions correctly
)

// StopSignal is the signal used to stop worker processes
const StopSignal = syscall.SIGKILL
