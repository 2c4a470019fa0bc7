//go:build !windows

package main

import (
	"syscall"
)

// StopSignal is the signal used to stop worker processes
const StopSignal = syscall.SIGTERM
