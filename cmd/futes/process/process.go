// Package process lists the processes of the machine, for finding stray worker processes.
package process

import (
	"syscall"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	psutil_process "github.com/shirou/gopsutil/process"
)

// Process is a running process
type Process interface {
	Pid() int32
	Executable() string
	Path() (string, error)
	CmdlineSlice() ([]string, error)
	Signal(sig syscall.Signal)
}

type process struct {
	*psutil_process.Process
}

func (p process) Pid() int32 {
	return p.Process.Pid
}

func (p process) Executable() string {
	name, _ := p.Process.Name()
	return name
}

func (p process) Path() (string, error) {
	return p.Process.Exe()
}

// Processes returns all processes of the machine
func Processes() ([]Process, error) {
	var procs []Process

	ps, err := psutil_process.Processes()
	if err != nil {
		return nil, err
	}

	for _, _p := range ps {
		procs = append(procs, process{_p})
	}
	return procs, nil
}

// IsRunning returns true if a process with pid exists
func IsRunning(pid int32) bool {
	exists, err := psutil_process.PidExists(pid)
	if err != nil {
		gwlog.Warnf("check process %d failed: %v", pid, err)
		return false
	}
	return exists
}
