package main

import (
	"fmt"
	"strings"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/cmd/futes/process"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
)

// WorkerStatus lists the worker processes running on this machine
type WorkerStatus struct {
	WorkerProcs []process.Process
}

// IsRunning returns if any worker is running
func (ws *WorkerStatus) IsRunning() bool {
	return len(ws.WorkerProcs) > 0
}

// isWorkerCmdline returns true for the command line of a harness worker
func isWorkerCmdline(cmdline []string) bool {
	for _, arg := range cmdline[1:] {
		if arg == consts.WORKER_ARG {
			return true
		}
	}
	return false
}

func detectWorkerStatus() *WorkerStatus {
	ws := &WorkerStatus{}
	procs, err := process.Processes()
	checkErrorOrQuit(err, "list processes failed")
	for _, proc := range procs {
		cmdline, err := proc.CmdlineSlice()
		if err != nil || len(cmdline) == 0 {
			continue
		}
		if isWorkerCmdline(cmdline) {
			ws.WorkerProcs = append(ws.WorkerProcs, proc)
		}
	}
	return ws
}

func status() {
	ws := detectWorkerStatus()
	showWorkerStatus(ws)
}

func showWorkerStatus(ws *WorkerStatus) {
	showMsg("%d workers running", len(ws.WorkerProcs))

	for _, proc := range ws.WorkerProcs {
		cmdlineSlice, err := proc.CmdlineSlice()
		var cmdline string
		if err == nil {
			cmdline = strings.Join(cmdlineSlice, " ")
		} else {
			cmdline = fmt.Sprintf("get cmdline failed: %v", err)
		}

		showMsg("\t%-10d%-16s%s", proc.Pid(), proc.Executable(), cmdline)
	}
}
