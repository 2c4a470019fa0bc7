package main

import (
	"syscall"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/cmd/futes/process"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
)

func stop() {
	stopWithSignal(StopSignal)
}

func stopWithSignal(signal syscall.Signal) {
	ws := detectWorkerStatus()
	showWorkerStatus(ws)
	if !ws.IsRunning() {
		showMsgAndQuit("no worker is running currently")
	}

	showMsg("stop %d workers ...", len(ws.WorkerProcs))
	for _, proc := range ws.WorkerProcs {
		stopProc(proc, signal)
	}
}

func stopProc(proc process.Process, signal syscall.Signal) {
	showMsg("stop process %s pid=%d", proc.Executable(), proc.Pid())
	proc.Signal(signal)
	for process.IsRunning(proc.Pid()) {
		time.Sleep(consts.STOP_PROCESS_POLL_INTERVAL)
	}
}
