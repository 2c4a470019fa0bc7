package runner

import (
	"os"
	"os/exec"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/config"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/netutil"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/worker"
	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

// process is a started worker process together with its two pipes
type process struct {
	cmd     *exec.Cmd
	calls   *netutil.SendChannel
	results *netutil.RecvChannel
	exited  xnsyncutil.AtomicBool
	exitErr error
	done    chan struct{}
}

func startProcess(command []string, packer netutil.MsgPacker, cfg *config.WorkerConfig) (*process, error) {
	callsR, callsW, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "create call pipe")
	}
	resultsR, resultsW, err := os.Pipe()
	if err != nil {
		callsR.Close()
		callsW.Close()
		return nil, errors.Wrap(err, "create result pipe")
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Env = append(os.Environ(), consts.WORKER_ENV+"=1")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	// fd 3 and fd 4 in the worker
	cmd.ExtraFiles = []*os.File{callsR, resultsW}

	err = cmd.Start()
	// the worker owns these ends now
	callsR.Close()
	resultsW.Close()
	if err != nil {
		callsW.Close()
		resultsR.Close()
		return nil, errors.Wrapf(err, "start worker %v", command)
	}
	gwlog.Infof("worker process %d started: %v", cmd.Process.Pid, command)

	p := &process{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go p.waitRoutine()

	if err := worker.WriteBootstrap(callsW, cfg); err != nil {
		callsW.Close()
		resultsR.Close()
		cmd.Process.Kill()
		<-p.done
		return nil, err
	}

	p.calls = netutil.NewSendChannel("calls", callsW, packer)
	p.results = netutil.NewRecvChannel("results", resultsR, packer)
	return p, nil
}

func (p *process) waitRoutine() {
	err := p.cmd.Wait()
	p.exitErr = err
	p.exited.Store(true)
	close(p.done)

	if err != nil {
		gwlog.Warnf("worker process %d exited: %v", p.cmd.Process.Pid, err)
	} else {
		gwlog.Infof("worker process %d exited", p.cmd.Process.Pid)
	}
}

func (p *process) pid() int {
	return p.cmd.Process.Pid
}

// gone returns true once the process exited and every result it sent is received
func (p *process) gone() bool {
	return p.exited.Load() && p.results.Closed()
}

func (p *process) kill() {
	if err := p.cmd.Process.Kill(); err != nil && !p.exited.Load() {
		gwlog.Errorf("kill worker process %d failed: %v", p.pid(), err)
	}
}

// close releases the pipes, the process must have exited
func (p *process) close() {
	p.calls.Close()
	p.results.Close()
}
