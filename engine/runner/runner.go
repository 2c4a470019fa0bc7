// Package runner is the controller side of the harness: it starts the worker process and calls its
// operations as if they were local methods.
//
// A call blocks its caller but keeps the caller's event loop alive: while waiting for the result,
// GameRunner pumps the local timers and posted callbacks.
package runner

import (
	"fmt"
	"os"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/config"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/eventloop"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/netutil"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/proto"
	"github.com/pkg/errors"
)

// EventPump runs the pending local work of the controller once
type EventPump interface {
	ProcessEvents()
}

// EventPumpFunc adapts a function to EventPump
type EventPumpFunc func()

// ProcessEvents calls f
func (f EventPumpFunc) ProcessEvents() {
	f()
}

// DefaultEventPump fires due timers and runs posted callbacks
var DefaultEventPump EventPump = EventPumpFunc(eventloop.ProcessEvents)

// GameRunner manages one worker process at a time and forwards calls to it
type GameRunner struct {
	cfg       config.RunnerConfig
	workerCfg config.WorkerConfig
	packer    netutil.MsgPacker
	pump      EventPump
	proc      *process
	seq       uint64
}

// New creates a GameRunner. The configs are copied
func New(runnerCfg *config.RunnerConfig, workerCfg *config.WorkerConfig) *GameRunner {
	return &GameRunner{
		cfg:       *runnerCfg,
		workerCfg: *workerCfg,
		packer:    netutil.PackerByName(workerCfg.Packer),
		pump:      DefaultEventPump,
	}
}

// NewFromConfig creates a GameRunner from the harness config
func NewFromConfig(cfg *config.FutesConfig) *GameRunner {
	return New(&cfg.Runner, &cfg.Worker)
}

func (gr *GameRunner) String() string {
	if gr.proc == nil {
		return "GameRunner<stopped>"
	}
	return fmt.Sprintf("GameRunner<%d>", gr.proc.pid())
}

// SetEventPump replaces the local work done while waiting for results
func (gr *GameRunner) SetEventPump(pump EventPump) {
	gr.pump = pump
}

// SetCallTimeout changes the upper bound of a call, 0 disables it
func (gr *GameRunner) SetCallTimeout(timeout time.Duration) {
	gr.cfg.CallTimeout = timeout
}

// SetStopTimeout changes how long Stop waits for the worker to exit before killing it
func (gr *GameRunner) SetStopTimeout(timeout time.Duration) {
	gr.cfg.StopTimeout = timeout
}

// WorkerConfig returns the config the next Start sends to the worker; changes apply on the next Start
func (gr *GameRunner) WorkerConfig() *config.WorkerConfig {
	return &gr.workerCfg
}

// Start starts the worker process. It fails with ErrAlreadyRunning while a worker is running
func (gr *GameRunner) Start() error {
	if gr.proc != nil {
		if !gr.proc.exited.Load() {
			return errors.Wrapf(proto.ErrAlreadyRunning, "worker process %d", gr.proc.pid())
		}
		gr.proc.close()
		gr.proc = nil
	}

	command := gr.cfg.WorkerCommand
	if len(command) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return errors.Wrap(err, "find worker executable")
		}
		command = []string{exe, consts.WORKER_ARG}
	}

	p, err := startProcess(command, gr.packer, &gr.workerCfg)
	if err != nil {
		return err
	}
	gr.proc = p
	return nil
}

// Stop asks the worker to quit and waits for it to exit; after StopTimeout the worker is killed.
// The quit result is not waited for, so a stalled worker costs at most StopTimeout
func (gr *GameRunner) Stop() error {
	p := gr.proc
	if p == nil {
		return nil
	}

	if !p.exited.Load() {
		gr.seq++
		if err := p.calls.Send(&proto.Call{Seq: gr.seq, Method: proto.OP_QUIT}); err != nil {
			gwlog.Warnf("%s: quit failed: %v", gr, err)
		}
	}

	select {
	case <-p.done:
	case <-time.After(gr.cfg.StopTimeout):
		gwlog.Warnf("%s: worker did not exit in %s, killing it", gr, gr.cfg.StopTimeout)
		p.kill()
		<-p.done
	}

	p.close()
	gr.proc = nil
	return errors.Wrap(p.exitErr, "worker process")
}

// IsRunning returns true while the worker process is alive
func (gr *GameRunner) IsRunning() bool {
	return gr.proc != nil && !gr.proc.exited.Load()
}

// Pid returns the process id of the worker, 0 if none was started
func (gr *GameRunner) Pid() int {
	if gr.proc == nil {
		return 0
	}
	return gr.proc.pid()
}

// Invoke calls a worker operation by name and waits for its result.
//
// Errors of the operation come back as *proto.RemoteError with the original message. A worker that
// is not running or dies during the call gives ProcessUnavailable, a result that does not arrive
// within the call timeout gives Timeout
func (gr *GameRunner) Invoke(method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	p := gr.proc
	if p == nil || p.exited.Load() {
		return nil, proto.NewError(proto.ProcessUnavailable, "worker process is not running, cannot call %s", method)
	}

	gr.seq++
	call := &proto.Call{Seq: gr.seq, Method: method, Args: args, Kwargs: kwargs}
	if consts.DEBUG_CALLS {
		gwlog.Debugf("%s: call #%d %s%v %v", gr, call.Seq, method, args, kwargs)
	}
	if err := p.calls.Send(call); err != nil {
		return nil, err
	}

	var deadline time.Time
	if gr.cfg.CallTimeout > 0 {
		deadline = time.Now().Add(gr.cfg.CallTimeout)
	}

	for {
		gr.pump.ProcessEvents()

		gone := p.gone()
		var result proto.Result
		ok, err := p.results.TryRecv(&result)
		if err != nil {
			return nil, err
		}
		if ok {
			if result.Seq == 0 && result.Error != nil {
				// the worker could not decode a call far enough to know its seq, only this one is pending
				return nil, result.Error
			}
			if result.Seq != call.Seq {
				gwlog.Warnf("%s: dropping result #%d of a timed out call", gr, result.Seq)
				continue
			}
			if consts.DEBUG_CALLS {
				gwlog.Debugf("%s: call #%d %s => %v %v", gr, call.Seq, method, result.Value, result.Error)
			}
			if result.Error != nil {
				return nil, result.Error
			}
			return result.Value, nil
		}

		if gone {
			return nil, proto.NewError(proto.ProcessUnavailable, "worker process exited during %s: %v", method, p.exitErr)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, proto.NewError(proto.Timeout, "no result of %s after %s", method, gr.cfg.CallTimeout)
		}
		time.Sleep(gr.cfg.PollInterval)
	}
}

// Stub returns a function calling the named operation with positional arguments
func (gr *GameRunner) Stub(method string) func(args ...interface{}) (interface{}, error) {
	return func(args ...interface{}) (interface{}, error) {
		return gr.Invoke(method, args, nil)
	}
}
