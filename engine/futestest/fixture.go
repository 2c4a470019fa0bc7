// Package futestest sets up a complete harness for a test: an event loop, the fake TeamSpeak client
// query service and a GameRunner whose worker loads the mod.
//
// Test binaries using it must call worker.MainIfWorker from TestMain.
package futestest

import (
	"strconv"
	"testing"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/config"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/eventloop"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/runner"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/fakes/tsquery"
)

const (
	_LOOP_CHECK_INTERVAL = time.Millisecond * 50
	_VERIFY_INTERVAL     = time.Millisecond * 100
	// DEFAULT_RUN_TIMEOUT is the timeout of RunInEventLoop when none is given
	DEFAULT_RUN_TIMEOUT = time.Second * 20
)

// Settings are mod settings: section -> key -> value
type Settings map[string]map[string]string

// TSClientState changes the fake TeamSpeak client; nil fields are left as they are
type TSClientState struct {
	ConnectedToServer *bool
	Users             map[string]tsquery.UserState
}

// Connected is a helper for TSClientState.ConnectedToServer
func Connected(connected bool) *bool {
	return &connected
}

// Fixture is the harness of one test
type Fixture struct {
	t       *testing.T
	Loop    *eventloop.EventLoop
	TS      *tsquery.Service
	Game    *runner.GameRunner
	inLoop  bool
	running bool
}

// NewFixture starts the fake TeamSpeak service and prepares a GameRunner. The worker is not started
// yet, so initial mod settings can still be changed. Everything is stopped when the test ends.
func NewFixture(t *testing.T) *Fixture {
	ts := tsquery.New()
	if err := ts.Start(); err != nil {
		t.Fatalf("start fake TeamSpeak client query: %v", err)
	}

	cfg := config.Default()
	cfg.Runner.CallTimeout = time.Second * 30
	cfg.Worker.TickInterval = time.Millisecond * 5
	cfg.Worker.PollTimeout = time.Second * 10
	cfg.Worker.Mod.IniDirPath = t.TempDir()
	cfg.Worker.Mod.RetryTimeout = time.Millisecond * 200
	cfg.Worker.Mod.UnregisterWaitTimeout = time.Millisecond * 500
	cfg.Worker.Settings = map[string]map[string]string{
		"General": {
			// "log_level": "0", // enable for debug logging
			"speak_stop_delay": "0",
		},
		"TSClientQueryService": {
			"host":             "127.0.0.1",
			"port":             strconv.Itoa(ts.Port()),
			"polling_interval": "0",
		},
	}

	f := &Fixture{
		t:    t,
		Loop: eventloop.New(),
		TS:   ts,
		Game: runner.NewFromConfig(cfg),
	}
	f.Game.SetEventPump(runner.EventPumpFunc(f.processEvents))

	t.Cleanup(func() {
		if err := f.Game.Stop(); err != nil {
			gwlog.Warnf("%s: %v", f.Game, err)
		}
		f.Loop.Close()
		f.TS.Stop()
	})
	return f
}

// Start starts the worker and loads the mod
func (f *Fixture) Start() {
	if err := f.Game.Start(); err != nil {
		f.t.Fatalf("start game: %v", err)
	}
	f.running = true
}

// ChangeModSettings changes the mod's settings file. Before Start the values seed the fresh file,
// afterwards they are written by the worker and take effect on ReloadIniFile
func (f *Fixture) ChangeModSettings(groups Settings) {
	if !f.running {
		seed := f.Game.WorkerConfig().Settings
		for section, values := range groups {
			if seed[section] == nil {
				seed[section] = map[string]string{}
			}
			for key, value := range values {
				seed[section][key] = value
			}
		}
		return
	}

	for section, values := range groups {
		for key, value := range values {
			if err := f.Game.SetSetting(section, key, value); err != nil {
				f.t.Fatalf("set setting %s.%s: %v", section, key, err)
			}
		}
	}
}

// ChangeTSClientState changes what the fake TeamSpeak client reports to the mod
func (f *Fixture) ChangeTSClientState(state TSClientState) {
	if state.ConnectedToServer != nil {
		f.TS.SetConnectedToServer(*state.ConnectedToServer)
	}
	for name, user := range state.Users {
		f.TS.SetUser(name, user)
	}
}

// RunInEventLoop runs the event loop until every verifier returns true at the same check. The test
// fails if that does not happen within timeout, 0 means DEFAULT_RUN_TIMEOUT
func (f *Fixture) RunInEventLoop(verifiers []func() bool, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DEFAULT_RUN_TIMEOUT
	}
	endTime := time.Now().Add(timeout)
	timedOut := false

	f.Loop.Call(func() {
		f.TS.Check()
		if time.Now().After(endTime) {
			timedOut = true
			f.Loop.Exit()
		}
	}, true, _LOOP_CHECK_INTERVAL)

	f.Loop.Call(func() {
		for _, verify := range verifiers {
			if !verify() {
				return
			}
		}
		f.Loop.Exit()
	}, true, _VERIFY_INTERVAL)

	f.inLoop = true
	f.Loop.Execute()
	f.inLoop = false

	if timedOut {
		f.t.Fatalf("execution took too long (%s)", timeout)
	}
}

// CallLater runs cb from the event loop after timeout
func (f *Fixture) CallLater(cb func(), timeout time.Duration) {
	f.Loop.Call(cb, false, timeout)
}

// processEvents is the event pump of the GameRunner. Inside RunInEventLoop the timers are already
// being fired by the loop, so only the fake service is served
func (f *Fixture) processEvents() {
	f.TS.Check()
	if !f.inLoop {
		eventloop.ProcessEvents()
	}
}
