// Package worker is the entry point of the worker process: it loads the mod under test into the fake
// game client and runs the engine tick loop, handing one call per tick to the GameService.
package worker

import (
	"os"
	"path/filepath"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/async"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/config"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwutils"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/mod"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/opmon"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/service"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/settings"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/fakes/bigworld"
	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

// Worker runs one mod in one fake game client
type Worker struct {
	cfg      *config.WorkerConfig
	in       service.CallSource
	out      service.ResultSink
	quit     xnsyncutil.AtomicBool
	coverage *coverage

	Engine  *bigworld.Engine
	Store   *settings.Store
	Service *service.GameService
}

// New creates a Worker reading calls from in and writing results to out
func New(in service.CallSource, out service.ResultSink, cfg *config.WorkerConfig) *Worker {
	return &Worker{
		cfg:      cfg,
		in:       in,
		out:      out,
		coverage: newCoverage(cfg.CoverageDir),
	}
}

// Run prepares the environment, loads the mod and ticks the engine until quit
func Run(in service.CallSource, out service.ResultSink, cfg *config.WorkerConfig) error {
	return New(in, out, cfg).Run()
}

// Quit stops the tick loop at the next iteration, it is safe to call from any goroutine
func (w *Worker) Quit() {
	w.quit.Store(true)
}

// Run runs the worker until quit, a closed call pipe, or a startup failure.
// Coverage data is written exactly once, whatever way Run ends
func (w *Worker) Run() (err error) {
	gwlog.SetSource("worker")
	if w.cfg.LogLevel != "" {
		gwlog.SetLevel(gwlog.ParseLevel(w.cfg.LogLevel))
	}
	if w.cfg.LogFile != "" {
		gwlog.SetLogFile(w.cfg.LogFile, w.cfg.LogStderr)
	}

	w.coverage.start()
	defer w.coverage.finalize()
	defer func() {
		if v := recover(); v != nil {
			gwlog.TraceError("worker panic: %v", v)
			err = errors.Errorf("worker panic: %v", v)
		}
	}()

	if err = w.setup(); err != nil {
		return err
	}
	defer w.Engine.Close()

	m, err := mod.Resolve(w.cfg.ModPath)
	if err != nil {
		return err
	}
	env := &mod.Env{
		Engine:   w.Engine,
		Settings: w.Store,
		Config:   w.cfg.Mod,
	}
	if err = gwutils.CatchPanic(func() error { return m.Load(env) }); err != nil {
		return errors.Wrapf(err, "load mod %s", w.cfg.ModPath)
	}
	gwlog.Infof("mod %s loaded, ticking every %s", mod.Name(w.cfg.ModPath), w.cfg.TickInterval)
	// also runs when the loop panics
	defer func() {
		gwutils.RunPanicless(m.Unload)
		async.Shutdown()
		opmon.Dump()
		gwlog.Infof("mod %s unloaded after %d calls", mod.Name(w.cfg.ModPath), w.Service.NumCalls())
	}()

	w.loop()
	return nil
}

func (w *Worker) setup() error {
	iniDir := w.cfg.Mod.IniDirPath
	if err := resetDir(iniDir); err != nil {
		return err
	}

	store, err := settings.Open(mod.SettingsPath(iniDir, w.cfg.ModPath))
	if err != nil {
		return err
	}
	if len(w.cfg.Settings) > 0 {
		if err := store.SetAll(w.cfg.Settings); err != nil {
			return err
		}
	}

	w.Store = store
	w.Engine = bigworld.New()
	w.Service = service.NewGameService(w.in, w.out, w.Engine, store, w.cfg)
	return nil
}

func (w *Worker) loop() {
	for !w.quit.Load() && w.Service.Tick() {
		w.Engine.Tick()
		time.Sleep(w.cfg.TickInterval)
	}
}

// resetDir creates dir if it does not exist and removes everything in it
func resetDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "list %s", dir)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return errors.Wrapf(err, "remove stale %s", entry.Name())
		}
	}
	return nil
}
