package worker

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/binutil"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/config"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/netutil"
	"github.com/pkg/errors"
)

// IsWorker returns true in a process started as worker
func IsWorker() bool {
	return os.Getenv(consts.WORKER_ENV) == "1"
}

// MainIfWorker runs Main and exits if the process was started as worker. Test binaries call it
// from TestMain, so the runner can start the test binary itself as worker
func MainIfWorker() {
	if IsWorker() {
		Main()
	}
}

// Main is the worker process entry: it reads the bootstrap config from the call pipe, runs the
// worker and exits. It never returns
func Main() {
	gwlog.SetSource("worker")

	inFile := os.NewFile(consts.WORKER_INBOUND_FD, "calls")
	outFile := os.NewFile(consts.WORKER_OUTBOUND_FD, "results")
	if inFile == nil || outFile == nil {
		gwlog.Fatalf("worker pipes (fd %d and %d) are missing", consts.WORKER_INBOUND_FD, consts.WORKER_OUTBOUND_FD)
	}

	cfg, err := ReadBootstrap(inFile)
	if err != nil {
		gwlog.Fatalf("read worker config failed: %+v", err)
	}
	gwlog.Debugf("worker config:\n%s", config.DumpPretty(cfg))

	packer := netutil.PackerByName(cfg.Packer)
	in := netutil.NewRecvChannel("calls", inFile, packer)
	out := netutil.NewSendChannel("results", outFile, packer)

	binutil.SetupHTTPServer("127.0.0.1", cfg.PprofPort)
	w := New(in, out, cfg)
	setupSignals(w)

	err = w.Run()
	out.Close()
	gwlog.Sync()
	if err != nil {
		gwlog.Errorf("worker failed: %+v", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// ReadBootstrap reads the WorkerConfig the controller sends as first frame, packed with MSG_PACKER
func ReadBootstrap(r io.Reader) (*config.WorkerConfig, error) {
	payload, err := netutil.ReadFrame(r)
	if err != nil {
		return nil, errors.Wrap(err, "read bootstrap frame")
	}
	var cfg config.WorkerConfig
	if err := netutil.MSG_PACKER.UnpackMsg(payload, &cfg); err != nil {
		return nil, errors.Wrap(err, "unpack bootstrap frame")
	}
	return &cfg, nil
}

// WriteBootstrap writes the first frame of the call pipe
func WriteBootstrap(w io.Writer, cfg *config.WorkerConfig) error {
	payload, err := netutil.MSG_PACKER.PackMsg(cfg, nil)
	if err != nil {
		return errors.Wrap(err, "pack bootstrap frame")
	}
	return errors.Wrap(netutil.WriteFrame(w, payload), "write bootstrap frame")
}

func setupSignals(w *Worker) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-c
		gwlog.Infof("worker: signal %s received, quitting", sig)
		w.Quit()
	}()
}
