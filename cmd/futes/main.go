// Command futes runs the TessuMod functional-test harness.
//
//	futes [-configfile futes.ini] run      runs the smoke scenario against the fake TeamSpeak client
//	futes status                           lists running worker processes
//	futes stop                             stops running worker processes
//	futes futes-worker                     worker process entry, started by the harness itself
package main

import (
	"flag"
	"os"
	"strings"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/config"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/worker"
	_ "github.com/WorldOfTanksMods/wot-teamspeak-mod/mods/tessumod"
)

var args struct {
	configFile string
}

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.Parse()
}

func main() {
	// the harness starts its own executable as worker, before any flag is parsed
	if worker.IsWorker() || (len(os.Args) > 1 && os.Args[1] == consts.WORKER_ARG) {
		worker.Main()
	}

	parseArgs()
	args := flag.Args()
	showMsg("arguments: %s", strings.Join(args, " "))

	if len(args) == 0 {
		showMsg("no command to execute")
		flag.Usage()
		os.Exit(1)
	}

	cmd := args[0]
	if cmd == "run" {
		run(loadConfig())
	} else if cmd == "status" {
		status()
	} else if cmd == "stop" {
		stop()
	} else {
		showMsgAndQuit("unknown command: %s", cmd)
	}
}

func loadConfig() *config.FutesConfig {
	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}
	cfg, err := config.Load(config.GetConfigFilePath())
	checkErrorOrQuit(err, "read config failed")

	gwlog.SetSource("futes")
	gwlog.SetLevel(gwlog.ParseLevel(cfg.Runner.LogLevel))
	return cfg
}
