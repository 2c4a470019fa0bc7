package main

import (
	"strconv"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/config"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/eventloop"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/runner"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/fakes/tsquery"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/mods/tessumod"
)

const _SMOKE_PLAYER = "Alice"

// run starts a worker and checks that a speaking TeamSpeak user shows up as speaking player
func run(cfg *config.FutesConfig) {
	ts := tsquery.New()
	checkErrorOrQuit(ts.Start(), "start fake TeamSpeak client query failed")
	defer ts.Stop()

	settings := cfg.Worker.Settings
	if settings[tessumod.SECTION_CLIENT_QUERY] == nil {
		settings[tessumod.SECTION_CLIENT_QUERY] = map[string]string{}
	}
	settings[tessumod.SECTION_CLIENT_QUERY][tessumod.KEY_HOST] = "127.0.0.1"
	settings[tessumod.SECTION_CLIENT_QUERY][tessumod.KEY_PORT] = strconv.Itoa(ts.Port())

	game := runner.NewFromConfig(cfg)
	game.SetEventPump(runner.EventPumpFunc(func() {
		ts.Check()
		eventloop.ProcessEvents()
	}))
	checkErrorOrQuit(game.Start(), "start worker failed")
	defer func() {
		if err := game.Stop(); err != nil {
			showMsg("stop worker: %v", err)
		}
	}()
	showMsg("%s started", game)

	checkErrorOrQuit(game.Login(), "login failed")
	checkErrorOrQuit(game.EnterBattle(), "enter battle failed")
	_, err := game.AddPlayer(_SMOKE_PLAYER)
	checkErrorOrQuit(err, "add player failed")

	ts.SetConnectedToServer(true)
	ts.SetUser(_SMOKE_PLAYER, tsquery.UserState{Speaking: true})

	speaking, err := game.IsPlayerSpeaking(_SMOKE_PLAYER, 0)
	checkErrorOrQuit(err, "check speaking failed")
	if !speaking {
		game.Stop()
		showMsgAndQuit("%s is not speaking", _SMOKE_PLAYER)
	}
	showMsg("%s is speaking: OK", _SMOKE_PLAYER)
}
