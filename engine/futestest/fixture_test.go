package futestest

import (
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/worker"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/fakes/tsquery"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/mods/tessumod"
	"github.com/bmizerany/assert"
)

func TestMain(m *testing.M) {
	worker.MainIfWorker()
	os.Exit(m.Run())
}

func TestPlayerSpeaksInBattle(t *testing.T) {
	f := NewFixture(t)
	f.Start()
	game := f.Game

	assert.Equal(t, nil, game.Login())
	assert.Equal(t, nil, game.EnterBattle())
	_, err := game.AddPlayer("Alice")
	assert.Equal(t, nil, err)

	f.ChangeTSClientState(TSClientState{
		ConnectedToServer: Connected(true),
		Users:             map[string]tsquery.UserState{"Alice": {Speaking: true}},
	})

	speaking, err := game.IsPlayerSpeaking("Alice", 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, speaking)
}

func TestNotifiesConnectionToClient(t *testing.T) {
	f := NewFixture(t)
	f.Start()
	assert.Equal(t, nil, f.Game.Login())

	found, err := f.Game.NotificationCenterHasMessage(tessumod.MSG_CONNECTED_TO_CLIENT, 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, found)

	f.ChangeTSClientState(TSClientState{ConnectedToServer: Connected(true)})
	found, err = f.Game.NotificationCenterHasMessage(tessumod.MSG_CONNECTED_TO_SERVER, 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, found)
}

func TestPlayerStopsSpeakingInLobby(t *testing.T) {
	f := NewFixture(t)
	f.Start()
	game := f.Game

	assert.Equal(t, nil, game.Login())
	assert.Equal(t, nil, game.EnterLobby("Bob"))

	f.ChangeTSClientState(TSClientState{
		ConnectedToServer: Connected(true),
		Users:             map[string]tsquery.UserState{"Bob": {Speaking: true}},
	})
	speaking, err := game.IsPlayerSpeaking("Bob", 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, speaking)

	f.ChangeTSClientState(TSClientState{Users: map[string]tsquery.UserState{"Bob": {Speaking: false}}})
	notSpeaking, err := game.IsPlayerNotSpeaking("Bob", 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, notSpeaking)
}

func TestSpeakingByGameNick(t *testing.T) {
	f := NewFixture(t)
	f.Start()
	game := f.Game

	assert.Equal(t, nil, game.Login())
	assert.Equal(t, nil, game.EnterBattle())
	_, err := game.AddPlayer("Tester")
	assert.Equal(t, nil, err)

	f.ChangeTSClientState(TSClientState{
		ConnectedToServer: Connected(true),
		Users:             map[string]tsquery.UserState{"TS nick": {Speaking: true, GameNick: "Tester"}},
	})
	speaking, err := game.IsPlayerSpeaking("Tester", 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, speaking)
}

func TestChangeModSettingsBeforeStart(t *testing.T) {
	f := NewFixture(t)
	f.ChangeModSettings(Settings{"General": {"log_level": "0"}})
	f.Start()

	assert.Equal(t, nil, f.Game.Login())
	found, err := f.Game.WaitForLog("connected to TeamSpeak client", true, 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, found)
}

func TestChangeModSettingsAfterStart(t *testing.T) {
	f := NewFixture(t)
	f.Start()
	game := f.Game

	assert.Equal(t, nil, game.Login())
	found, err := game.WaitForLog("connected to TeamSpeak client", true, 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, found)

	// point the mod to a new service, it has to reconnect after the reload
	ts := tsquery.New()
	if err := ts.Start(); err != nil {
		t.Fatal(err)
	}
	defer ts.Stop()
	f.ChangeModSettings(Settings{"TSClientQueryService": {"port": strconv.Itoa(ts.Port())}})
	assert.Equal(t, nil, game.ReloadIniFile())

	found, err = game.WaitForLog("connected to TeamSpeak client", true, 0)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, found)
}

func TestRunInEventLoop(t *testing.T) {
	f := NewFixture(t)
	f.Start()
	assert.Equal(t, nil, f.Game.Login())
	assert.Equal(t, nil, f.Game.EnterBattle())
	_, err := f.Game.AddPlayer("Alice")
	assert.Equal(t, nil, err)

	f.CallLater(func() {
		f.ChangeTSClientState(TSClientState{
			ConnectedToServer: Connected(true),
			Users:             map[string]tsquery.UserState{"Alice": {Speaking: true}},
		})
	}, time.Millisecond*100)

	f.RunInEventLoop([]func() bool{
		func() bool {
			speaking, err := f.Game.IsPlayerSpeaking("Alice", time.Millisecond)
			return err == nil && speaking
		},
	}, time.Second*10)
}
