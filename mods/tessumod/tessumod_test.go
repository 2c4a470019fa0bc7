package tessumod

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/config"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/mod"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/settings"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/fakes/bigworld"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/fakes/tsquery"
	"github.com/bmizerany/assert"
)

type testEnv struct {
	t       *testing.T
	ts      *tsquery.Service
	engine  *bigworld.Engine
	store   *settings.Store
	mod     *TessuMod
	players map[string]int64
}

func newTestEnv(t *testing.T) *testEnv {
	ts := tsquery.New()
	if err := ts.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ts.Stop)

	store, err := settings.Open(filepath.Join(t.TempDir(), "tessu_mod.ini"))
	if err != nil {
		t.Fatal(err)
	}
	setPort(t, store, ts.Port())

	engine := bigworld.New()
	t.Cleanup(engine.Close)

	return &testEnv{t: t, ts: ts, engine: engine, store: store, players: map[string]int64{}}
}

func setPort(t *testing.T, store *settings.Store, port int) {
	err := store.SetAll(map[string]map[string]string{
		SECTION_GENERAL:      {KEY_SPEAK_STOP_DELAY: "0", KEY_LOG_LEVEL: "0"},
		SECTION_CLIENT_QUERY: {KEY_HOST: "127.0.0.1", KEY_PORT: strconv.Itoa(port), KEY_POLLING_INTERVAL: "0"},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (te *testEnv) enterBattle(names ...string) {
	te.engine.SetPlayer(bigworld.NewAvatar())
	for _, name := range names {
		dbid, err := te.engine.AddPlayer(name)
		if err != nil {
			te.t.Fatal(err)
		}
		te.players[name] = dbid
	}
}

func (te *testEnv) load() {
	te.mod = New()
	err := te.mod.Load(&mod.Env{
		Engine:   te.engine,
		Settings: te.store,
		Config: config.ModConfig{
			IniDirPath:            filepath.Dir(te.store.Path()),
			RetryTimeout:          time.Millisecond * 50,
			UnregisterWaitTimeout: time.Second,
		},
	})
	if err != nil {
		te.t.Fatal(err)
	}
	te.t.Cleanup(te.mod.Unload)
}

func (te *testEnv) waitUntil(what string, cond func() bool) {
	deadline := time.Now().Add(time.Second * 10)
	for time.Now().Before(deadline) {
		te.engine.Tick()
		te.ts.Check()
		if cond() {
			return
		}
		time.Sleep(time.Millisecond * 5)
	}
	te.t.Fatalf("timeout waiting for %s", what)
}

func (te *testEnv) speaking(name string) func() bool {
	return func() bool {
		return te.engine.VOIP().IsParticipantTalking(te.players[name])
	}
}

func (te *testEnv) notSpeaking(name string) func() bool {
	return func() bool {
		return !te.engine.VOIP().IsParticipantTalking(te.players[name])
	}
}

func (te *testEnv) hasMessage(msg string) func() bool {
	return func() bool {
		return te.engine.SystemMessages().Has(msg)
	}
}

func TestConnectsToClientAndServer(t *testing.T) {
	te := newTestEnv(t)
	te.load()
	te.waitUntil("client connection", te.hasMessage(MSG_CONNECTED_TO_CLIENT))

	te.ts.SetConnectedToServer(true)
	te.waitUntil("server connection", te.hasMessage(MSG_CONNECTED_TO_SERVER))

	te.ts.SetConnectedToServer(false)
	te.waitUntil("server disconnection", te.hasMessage(MSG_DISCONNECTED_FROM_SERVER))
}

func TestSpeakingPlayer(t *testing.T) {
	te := newTestEnv(t)
	te.ts.SetConnectedToServer(true)
	te.enterBattle("Alice", "Bob")
	te.load()

	te.ts.SetUser("Alice", tsquery.UserState{Speaking: true})
	te.waitUntil("Alice speaking", te.speaking("Alice"))
	assert.Equal(t, false, te.engine.VOIP().IsParticipantTalking(te.players["Bob"]))

	te.ts.SetUser("Alice", tsquery.UserState{Speaking: false})
	te.waitUntil("Alice silent", te.notSpeaking("Alice"))
}

func TestSpeakingPlayerByGameNick(t *testing.T) {
	te := newTestEnv(t)
	te.ts.SetConnectedToServer(true)
	te.enterBattle("Bob")
	te.load()

	te.ts.SetUser("Robert [TS]", tsquery.UserState{Speaking: true, GameNick: "bob"})
	te.waitUntil("Bob speaking", te.speaking("Bob"))
}

func TestLeavingUserStopsSpeaking(t *testing.T) {
	te := newTestEnv(t)
	te.ts.SetConnectedToServer(true)
	te.enterBattle("Alice")
	te.load()

	te.ts.SetUser("Alice", tsquery.UserState{Speaking: true})
	te.waitUntil("Alice speaking", te.speaking("Alice"))
	te.ts.RemoveUser("Alice")
	te.waitUntil("Alice silent", te.notSpeaking("Alice"))
}

func TestSpeakStopDelay(t *testing.T) {
	te := newTestEnv(t)
	if err := te.store.Set(SECTION_GENERAL, KEY_SPEAK_STOP_DELAY, "0.3"); err != nil {
		t.Fatal(err)
	}
	te.ts.SetConnectedToServer(true)
	te.enterBattle("Alice")
	te.load()

	te.ts.SetUser("Alice", tsquery.UserState{Speaking: true})
	te.waitUntil("Alice speaking", te.speaking("Alice"))

	stopped := time.Now()
	te.ts.SetUser("Alice", tsquery.UserState{Speaking: false})
	te.waitUntil("Alice silent", te.notSpeaking("Alice"))
	assert.T(t, time.Since(stopped) >= time.Millisecond*300, "talking flag cleared before the stop delay")
}

func TestRetriesConnect(t *testing.T) {
	te := newTestEnv(t)
	port := te.ts.Port()
	te.ts.Stop()

	te.load()
	for i := 0; i < 20; i++ { // a few failed attempts
		te.engine.Tick()
		time.Sleep(time.Millisecond * 5)
	}
	assert.Equal(t, false, te.engine.SystemMessages().Has(MSG_CONNECTED_TO_CLIENT))

	te.ts = tsquery.New()
	if err := te.ts.StartAt("127.0.0.1:" + strconv.Itoa(port)); err != nil {
		t.Skipf("port %d taken meanwhile: %v", port, err)
	}
	t.Cleanup(te.ts.Stop)
	te.waitUntil("client connection", te.hasMessage(MSG_CONNECTED_TO_CLIENT))
}

func TestReconnectsOnSettingsChange(t *testing.T) {
	te := newTestEnv(t)
	te.load()
	te.waitUntil("client connection", te.hasMessage(MSG_CONNECTED_TO_CLIENT))

	other := tsquery.New()
	if err := other.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(other.Stop)
	other.SetConnectedToServer(true)

	setPort(t, te.store, other.Port())
	if err := te.store.Sync(); err != nil {
		t.Fatal(err)
	}
	te.waitUntil("server connection through the new port", te.hasMessage(MSG_CONNECTED_TO_SERVER))
}

func TestLogsToDebugLog(t *testing.T) {
	te := newTestEnv(t)
	te.load()
	te.waitUntil("client connection", te.hasMessage(MSG_CONNECTED_TO_CLIENT))

	found := false
	for _, entry := range te.engine.Logs().Entries() {
		if entry.Level == bigworld.LOG_NOTE && entry.Message == _LOG_PREFIX+"connected to TeamSpeak client at "+te.mod.address() {
			found = true
		}
	}
	assert.T(t, found, "connection note not logged")
}

func TestParseGameNick(t *testing.T) {
	assert.Equal(t, "bob", parseGameNick(_GAME_NICK_START+"bob"+_GAME_NICK_END))
	assert.Equal(t, "bob", parseGameNick("other"+_GAME_NICK_START+"bob"+_GAME_NICK_END+"stuff"))
	assert.Equal(t, "", parseGameNick(""))
	assert.Equal(t, "", parseGameNick(_GAME_NICK_START+"bob"))
}
