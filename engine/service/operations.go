package service

import (
	"strings"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/config"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/proto"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/settings"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/fakes/bigworld"
	"github.com/pkg/errors"
)

// Operations is the operation set the controller drives the fake game client with.
//
// Polling operations check their condition once per engine tick and give up with false after
// timeout seconds; a timeout of 0 means the configured poll timeout.
type Operations struct {
	svc       *GameService
	engine    *bigworld.Engine
	store     *settings.Store
	cfg       *config.WorkerConfig
	foundLogs map[int]bool // debug log indexes which satisfied wait_for_log already
}

// NewOperations creates the operation set of a worker
func NewOperations(svc *GameService, engine *bigworld.Engine, store *settings.Store, cfg *config.WorkerConfig) *Operations {
	return &Operations{
		svc:       svc,
		engine:    engine,
		store:     store,
		cfg:       cfg,
		foundLogs: map[int]bool{},
	}
}

// OperationParams declares parameter names for keyword arguments, and defaults
func (ops *Operations) OperationParams() map[string][]Param {
	return map[string][]Param{
		proto.OP_ENTER_LOBBY:                     {P("player_names", nil)},
		proto.OP_NOTIFICATION_CENTER_HAS_MESSAGE: {P("message", nil), P("timeout", 0)},
		proto.OP_ADD_PLAYER:                      {P("player_name", nil)},
		proto.OP_GET_PLAYER_ID:                   {P("player_name", nil)},
		proto.OP_IS_PLAYER_SPEAKING:              {P("player_name", nil), P("timeout", 0)},
		proto.OP_IS_PLAYER_NOT_SPEAKING:          {P("player_name", nil), P("timeout", 0)},
		proto.OP_WAIT_FOR_LOG:                    {P("log_message", nil), P("once", true), P("timeout", 0)},
		proto.OP_SET_SETTING:                     {P("section", nil), P("key", nil), P("value", nil)},
		proto.OP_ECHO:                            {P("value", nil)},
		proto.OP_SUM:                             {P("a", nil), P("b", nil), P("scale", 1)},
		proto.OP_RAISE_ERROR:                     {P("message", nil)},
		proto.OP_PANIC:                           {P("message", nil)},
	}
}

// Quit ends the worker's tick loop after this call
func (ops *Operations) Quit() {
	gwlog.Infof("quit requested")
	ops.svc.Quit()
}

// Login makes the player enter the garage
func (ops *Operations) Login() {
	ops.engine.SetPlayer(bigworld.NewAccount())
}

// EnterBattle makes the player enter a battle
func (ops *Operations) EnterBattle() {
	ops.engine.SetPlayer(bigworld.NewAvatar())
}

// EnterLobby makes the player enter a prebattle lobby together with the named players
func (ops *Operations) EnterLobby(playerNames []string) error {
	ops.engine.SetPlayer(bigworld.NewAccount())
	for _, name := range playerNames {
		if _, err := ops.engine.AddPlayer(name); err != nil {
			return err
		}
	}
	return nil
}

// NotificationCenterHasMessage waits until message is shown in the notification center
func (ops *Operations) NotificationCenterHasMessage(message string, timeout float64) (bool, error) {
	return ops.poll(timeout, func() (bool, error) {
		return ops.engine.SystemMessages().Has(message), nil
	})
}

// GetLogs returns the debug log
func (ops *Operations) GetLogs() []bigworld.LogEntry {
	return ops.engine.Logs().Entries()
}

// AddPlayer adds a player to the battle or lobby and returns its account database id
func (ops *Operations) AddPlayer(playerName string) (int64, error) {
	return ops.engine.AddPlayer(playerName)
}

// GetPlayerID returns the account database id of a player
func (ops *Operations) GetPlayerID(playerName string) (int64, error) {
	dbid, ok := ops.engine.PlayerDBID(playerName)
	if !ok {
		return 0, errors.Errorf("Player %s doesn't exist", playerName)
	}
	return dbid, nil
}

// IsPlayerSpeaking waits until the player's VOIP talking flag is set
func (ops *Operations) IsPlayerSpeaking(playerName string, timeout float64) (bool, error) {
	return ops.waitTalking(playerName, true, timeout)
}

// IsPlayerNotSpeaking waits until the player's VOIP talking flag is cleared
func (ops *Operations) IsPlayerNotSpeaking(playerName string, timeout float64) (bool, error) {
	return ops.waitTalking(playerName, false, timeout)
}

func (ops *Operations) waitTalking(playerName string, talking bool, timeout float64) (bool, error) {
	return ops.poll(timeout, func() (bool, error) {
		dbid, err := ops.GetPlayerID(playerName)
		if err != nil {
			return false, err
		}
		return ops.engine.VOIP().IsParticipantTalking(dbid) == talking, nil
	})
}

// WaitForLog waits until a debug log line contains logMessage, ignoring case.
// With once, lines which satisfied an earlier wait do not count
func (ops *Operations) WaitForLog(logMessage string, once bool, timeout float64) (bool, error) {
	needle := strings.ToLower(logMessage)
	return ops.poll(timeout, func() (bool, error) {
		logs := ops.engine.Logs()
		for index := 0; index < logs.Len(); index++ {
			if once && ops.foundLogs[index] {
				continue
			}
			if strings.Contains(strings.ToLower(logs.At(index).Message), needle) {
				ops.foundLogs[index] = true
				return true, nil
			}
		}
		return false, nil
	})
}

// ReloadIniFile makes the mod re-read its settings file
func (ops *Operations) ReloadIniFile() error {
	return ops.store.Sync()
}

// SetSetting changes a value in the mod's settings file, without reloading it
func (ops *Operations) SetSetting(section, key, value string) error {
	return ops.store.Set(section, key, value)
}

// Ping answers pong
func (ops *Operations) Ping() string {
	return "pong"
}

// Echo returns value
func (ops *Operations) Echo(value interface{}) interface{} {
	return value
}

// Sum returns (a + b) * scale
func (ops *Operations) Sum(a, b, scale float64) float64 {
	return (a + b) * scale
}

// RaiseError fails with message
func (ops *Operations) RaiseError(message string) error {
	return errors.New(message)
}

// Panic panics with message
func (ops *Operations) Panic(message string) {
	panic(message)
}

func (ops *Operations) poll(timeout float64, check func() (bool, error)) (bool, error) {
	d := ops.cfg.PollTimeout
	if timeout > 0 {
		d = time.Duration(timeout * float64(time.Second))
	}

	deadline := time.Now().Add(d)
	for {
		ok, err := check()
		if err != nil || ok {
			return ok, err
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		ops.engine.Tick()
		time.Sleep(ops.cfg.TickInterval)
	}
}
