package runner

import (
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/proto"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/fakes/bigworld"
	"github.com/pkg/errors"
)

// GameClient is the typed view of the worker operations.
//
// A timeout of 0 means the poll timeout configured for the worker.
type GameClient interface {
	Quit() error
	Login() error
	EnterBattle() error
	EnterLobby(playerNames ...string) error
	NotificationCenterHasMessage(message string, timeout time.Duration) (bool, error)
	GetLogs() ([]bigworld.LogEntry, error)
	AddPlayer(playerName string) (int64, error)
	GetPlayerID(playerName string) (int64, error)
	IsPlayerSpeaking(playerName string, timeout time.Duration) (bool, error)
	IsPlayerNotSpeaking(playerName string, timeout time.Duration) (bool, error)
	WaitForLog(logMessage string, once bool, timeout time.Duration) (bool, error)
	ReloadIniFile() error
	SetSetting(section, key, value string) error
	Ping() (string, error)
	Echo(value interface{}) (interface{}, error)
	Sum(a, b, scale float64) (float64, error)
	RaiseError(message string) error
}

var _ GameClient = (*GameRunner)(nil)

// Quit ends the worker's tick loop, the worker process exits afterwards
func (gr *GameRunner) Quit() error {
	_, err := gr.Invoke(proto.OP_QUIT, nil, nil)
	return err
}

// Login makes the player an account in the garage
func (gr *GameRunner) Login() error {
	_, err := gr.Invoke(proto.OP_LOGIN, nil, nil)
	return err
}

// EnterBattle makes the player an avatar in an arena
func (gr *GameRunner) EnterBattle() error {
	_, err := gr.Invoke(proto.OP_ENTER_BATTLE, nil, nil)
	return err
}

// EnterLobby puts the given players into the prebattle roster of the account
func (gr *GameRunner) EnterLobby(playerNames ...string) error {
	names := make([]interface{}, len(playerNames))
	for i, name := range playerNames {
		names[i] = name
	}
	_, err := gr.Invoke(proto.OP_ENTER_LOBBY, []interface{}{names}, nil)
	return err
}

func (gr *GameRunner) NotificationCenterHasMessage(message string, timeout time.Duration) (bool, error) {
	return gr.invokeBool(proto.OP_NOTIFICATION_CENTER_HAS_MESSAGE, message, timeout.Seconds())
}

// GetLogs returns the whole debug log of the game client
func (gr *GameRunner) GetLogs() ([]bigworld.LogEntry, error) {
	var logs []bigworld.LogEntry
	err := gr.invokeInto(&logs, proto.OP_GET_LOGS)
	return logs, err
}

// AddPlayer adds a player to the arena or lobby and returns its database id
func (gr *GameRunner) AddPlayer(playerName string) (int64, error) {
	var id int64
	err := gr.invokeInto(&id, proto.OP_ADD_PLAYER, playerName)
	return id, err
}

func (gr *GameRunner) GetPlayerID(playerName string) (int64, error) {
	var id int64
	err := gr.invokeInto(&id, proto.OP_GET_PLAYER_ID, playerName)
	return id, err
}

// IsPlayerSpeaking waits until the player's talking flag is set
func (gr *GameRunner) IsPlayerSpeaking(playerName string, timeout time.Duration) (bool, error) {
	return gr.invokeBool(proto.OP_IS_PLAYER_SPEAKING, playerName, timeout.Seconds())
}

// IsPlayerNotSpeaking waits until the player's talking flag is cleared
func (gr *GameRunner) IsPlayerNotSpeaking(playerName string, timeout time.Duration) (bool, error) {
	return gr.invokeBool(proto.OP_IS_PLAYER_NOT_SPEAKING, playerName, timeout.Seconds())
}

// WaitForLog waits until a debug log line contains logMessage, ignoring case. With once, every log
// line satisfies only one wait
func (gr *GameRunner) WaitForLog(logMessage string, once bool, timeout time.Duration) (bool, error) {
	return gr.invokeBool(proto.OP_WAIT_FOR_LOG, logMessage, once, timeout.Seconds())
}

// ReloadIniFile makes the mod read its settings file again
func (gr *GameRunner) ReloadIniFile() error {
	_, err := gr.Invoke(proto.OP_RELOAD_INI_FILE, nil, nil)
	return err
}

func (gr *GameRunner) SetSetting(section, key, value string) error {
	_, err := gr.Invoke(proto.OP_SET_SETTING, []interface{}{section, key, value}, nil)
	return err
}

func (gr *GameRunner) Ping() (string, error) {
	var pong string
	err := gr.invokeInto(&pong, proto.OP_PING)
	return pong, err
}

// Echo returns value after a round trip through the worker
func (gr *GameRunner) Echo(value interface{}) (interface{}, error) {
	return gr.Invoke(proto.OP_ECHO, []interface{}{value}, nil)
}

func (gr *GameRunner) Sum(a, b, scale float64) (float64, error) {
	var sum float64
	err := gr.invokeInto(&sum, proto.OP_SUM, a, b, scale)
	return sum, err
}

// RaiseError makes the operation fail in the worker with message
func (gr *GameRunner) RaiseError(message string) error {
	_, err := gr.Invoke(proto.OP_RAISE_ERROR, []interface{}{message}, nil)
	return err
}

func (gr *GameRunner) invokeBool(method string, args ...interface{}) (bool, error) {
	var ok bool
	err := gr.invokeInto(&ok, method, args...)
	return ok, err
}

// invokeInto calls method and decodes its result into v
func (gr *GameRunner) invokeInto(v interface{}, method string, args ...interface{}) error {
	value, err := gr.Invoke(method, args, nil)
	if err != nil {
		return err
	}
	return gr.decode(value, v)
}

// decode converts a generically unpacked result into v by packing it again
func (gr *GameRunner) decode(value interface{}, v interface{}) error {
	data, err := gr.packer.PackMsg(value, nil)
	if err != nil {
		return errors.Wrap(err, "decode result")
	}
	return errors.Wrapf(gr.packer.UnpackMsg(data, v), "decode result into %T", v)
}
