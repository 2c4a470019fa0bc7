// Package bigworld fakes the game client APIs the mod talks to: the player entity, engine callbacks,
// the notification center, the debug log and the VOIP manager.
//
// An Engine is not safe for concurrent use. It belongs to the goroutine that ticks it.
package bigworld

import (
	"math/rand"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/post"
	"github.com/pkg/errors"
	timer "github.com/xiaonanln/goTimer"
)

const _MAX_DBID = 1000000

// Engine is the simulated game client
type Engine struct {
	player    Player
	messages  *SystemMessages
	logs      *DebugLog
	voip      *VOIPManager
	callbacks map[*timer.Timer]struct{}
	ticks     int
	rand      *rand.Rand

	playerListeners []func(Player)
}

// New creates an Engine without a player
func New() *Engine {
	return &Engine{
		messages:  &SystemMessages{},
		logs:      &DebugLog{},
		voip:      newVOIPManager(),
		callbacks: map[*timer.Timer]struct{}{},
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Tick advances the simulated time: due callbacks fire and posted IO results are handled
func (e *Engine) Tick() {
	e.ticks++
	timer.Tick()
	post.Tick()
}

// Ticks returns the number of ticks so far
func (e *Engine) Ticks() int {
	return e.ticks
}

// Callback calls cb once after d, like BigWorld.callback
func (e *Engine) Callback(d time.Duration, cb func()) *timer.Timer {
	var t *timer.Timer
	t = timer.AddCallback(d, func() {
		delete(e.callbacks, t)
		cb()
	})
	e.callbacks[t] = struct{}{}
	return t
}

// CancelCallback cancels a callback returned by Callback
func (e *Engine) CancelCallback(t *timer.Timer) {
	if t == nil {
		return
	}
	t.Cancel()
	delete(e.callbacks, t)
}

// Close cancels every pending callback
func (e *Engine) Close() {
	for t := range e.callbacks {
		t.Cancel()
	}
	e.callbacks = map[*timer.Timer]struct{}{}
}

// Player returns the current player entity, nil before login
func (e *Engine) Player() Player {
	return e.player
}

// SetPlayer replaces the player entity, like BigWorld.player(entity)
func (e *Engine) SetPlayer(p Player) {
	gwlog.Debugf("bigworld: player changed to %s", p)
	e.player = p
	for _, cb := range e.playerListeners {
		cb(p)
	}
}

// OnPlayerChanged registers cb to be called when the player entity is replaced
func (e *Engine) OnPlayerChanged(cb func(Player)) {
	e.playerListeners = append(e.playerListeners, cb)
}

// SystemMessages returns the notification center
func (e *Engine) SystemMessages() *SystemMessages {
	return e.messages
}

// Logs returns the debug log
func (e *Engine) Logs() *DebugLog {
	return e.logs
}

// VOIP returns the voice chat manager
func (e *Engine) VOIP() *VOIPManager {
	return e.voip
}

// AddPlayer adds another player to the battle arena or to the prebattle roster, depending on where the player is
func (e *Engine) AddPlayer(name string) (int64, error) {
	dbid := e.newDBID()
	switch p := e.player.(type) {
	case *Avatar:
		p.Arena.addVehicle(e.newVehicleID(p.Arena), name, dbid)
	case *Account:
		p.Prebattle.addRoster(name, dbid)
	default:
		return 0, errors.Errorf("cannot add player %s: no player entity", name)
	}
	return dbid, nil
}

// PlayerDBID finds the account database id of a player by name
func (e *Engine) PlayerDBID(name string) (int64, bool) {
	for _, info := range e.Players() {
		if info.Name == name {
			return info.DBID, true
		}
	}
	return 0, false
}

// PlayerInfo is a player known to the client
type PlayerInfo struct {
	Name string
	DBID int64
}

// Players lists the players of the arena (in battle) or of the prebattle rosters (in lobby)
func (e *Engine) Players() []PlayerInfo {
	var infos []PlayerInfo
	switch p := e.player.(type) {
	case *Avatar:
		for _, v := range p.Arena.Vehicles {
			infos = append(infos, PlayerInfo{Name: v.Name, DBID: v.AccountDBID})
		}
	case *Account:
		for _, roster := range p.Prebattle.Rosters {
			for _, entry := range roster {
				infos = append(infos, PlayerInfo{Name: entry.Name, DBID: entry.DBID})
			}
		}
	}
	return infos
}

func (e *Engine) newDBID() int64 {
	for {
		dbid := e.rand.Int63n(_MAX_DBID)
		if _, used := e.dbidOwner(dbid); !used {
			return dbid
		}
	}
}

func (e *Engine) dbidOwner(dbid int64) (string, bool) {
	for _, info := range e.Players() {
		if info.DBID == dbid {
			return info.Name, true
		}
	}
	return "", false
}

func (e *Engine) newVehicleID(arena *Arena) int {
	for {
		id := e.rand.Intn(_MAX_DBID)
		if _, used := arena.Vehicles[id]; !used {
			return id
		}
	}
}
