// Package tessumod shows who is speaking on TeamSpeak inside the game.
//
// The mod connects to the ClientQuery interface of the local TeamSpeak client, polls its user list,
// maps TeamSpeak users to players of the battle or lobby and sets their VOIP talking flags.
// All mod state belongs to the game thread; IO goroutines hand their results over with post.Post.
package tessumod

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/async"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/mod"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/post"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/ext/ts3query"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/fakes/bigworld"
	timer "github.com/xiaonanln/goTimer"
)

// MOD_NAME is the name the mod registers under
const MOD_NAME = "tessu_mod"

// Messages shown in the notification center
const (
	MSG_CONNECTED_TO_CLIENT      = "Connected to TeamSpeak client"
	MSG_DISCONNECTED_FROM_CLIENT = "Disconnected from TeamSpeak client"
	MSG_CONNECTED_TO_SERVER      = "Connected to TeamSpeak server"
	MSG_DISCONNECTED_FROM_SERVER = "Disconnected from TeamSpeak server"
)

const (
	_CONNECT_TIMEOUT = time.Second * 5
	_CONNECT_GROUP   = "tessumod.connect"
	_LOG_PREFIX      = "TessuMod: "
)

func init() {
	mod.Register(MOD_NAME, func() mod.Mod { return New() })
}

type tsUser struct {
	clientID int
	nickname string
	gameNick string
	speaking bool
}

// TessuMod is the mod instance
type TessuMod struct {
	env      *mod.Env
	engine   *bigworld.Engine
	settings modSettings

	session           *session
	generation        int // bumped on every reconnect, results of older sessions are dropped
	retryTimer        *timer.Timer
	connectedToServer bool
	users             map[int]*tsUser
	stopTimers        map[int64]*timer.Timer
	unloaded          bool
}

// New creates an unloaded TessuMod
func New() *TessuMod {
	return &TessuMod{
		users:      map[int]*tsUser{},
		stopTimers: map[int64]*timer.Timer{},
	}
}

// Load starts connecting to the TeamSpeak client
func (m *TessuMod) Load(env *mod.Env) error {
	m.env = env
	m.engine = env.Engine
	m.settings = readSettings(env.Settings)

	env.Settings.OnSync(func() {
		post.Post(m.onSettingsChanged)
	})
	m.engine.OnPlayerChanged(func(bigworld.Player) {
		m.refreshTalking()
	})

	m.logf(LOG_LEVEL_INFO, "loaded, settings from %s", env.Settings.Path())
	m.connect()
	return nil
}

// Unload closes the connection, waiting at most UnregisterWaitTimeout for the goodbye
func (m *TessuMod) Unload() {
	if m.unloaded {
		return
	}
	m.unloaded = true
	m.generation++

	m.engine.CancelCallback(m.retryTimer)
	for dbid, t := range m.stopTimers {
		m.engine.CancelCallback(t)
		delete(m.stopTimers, dbid)
	}

	if s := m.session; s != nil {
		m.session = nil
		if !s.close(m.env.Config.UnregisterWaitTimeout) {
			gwlog.Warnf("%s: connection did not close in %s", m, m.env.Config.UnregisterWaitTimeout)
		}
	}
	m.logf(LOG_LEVEL_INFO, "unloaded")
}

func (m *TessuMod) String() string {
	return "TessuMod"
}

func (m *TessuMod) logf(level int, format string, args ...interface{}) {
	if level < m.settings.logLevel {
		return
	}
	msg := _LOG_PREFIX + fmt.Sprintf(format, args...)
	logs := m.engine.Logs()
	switch level {
	case LOG_LEVEL_DEBUG:
		logs.Debug(msg)
	case LOG_LEVEL_INFO:
		logs.Note(msg)
	case LOG_LEVEL_WARNING:
		logs.Warning(msg)
	default:
		logs.Error(msg)
	}
}

func (m *TessuMod) address() string {
	return net.JoinHostPort(m.settings.host, strconv.Itoa(m.settings.port))
}

func (m *TessuMod) connect() {
	if m.unloaded || m.session != nil {
		return
	}
	m.retryTimer = nil

	gen := m.generation
	addr := m.address()
	m.logf(LOG_LEVEL_DEBUG, "connecting to %s", addr)
	async.AppendAsyncJob(_CONNECT_GROUP, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), _CONNECT_TIMEOUT)
		defer cancel()

		return ts3query.Dial(ctx, addr, func(name string, args ts3query.Entry) {
			post.Post(func() {
				m.onNotification(gen, name, args)
			})
		})
	}, func(res interface{}, err error) {
		if err != nil {
			m.onConnectFailed(gen, err)
		} else {
			m.onConnected(gen, res.(*ts3query.Client))
		}
	})
}

func (m *TessuMod) scheduleRetry() {
	if m.unloaded || m.retryTimer != nil {
		return
	}
	m.retryTimer = m.engine.Callback(m.env.Config.RetryTimeout, m.connect)
}

func (m *TessuMod) onConnectFailed(gen int, err error) {
	if gen != m.generation {
		return
	}
	m.logf(LOG_LEVEL_DEBUG, "connect failed: %v", err)
	m.scheduleRetry()
}

func (m *TessuMod) onConnected(gen int, client *ts3query.Client) {
	if gen != m.generation || m.unloaded {
		go client.Close()
		return
	}

	m.engine.SystemMessages().Push(MSG_CONNECTED_TO_CLIENT)
	m.logf(LOG_LEVEL_INFO, "connected to TeamSpeak client at %s", m.address())
	m.session = newSession(m, gen, client, m.settings.pollingInterval)
}

func (m *TessuMod) onDisconnected(gen int, err error) {
	if gen != m.generation {
		return
	}

	m.session = nil
	m.engine.SystemMessages().Push(MSG_DISCONNECTED_FROM_CLIENT)
	m.logf(LOG_LEVEL_WARNING, "disconnected from TeamSpeak client: %v", err)
	m.setConnectedToServer(false)
	m.setUsers(nil)
	m.scheduleRetry()
}

func (m *TessuMod) onPoll(gen int, connectedToServer bool, users []*tsUser) {
	if gen != m.generation {
		return
	}
	m.setConnectedToServer(connectedToServer)
	m.setUsers(users)
}

func (m *TessuMod) onNotification(gen int, name string, args ts3query.Entry) {
	if gen != m.generation || name != _TALK_STATUS_EVENT {
		return
	}
	u := m.users[args.Int("clid", -1)]
	if u == nil {
		return // picked up by the next poll
	}
	u.speaking = args["status"] == "1"
	m.logf(LOG_LEVEL_DEBUG, "%s speaking: %v", u.nickname, u.speaking)
	m.updateTalking(u)
}

func (m *TessuMod) setConnectedToServer(connected bool) {
	if connected == m.connectedToServer {
		return
	}
	m.connectedToServer = connected
	if connected {
		m.engine.SystemMessages().Push(MSG_CONNECTED_TO_SERVER)
		m.logf(LOG_LEVEL_INFO, "connected to TeamSpeak server")
	} else {
		m.engine.SystemMessages().Push(MSG_DISCONNECTED_FROM_SERVER)
		m.logf(LOG_LEVEL_INFO, "disconnected from TeamSpeak server")
	}
}

func (m *TessuMod) setUsers(users []*tsUser) {
	current := make(map[int]*tsUser, len(users))
	for _, u := range users {
		current[u.clientID] = u
	}
	for clid, old := range m.users {
		if _, ok := current[clid]; !ok && old.speaking {
			old.speaking = false
			m.updateTalking(old)
		}
	}

	m.users = current
	for _, u := range users {
		m.updateTalking(u)
	}
}

func (m *TessuMod) refreshTalking() {
	for _, u := range m.users {
		m.updateTalking(u)
	}
}

func (m *TessuMod) updateTalking(u *tsUser) {
	dbid, ok := m.findPlayer(u)
	if !ok {
		return
	}

	voip := m.engine.VOIP()
	if u.speaking {
		if t := m.stopTimers[dbid]; t != nil {
			m.engine.CancelCallback(t)
			delete(m.stopTimers, dbid)
		}
		if !voip.IsParticipantTalking(dbid) {
			voip.SetParticipantTalking(dbid, true)
		}
		return
	}

	if !voip.IsParticipantTalking(dbid) || m.stopTimers[dbid] != nil {
		return
	}
	if m.settings.speakStopDelay <= 0 {
		voip.SetParticipantTalking(dbid, false)
		return
	}
	m.stopTimers[dbid] = m.engine.Callback(m.settings.speakStopDelay, func() {
		delete(m.stopTimers, dbid)
		voip.SetParticipantTalking(dbid, false)
	})
}

// findPlayer maps a TeamSpeak user to a player of the battle or lobby: by the game nickname the
// user's TeamSpeak plugin publishes, else by the TeamSpeak nickname
func (m *TessuMod) findPlayer(u *tsUser) (int64, bool) {
	players := m.engine.Players()
	if u.gameNick != "" {
		for _, p := range players {
			if strings.EqualFold(p.Name, u.gameNick) {
				return p.DBID, true
			}
		}
	}
	for _, p := range players {
		if strings.EqualFold(p.Name, u.nickname) {
			return p.DBID, true
		}
	}
	return 0, false
}

func (m *TessuMod) onSettingsChanged() {
	if m.unloaded {
		return
	}
	old := m.settings
	m.settings = readSettings(m.env.Settings)
	m.logf(LOG_LEVEL_DEBUG, "settings reloaded")

	if old.host != m.settings.host || old.port != m.settings.port || old.pollingInterval != m.settings.pollingInterval {
		m.reconnect()
	}
}

func (m *TessuMod) reconnect() {
	m.generation++
	m.engine.CancelCallback(m.retryTimer)
	m.retryTimer = nil

	if s := m.session; s != nil {
		m.session = nil
		go s.close(m.env.Config.UnregisterWaitTimeout)
	}
	m.setConnectedToServer(false)
	m.setUsers(nil)
	m.connect()
}
