package tessumod

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/post"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/ext/ts3query"
	"github.com/pkg/errors"
)

const (
	_TALK_STATUS_EVENT = "notifytalkstatuschange"
	_COMMAND_TIMEOUT   = time.Second * 5
	_GAME_NICK_START   = "<wot_nickname_start>"
	_GAME_NICK_END     = "<wot_nickname_end>"
)

// session is one connection to the TeamSpeak client. Its goroutine polls the client and posts the
// results to the game thread, tagged with the mod generation it was created in
type session struct {
	mod      *TessuMod
	gen      int
	client   *ts3query.Client
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func newSession(m *TessuMod, gen int, client *ts3query.Client, interval time.Duration) *session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		mod:      m,
		gen:      gen,
		client:   client,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// close stops polling and says goodbye; it returns false if that took longer than timeout
func (s *session) close(timeout time.Duration) bool {
	s.cancel()
	select {
	case <-s.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *session) run() {
	defer close(s.done)
	defer s.client.Close()

	err := s.runLoop()
	if s.ctx.Err() != nil {
		return // closed by the mod
	}
	post.Post(func() {
		s.mod.onDisconnected(s.gen, err)
	})
}

func (s *session) runLoop() error {
	if _, err := s.command("clientnotifyregister", ts3query.Entry{"schandlerid": "1", "event": _TALK_STATUS_EVENT}); err != nil {
		return err
	}

	for {
		connected, users, err := s.poll()
		if err != nil {
			return err
		}
		post.Post(func() {
			s.mod.onPoll(s.gen, connected, users)
		})

		select {
		case <-s.ctx.Done():
			return s.ctx.Err()
		case <-s.client.Done():
			return errors.New("connection closed by TeamSpeak client")
		case <-time.After(s.interval):
		}
	}
}

func (s *session) poll() (bool, []*tsUser, error) {
	if _, err := s.command("whoami", nil); err != nil {
		if isNotConnected(err) {
			return false, nil, nil
		}
		return false, nil, err
	}

	entries, err := s.command("clientlist", ts3query.Entry{"-voice": ""})
	if err != nil {
		if isNotConnected(err) {
			return false, nil, nil
		}
		return false, nil, err
	}

	users := make([]*tsUser, 0, len(entries))
	for _, entry := range entries {
		u := &tsUser{
			clientID: entry.Int("clid", -1),
			nickname: entry["client_nickname"],
			speaking: entry["client_flag_talking"] == "1",
		}
		gameNick, err := s.gameNick(u.clientID)
		if err != nil {
			return false, nil, err
		}
		u.gameNick = gameNick
		users = append(users, u)
	}
	return true, users, nil
}

func (s *session) gameNick(clientID int) (string, error) {
	entries, err := s.command("clientvariable", ts3query.Entry{"clid": strconv.Itoa(clientID), "client_meta_data": ""})
	if err != nil {
		if status, ok := errors.Cause(err).(ts3query.Status); ok && status.ID == ts3query.STATUS_INVALID_CLIENT_ID {
			return "", nil // left between clientlist and clientvariable
		}
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}
	return parseGameNick(entries[0]["client_meta_data"]), nil
}

func (s *session) command(name string, args ts3query.Entry) ([]ts3query.Entry, error) {
	ctx, cancel := context.WithTimeout(s.ctx, _COMMAND_TIMEOUT)
	defer cancel()
	return s.client.Command(ctx, name, args)
}

func parseGameNick(metaData string) string {
	start := strings.Index(metaData, _GAME_NICK_START)
	if start < 0 {
		return ""
	}
	rest := metaData[start+len(_GAME_NICK_START):]
	end := strings.Index(rest, _GAME_NICK_END)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

func isNotConnected(err error) bool {
	status, ok := errors.Cause(err).(ts3query.Status)
	return ok && status.ID == ts3query.STATUS_NOT_CONNECTED
}
