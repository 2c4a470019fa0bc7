// Package tsquery fakes the ClientQuery interface of a running TeamSpeak 3 client.
//
// Tests drive the fake through setters: whether the client is connected to a TeamSpeak server,
// and which users are present and speaking. Talk status changes are pushed to registered
// clients when Check is called.
package tsquery

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/ext/ts3query"
	"github.com/pkg/errors"
)

const (
	_SCHANDLER_ID  = 1
	_OWN_CLIENT_ID = 1
	_CHANNEL_ID    = 1

	// GAME_NICK_START and GAME_NICK_END enclose the game nickname in a user's client_meta_data
	GAME_NICK_START = "<wot_nickname_start>"
	GAME_NICK_END   = "<wot_nickname_end>"
)

// UserState is what tests can change about a TeamSpeak user
type UserState struct {
	Speaking bool
	GameNick string // written into client_meta_data, empty for users without the plugin
}

type user struct {
	clientID int
	name     string
	state    UserState
}

// Service is the fake ClientQuery server
type Service struct {
	lock              sync.Mutex
	listener          net.Listener
	conns             map[*conn]struct{}
	users             map[string]*user
	connectedToServer bool
	nextClientID      int
	pending           []ts3query.Entry // talk status changes not pushed yet
	wg                sync.WaitGroup
}

// New creates a Service which is disconnected from any TeamSpeak server and has no users
func New() *Service {
	return &Service{
		conns:        map[*conn]struct{}{},
		users:        map[string]*user{},
		nextClientID: _OWN_CLIENT_ID + 1,
	}
}

// Start listens on a free port of the loopback interface
func (s *Service) Start() error {
	return s.StartAt("127.0.0.1:0")
}

// StartAt listens on addr
func (s *Service) StartAt(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}

	s.lock.Lock()
	s.listener = ln
	s.lock.Unlock()

	gwlog.Infof("%s: listening on %s", s, ln.Addr())
	s.wg.Add(1)
	go s.serveRoutine(ln)
	return nil
}

func (s *Service) String() string {
	return "FakeTSClientQuery"
}

// Port returns the port the service listens on, 0 if not started
func (s *Service) Port() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Stop closes the listener and every client connection
func (s *Service) Stop() {
	s.lock.Lock()
	ln := s.listener
	s.listener = nil
	s.lock.Unlock()

	if ln == nil {
		return
	}
	ln.Close()

	s.lock.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.lock.Unlock()
	for _, c := range conns {
		c.close()
	}
	s.wg.Wait()
	gwlog.Infof("%s: stopped", s)
}

// SetConnectedToServer changes whether the fake client is connected to a TeamSpeak server
func (s *Service) SetConnectedToServer(connected bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.connectedToServer = connected
}

// SetUser adds a user or changes its state. A change of Speaking is pushed on the next Check
func (s *Service) SetUser(name string, state UserState) {
	s.lock.Lock()
	defer s.lock.Unlock()

	u := s.users[name]
	if u == nil {
		u = &user{clientID: s.nextClientID, name: name}
		s.nextClientID++
		s.users[name] = u
	}
	changed := u.state.Speaking != state.Speaking
	u.state = state
	if changed {
		s.pending = append(s.pending, talkStatusChange(u))
	}
}

// RemoveUser removes a user
func (s *Service) RemoveUser(name string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.users, name)
}

// Check pushes queued talk status changes to the clients registered for them
func (s *Service) Check() {
	s.lock.Lock()
	pending := s.pending
	s.pending = nil
	var targets []*conn
	if s.connectedToServer {
		for c := range s.conns {
			if c.registered(_TALK_STATUS_EVENT) {
				targets = append(targets, c)
			}
		}
	}
	s.lock.Unlock()

	for _, notification := range pending {
		line := _TALK_STATUS_EVENT + " " + notification.String() + ts3query.LINE_END
		for _, c := range targets {
			c.write(line)
		}
	}
}

func talkStatusChange(u *user) ts3query.Entry {
	status := "0"
	if u.state.Speaking {
		status = "1"
	}
	return ts3query.Entry{
		"schandlerid":       strconv.Itoa(_SCHANDLER_ID),
		"status":            status,
		"isreceivedwhisper": "0",
		"clid":              strconv.Itoa(u.clientID),
	}
}

func (s *Service) serveRoutine(ln net.Listener) {
	defer s.wg.Done()

	for {
		netconn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				gwlog.Errorf("%s: accept failed: %v", s, err)
			}
			return
		}

		c := &conn{netconn: netconn, events: map[string]bool{}}
		s.lock.Lock()
		if s.listener != ln { // stopped
			s.lock.Unlock()
			netconn.Close()
			return
		}
		s.conns[c] = struct{}{}
		s.lock.Unlock()

		s.wg.Add(1)
		go s.serveConn(c)
	}
}

func (s *Service) serveConn(c *conn) {
	defer s.wg.Done()
	defer func() {
		s.lock.Lock()
		delete(s.conns, c)
		s.lock.Unlock()
		c.close()
	}()

	gwlog.Debugf("%s: client %s connected", s, c.netconn.RemoteAddr())
	c.write(ts3query.WELCOME)
	c.write(fmt.Sprintf("selected schandlerid=%d%s", _SCHANDLER_ID, ts3query.LINE_END))

	reader := bufio.NewReader(c.netconn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF && !c.isClosed() {
				gwlog.Warnf("%s: read from %s failed: %v", s, c.netconn.RemoteAddr(), err)
			}
			return
		}
		line = strings.Trim(line, "\r\n")
		if line == "" {
			continue
		}
		if consts.DEBUG_QUERY {
			gwlog.Debugf("%s <<< %s", s, line)
		}

		name, args := ts3query.ParseCommand(line)
		if name == "quit" {
			return
		}
		entries, status := s.handleCommand(c, name, args)
		if len(entries) > 0 {
			c.write(ts3query.FormatEntries(entries) + ts3query.LINE_END)
		}
		c.write(status.String() + ts3query.LINE_END)
	}
}

const _TALK_STATUS_EVENT = "notifytalkstatuschange"

var (
	statusOK             = ts3query.Status{ID: ts3query.STATUS_OK, Msg: "ok"}
	statusNotConnected   = ts3query.Status{ID: ts3query.STATUS_NOT_CONNECTED, Msg: "not connected"}
	statusInvalidClient  = ts3query.Status{ID: ts3query.STATUS_INVALID_CLIENT_ID, Msg: "invalid clientID"}
	statusCommandUnknown = ts3query.Status{ID: ts3query.STATUS_COMMAND_NOT_FOUND, Msg: "command not found"}
)

func (s *Service) handleCommand(c *conn, name string, args ts3query.Entry) ([]ts3query.Entry, ts3query.Status) {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch name {
	case "currentschandlerid":
		return []ts3query.Entry{{"schandlerid": strconv.Itoa(_SCHANDLER_ID)}}, statusOK
	case "clientnotifyregister":
		c.register(args["event"])
		return nil, statusOK
	case "whoami":
		if !s.connectedToServer {
			return nil, statusNotConnected
		}
		return []ts3query.Entry{{"clid": strconv.Itoa(_OWN_CLIENT_ID), "cid": strconv.Itoa(_CHANNEL_ID)}}, statusOK
	case "clientlist":
		if !s.connectedToServer {
			return nil, statusNotConnected
		}
		return s.clientList(args), statusOK
	case "clientvariable":
		if !s.connectedToServer {
			return nil, statusNotConnected
		}
		u := s.userByClientID(args.Int("clid", -1))
		if u == nil {
			return nil, statusInvalidClient
		}
		entry := ts3query.Entry{"clid": strconv.Itoa(u.clientID)}
		if _, ok := args["client_meta_data"]; ok {
			entry["client_meta_data"] = metaData(u)
		}
		if _, ok := args["client_nickname"]; ok {
			entry["client_nickname"] = u.name
		}
		return []ts3query.Entry{entry}, statusOK
	}
	return nil, statusCommandUnknown
}

func (s *Service) clientList(args ts3query.Entry) []ts3query.Entry {
	_, voice := args["-voice"]

	users := make([]*user, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].clientID < users[j].clientID
	})

	entries := make([]ts3query.Entry, 0, len(users))
	for _, u := range users {
		entry := ts3query.Entry{
			"clid":               strconv.Itoa(u.clientID),
			"cid":                strconv.Itoa(_CHANNEL_ID),
			"client_database_id": strconv.Itoa(u.clientID),
			"client_nickname":    u.name,
			"client_type":        "0",
		}
		if voice {
			entry["client_flag_talking"] = "0"
			if u.state.Speaking {
				entry["client_flag_talking"] = "1"
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func (s *Service) userByClientID(clientID int) *user {
	for _, u := range s.users {
		if u.clientID == clientID {
			return u
		}
	}
	return nil
}

func metaData(u *user) string {
	if u.state.GameNick == "" {
		return ""
	}
	return GAME_NICK_START + u.state.GameNick + GAME_NICK_END
}

type conn struct {
	netconn net.Conn
	lock    sync.Mutex
	events  map[string]bool
	closed  bool
}

func (c *conn) write(data string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return
	}
	if consts.DEBUG_QUERY {
		gwlog.Debugf("FakeTSClientQuery >>> %s", strings.TrimSpace(data))
	}
	if _, err := io.WriteString(c.netconn, data); err != nil {
		gwlog.Warnf("FakeTSClientQuery: write to %s failed: %v", c.netconn.RemoteAddr(), err)
	}
}

func (c *conn) register(event string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.events[event] = true
}

func (c *conn) registered(event string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.events[event] || c.events["any"]
}

func (c *conn) isClosed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closed
}

func (c *conn) close() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.netconn.Close()
}
