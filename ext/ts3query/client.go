package ts3query

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

const _BANNER = "TS3 Client"

var noDeadline time.Time

// NotifyHandler receives notifications pushed by the server. It is called on the reader goroutine
type NotifyHandler func(name string, args Entry)

// Client is a connection to a ClientQuery server. Commands are executed one at a time
type Client struct {
	conn    net.Conn
	answers chan string
	notify  NotifyHandler

	cmdLock sync.Mutex
	closed  xnsyncutil.AtomicBool
	done    chan struct{}
	readErr error
}

// Dial connects to the ClientQuery server at addr and consumes its banner
func Dial(ctx context.Context, addr string, notify NotifyHandler) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "connect client query %s", addr)
	}

	reader := bufio.NewReader(conn)
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}
	banner, err := readLine(reader)
	conn.SetReadDeadline(noDeadline)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "read banner of %s", addr)
	}
	if banner != _BANNER {
		conn.Close()
		return nil, errors.Errorf("%s is not a client query server: %q", addr, banner)
	}

	if notify == nil {
		notify = func(string, Entry) {}
	}
	c := &Client{
		conn:    conn,
		answers: make(chan string, 64),
		notify:  notify,
		done:    make(chan struct{}),
	}
	go c.readRoutine(reader)
	return c, nil
}

func (c *Client) String() string {
	return fmt.Sprintf("ts3query.Client<%s>", c.conn.RemoteAddr())
}

// Command sends one command and returns the entries of its answer.
// A status other than ok is returned as Status error
func (c *Client) Command(ctx context.Context, name string, args Entry) ([]Entry, error) {
	c.cmdLock.Lock()
	defer c.cmdLock.Unlock()

	if c.closed.Load() {
		return nil, errors.Errorf("%s: closed", c)
	}

	line := FormatCommand(name, args)
	if consts.DEBUG_QUERY {
		gwlog.Debugf("%s >>> %s", c, strings.TrimSpace(line))
	}
	if _, err := io.WriteString(c.conn, line); err != nil {
		return nil, errors.Wrapf(err, "%s: send %s", c, name)
	}

	var entries []Entry
	for {
		select {
		case answer := <-c.answers:
			if status, ok := ParseStatus(answer); ok {
				if !status.OK() {
					return entries, status
				}
				return entries, nil
			}
			entries = append(entries, ParseEntries(answer)...)
		case <-c.done:
			return nil, errors.Wrapf(c.readErr, "%s: connection lost during %s", c, name)
		case <-ctx.Done():
			// the rest of the answer would be taken for the answer of the next command
			c.conn.Close()
			return nil, errors.Wrapf(ctx.Err(), "%s: %s", c, name)
		}
	}
}

// Done is closed when the connection is lost
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close says goodbye and closes the connection
func (c *Client) Close() error {
	if c.closed.Load() {
		return nil
	}
	c.closed.Store(true)

	io.WriteString(c.conn, FormatCommand("quit", nil))

	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) readRoutine(reader *bufio.Reader) {
	defer close(c.done)

	for {
		line, err := readLine(reader)
		if err != nil {
			c.readErr = err
			if !c.closed.Load() {
				gwlog.Warnf("%s: read failed: %v", c, err)
			}
			return
		}
		if line == "" {
			continue
		}
		if consts.DEBUG_QUERY {
			gwlog.Debugf("%s <<< %s", c, line)
		}

		switch {
		case IsNotification(line):
			name, args := ParseCommand(line)
			c.notify(name, args)
		case strings.HasPrefix(line, "Welcome"), strings.HasPrefix(line, "selected "):
			// rest of the banner
		default:
			c.answers <- line
		}
	}
}

// lines end with "\n\r", so a read up to '\n' leaves the '\r' of the previous line in front
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.Trim(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.Trim(line, "\r\n"), nil
}
