package netutil

import (
	"fmt"
	"io"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

// SendChannel is the sending end of a one-way message pipe.
//
// Send packs the message and queues it without touching the pipe; a writer goroutine drains the queue.
type SendChannel struct {
	name   string
	w      io.WriteCloser
	packer MsgPacker
	queue  *xnsyncutil.SyncQueue
	closed xnsyncutil.AtomicBool
	broken xnsyncutil.AtomicBool
	done   chan struct{}
}

// NewSendChannel creates a SendChannel writing frames to w
func NewSendChannel(name string, w io.WriteCloser, packer MsgPacker) *SendChannel {
	sc := &SendChannel{
		name:   name,
		w:      w,
		packer: packer,
		queue:  xnsyncutil.NewSyncQueue(),
		done:   make(chan struct{}),
	}
	go sc.writeRoutine()
	return sc
}

func (sc *SendChannel) String() string {
	return fmt.Sprintf("SendChannel<%s>", sc.name)
}

// Send queues the message, it never blocks on the pipe
func (sc *SendChannel) Send(msg interface{}) error {
	if sc.closed.Load() {
		return errors.Errorf("%s: send on closed channel", sc)
	}

	payload, err := sc.packer.PackMsg(msg, nil)
	if err != nil {
		return errors.Wrapf(err, "%s: pack %T failed", sc, msg)
	}
	if len(payload) > consts.MAX_FRAME_SIZE {
		return errors.Errorf("%s: message too large: %d bytes", sc, len(payload))
	}

	sc.queue.Push(payload)
	return nil
}

// Broken returns true once a write to the pipe has failed
func (sc *SendChannel) Broken() bool {
	return sc.broken.Load()
}

// Close flushes queued messages and closes the pipe
func (sc *SendChannel) Close() error {
	if sc.closed.Load() {
		return nil
	}
	sc.closed.Store(true)
	sc.queue.Close()
	<-sc.done
	return nil
}

func (sc *SendChannel) writeRoutine() {
	defer close(sc.done)
	defer sc.w.Close()

	for {
		item := sc.queue.Pop()
		if item == nil { // queue closed & drained
			return
		}
		if sc.broken.Load() {
			continue
		}

		if err := WriteFrame(sc.w, item.([]byte)); err != nil {
			gwlog.Errorf("%s: write failed: %v", sc, err)
			sc.broken.Store(true)
		}
	}
}
