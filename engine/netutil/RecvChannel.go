package netutil

import (
	"fmt"
	"io"
	"os"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

// RecvChannel is the receiving end of a one-way message pipe.
//
// A reader goroutine queues every frame as soon as it arrives, TryRecv pops from that queue without blocking.
type RecvChannel struct {
	name   string
	r      io.ReadCloser
	packer MsgPacker
	queue  *xnsyncutil.SyncQueue
	closed xnsyncutil.AtomicBool
}

// NewRecvChannel creates a RecvChannel reading frames from r
func NewRecvChannel(name string, r io.ReadCloser, packer MsgPacker) *RecvChannel {
	rc := &RecvChannel{
		name:   name,
		r:      r,
		packer: packer,
		queue:  xnsyncutil.NewSyncQueue(),
	}
	go rc.readRoutine()
	return rc
}

func (rc *RecvChannel) String() string {
	return fmt.Sprintf("RecvChannel<%s>", rc.name)
}

// TryRecv unpacks the next queued message into msg. It returns false if no message is queued
func (rc *RecvChannel) TryRecv(msg interface{}) (bool, error) {
	item, ok := rc.queue.TryPop()
	if !ok || item == nil {
		return false, nil
	}

	if err := rc.packer.UnpackMsg(item.([]byte), msg); err != nil {
		return true, errors.Wrapf(err, "%s: unpack %T failed", rc, msg)
	}
	return true, nil
}

// Len returns the number of queued messages
func (rc *RecvChannel) Len() int {
	return rc.queue.Len()
}

// Closed returns true after the peer closed the pipe; every message sent before that is already queued
func (rc *RecvChannel) Closed() bool {
	return rc.closed.Load()
}

// Close closes the pipe, the reader goroutine quits
func (rc *RecvChannel) Close() error {
	return rc.r.Close()
}

func (rc *RecvChannel) readRoutine() {
	defer rc.closed.Store(true)

	for {
		payload, err := ReadFrame(rc.r)
		if err != nil {
			if !IsClosedError(err) {
				gwlog.Errorf("%s: read failed: %v", rc, err)
			}
			return
		}
		rc.queue.Push(payload)
	}
}

// IsClosedError checks if the error only means the pipe was closed by either side
func IsClosedError(err error) bool {
	err = errors.Cause(err)
	return err == io.EOF || errors.Is(err, os.ErrClosed)
}
