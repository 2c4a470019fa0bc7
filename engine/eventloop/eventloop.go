// Package eventloop drives timers and posted callbacks on the calling goroutine.
package eventloop

import (
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/post"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	timer "github.com/xiaonanln/goTimer"
)

const _LOOP_INTERVAL = time.Millisecond * 5

// ProcessEvents fires due timers and runs posted callbacks once
func ProcessEvents() {
	timer.Tick()
	post.Tick()
}

// EventLoop runs scheduled callbacks until Exit is called
type EventLoop struct {
	exit   xnsyncutil.AtomicBool
	timers map[*timer.Timer]struct{}
}

// New creates an EventLoop
func New() *EventLoop {
	return &EventLoop{
		timers: map[*timer.Timer]struct{}{},
	}
}

// Call schedules cb after timeout; with repeat it keeps firing every timeout
func (el *EventLoop) Call(cb func(), repeat bool, timeout time.Duration) *timer.Timer {
	var t *timer.Timer
	if repeat {
		t = timer.AddTimer(timeout, timer.CallbackFunc(cb))
	} else {
		t = timer.AddCallback(timeout, func() {
			delete(el.timers, t)
			cb()
		})
	}
	el.timers[t] = struct{}{}
	return t
}

// ProcessEvents runs one iteration of the loop
func (el *EventLoop) ProcessEvents() {
	ProcessEvents()
}

// Execute runs the loop until Exit is called
func (el *EventLoop) Execute() {
	el.exit.Store(false)
	for !el.exit.Load() {
		ProcessEvents()
		time.Sleep(_LOOP_INTERVAL)
	}
	el.cancelTimers()
}

// Exit makes Execute return after the current iteration
func (el *EventLoop) Exit() {
	el.exit.Store(true)
}

// Close cancels every callback scheduled through this loop
func (el *EventLoop) Close() {
	el.cancelTimers()
}

func (el *EventLoop) cancelTimers() {
	for t := range el.timers {
		t.Cancel()
	}
	el.timers = map[*timer.Timer]struct{}{}
}
