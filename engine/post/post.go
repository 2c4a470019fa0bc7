// Package post hands callbacks from IO goroutines over to the goroutine that ticks the engine
// (the worker tick loop, or the controller while it waits for a result).
package post

import (
	"sync"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwutils"
)

// PostCallback is the type of functions to be posted
type PostCallback func()

var (
	callbacks []PostCallback
	lock      sync.Mutex
)

// Post a callback which will be executed by the next Tick.
//
// Post might be called from other goroutines, so the queue is protected by a lock
func Post(f PostCallback) {
	lock.Lock()
	callbacks = append(callbacks, f)
	lock.Unlock()
}

// Pending returns the number of callbacks waiting for the next Tick
func Pending() int {
	lock.Lock()
	n := len(callbacks)
	lock.Unlock()
	return n
}

// Tick runs all posted functions, including the ones posted while ticking
func Tick() {
	for {
		lock.Lock()
		if len(callbacks) == 0 {
			lock.Unlock()
			return
		}
		batch := callbacks
		callbacks = nil
		lock.Unlock()

		for _, f := range batch {
			gwutils.RunPanicless(f)
		}
	}
}
