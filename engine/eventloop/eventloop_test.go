package eventloop

import (
	"testing"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/post"
	"github.com/bmizerany/assert"
)

func TestExecuteUntilExit(t *testing.T) {
	el := New()
	repeats := 0
	el.Call(func() {
		repeats++
	}, true, time.Millisecond*5)
	el.Call(func() {
		el.Exit()
	}, false, time.Millisecond*100)

	start := time.Now()
	el.Execute()
	assert.T(t, time.Since(start) >= time.Millisecond*100, "loop exited too early")
	assert.T(t, repeats > 1, "repeating callback should fire more than once")

	// canceled after Execute
	before := repeats
	time.Sleep(time.Millisecond * 20)
	ProcessEvents()
	assert.Equal(t, before, repeats)
}

func TestOneShotFiresOnce(t *testing.T) {
	el := New()
	defer el.Close()

	fired := 0
	el.Call(func() { fired++ }, false, 0)
	for i := 0; i < 5; i++ {
		el.ProcessEvents()
		time.Sleep(time.Millisecond * 2)
	}
	assert.Equal(t, 1, fired)
}

func TestProcessEventsRunsPosts(t *testing.T) {
	ran := false
	post.Post(func() { ran = true })
	ProcessEvents()
	assert.T(t, ran, "posted callback should run")
}
