//go:build !windows

package runner_test

import (
	"syscall"
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestStopStalledWorker(t *testing.T) {
	game := startGame(t)
	pong, err := game.Ping()
	assert.Equal(t, nil, err)
	assert.Equal(t, "pong", pong)

	pid := game.Pid()
	assert.Equal(t, nil, syscall.Kill(pid, syscall.SIGSTOP))
	defer syscall.Kill(pid, syscall.SIGCONT)

	// no call bound at all: only the stop timeout limits Stop
	game.SetCallTimeout(0)
	game.SetStopTimeout(time.Second)

	t0 := time.Now()
	err = game.Stop()
	elapsed := time.Since(t0)
	assert.NotEqual(t, nil, err)
	assert.T(t, elapsed >= time.Second, elapsed)
	assert.T(t, elapsed < time.Second*5, elapsed)
	assert.Equal(t, false, game.IsRunning())
	assert.Equal(t, 0, game.Pid())
}
