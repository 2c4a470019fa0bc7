package process

import (
	"os"
	"testing"

	"github.com/bmizerany/assert"
)

func TestProcesses(t *testing.T) {
	ps, err := Processes()
	if err != nil {
		t.Errorf("list processes error: %s", err)
	}

	found := false
	for _, p := range ps {
		if p.Pid() == int32(os.Getpid()) {
			found = true
			cmdline, err := p.CmdlineSlice()
			t.Logf("process %s cmdline %v, err %v", p.Executable(), cmdline, err)
		}
	}
	assert.T(t, found, "own process is not listed")
}

func TestIsRunning(t *testing.T) {
	assert.Equal(t, true, IsRunning(int32(os.Getpid())))
}
