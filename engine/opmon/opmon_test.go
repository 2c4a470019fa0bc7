package opmon

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func findInfo(name string) (OpInfo, bool) {
	for _, info := range Snapshot() {
		if info.Name == name {
			return info, true
		}
	}
	return OpInfo{}, false
}

func TestOperation(t *testing.T) {
	for i := 0; i < 3; i++ {
		op := StartOperation("test.op")
		time.Sleep(time.Millisecond)
		op.Finish(time.Hour)
	}
	StartOperation("test.slow").Finish(0)

	info, ok := findInfo("test.op")
	assert.T(t, ok, "test.op not recorded")
	assert.Equal(t, uint64(3), info.Count)
	assert.T(t, info.MaxDuration >= time.Millisecond, info.MaxDuration)
	assert.T(t, info.TotalDuration >= info.MaxDuration, info.TotalDuration)

	Dump()
	_, ok = findInfo("test.op")
	assert.Equal(t, false, ok)
}
