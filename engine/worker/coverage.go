package worker

import (
	"os"
	rtcoverage "runtime/coverage"
	"sync"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
)

// coverage writes the coverage data of a -cover built worker to a directory, once
type coverage struct {
	dir  string
	once sync.Once
}

func newCoverage(dir string) *coverage {
	return &coverage{dir: dir}
}

func (c *coverage) enabled() bool {
	return c.dir != ""
}

func (c *coverage) start() {
	if !c.enabled() {
		return
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		gwlog.Warnf("coverage: create %s failed: %v", c.dir, err)
		return
	}
	if err := rtcoverage.WriteMetaDir(c.dir); err != nil {
		gwlog.Warnf("coverage: %v", err)
	}
}

// finalize writes the counters, only the first call does anything
func (c *coverage) finalize() {
	if !c.enabled() {
		return
	}
	c.once.Do(func() {
		if err := rtcoverage.WriteCountersDir(c.dir); err != nil {
			gwlog.Warnf("coverage: %v", err)
			return
		}
		gwlog.Infof("coverage: counters written to %s", c.dir)
	})
}
