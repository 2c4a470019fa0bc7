// Package opmon records how often and how long worker operations run.
package opmon

import (
	"sort"
	"sync"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
)

var (
	operationAllocPool = sync.Pool{
		New: func() interface{} {
			return &Operation{}
		},
	}

	monitor = newMonitor()
)

// OpInfo is the statistics of one operation name
type OpInfo struct {
	Name          string
	Count         uint64
	TotalDuration time.Duration
	MaxDuration   time.Duration
}

type _Monitor struct {
	sync.Mutex
	opInfos map[string]*OpInfo
}

func newMonitor() *_Monitor {
	return &_Monitor{
		opInfos: map[string]*OpInfo{},
	}
}

func (monitor *_Monitor) record(opname string, duration time.Duration) {
	monitor.Lock()
	info := monitor.opInfos[opname]
	if info == nil {
		info = &OpInfo{Name: opname}
		monitor.opInfos[opname] = info
	}
	info.Count += 1
	info.TotalDuration += duration
	if duration > info.MaxDuration {
		info.MaxDuration = duration
	}
	monitor.Unlock()
}

func (monitor *_Monitor) snapshot(clear bool) []OpInfo {
	monitor.Lock()
	opInfos := monitor.opInfos
	if clear {
		monitor.opInfos = map[string]*OpInfo{}
	}
	infos := make([]OpInfo, 0, len(opInfos))
	for _, info := range opInfos {
		infos = append(infos, *info)
	}
	monitor.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// Snapshot returns the statistics recorded so far, sorted by name
func Snapshot() []OpInfo {
	return monitor.snapshot(false)
}

// Dump logs the statistics and clears them
func Dump() {
	infos := monitor.snapshot(true)
	if len(infos) == 0 {
		return
	}
	gwlog.Infof("opmon: %d operations", len(infos))
	for _, info := range infos {
		gwlog.Infof("opmon: %-40s x%-8d AVG %-12s MAX %s", info.Name, info.Count, info.TotalDuration/time.Duration(info.Count), info.MaxDuration)
	}
}

// Operation is the type of operation to be monitored
type Operation struct {
	name      string
	startTime time.Time
}

// StartOperation creates a new operation
func StartOperation(operationName string) *Operation {
	op := operationAllocPool.Get().(*Operation)
	op.name = operationName
	op.startTime = time.Now()
	return op
}

// Finish finishes the operation and records the duration of operation
func (op *Operation) Finish(warnThreshold time.Duration) {
	takeTime := time.Since(op.startTime)
	monitor.record(op.name, takeTime)
	if takeTime >= warnThreshold {
		gwlog.Warnf("opmon: operation %s takes %s > %s", op.name, takeTime, warnThreshold)
	}
	operationAllocPool.Put(op)
}
