// Package async runs blocking jobs off the game thread. Jobs of one group run one after another on
// the group's goroutine; their callbacks are posted back to the game thread.
package async

import (
	"sync"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwutils"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/post"
)

var (
	numAsyncJobWorkersRunning sync.WaitGroup
)

// AsyncCallback receives the result of an AsyncRoutine on the game thread
type AsyncCallback func(res interface{}, err error)

// Callback posts the callback with the result
func (ac AsyncCallback) Callback(res interface{}, err error) {
	if ac != nil {
		post.Post(func() {
			ac(res, err)
		})
	}
}

// AsyncRoutine is a blocking job
type AsyncRoutine func() (res interface{}, err error)

// AsyncJobWorker runs the jobs of one group
type AsyncJobWorker struct {
	group    string
	jobQueue chan asyncJobItem
}

type asyncJobItem struct {
	routine  AsyncRoutine
	callback AsyncCallback
}

func newAsyncJobWorker(group string) *AsyncJobWorker {
	ajw := &AsyncJobWorker{
		group:    group,
		jobQueue: make(chan asyncJobItem, consts.ASYNC_JOB_QUEUE_MAXLEN),
	}
	numAsyncJobWorkersRunning.Add(1)
	go ajw.loop()
	return ajw
}

func (ajw *AsyncJobWorker) appendJob(routine AsyncRoutine, callback AsyncCallback) {
	ajw.jobQueue <- asyncJobItem{routine, callback}
}

func (ajw *AsyncJobWorker) loop() {
	defer numAsyncJobWorkersRunning.Done()
	for item := range ajw.jobQueue {
		ajw.run(item)
	}
}

func (ajw *AsyncJobWorker) run(item asyncJobItem) {
	var res interface{}
	err := gwutils.CatchPanic(func() error {
		var err error
		res, err = item.routine()
		return err
	})
	item.callback.Callback(res, err)
}

var (
	asyncJobWorkersLock sync.RWMutex
	asyncJobWorkers     = map[string]*AsyncJobWorker{}
)

func getAsyncJobWorker(group string) (ajw *AsyncJobWorker) {
	asyncJobWorkersLock.RLock()
	ajw = asyncJobWorkers[group]
	asyncJobWorkersLock.RUnlock()

	if ajw == nil {
		asyncJobWorkersLock.Lock()
		ajw = asyncJobWorkers[group]
		if ajw == nil {
			ajw = newAsyncJobWorker(group)
			asyncJobWorkers[group] = ajw
		}
		asyncJobWorkersLock.Unlock()
	}
	return
}

// AppendAsyncJob queues routine in group; callback is posted with its result
func AppendAsyncJob(group string, routine AsyncRoutine, callback AsyncCallback) {
	ajw := getAsyncJobWorker(group)
	ajw.appendJob(routine, callback)
}

// Shutdown waits for every queued job to finish. Callbacks of these jobs stay posted
func Shutdown() {
	asyncJobWorkersLock.Lock()
	for _, ajw := range asyncJobWorkers {
		close(ajw.jobQueue)
	}
	asyncJobWorkers = map[string]*AsyncJobWorker{}
	asyncJobWorkersLock.Unlock()

	numAsyncJobWorkersRunning.Wait()
}
