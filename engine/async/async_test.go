package async

import (
	"errors"
	"testing"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/post"
	"github.com/bmizerany/assert"
)

func waitPosted(t *testing.T, done func() bool) {
	deadline := time.Now().Add(time.Second * 5)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatal("callback was not posted")
		}
		post.Tick()
		time.Sleep(time.Millisecond)
	}
}

func TestAppendAsyncJob(t *testing.T) {
	var res interface{}
	called := false
	AppendAsyncJob("test", func() (interface{}, error) {
		return 1, nil
	}, func(r interface{}, err error) {
		res = r
		called = true
	})
	waitPosted(t, func() bool { return called })
	assert.Equal(t, 1, res)
}

func TestJobsOfGroupRunInOrder(t *testing.T) {
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		AppendAsyncJob("ordered", func() (interface{}, error) {
			return i, nil
		}, func(r interface{}, err error) {
			order = append(order, r.(int))
		})
	}
	waitPosted(t, func() bool { return len(order) == 10 })
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestJobErrorAndPanic(t *testing.T) {
	var errs []error
	AppendAsyncJob("failing", func() (interface{}, error) {
		return nil, errors.New("failed")
	}, func(r interface{}, err error) {
		errs = append(errs, err)
	})
	AppendAsyncJob("failing", func() (interface{}, error) {
		panic("job panic")
	}, func(r interface{}, err error) {
		errs = append(errs, err)
	})
	waitPosted(t, func() bool { return len(errs) == 2 })
	assert.Equal(t, "failed", errs[0].Error())
	assert.NotEqual(t, nil, errs[1])
}

func TestShutdown(t *testing.T) {
	finished := false
	AppendAsyncJob("slow", func() (interface{}, error) {
		time.Sleep(time.Millisecond * 50)
		finished = true
		return nil, nil
	}, nil)
	Shutdown()
	assert.Equal(t, true, finished)
}
