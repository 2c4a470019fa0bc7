package gwutils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
)

func TestRunPanicless(t *testing.T) {
	assert.T(t, RunPanicless(func() {
		panic(1)
	}), "should report panic")
	assert.T(t, RunPanicless(func() {
		panic(fmt.Errorf("bad"))
	}), "should report panic")
	assert.T(t, !RunPanicless(func() {}), "should not report panic")
}

func TestCatchPanic(t *testing.T) {
	err := CatchPanic(func() error {
		panic("boom")
	})
	pe, ok := err.(*PanicError)
	assert.T(t, ok, "should be a PanicError")
	assert.Equal(t, "boom", pe.Error())
	assert.T(t, strings.Contains(pe.Stack, "gwutils"), "stack should be captured")

	err = CatchPanic(func() error {
		return errors.New("plain error")
	})
	assert.Equal(t, "plain error", err.Error())

	assert.Equal(t, nil, CatchPanic(func() error { return nil }))
}
