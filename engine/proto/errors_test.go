package proto

import (
	"fmt"
	"strings"
	"testing"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwutils"
	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
)

func TestRemoteErrorIs(t *testing.T) {
	err := NewError(UnknownOperation, "no operation named %s", "fly")
	assert.Equal(t, "no operation named fly", err.Error())
	assert.T(t, errors.Is(err, ErrUnknownOperation), "should match its kind")
	assert.T(t, !errors.Is(err, ErrOperationFailed), "should not match another kind")
	assert.Equal(t, UnknownOperation, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestFromError(t *testing.T) {
	re := FromError(errors.New("Player Bob doesn't exist"))
	assert.Equal(t, OperationFailed, re.Kind)
	assert.Equal(t, "Player Bob doesn't exist", re.Message)
	assert.T(t, strings.Contains(re.Trace, "TestFromError"), "trace should hold the stack of the error")

	pe := gwutils.CatchPanic(func() error { panic("boom") })
	re = FromError(pe)
	assert.Equal(t, "panic", re.Type)
	assert.Equal(t, "boom", re.Message)

	orig := NewError(Timeout, "slow")
	assert.T(t, FromError(errors.Wrap(orig, "wrapped")) == orig, "should unwrap RemoteError")
}

func TestRemoteErrorFormat(t *testing.T) {
	err := &RemoteError{Kind: OperationFailed, Type: "*errors.fundamental", Message: "bad", Trace: "stack"}
	assert.Equal(t, "bad", fmt.Sprintf("%v", err))
	assert.Equal(t, "bad (OperationFailed/*errors.fundamental)\nstack", fmt.Sprintf("%+v", err))
}
