package netutil

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/bmizerany/assert"
)

func TestFrame(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, nil, WriteFrame(&buf, []byte("hello")))
	assert.Equal(t, nil, WriteFrame(&buf, []byte{}))

	payload, err := ReadFrame(&buf)
	assert.Equal(t, nil, err)
	assert.Equal(t, "hello", string(payload))

	payload, err = ReadFrame(&buf)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(payload))

	_, err = ReadFrame(&buf)
	assert.Equal(t, io.EOF, err)
}

func TestFrameTruncated(t *testing.T) {
	var buf bytes.Buffer
	WriteFrame(&buf, []byte("hello"))
	data := buf.Bytes()[:6]

	_, err := ReadFrame(bytes.NewReader(data))
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestFrameTooLarge(t *testing.T) {
	header := make([]byte, 4)
	frameEndian.PutUint32(header, consts.MAX_FRAME_SIZE+1)
	_, err := ReadFrame(bytes.NewReader(header))
	assert.NotEqual(t, nil, err)
}

func newChannelPair(t *testing.T) (*SendChannel, *RecvChannel) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	return NewSendChannel("test", w, MSG_PACKER), NewRecvChannel("test", r, MSG_PACKER)
}

func recvWithin(t *testing.T, rc *RecvChannel, msg interface{}, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		ok, err := rc.TryRecv(msg)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestChannelFIFO(t *testing.T) {
	sc, rc := newChannelPair(t)
	defer rc.Close()

	for i := 0; i < 100; i++ {
		assert.Equal(t, nil, sc.Send(i))
	}

	for i := 0; i < 100; i++ {
		var v int
		assert.T(t, recvWithin(t, rc, &v, time.Second), "message should arrive")
		assert.Equal(t, i, v)
	}

	var v int
	ok, err := rc.TryRecv(&v)
	assert.Equal(t, nil, err)
	assert.T(t, !ok, "channel should be empty")
	sc.Close()
}

func TestChannelClosed(t *testing.T) {
	sc, rc := newChannelPair(t)
	defer rc.Close()

	sc.Send("last words")
	sc.Close()
	assert.NotEqual(t, nil, sc.Send("too late"))

	deadline := time.Now().Add(time.Second)
	for !rc.Closed() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.T(t, rc.Closed(), "receiver should see the pipe closed")

	var s string
	ok, err := rc.TryRecv(&s)
	assert.Equal(t, nil, err)
	assert.T(t, ok, "frames sent before close should still be queued")
	assert.Equal(t, "last words", s)
}

func TestSendUnpackable(t *testing.T) {
	sc, rc := newChannelPair(t)
	defer rc.Close()
	defer sc.Close()

	err := sc.Send(make(chan int))
	assert.NotEqual(t, nil, err)
}
