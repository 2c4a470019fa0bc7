package netutil

import (
	"testing"

	"github.com/bmizerany/assert"
)

type testMsg struct {
	Method string
	Args   []interface{}
	Kwargs map[string]interface{}
}

func BenchmarkMessagePackMsgPacker(b *testing.B) {
	benchmarkMsgPacker(b, MessagePackMsgPacker{})
}

func BenchmarkJSONMsgPacker(b *testing.B) {
	benchmarkMsgPacker(b, JSONMsgPacker{})
}

func benchmarkMsgPacker(b *testing.B, packer MsgPacker) {
	b.Logf("Testing MsgPacker %T ...", packer)
	msg := testMsg{
		Method: "wait_for_log",
		Args:   []interface{}{"connected to TeamSpeak client"},
		Kwargs: map[string]interface{}{"once": true},
	}

	var totalSize int64
	for i := 0; i < b.N; i++ {
		buf, _ := packer.PackMsg(msg, make([]byte, 0, 100))
		totalSize += int64(len(buf))

		var restoreMsg testMsg
		_ = packer.UnpackMsg(buf, &restoreMsg)
	}
	b.Logf("average size: %d", totalSize/int64(b.N))
}

func TestMessagePackMsgPacker_UnpackMsg(t *testing.T) {
	msg := map[string]interface{}{
		"a": 1,
		"b": 2,
		"c": map[string]interface{}{
			"d": 1,
		},
	}
	buf, err := MessagePackMsgPacker{}.PackMsg(msg, nil)
	if err != nil {
		t.Error(err)
	}
	var outmsg map[string]interface{}
	MessagePackMsgPacker{}.UnpackMsg(buf, &outmsg)
	t.Logf("outmsg %T %v", outmsg, outmsg)
	if _, ok := outmsg["c"].(map[interface{}]interface{}); ok {
		t.Errorf("should not unpack with type map[interface{}]interface{}")
	}
}

func TestPackers(t *testing.T) {
	for _, packer := range []MsgPacker{MessagePackMsgPacker{}, JSONMsgPacker{}} {
		msg := testMsg{
			Method: "add_player",
			Args:   []interface{}{"Alice"},
			Kwargs: map[string]interface{}{"once": true},
		}
		buf, err := packer.PackMsg(msg, nil)
		assert.Equal(t, nil, err)

		var out testMsg
		assert.Equal(t, nil, packer.UnpackMsg(buf, &out))
		assert.Equal(t, "add_player", out.Method)
		assert.Equal(t, "Alice", out.Args[0])
		assert.Equal(t, true, out.Kwargs["once"])
	}
}

func TestPackerByName(t *testing.T) {
	assert.Equal(t, JSONMsgPacker{}, PackerByName("JSON"))
	assert.Equal(t, MessagePackMsgPacker{}, PackerByName("msgpack"))
	assert.Equal(t, MSG_PACKER, PackerByName(""))
}
