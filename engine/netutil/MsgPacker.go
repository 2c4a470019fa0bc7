package netutil

import "strings"

var (
	// MSG_PACKER is used for packing and unpacking envelopes on the worker pipes
	MSG_PACKER MsgPacker = MessagePackMsgPacker{}
)

// MsgPacker is used to packs and unpacks messages
type MsgPacker interface {
	PackMsg(msg interface{}, buf []byte) ([]byte, error)
	UnpackMsg(data []byte, msg interface{}) error
}

// PackerByName returns the packer registered under name ("msgpack" or "json"), or MSG_PACKER
func PackerByName(name string) MsgPacker {
	switch strings.ToLower(name) {
	case "json":
		return JSONMsgPacker{}
	case "msgpack":
		return MessagePackMsgPacker{}
	}
	return MSG_PACKER
}
