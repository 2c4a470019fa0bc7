package netutil

import (
	"encoding/binary"
	"io"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/pkg/errors"
)

const _FRAME_HEADER_SIZE = 4

var frameEndian = binary.LittleEndian

// WriteFrame writes the payload prefixed by its length
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > consts.MAX_FRAME_SIZE {
		return errors.Errorf("frame too large: %d bytes", len(payload))
	}

	data := make([]byte, _FRAME_HEADER_SIZE+len(payload))
	frameEndian.PutUint32(data, uint32(len(payload)))
	copy(data[_FRAME_HEADER_SIZE:], payload)
	_, err := w.Write(data)
	return err
}

// ReadFrame reads one length-prefixed payload.
//
// A clean end of stream between two frames returns io.EOF, a stream cut inside a frame returns io.ErrUnexpectedEOF
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [_FRAME_HEADER_SIZE]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := frameEndian.Uint32(header[:])
	if size > consts.MAX_FRAME_SIZE {
		return nil, errors.Errorf("frame too large: %d bytes", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
