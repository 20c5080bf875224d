package extws

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Wayland wire messages are host byte order; every platform this bar
// targets is little-endian.
var byteOrder = binary.LittleEndian

// message is one wire message with its undecoded argument block. The header
// is 8 bytes: object id, then size<<16|opcode where size counts the whole
// message including the header.
type message struct {
	object uint32
	opcode uint16
	data   []byte
}

const headerSize = 8

// readMessage reads exactly one message from r.
func readMessage(r io.Reader) (message, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return message{}, err
	}

	object := byteOrder.Uint32(header[0:4])
	sizeOpcode := byteOrder.Uint32(header[4:8])
	opcode := uint16(sizeOpcode & 0xffff)
	size := int(sizeOpcode >> 16)
	if size < headerSize {
		return message{}, fmt.Errorf("invalid message size %d for object %d", size, object)
	}

	data := make([]byte, size-headerSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return message{}, err
	}
	return message{object: object, opcode: opcode, data: data}, nil
}

// writeMessage writes m as one message to w.
func writeMessage(w io.Writer, m message) error {
	size := headerSize + len(m.data)
	if size > 0xffff {
		return fmt.Errorf("message too large: %d bytes", size)
	}

	buf := make([]byte, headerSize, size)
	byteOrder.PutUint32(buf[0:4], m.object)
	byteOrder.PutUint32(buf[4:8], uint32(size)<<16|uint32(m.opcode))
	buf = append(buf, m.data...)

	_, err := w.Write(buf)
	return err
}

// pad4 rounds n up to the next multiple of 4; wire arguments are padded to
// 32-bit boundaries.
func pad4(n int) int {
	return (n + 3) &^ 3
}

// argReader decodes a message's argument block in declaration order. The
// first failure sticks; callers check err after the last read.
type argReader struct {
	data []byte
	err  error
}

func (r *argReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

// readUint32 decodes a uint (or new_id, or object) argument.
func (r *argReader) readUint32() uint32 {
	if r.err != nil {
		return 0
	}
	if len(r.data) < 4 {
		r.fail("truncated uint argument")
		return 0
	}
	v := byteOrder.Uint32(r.data[:4])
	r.data = r.data[4:]
	return v
}

// readString decodes a string argument: length including the NUL
// terminator, then the bytes padded to 4.
func (r *argReader) readString() string {
	n := int(r.readUint32())
	if r.err != nil {
		return ""
	}
	if n == 0 {
		return ""
	}
	padded := pad4(n)
	if len(r.data) < padded {
		r.fail("truncated string argument")
		return ""
	}
	s := string(r.data[:n-1])
	r.data = r.data[padded:]
	return s
}

// readArray decodes an array argument: byte length, then the bytes padded
// to 4.
func (r *argReader) readArray() []byte {
	n := int(r.readUint32())
	if r.err != nil {
		return nil
	}
	padded := pad4(n)
	if len(r.data) < padded {
		r.fail("truncated array argument")
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[:n])
	r.data = r.data[padded:]
	return b
}

// appendUint32 appends a uint (or new_id, or object) argument to buf.
func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	byteOrder.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

// appendString appends a string argument to buf.
func appendString(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)+1))
	buf = append(buf, s...)
	buf = append(buf, 0)
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// decodeCoordinates interprets an array argument as packed uint32
// coordinates.
func decodeCoordinates(raw []byte) ([]uint32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("coordinate array length %d is not a multiple of 4", len(raw))
	}
	coords := make([]uint32, 0, len(raw)/4)
	for i := 0; i < len(raw); i += 4 {
		coords = append(coords, byteOrder.Uint32(raw[i:i+4]))
	}
	return coords, nil
}
