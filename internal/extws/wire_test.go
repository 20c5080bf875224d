package extws

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWire_MessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	data := appendUint32(nil, 7)
	data = appendString(data, "web")
	data = appendUint32(data, 3)

	require.NoError(t, writeMessage(&buf, message{object: 42, opcode: 5, data: data}))

	msg, err := readMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), msg.object)
	assert.Equal(t, uint16(5), msg.opcode)

	args := &argReader{data: msg.data}
	assert.Equal(t, uint32(7), args.readUint32())
	assert.Equal(t, "web", args.readString())
	assert.Equal(t, uint32(3), args.readUint32())
	assert.NoError(t, args.err)
	assert.Empty(t, args.data)
}

func TestWire_StringPadding(t *testing.T) {
	// "abc" + NUL is exactly 4 bytes; "abcd" + NUL pads to 8.
	assert.Len(t, appendString(nil, "abc"), 4+4)
	assert.Len(t, appendString(nil, "abcd"), 4+8)

	for _, s := range []string{"", "a", "ab", "abc", "abcd"} {
		args := &argReader{data: appendString(nil, s)}
		assert.Equal(t, s, args.readString())
		assert.NoError(t, args.err)
		assert.Empty(t, args.data)
	}
}

func TestWire_TruncatedArgumentsFail(t *testing.T) {
	args := &argReader{data: []byte{1, 2}}
	args.readUint32()
	assert.Error(t, args.err)

	// String header claims more bytes than present.
	args = &argReader{data: appendUint32(nil, 64)}
	args.readString()
	assert.Error(t, args.err)
}

func TestWire_InvalidSizeRejected(t *testing.T) {
	var buf bytes.Buffer
	// Header with size 4 (< header size).
	buf.Write(appendUint32(nil, 1))
	buf.Write(appendUint32(nil, 4<<16))

	_, err := readMessage(&buf)
	assert.Error(t, err)
}

func TestWire_DecodeCoordinates(t *testing.T) {
	raw := appendUint32(nil, 1)
	raw = appendUint32(raw, 9)

	coords, err := decodeCoordinates(raw)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 9}, coords)

	_, err = decodeCoordinates([]byte{1, 2, 3})
	assert.Error(t, err)

	coords, err = decodeCoordinates(nil)
	require.NoError(t, err)
	assert.Empty(t, coords)
}
