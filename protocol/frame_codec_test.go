// File: protocol/frame_codec_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-mux/protocol"
)

func TestFrameRoundtrip(t *testing.T) {
	in := protocol.NewTextFrame([]byte("hello"))
	raw, err := protocol.EncodeFrameToBytes(in)
	require.NoError(t, err)

	out, consumed, err := protocol.DecodeFrameFromBytes(raw)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, len(raw), consumed)
	assert.True(t, out.IsFinal)
	assert.False(t, out.Rsv1)
	assert.Equal(t, protocol.OpcodeText, out.Opcode)
	assert.Equal(t, []byte("hello"), out.Payload)
}

func TestFrameRoundtripRsv1(t *testing.T) {
	in := protocol.NewBinaryFrame([]byte{1, 2, 3})
	in.Rsv1 = true
	raw, err := protocol.EncodeFrameToBytes(in)
	require.NoError(t, err)

	out, _, err := protocol.DecodeFrameFromBytes(raw)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, out.Rsv1)
	assert.Equal(t, protocol.OpcodeBinary, out.Opcode)
}

func TestFrameExtendedLengths(t *testing.T) {
	for _, size := range []int{125, 126, 65535, 65536, 100_000} {
		payload := bytes.Repeat([]byte("a"), size)
		raw, err := protocol.EncodeFrameToBytes(protocol.NewBinaryFrame(payload))
		require.NoError(t, err)

		out, consumed, err := protocol.DecodeFrameFromBytes(raw)
		require.NoError(t, err)
		require.NotNil(t, out, "size %d", size)
		assert.Equal(t, len(raw), consumed)
		assert.Equal(t, int64(size), out.PayloadLen)
	}
}

func TestDecodeMaskedFrame(t *testing.T) {
	// Client-masked "ab" text frame.
	key := [4]byte{0x10, 0x20, 0x30, 0x40}
	raw := []byte{0x81, 0x82, key[0], key[1], key[2], key[3], 'a' ^ key[0], 'b' ^ key[1]}

	out, consumed, err := protocol.DecodeFrameFromBytes(raw)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, len(raw), consumed)
	assert.True(t, out.Masked)
	assert.Equal(t, []byte("ab"), out.Payload)
}

func TestDecodeIncompleteFrame(t *testing.T) {
	raw, err := protocol.EncodeFrameToBytes(protocol.NewTextFrame([]byte("partial")))
	require.NoError(t, err)

	for cut := 0; cut < len(raw); cut++ {
		out, consumed, err := protocol.DecodeFrameFromBytes(raw[:cut])
		require.NoError(t, err)
		assert.Nil(t, out)
		assert.Zero(t, consumed)
	}
}

func TestDecodeRejectsReservedBits(t *testing.T) {
	raw := []byte{0x80 | protocol.Rsv2Bit | protocol.OpcodeText, 0x00}
	_, _, err := protocol.DecodeFrameFromBytes(raw)
	assert.ErrorIs(t, err, protocol.ErrReservedBits)
}

func TestCloseFrameRoundtrip(t *testing.T) {
	raw, err := protocol.EncodeFrameToBytes(
		protocol.NewCloseFrame(protocol.CloseMessageTooBig, "too big"))
	require.NoError(t, err)

	out, _, err := protocol.DecodeFrameFromBytes(raw)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, protocol.OpcodeClose, out.Opcode)
	assert.True(t, out.IsControl())

	code, reason := protocol.ClosePayload(out.Payload)
	assert.Equal(t, protocol.CloseMessageTooBig, code)
	assert.Equal(t, "too big", reason)
}

func TestClosePayloadEmptyDefaultsToNormal(t *testing.T) {
	code, reason := protocol.ClosePayload(nil)
	assert.Equal(t, protocol.CloseNormal, code)
	assert.Empty(t, reason)
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	f := &protocol.WSFrame{
		IsFinal:    true,
		Opcode:     protocol.OpcodeBinary,
		PayloadLen: protocol.MaxFramePayload + 1,
	}
	_, err := protocol.EncodeFrameToBytes(f)
	assert.ErrorIs(t, err, protocol.ErrFrameTooLarge)
}
