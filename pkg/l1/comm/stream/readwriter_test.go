package stream

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte{1, 2, 3}))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, 4+3+4, buf.Len())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
}

func TestReadWriterRejectsOversized(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.Error(t, rw.WritePacket(make([]byte, MaxPacketSize+1)))

	binary.Write(&buf, binary.LittleEndian, uint32(MaxPacketSize+1))
	_, err := rw.ReadPacket()
	require.Error(t, err)
}

func TestReadWriterShortPacket(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(8))
	buf.Write([]byte{1, 2})
	_, err := New(&buf).ReadPacket()
	require.Error(t, err)
}
