package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_Layout(t *testing.T) {
	s := NewStream(42).
		BOS(VorbisHeader(44100)).
		Page(-1, Payload(10, 0), Payload(20, 0)).
		Partial(-1, 2).
		EOS(4410, Payload(5, 1))

	require.Len(t, s.Pages(), 4)
	layout := Layout(s.Bytes())
	require.Len(t, layout, 4)

	assert.True(t, layout[0].BOS)
	assert.Equal(t, 1, layout[0].Packets)
	assert.Equal(t, 2, layout[1].Packets)
	assert.Equal(t, 0, layout[2].Packets)
	assert.True(t, layout[3].EOS)
	assert.Equal(t, int64(4410), layout[3].GranulePos)
	for _, p := range layout {
		assert.Equal(t, uint32(42), p.Serialno)
	}
}

func TestOpusPacket(t *testing.T) {
	p := OpusPacket(40)
	assert.Len(t, p, 40)
	assert.Equal(t, byte(0xf8), p[0])
}
