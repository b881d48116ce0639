package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGranules(t *testing.T) {
	tests := []struct {
		name  string
		gp    int64
		shift uint
		want  int64
	}{
		{"no shift", 12345, 0, 12345},
		{"keyframe only", 3 << 6, 6, 3},
		{"keyframe plus offset", 3<<6 | 5, 6, 8},
		{"zero", 0, 6, 0},
		{"large shift", 7<<32 | 2, 32, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Granules(tt.gp, tt.shift))
		})
	}
}

func TestTimestamp(t *testing.T) {
	t.Run("shift zero is g*d/n in milliseconds", func(t *testing.T) {
		rate := Rate{Num: 44100, Den: 1}
		for _, g := range []int64{0, 1, 441, 44100, 44100 * 61, 987654321} {
			assert.Equal(t, g*1000/44100, Timestamp(g, 0, rate), "granulepos %d", g)
		}
	})

	t.Run("fractional frame rate", func(t *testing.T) {
		// 30000/1001 fps, frame 30 is just over one second.
		rate := Rate{Num: 30000, Den: 1001}
		assert.Equal(t, int64(1001), Timestamp(30, 0, rate))
	})

	t.Run("theora style shift", func(t *testing.T) {
		rate := Rate{Num: 25, Den: 1}
		// keyframe 50, 25 frames after it: 75 frames = 3s
		assert.Equal(t, int64(3000), Timestamp(50<<6|25, 6, rate))
	})

	t.Run("unset granulepos", func(t *testing.T) {
		assert.Equal(t, Unset, Timestamp(-1, 0, Rate{Num: 48000, Den: 1}))
	})

	t.Run("unknown rate", func(t *testing.T) {
		assert.Equal(t, Unset, Timestamp(1000, 0, Rate{}))
		assert.Equal(t, Unset, Timestamp(1000, 0, Rate{Num: 48000}))
	})

	t.Run("repeatable without memoization", func(t *testing.T) {
		rate := Rate{Num: 48000, Den: 1}
		first := Timestamp(96000, 0, rate)
		assert.Equal(t, first, Timestamp(96000, 0, rate))
		assert.Equal(t, int64(2000), first)
	})

	t.Run("large granule does not overflow", func(t *testing.T) {
		rate := Rate{Num: 48000, Den: 1}
		g := int64(48000) * 3600 * 24 * 365 * 100 // a century of audio
		assert.Equal(t, g/48, Timestamp(g, 0, rate))
	})
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00:00.000", Format(0))
	assert.Equal(t, "00:00:01.500", Format(1500))
	assert.Equal(t, "01:02:03.004", Format(3723004))
	assert.Equal(t, "--:--:--.---", Format(Unset))
}

func TestRate(t *testing.T) {
	assert.False(t, Rate{}.Valid())
	assert.True(t, Rate{Num: 1, Den: 1}.Valid())
	assert.Equal(t, "30000/1001", Rate{Num: 30000, Den: 1001}.String())
}
