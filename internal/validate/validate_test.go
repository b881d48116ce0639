package validate

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/oggkit/internal/testutil"
)

func run(t *testing.T, data []byte, opts Options) Result {
	t.Helper()
	res, err := Validate(context.Background(), bytes.NewReader(data), opts)
	require.NoError(t, err)
	return res
}

func countKind(res Result, k Kind) int {
	n := 0
	for _, d := range res.Diagnostics {
		if d.Kind == k {
			n++
		}
	}
	return n
}

func kinds(res Result) []Kind {
	var out []Kind
	for _, d := range res.Diagnostics {
		out = append(out, d.Kind)
	}
	return out
}

func validTrack(serialno uint32) *testutil.Stream {
	return testutil.NewStream(serialno).
		BOS(testutil.VorbisHeader(1000)).
		Page(100, testutil.Payload(10, 0)).
		Page(200, testutil.Payload(10, 1)).
		Page(200, testutil.Payload(10, 2)).
		EOS(300, testutil.Payload(10, 3))
}

func TestValidate_ValidTrack(t *testing.T) {
	res := run(t, validTrack(1).Bytes(), Options{})
	assert.True(t, res.OK(), "unexpected diagnostics: %v", res.Diagnostics)
	assert.Equal(t, 0, res.Errors)
	assert.Equal(t, 1, res.Chains)
	assert.Equal(t, 1, res.Tracks)
	assert.Positive(t, res.Written)
	assert.False(t, res.Bailed)
}

func TestValidate_ValidTheoraVorbis(t *testing.T) {
	theora := testutil.NewStream(1).BOS(testutil.TheoraHeader(25, 1, 6))
	vorbis := testutil.NewStream(2).BOS(testutil.VorbisHeader(1000))
	theora.Page(0<<6|1, testutil.Payload(10, 0))
	vorbis.Page(80, testutil.Payload(10, 0))
	theora.EOS(1<<6|1, testutil.Payload(10, 0))
	vorbis.EOS(200, testutil.Payload(10, 0))

	data := testutil.Concat(
		theora.PageAt(0), vorbis.PageAt(0),
		theora.PageAt(1), vorbis.PageAt(1),
		theora.PageAt(2), vorbis.PageAt(2),
	)
	res := run(t, data, Options{})
	assert.True(t, res.OK(), "unexpected diagnostics: %v", res.Diagnostics)
}

func TestValidate_EosWithoutBos(t *testing.T) {
	a := validTrack(1)
	phantom := testutil.NewStream(2).EOS(50, testutil.Payload(4, 0))
	pages := a.Pages()
	data := testutil.Concat(pages[0], pages[1], phantom.PageAt(0), pages[2], pages[3], pages[4])

	res := run(t, data, Options{})
	assert.Equal(t, 1, countKind(res, EosWithoutBos))
	assert.Equal(t, 1, countKind(res, MissingBos))
	assert.Equal(t, 1, countKind(res, UnknownSerialno))
	assert.Equal(t, 0, countKind(res, MissingEos))
}

func TestValidate_MissingEos(t *testing.T) {
	a := testutil.NewStream(1).BOS(testutil.VorbisHeader(1000))
	b := testutil.NewStream(2).BOS(testutil.SpeexHeader(1000))
	a.Page(10, testutil.Payload(4, 0))
	b.Page(20, testutil.Payload(4, 0))
	data := testutil.Concat(a.PageAt(0), b.PageAt(0), a.PageAt(1), b.PageAt(1))

	t.Run("without prefix", func(t *testing.T) {
		res := run(t, data, Options{})
		assert.Equal(t, []Kind{MissingEos, MissingEos}, kinds(res))
		assert.Equal(t, uint32(1), res.Diagnostics[0].Serialno)
		assert.Equal(t, uint32(2), res.Diagnostics[1].Serialno)
	})

	t.Run("with prefix", func(t *testing.T) {
		res := run(t, data, Options{Prefix: true})
		assert.True(t, res.OK(), "unexpected diagnostics: %v", res.Diagnostics)
	})
}

func TestValidate_GranuleposOnIncompletePacket(t *testing.T) {
	s := testutil.NewStream(1).BOS(testutil.VorbisHeader(1000))
	s.Partial(150, 1)
	s.Page(200, testutil.Payload(7, 0))
	s.EOS(300, testutil.Payload(7, 0))

	res := run(t, s.Bytes(), Options{})
	require.Equal(t, []Kind{GranuleposOnIncompletePacket}, kinds(res))
	assert.Equal(t, int64(150), res.Diagnostics[0].GranulePos)
	assert.Equal(t, 1, res.Chains, "processing continues past the error to the chain end")
	assert.Equal(t, 0, countKind(res, MissingEos))
}

func TestValidate_ErrorBudget(t *testing.T) {
	a := testutil.NewStream(1).BOS(testutil.VorbisHeader(1000))
	b := testutil.NewStream(2)
	for i := range 10 {
		b.Page(int64(i*10), testutil.Payload(4, byte(i)))
	}
	// every orphan packet yields MissingBos and UnknownSerialno
	data := testutil.Concat(a.Bytes(), b.Bytes())

	for _, k := range []int{1, 3, 7} {
		var reported int
		res := run(t, data, Options{MaxErrors: k, Report: func(Diagnostic) { reported++ }})
		assert.Equal(t, k+1, res.Errors, "max errors %d", k)
		assert.Equal(t, k+1, reported)
		assert.Len(t, res.Diagnostics, k+1)
		assert.True(t, res.Bailed)
	}

	res := run(t, data, Options{MaxErrors: 0})
	assert.Equal(t, 21, res.Errors)
	assert.Equal(t, 10, countKind(res, MissingBos))
	assert.Equal(t, 10, countKind(res, UnknownSerialno))
	assert.Equal(t, 1, countKind(res, MissingEos))
	assert.False(t, res.Bailed)
}

func TestValidate_EndTrimmedOpus(t *testing.T) {
	s := testutil.NewStream(3).BOS(testutil.OpusHeader())
	s.Page(0, []byte("OpusTags\x00\x00\x00\x00\x00\x00\x00\x00"))
	s.Page(3*960, testutil.OpusPacket(20), testutil.OpusPacket(20), testutil.OpusPacket(20))
	s.EOS(3*960+1000, testutil.OpusPacket(20), testutil.OpusPacket(20), testutil.OpusPacket(20))

	res := run(t, s.Bytes(), Options{})
	assert.Empty(t, res.Diagnostics)
	assert.True(t, res.OK())
}

func TestValidate_PacketOutOfOrder(t *testing.T) {
	a := testutil.NewStream(1).BOS(testutil.VorbisHeader(1000))
	b := testutil.NewStream(2).BOS(testutil.VorbisHeader(1000))
	a.Page(100, testutil.Payload(4, 0))
	b.Page(50, testutil.Payload(4, 0))
	a.EOS(200, testutil.Payload(4, 0))
	b.EOS(250, testutil.Payload(4, 0))
	data := testutil.Concat(a.PageAt(0), b.PageAt(0), a.PageAt(1), b.PageAt(1), a.PageAt(2), b.PageAt(2))

	res := run(t, data, Options{})
	require.Equal(t, []Kind{PacketOutOfOrder}, kinds(res))
	d := res.Diagnostics[0]
	assert.Equal(t, uint32(2), d.Serialno)
	assert.Equal(t, int64(50), d.Timestamp)
	assert.Equal(t, int64(100), d.Previous)
	assert.Equal(t, "00:00:00.050: serialno 0000000002: Packet out of order (previous 00:00:00.100)", d.String())
}

func TestValidate_GranuleposDecreasing(t *testing.T) {
	s := testutil.NewStream(1).BOS(testutil.VorbisHeader(1000)).
		Page(100, testutil.Payload(4, 0)).
		Page(50, testutil.Payload(4, 0)).
		EOS(150, testutil.Payload(4, 0))

	res := run(t, s.Bytes(), Options{})
	assert.Equal(t, []Kind{PacketOutOfOrder, GranuleposDecreasing}, kinds(res))
}

func TestValidate_VideoBosAfterAudioBos(t *testing.T) {
	vorbis := testutil.NewStream(1).BOS(testutil.VorbisHeader(1000)).EOS(10, testutil.Payload(4, 0))
	theora := testutil.NewStream(2).BOS(testutil.TheoraHeader(25, 1, 6)).EOS(1<<6, testutil.Payload(4, 0))
	data := testutil.Concat(vorbis.PageAt(0), theora.PageAt(0), vorbis.PageAt(1), theora.PageAt(1))

	res := run(t, data, Options{})
	require.Equal(t, []Kind{VideoBosAfterAudioBos}, kinds(res))
	assert.Equal(t, "serialno 0000000002: Theora video bos page after audio bos page", res.Diagnostics[0].String())
}

func TestValidate_DuplicateBos(t *testing.T) {
	s := testutil.NewStream(1).BOS(testutil.VorbisHeader(1000))
	again := testutil.NewStream(1).BOS(testutil.VorbisHeader(1000)).EOS(10, testutil.Payload(4, 0))
	data := testutil.Concat(s.PageAt(0), again.Bytes())

	res := run(t, data, Options{})
	assert.Equal(t, []Kind{DuplicateBos}, kinds(res))
}

func TestValidate_BosAfterData(t *testing.T) {
	a := testutil.NewStream(1).BOS(testutil.VorbisHeader(1000))
	a.Page(10, testutil.Payload(4, 0))
	b := testutil.NewStream(2).BOS([]byte("unidentified header")).EOS(20, testutil.Payload(4, 0))
	a.EOS(30, testutil.Payload(4, 0))
	data := testutil.Concat(a.PageAt(0), a.PageAt(1), b.PageAt(0), b.PageAt(1), a.PageAt(2))

	res := run(t, data, Options{})
	require.Equal(t, []Kind{UnclassifiedFramingViolation}, kinds(res))
	assert.Equal(t, -22, res.Diagnostics[0].Code)
	assert.Contains(t, res.Diagnostics[0].String(), "Packet violates Ogg framing constraints: -22")
}

func TestValidate_EmptyFile(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"no bytes", nil},
		{"garbage", []byte("this is not an ogg file at all")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, tt.data, Options{})
			assert.Equal(t, []Kind{EmptyFile}, kinds(res))
			assert.Equal(t, "File contains no Ogg packets", res.Diagnostics[0].String())
		})
	}
}

func TestValidate_Chains(t *testing.T) {
	data := testutil.Concat(validTrack(1).Bytes(), validTrack(2).Bytes(), validTrack(1).Bytes())

	res := run(t, data, Options{})
	assert.True(t, res.OK(), "unexpected diagnostics: %v", res.Diagnostics)
	assert.Equal(t, 3, res.Chains)
}

func TestValidate_Suffix(t *testing.T) {
	tail := testutil.NewStream(5).
		Page(100, testutil.Payload(4, 0)).
		EOS(200, testutil.Payload(4, 0))

	t.Run("suffix mode", func(t *testing.T) {
		res := run(t, tail.Bytes(), Options{Suffix: true})
		assert.True(t, res.OK(), "unexpected diagnostics: %v", res.Diagnostics)
	})

	t.Run("normal mode", func(t *testing.T) {
		res := run(t, tail.Bytes(), Options{})
		assert.Equal(t, 2, countKind(res, MissingBos))
		assert.Equal(t, 1, countKind(res, EosWithoutBos))
		assert.Equal(t, 2, countKind(res, UnknownSerialno))
	})

	t.Run("only the first chain is a suffix", func(t *testing.T) {
		next := testutil.NewStream(6).Page(10, testutil.Payload(4, 0))
		res := run(t, testutil.Concat(tail.Bytes(), next.Bytes()), Options{Suffix: true})
		assert.Equal(t, []Kind{MissingBos, UnknownSerialno}, kinds(res))
	})

	t.Run("partial", func(t *testing.T) {
		open := testutil.NewStream(7).Page(100, testutil.Payload(4, 0))
		res := run(t, open.Bytes(), Options{Prefix: true, Suffix: true})
		assert.True(t, res.OK(), "unexpected diagnostics: %v", res.Diagnostics)
	})
}

func TestValidate_DiagnosticPosition(t *testing.T) {
	a := testutil.NewStream(1).BOS(testutil.VorbisHeader(1000))
	orphan := testutil.NewStream(9).Page(-1, testutil.Payload(4, 0))
	data := testutil.Concat(a.PageAt(0), orphan.PageAt(0))

	res := run(t, data, Options{Prefix: true})
	require.Equal(t, []Kind{MissingBos, UnknownSerialno}, kinds(res))
	offset := int64(len(a.PageAt(0)))
	assert.Equal(t, offset, res.Diagnostics[1].Offset)
	assert.Equal(t, "58: serialno 0000000009: Packet belongs to unknown serialno", res.Diagnostics[1].String())
}

func TestValidate_ReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	res, err := Validate(context.Background(), iotest.ErrReader(boom), Options{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []Kind{EmptyFile}, kinds(res))
}

func TestValidate_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Validate(ctx, bytes.NewReader(validTrack(1).Bytes()), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate_SmallReadSize(t *testing.T) {
	res := run(t, validTrack(1).Bytes(), Options{ReadSize: 3})
	assert.True(t, res.OK(), "unexpected diagnostics: %v", res.Diagnostics)
}

func TestKinds(t *testing.T) {
	all := Kinds()
	assert.Len(t, all, 12)
	for _, k := range all {
		assert.NotEqual(t, "Unknown", k.String())
		assert.NotEmpty(t, k.Description())
	}
	assert.Equal(t, "Unknown", Kind(0).String())
}

func TestKindForCode(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{-20, UnknownSerialno},
		{-24, GranuleposDecreasing},
		{-5, DuplicateBos},
		{-6, DuplicateEos},
		{-22, UnclassifiedFramingViolation},
		{-25, UnclassifiedFramingViolation},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kindForCode(tt.code), "code %d", tt.code)
	}
}
