// Package codec provides a registry of Ogg codec mappings.
// It identifies a logical track's codec from the first packet of its BOS page
// and extracts the granule rate and granule shift that the track's headers
// declare, which are needed to turn granule positions into time.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/jmylchreest/oggkit/internal/clock"
)

// ErrInvalidHeader indicates an identification header is too short or declares
// an unusable rate.
var ErrInvalidHeader = errors.New("codec: invalid identification header")

// Name is the canonical name of an Ogg codec mapping.
type Name string

// Known mappings.
const (
	Vorbis   Name = "Vorbis"
	Theora   Name = "Theora"
	Speex    Name = "Speex"
	Opus     Name = "Opus"
	FLAC     Name = "FLAC"
	FLAC0    Name = "FLAC0" // pre-1.1.1 "fLaC" mapping
	PCM      Name = "PCM"
	CELT     Name = "CELT"
	CMML     Name = "CMML"
	Kate     Name = "Kate"
	Skeleton Name = "Skeleton"
	Dirac    Name = "Dirac"
	VP8      Name = "VP8"
	Unknown  Name = ""
)

// String returns the codec name, or "unknown".
func (n Name) String() string {
	if n == Unknown {
		return "unknown"
	}
	return string(n)
}

// Kind classifies a mapping by the media it carries.
type Kind string

// Kind constants.
const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
	KindText  Kind = "text"
	KindOther Kind = "other"
)

// Params holds the timing parameters declared by an identification header.
// A zero Rate means the rate is not known from the BOS packet alone.
type Params struct {
	Rate  clock.Rate
	Shift uint
}

// Mapping describes one codec's Ogg encapsulation.
type Mapping struct {
	Name Name
	Kind Kind
	// Magic is the prefix of the identification packet.
	Magic []byte
	// MinLen is the shortest identification packet that can be parsed.
	MinLen int

	parse func(h []byte) (Params, error)
}

// IsAudio reports whether the mapping carries audio.
func (m *Mapping) IsAudio() bool { return m != nil && m.Kind == KindAudio }

// IsVideo reports whether the mapping carries video.
func (m *Mapping) IsVideo() bool { return m != nil && m.Kind == KindVideo }

// Parse extracts timing parameters from an identification packet.
func (m *Mapping) Parse(h []byte) (Params, error) {
	if len(h) < m.MinLen {
		return Params{}, ErrInvalidHeader
	}
	if m.parse == nil {
		return Params{}, nil
	}
	return m.parse(h)
}

// registry is scanned in order; no magic is a prefix of another.
var registry = []*Mapping{
	{Name: Vorbis, Kind: KindAudio, Magic: []byte("\x01vorbis"), MinLen: 30, parse: parseVorbis},
	{Name: Theora, Kind: KindVideo, Magic: []byte("\x80theora"), MinLen: 42, parse: parseTheora},
	{Name: Speex, Kind: KindAudio, Magic: []byte("Speex   "), MinLen: 68, parse: parseSpeex},
	{Name: Opus, Kind: KindAudio, Magic: []byte("OpusHead"), MinLen: 19, parse: parseOpus},
	{Name: FLAC, Kind: KindAudio, Magic: []byte("\x7fFLAC"), MinLen: 51, parse: parseFLAC},
	{Name: FLAC0, Kind: KindAudio, Magic: []byte("fLaC"), MinLen: 4},
	{Name: PCM, Kind: KindAudio, Magic: []byte("PCM     "), MinLen: 28, parse: parsePCM},
	{Name: CELT, Kind: KindAudio, Magic: []byte("CELT    "), MinLen: 44, parse: parseCELT},
	{Name: CMML, Kind: KindText, Magic: []byte("CMML\x00\x00\x00\x00"), MinLen: 29, parse: parseCMML},
	{Name: Kate, Kind: KindText, Magic: []byte("\x80kate\x00\x00\x00"), MinLen: 32, parse: parseKate},
	{Name: Skeleton, Kind: KindOther, Magic: []byte("fishead\x00"), MinLen: 8},
	{Name: Dirac, Kind: KindVideo, Magic: []byte("BBCD\x00"), MinLen: 5, parse: parseDirac},
	{Name: VP8, Kind: KindVideo, Magic: []byte("OVP80\x01\x01"), MinLen: 26, parse: parseVP8},
}

// Identify returns the mapping whose magic prefixes packet.
func Identify(packet []byte) (*Mapping, bool) {
	for _, m := range registry {
		if bytes.HasPrefix(packet, m.Magic) {
			return m, true
		}
	}
	return nil, false
}

// Lookup returns the mapping with the given canonical name.
func Lookup(name Name) (*Mapping, bool) {
	for _, m := range registry {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

func sampleRate(sr uint32) (Params, error) {
	if sr == 0 {
		return Params{}, ErrInvalidHeader
	}
	return Params{Rate: clock.Rate{Num: int64(sr), Den: 1}}, nil
}

func frameRate(num, den uint32, shift uint) (Params, error) {
	if num == 0 || den == 0 {
		return Params{}, ErrInvalidHeader
	}
	return Params{Rate: clock.Rate{Num: int64(num), Den: int64(den)}, Shift: shift}, nil
}

func parseVorbis(h []byte) (Params, error) {
	return sampleRate(binary.LittleEndian.Uint32(h[12:16]))
}

func parseTheora(h []byte) (Params, error) {
	num := binary.BigEndian.Uint32(h[22:26])
	den := binary.BigEndian.Uint32(h[26:30])
	shift := uint(h[40]&0x03)<<3 | uint(h[41]>>5)
	return frameRate(num, den, shift)
}

func parseSpeex(h []byte) (Params, error) {
	return sampleRate(binary.LittleEndian.Uint32(h[36:40]))
}

// Opus granule positions always count 48 kHz samples.
func parseOpus(_ []byte) (Params, error) {
	return sampleRate(48000)
}

// The STREAMINFO block follows the 13 byte mapping header and a 4 byte
// metadata block header; its sample rate is a 20 bit field at byte 10.
func parseFLAC(h []byte) (Params, error) {
	sr := uint32(h[27])<<12 | uint32(h[28])<<4 | uint32(h[29])>>4
	return sampleRate(sr)
}

func parsePCM(h []byte) (Params, error) {
	return sampleRate(binary.BigEndian.Uint32(h[16:20]))
}

func parseCELT(h []byte) (Params, error) {
	return sampleRate(binary.LittleEndian.Uint32(h[40:44]))
}

func parseCMML(h []byte) (Params, error) {
	num := binary.LittleEndian.Uint64(h[12:20])
	den := binary.LittleEndian.Uint64(h[20:28])
	if num == 0 || den == 0 {
		return Params{}, ErrInvalidHeader
	}
	return Params{Rate: clock.Rate{Num: int64(num), Den: int64(den)}, Shift: uint(h[28])}, nil
}

func parseKate(h []byte) (Params, error) {
	num := binary.LittleEndian.Uint32(h[24:28])
	den := binary.LittleEndian.Uint32(h[28:32])
	return frameRate(num, den, uint(h[15]))
}

// Dirac's sequence header uses variable length coding for the frame rate;
// only the fixed granule shift is reported.
func parseDirac(_ []byte) (Params, error) {
	return Params{Shift: 22}, nil
}

// VP8 packs a raw pts into the high 32 bits and reference counters into the
// low bits, so the additive granule reconstruction does not yield time. The
// rate is withheld to keep VP8 pages out of timestamp comparisons.
func parseVP8(h []byte) (Params, error) {
	if binary.BigEndian.Uint32(h[18:22]) == 0 || binary.BigEndian.Uint32(h[22:26]) == 0 {
		return Params{}, ErrInvalidHeader
	}
	return Params{Shift: 32}, nil
}
