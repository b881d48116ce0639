// Package testutil provides builders for synthetic Ogg streams used in tests.
package testutil

import (
	"encoding/binary"
)

// VorbisHeader returns a Vorbis identification header.
func VorbisHeader(rate uint32) []byte {
	h := make([]byte, 30)
	copy(h, "\x01vorbis")
	h[11] = 2
	binary.LittleEndian.PutUint32(h[12:], rate)
	binary.LittleEndian.PutUint32(h[20:], 128000)
	h[28] = 0xb8
	h[29] = 1
	return h
}

// TheoraHeader returns a Theora identification header.
func TheoraHeader(num, den uint32, shift uint) []byte {
	h := make([]byte, 42)
	copy(h, "\x80theora")
	h[7], h[8], h[9] = 3, 2, 1
	binary.BigEndian.PutUint16(h[10:], 20)
	binary.BigEndian.PutUint16(h[12:], 15)
	binary.BigEndian.PutUint32(h[22:], num)
	binary.BigEndian.PutUint32(h[26:], den)
	h[40] = 48<<2 | byte(shift>>3)&0x03
	h[41] = byte(shift&0x07) << 5
	return h
}

// SpeexHeader returns a Speex header packet.
func SpeexHeader(rate uint32) []byte {
	h := make([]byte, 80)
	copy(h, "Speex   ")
	copy(h[8:], "1.2")
	binary.LittleEndian.PutUint32(h[28:], 1)
	binary.LittleEndian.PutUint32(h[32:], 80)
	binary.LittleEndian.PutUint32(h[36:], rate)
	return h
}

// OpusHeader returns an OpusHead packet for a stereo stream.
func OpusHeader() []byte {
	h := make([]byte, 19)
	copy(h, "OpusHead")
	h[8] = 1
	h[9] = 2
	binary.LittleEndian.PutUint16(h[10:], 312)
	binary.LittleEndian.PutUint32(h[12:], 48000)
	return h
}

// FLACHeader returns the first packet of the Ogg FLAC mapping.
func FLACHeader(rate uint32) []byte {
	h := make([]byte, 51)
	copy(h, "\x7fFLAC")
	h[5], h[6] = 1, 0
	binary.BigEndian.PutUint16(h[7:], 1)
	copy(h[9:], "fLaC")
	h[16] = 34
	h[27] = byte(rate >> 12)
	h[28] = byte(rate >> 4)
	h[29] = byte(rate&0x0f)<<4 | 0x02
	return h
}

// PCMHeader returns an Ogg PCM header.
func PCMHeader(rate uint32) []byte {
	h := make([]byte, 28)
	copy(h, "PCM     ")
	binary.BigEndian.PutUint32(h[12:], 0x03)
	binary.BigEndian.PutUint32(h[16:], rate)
	h[20] = 16
	h[21] = 2
	return h
}

// CELTHeader returns a CELT header packet.
func CELTHeader(rate uint32) []byte {
	h := make([]byte, 60)
	copy(h, "CELT    ")
	copy(h[8:], "0.11.0")
	binary.LittleEndian.PutUint32(h[32:], 60)
	binary.LittleEndian.PutUint32(h[40:], rate)
	return h
}

// CMMLHeader returns a CMML identification header.
func CMMLHeader(num, den uint64, shift byte) []byte {
	h := make([]byte, 29)
	copy(h, "CMML\x00\x00\x00\x00")
	binary.LittleEndian.PutUint16(h[8:], 3)
	binary.LittleEndian.PutUint64(h[12:], num)
	binary.LittleEndian.PutUint64(h[20:], den)
	h[28] = shift
	return h
}

// KateHeader returns a Kate identification header.
func KateHeader(num, den uint32, shift byte) []byte {
	h := make([]byte, 64)
	copy(h, "\x80kate\x00\x00\x00")
	h[10] = 6
	h[11] = 9
	h[15] = shift
	binary.LittleEndian.PutUint32(h[24:], num)
	binary.LittleEndian.PutUint32(h[28:], den)
	return h
}

// SkeletonHeader returns a Skeleton fishead packet.
func SkeletonHeader() []byte {
	h := make([]byte, 64)
	copy(h, "fishead\x00")
	binary.LittleEndian.PutUint16(h[8:], 3)
	return h
}

// DiracHeader returns the start of a Dirac sequence header.
func DiracHeader() []byte {
	h := make([]byte, 13)
	copy(h, "BBCD\x00")
	return h
}

// VP8Header returns a VP8 stream header.
func VP8Header(num, den uint32) []byte {
	h := make([]byte, 26)
	copy(h, "OVP80\x01\x01")
	binary.BigEndian.PutUint16(h[8:], 320)
	binary.BigEndian.PutUint16(h[10:], 240)
	binary.BigEndian.PutUint32(h[18:], num)
	binary.BigEndian.PutUint32(h[22:], den)
	return h
}

// Payload returns n bytes of filler data.
func Payload(n int, fill byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = fill + byte(i)
	}
	return p
}
