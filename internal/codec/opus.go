package codec

import (
	mcopus "github.com/bluenviron/mediacommon/v2/pkg/codecs/opus"
)

// OpusPacketDuration returns the duration of an Opus packet in 48 kHz samples,
// or 0 when the TOC cannot be decoded.
func OpusPacketDuration(pkt []byte) int64 {
	if len(pkt) == 0 {
		return 0
	}
	return mcopus.PacketDuration2(pkt)
}
