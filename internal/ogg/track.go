package ogg

import (
	"github.com/jmylchreest/oggkit/internal/clock"
	"github.com/jmylchreest/oggkit/internal/codec"
)

// Packet is one reconstructed packet. Data is only valid for the duration of
// the handler call it is passed to.
type Packet struct {
	Data       []byte
	Serialno   uint32
	BOS        bool
	EOS        bool
	GranulePos int64
	PacketNo   int64
}

// Track is the reader's state for one logical bitstream.
type Track struct {
	Serialno uint32
	// Codec is nil when the BOS packet matched no known mapping or the
	// track's BOS page was never seen.
	Codec *codec.Mapping
	Rate  clock.Rate
	Shift uint

	BOSSeen bool
	EOSSeen bool

	Pages      int64
	Packets    int64
	GranulePos int64
	// Timestamp is the last known presentation time in milliseconds.
	Timestamp int64

	partial []byte
	// orphan is set while dropping the tail of a packet whose start was lost.
	orphan bool
}

func newTrack(serialno uint32) *Track {
	return &Track{
		Serialno:   serialno,
		GranulePos: UnsetGranulePos,
		Timestamp:  clock.Unset,
	}
}

// CodecName returns the identified codec, codec.Unknown if none.
func (t *Track) CodecName() codec.Name {
	if t.Codec == nil {
		return codec.Unknown
	}
	return t.Codec.Name
}

// identify inspects the first packet of a BOS page.
func (t *Track) identify(header []byte) {
	m, ok := codec.Identify(header)
	if !ok {
		return
	}
	t.Codec = m
	params, err := m.Parse(header)
	if err != nil {
		return
	}
	t.Rate = params.Rate
	t.Shift = params.Shift
}

// assemble splits a page into packets, joining fragments carried over from
// earlier pages. prevGP is the granulepos of the track's previous page. The
// returned packets own their data.
func (t *Track) assemble(p *Page, prevGP int64) []Packet {
	segs := p.Segments()
	body := p.Body

	if !p.Continued() {
		t.partial = nil
		t.orphan = false
	} else if t.partial == nil {
		t.orphan = true
	}

	var packets []Packet
	start, end := 0, 0
	for _, s := range segs {
		end += int(s)
		if s == 255 {
			continue
		}
		if t.orphan {
			t.orphan = false
		} else {
			data := append(t.partial, body[start:end]...)
			packets = append(packets, Packet{
				Data:       data,
				Serialno:   t.Serialno,
				GranulePos: UnsetGranulePos,
			})
		}
		t.partial = nil
		start = end
	}
	if start < end && !t.orphan {
		t.partial = append(t.partial, body[start:end]...)
	}
	if len(packets) == 0 {
		return nil
	}

	if p.BOS() {
		packets[0].BOS = true
	}
	last := len(packets) - 1
	if p.EOS() {
		packets[last].EOS = true
	}
	gp := p.GranulePos()
	packets[last].GranulePos = gp
	// An EOS page may be end trimmed, so its granulepos does not count back
	// to the packets before the last one.
	if gp != UnsetGranulePos && !p.EOS() && t.CodecName() == codec.Opus {
		floor := max(prevGP, 0)
		for i := last - 1; i >= 0; i-- {
			prev := packets[i+1].GranulePos - codec.OpusPacketDuration(packets[i+1].Data)
			if prev < floor {
				break
			}
			packets[i].GranulePos = prev
		}
	}
	for i := range packets {
		packets[i].PacketNo = t.Packets
		t.Packets++
	}
	return packets
}
