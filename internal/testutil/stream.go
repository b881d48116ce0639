package testutil

import (
	"bytes"

	"github.com/jmylchreest/oggkit/internal/ogg"
)

// OpusPacket returns an Opus packet holding one 20 ms CELT fullband frame
// (960 samples at 48 kHz).
func OpusPacket(n int) []byte {
	p := Payload(max(n, 2), 0x10)
	p[0] = 31 << 3
	return p
}

// Stream builds the pages of one logical bitstream. Page sequence numbers
// and continuation flags are maintained automatically.
type Stream struct {
	serialno  uint32
	pageno    uint32
	pages     [][]byte
	continued bool
}

// NewStream starts a stream with the given serial number.
func NewStream(serialno uint32) *Stream {
	return &Stream{serialno: serialno}
}

// Serialno returns the stream's serial number.
func (s *Stream) Serialno() uint32 { return s.serialno }

// BOS appends a BOS page carrying header as its only packet.
func (s *Stream) BOS(header []byte) *Stream {
	return s.add(ogg.FlagBOS, 0, header)
}

// Page appends a page completing the given packets with granulepos gp.
func (s *Stream) Page(gp int64, packets ...[]byte) *Stream {
	return s.add(0, gp, packets...)
}

// EOS appends the final page of the stream.
func (s *Stream) EOS(gp int64, packets ...[]byte) *Stream {
	return s.add(ogg.FlagEOS, gp, packets...)
}

// Partial appends a page holding only the beginning of a packet: every
// lacing value is 255, so the page completes no packet. gp is written as is.
func (s *Stream) Partial(gp int64, segments int) *Stream {
	segs := bytes.Repeat([]byte{255}, segments)
	return s.Raw(0, gp, segs, Payload(255*segments, 0x40))
}

// Raw appends a page with an explicit lacing table. The continuation flag is
// derived from the previous page.
func (s *Stream) Raw(flags byte, gp int64, segments, body []byte) *Stream {
	if s.continued {
		flags |= ogg.FlagContinued
	}
	p, err := ogg.NewPage(flags, gp, s.serialno, s.pageno, segments, body)
	if err != nil {
		panic(err)
	}
	s.pages = append(s.pages, p.Bytes())
	s.pageno++
	s.continued = len(segments) > 0 && segments[len(segments)-1] == 255
	return s
}

func (s *Stream) add(flags byte, gp int64, packets ...[]byte) *Stream {
	var segs, body []byte
	for _, pkt := range packets {
		segs = append(segs, ogg.Lacing(len(pkt))...)
		body = append(body, pkt...)
	}
	return s.Raw(flags, gp, segs, body)
}

// Pages returns the encoded pages in order.
func (s *Stream) Pages() [][]byte { return s.pages }

// PageAt returns one encoded page.
func (s *Stream) PageAt(i int) []byte { return s.pages[i] }

// Bytes returns the stream's pages concatenated.
func (s *Stream) Bytes() []byte {
	return Concat(s.pages...)
}

// Concat joins encoded pages or streams into one physical bitstream.
func Concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// PageLayout describes a page decoded from a physical bitstream.
type PageLayout struct {
	Serialno   uint32
	GranulePos int64
	BOS        bool
	EOS        bool
	Packets    int
}

// Layout parses data into its sequence of pages. It panics on a malformed page.
func Layout(data []byte) []PageLayout {
	var out []PageLayout
	for len(data) > 0 {
		p, n, err := ogg.ParsePage(data)
		if err != nil {
			panic(err)
		}
		out = append(out, PageLayout{
			Serialno:   p.Serialno(),
			GranulePos: p.GranulePos(),
			BOS:        p.BOS(),
			EOS:        p.EOS(),
			Packets:    p.Packets(),
		})
		data = data[n:]
	}
	return out
}
