package ogg

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Page header flag constants.
const (
	FlagContinued = 0x01
	FlagBOS       = 0x02
	FlagEOS       = 0x04
)

const (
	capturePattern = "OggS"

	// headerSize is the fixed portion of the page header before the lacing table.
	headerSize = 27
	crcOffset  = 22

	// MaxSegments is the largest lacing table a page can carry.
	MaxSegments = 255
	// MaxPageSize is the largest possible encoded page.
	MaxPageSize = headerSize + MaxSegments + MaxSegments*255
)

// UnsetGranulePos marks a page or packet without a granule position.
const UnsetGranulePos int64 = -1

// Page is one encoded Ogg page. Header includes the lacing table. Both slices
// are owned by the Page; use Clone to keep a page delivered to a handler.
type Page struct {
	Header []byte
	Body   []byte
}

// Version returns the stream structure version.
func (p *Page) Version() byte { return p.Header[4] }

// Flags returns the header type flags.
func (p *Page) Flags() byte { return p.Header[5] }

// Continued reports whether the page starts with the continuation of a packet.
func (p *Page) Continued() bool { return p.Header[5]&FlagContinued != 0 }

// BOS reports whether this is the first page of a logical bitstream.
func (p *Page) BOS() bool { return p.Header[5]&FlagBOS != 0 }

// EOS reports whether this is the last page of a logical bitstream.
func (p *Page) EOS() bool { return p.Header[5]&FlagEOS != 0 }

// GranulePos returns the page granule position, -1 when unset.
func (p *Page) GranulePos() int64 {
	return int64(binary.LittleEndian.Uint64(p.Header[6:14]))
}

// Serialno returns the serial number of the owning logical bitstream.
func (p *Page) Serialno() uint32 { return binary.LittleEndian.Uint32(p.Header[14:18]) }

// PageNo returns the page sequence number.
func (p *Page) PageNo() uint32 { return binary.LittleEndian.Uint32(p.Header[18:22]) }

// CRC returns the stored checksum.
func (p *Page) CRC() uint32 { return binary.LittleEndian.Uint32(p.Header[crcOffset : crcOffset+4]) }

// Segments returns the lacing table.
func (p *Page) Segments() []byte { return p.Header[headerSize:] }

// Packets returns the number of packets completed on this page, that is the
// number of lacing values below 255.
func (p *Page) Packets() int {
	n := 0
	for _, s := range p.Segments() {
		if s < 255 {
			n++
		}
	}
	return n
}

// FirstPacket returns the bytes of the first packet that begins on this page,
// truncated at the page end when the packet continues onto the next page.
func (p *Page) FirstPacket() []byte {
	start, size := 0, 0
	segs := p.Segments()
	i := 0
	if p.Continued() {
		for ; i < len(segs); i++ {
			start += int(segs[i])
			if segs[i] < 255 {
				i++
				break
			}
		}
	}
	for ; i < len(segs); i++ {
		size += int(segs[i])
		if segs[i] < 255 {
			break
		}
	}
	if start+size > len(p.Body) {
		return nil
	}
	return p.Body[start : start+size]
}

// Len returns the encoded size of the page.
func (p *Page) Len() int { return len(p.Header) + len(p.Body) }

// Clone returns a deep copy of the page.
func (p *Page) Clone() *Page {
	return &Page{
		Header: bytes.Clone(p.Header),
		Body:   bytes.Clone(p.Body),
	}
}

// WriteTo writes the page header followed by its body.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Header)
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(p.Body)
	return int64(n + m), err
}

// Bytes returns the encoded page as one slice.
func (p *Page) Bytes() []byte {
	out := make([]byte, 0, p.Len())
	out = append(out, p.Header...)
	return append(out, p.Body...)
}

// NewPage encodes a page with the given lacing table and body and stamps its CRC.
// It returns ErrInvalidPage when the lacing table does not describe body.
func NewPage(flags byte, granulepos int64, serialno, pageno uint32, segments, body []byte) (*Page, error) {
	if len(segments) > MaxSegments {
		return nil, ErrInvalidPage
	}
	total := 0
	for _, s := range segments {
		total += int(s)
	}
	if total != len(body) {
		return nil, ErrInvalidPage
	}

	h := make([]byte, headerSize+len(segments))
	copy(h, capturePattern)
	h[4] = 0
	h[5] = flags
	binary.LittleEndian.PutUint64(h[6:14], uint64(granulepos))
	binary.LittleEndian.PutUint32(h[14:18], serialno)
	binary.LittleEndian.PutUint32(h[18:22], pageno)
	h[26] = byte(len(segments))
	copy(h[headerSize:], segments)

	p := &Page{Header: h, Body: bytes.Clone(body)}
	binary.LittleEndian.PutUint32(h[crcOffset:crcOffset+4], pageCRC(h, p.Body))
	return p, nil
}

// Lacing returns the lacing values for a packet of the given length. A packet
// whose length is a multiple of 255 ends with a zero lacing value.
func Lacing(n int) []byte {
	segs := make([]byte, n/255+1)
	for i := 0; i < len(segs)-1; i++ {
		segs[i] = 255
	}
	segs[len(segs)-1] = byte(n % 255)
	return segs
}

// ParsePage decodes the page at the start of data.
// It returns the page, the number of bytes consumed and any error.
// ErrInvalidPage is returned for a malformed header and ErrBadCRC for a
// checksum mismatch.
func ParsePage(data []byte) (*Page, int, error) {
	if len(data) < headerSize {
		if !bytes.HasPrefix([]byte(capturePattern), data[:min(len(data), 4)]) {
			return nil, 0, ErrInvalidPage
		}
		return nil, 0, errShortPage
	}
	if string(data[:4]) != capturePattern || data[4] != 0 {
		return nil, 0, ErrInvalidPage
	}

	nsegs := int(data[26])
	hlen := headerSize + nsegs
	if len(data) < hlen {
		return nil, 0, errShortPage
	}
	blen := 0
	for _, s := range data[headerSize:hlen] {
		blen += int(s)
	}
	if len(data) < hlen+blen {
		return nil, 0, errShortPage
	}

	p := &Page{
		Header: bytes.Clone(data[:hlen]),
		Body:   bytes.Clone(data[hlen : hlen+blen]),
	}
	if pageCRC(p.Header, p.Body) != p.CRC() {
		return nil, 0, ErrBadCRC
	}
	return p, hlen + blen, nil
}
