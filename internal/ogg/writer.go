package ogg

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jmylchreest/oggkit/internal/table"
)

// WriterFlag modifies the framing rules a Writer enforces.
type WriterFlag uint8

const (
	// WriterPrefix permits tracks that never receive an EOS packet.
	WriterPrefix WriterFlag = 1 << iota
	// WriterSuffix permits tracks that start without a BOS packet.
	WriterSuffix
)

// maxPageBody is the body size at which a page under construction is emitted.
const maxPageBody = 4096

// Writer re-multiplexes packets into Ogg pages. Feed checks each packet
// against the framing rules before accepting it; accepted packets are laced
// into pages that are buffered until drained with WriteTo.
type Writer struct {
	flags   WriterFlag
	tracks  *table.Table[uint32, *writerTrack]
	started bool
	closed  bool

	out   bytes.Buffer
	pages int64
}

type writerTrack struct {
	serialno uint32
	pageno   uint32

	eos          bool
	packets      int64
	lastPacketNo int64
	granulepos   int64

	// page under construction
	segs      []byte
	body      []byte
	pageGP    int64
	completed int
	bosPage   bool
	continued bool
}

// NewWriter returns an empty Writer.
func NewWriter(flags WriterFlag) *Writer {
	return &Writer{
		flags:  flags,
		tracks: table.New[uint32, *writerTrack](),
	}
}

func newWriterTrack(serialno uint32) *writerTrack {
	return &writerTrack{
		serialno:     serialno,
		lastPacketNo: -1,
		granulepos:   UnsetGranulePos,
		pageGP:       UnsetGranulePos,
	}
}

// Feed submits one packet for serialno. With flush set the page holding the
// packet is emitted right after it. A rejected packet yields a *FeedError.
//
// A BOS packet for a new serialno arriving after data packets is rejected
// with CodeBadBOSOrder, but the track is registered so that its later
// packets are not reported again as belonging to an unknown serialno.
func (w *Writer) Feed(pkt *Packet, serialno uint32, flush bool) error {
	if w.closed {
		return ErrWriterClosed
	}

	t, ok := w.tracks.Get(serialno)
	switch {
	case !ok && !pkt.BOS:
		if w.flags&WriterSuffix == 0 {
			return feedError(CodeBadSerialno, serialno)
		}
		t = newWriterTrack(serialno)
		w.tracks.Put(serialno, t)
	case !ok:
		t = newWriterTrack(serialno)
		w.tracks.Put(serialno, t)
		if w.started {
			return feedError(CodeBadBOSOrder, serialno)
		}
	case pkt.BOS:
		return feedError(CodeDuplicateBOS, serialno)
	}

	if t.eos {
		return feedError(CodeDuplicateEOS, serialno)
	}
	if pkt.PacketNo != -1 && t.lastPacketNo != -1 && pkt.PacketNo <= t.lastPacketNo {
		return feedError(CodeBadPacketno, serialno)
	}
	if pkt.GranulePos != UnsetGranulePos && t.granulepos != UnsetGranulePos && pkt.GranulePos < t.granulepos {
		return feedError(CodeBadGranulepos, serialno)
	}

	if pkt.PacketNo != -1 {
		t.lastPacketNo = pkt.PacketNo
	}
	if pkt.GranulePos != UnsetGranulePos {
		t.granulepos = pkt.GranulePos
	}
	if pkt.BOS {
		t.bosPage = true
	} else {
		w.started = true
	}
	if pkt.EOS {
		t.eos = true
	}
	t.packets++

	w.lace(t, pkt.Data, pkt.GranulePos)
	if pkt.BOS || pkt.EOS || flush || t.full() {
		w.emit(t, pkt.EOS)
	}
	return nil
}

func (w *Writer) lace(t *writerTrack, data []byte, granulepos int64) {
	lacing := Lacing(len(data))
	off := 0
	for i, l := range lacing {
		if t.full() {
			w.emit(t, false)
		}
		t.segs = append(t.segs, l)
		t.body = append(t.body, data[off:off+int(l)]...)
		off += int(l)
		if i == len(lacing)-1 {
			t.pageGP = granulepos
			t.completed++
		}
	}
}

func (t *writerTrack) full() bool {
	return len(t.segs) == MaxSegments || len(t.body) >= maxPageBody
}

func (w *Writer) emit(t *writerTrack, eos bool) {
	if len(t.segs) == 0 {
		return
	}

	var flags byte
	if t.continued {
		flags |= FlagContinued
	}
	if t.bosPage {
		flags |= FlagBOS
	}
	midPacket := t.segs[len(t.segs)-1] == 255
	if eos {
		flags |= FlagEOS
	}
	gp := UnsetGranulePos
	if t.completed > 0 {
		gp = t.pageGP
	}

	// lacing always matches the body here
	p, _ := NewPage(flags, gp, t.serialno, t.pageno, t.segs, t.body)
	w.out.Write(p.Header)
	w.out.Write(p.Body)
	w.pages++

	t.pageno++
	t.continued = midPacket
	t.bosPage = false
	t.segs = t.segs[:0]
	t.body = t.body[:0]
	t.pageGP = UnsetGranulePos
	t.completed = 0
}

// Buffered returns the number of encoded bytes waiting to be drained.
func (w *Writer) Buffered() int { return w.out.Len() }

// Pages returns the number of pages emitted so far.
func (w *Writer) Pages() int64 { return w.pages }

// WriteTo drains the encoded pages into dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	return w.out.WriteTo(dst)
}

// Close emits every page still under construction. Unless the Writer was
// created with WriterPrefix, it returns an error naming each track that never
// received an EOS packet. Pages remain available to WriteTo after Close.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	w.tracks.Each(func(serialno uint32, t *writerTrack) {
		w.emit(t, false)
		if !t.eos && w.flags&WriterPrefix == 0 {
			errs = append(errs, fmt.Errorf("%w: serialno %010d", ErrUnterminated, serialno))
		}
	})
	return errors.Join(errs...)
}
