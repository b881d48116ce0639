package ogg

import (
	"errors"
	"fmt"
	"io"

	"github.com/jmylchreest/oggkit/internal/clock"
	"github.com/jmylchreest/oggkit/internal/table"
)

// DefaultReadSize is the byte quota used by Read when none is given.
const DefaultReadSize = 4096

// maxEmptyReads bounds consecutive (0, nil) reads from the source.
const maxEmptyReads = 100

// PageHandler is called for every page, before the packets it completes are
// delivered. The page may be retained only through Page.Clone.
type PageHandler func(p *Page) error

// PacketHandler is called for every reconstructed packet.
type PacketHandler func(pkt *Packet) error

// Reader is a pull-based Ogg demultiplexer. Each call to Read consumes a
// bounded number of bytes and synchronously invokes the registered handlers
// for every page and packet that becomes available.
//
// A handler returning ErrStop makes Read return early without error; any
// other error is returned from Read. Packets not yet delivered when a handler
// stops are delivered first on the next call.
type Reader struct {
	src io.Reader
	buf []byte

	sync   syncState
	tracks *table.Table[uint32, *Track]
	// started counts logical bitstreams across every chain.
	started int

	pageFn   PageHandler
	packetFn PacketHandler
	pending  []pendingPacket

	units  int64
	offset int64
	atBOS  bool
	eof    bool
}

type pendingPacket struct {
	pkt    Packet
	offset int64
}

// NewReader returns a Reader consuming src.
func NewReader(src io.Reader) *Reader {
	return &Reader{
		src:    src,
		buf:    make([]byte, DefaultReadSize),
		tracks: table.New[uint32, *Track](),
		units:  clock.Unset,
		atBOS:  true,
	}
}

// SetPageHandler registers the page callback.
func (r *Reader) SetPageHandler(fn PageHandler) { r.pageFn = fn }

// SetPacketHandler registers the packet callback.
func (r *Reader) SetPacketHandler(fn PacketHandler) { r.packetFn = fn }

// Read consumes at most quota bytes from the source (DefaultReadSize when
// quota <= 0) and dispatches the resulting pages and packets.
//
// It returns the number of source bytes consumed. The reader is exhausted when
// Read returns (0, io.EOF): the source hit end of file and nothing remained to
// deliver.
func (r *Reader) Read(quota int) (int, error) {
	if quota <= 0 {
		quota = DefaultReadSize
	}
	if len(r.buf) < quota {
		r.buf = make([]byte, quota)
	}

	progress, err := r.dispatch()
	if err != nil {
		return 0, stopped(err)
	}

	total, empty := 0, 0
	for total < quota && !r.eof {
		n, rerr := r.src.Read(r.buf[:quota-total])
		if n > 0 {
			empty = 0
			total += n
			r.sync.write(r.buf[:n])
			p, err := r.dispatch()
			progress = progress || p
			if err != nil {
				return total, stopped(err)
			}
		}
		switch {
		case errors.Is(rerr, io.EOF):
			r.eof = true
		case rerr != nil:
			return total, fmt.Errorf("ogg: reading input: %w", rerr)
		case n == 0:
			empty++
			if empty >= maxEmptyReads {
				return total, io.ErrNoProgress
			}
		}
	}

	if r.eof {
		p, err := r.dispatch()
		progress = progress || p
		if err != nil {
			return total, stopped(err)
		}
		if total == 0 && !progress {
			return 0, io.EOF
		}
	}
	return total, nil
}

func stopped(err error) error {
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

// dispatch delivers queued packets, then every complete buffered page.
func (r *Reader) dispatch() (bool, error) {
	progress := false
	for len(r.pending) > 0 {
		q := r.pending[0]
		r.pending = r.pending[1:]
		progress = true
		r.offset = q.offset
		if err := r.packetFn(&q.pkt); err != nil {
			return true, err
		}
	}
	r.pending = nil

	for {
		p, off := r.sync.next(r.eof)
		if p == nil {
			return progress, nil
		}
		progress = true
		if err := r.handlePage(p, off); err != nil {
			return true, err
		}
	}
}

func (r *Reader) handlePage(p *Page, off int64) error {
	serialno := p.Serialno()
	if p.BOS() && !r.atBOS && r.chainEnded() {
		r.tracks.Clear()
	}
	t, ok := r.tracks.Get(serialno)
	if !ok {
		t = newTrack(serialno)
		r.tracks.Put(serialno, t)
		r.started++
	}

	if p.BOS() {
		if t.BOSSeen {
			// serialno reused by a later chain
			*t = *newTrack(serialno)
		}
		t.BOSSeen = true
		t.identify(p.FirstPacket())
	} else {
		r.atBOS = false
	}
	if p.EOS() {
		t.EOSSeen = true
	}
	t.Pages++
	r.offset = off

	prevGP := t.GranulePos
	if gp := p.GranulePos(); gp != UnsetGranulePos {
		t.GranulePos = gp
		if ts := clock.Timestamp(gp, t.Shift, t.Rate); ts != clock.Unset {
			t.Timestamp = ts
			r.units = ts
		}
	}

	packets := t.assemble(p, prevGP)

	if r.pageFn != nil {
		if err := r.pageFn(p); err != nil {
			r.queue(packets, off)
			return err
		}
	}
	if r.packetFn == nil {
		return nil
	}
	for i := range packets {
		if err := r.packetFn(&packets[i]); err != nil {
			r.queue(packets[i+1:], off)
			return err
		}
	}
	return nil
}

func (r *Reader) queue(packets []Packet, off int64) {
	if r.packetFn == nil {
		return
	}
	for _, pkt := range packets {
		r.pending = append(r.pending, pendingPacket{pkt: pkt, offset: off})
	}
}

// TellUnits returns the presentation time in milliseconds of the most recent
// page whose time is known, or -1 before any.
func (r *Reader) TellUnits() int64 { return r.units }

// Tell returns the byte offset of the page most recently dispatched.
func (r *Reader) Tell() int64 { return r.offset }

// Skipped returns the number of input bytes discarded while resynchronising.
func (r *Reader) Skipped() int64 { return r.sync.skipped }

// AtBOS reports whether no track has yet delivered a page other than its BOS page.
func (r *Reader) AtBOS() bool { return r.atBOS }

// chainEnded reports whether every track of the current chain has seen its
// EOS page.
func (r *Reader) chainEnded() bool {
	if r.tracks.Empty() {
		return false
	}
	for _, t := range r.tracks.Values() {
		if !t.EOSSeen {
			return false
		}
	}
	return true
}

// NumTracks returns the number of logical bitstreams seen so far. A serialno
// reused by a later chain counts again.
func (r *Reader) NumTracks() int { return r.started }

// Tracks returns the tracks of the current chain in order of first
// appearance. Tracks of finished chains are dropped when the next chain
// starts.
func (r *Reader) Tracks() []*Track { return r.tracks.Values() }

// Track returns the state of one logical bitstream.
func (r *Reader) Track(serialno uint32) (*Track, bool) {
	return r.tracks.Get(serialno)
}

// GranuleRate returns the granule rate of a track, false while unknown.
func (r *Reader) GranuleRate(serialno uint32) (clock.Rate, bool) {
	t, ok := r.tracks.Get(serialno)
	if !ok || !t.Rate.Valid() {
		return clock.Rate{}, false
	}
	return t.Rate, true
}

// GranuleShift returns the granule shift of a track, 0 when unknown.
func (r *Reader) GranuleShift(serialno uint32) uint {
	t, ok := r.tracks.Get(serialno)
	if !ok {
		return 0
	}
	return t.Shift
}
