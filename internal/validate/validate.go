// Package validate checks the page and packet framing of an Ogg physical
// bitstream.
//
// Every packet is fed through an ogg.Writer, which rejects packets that could
// not be legally re-multiplexed. On top of that the validator tracks which
// logical bitstreams are open in the current chain, the global presentation
// order of packets, and the relative order of video and audio BOS pages.
package validate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmylchreest/oggkit/internal/clock"
	"github.com/jmylchreest/oggkit/internal/codec"
	"github.com/jmylchreest/oggkit/internal/ogg"
	"github.com/jmylchreest/oggkit/internal/table"
)

// Defaults.
const (
	DefaultMaxErrors = 10
	DefaultReadSize  = 1024
)

// ErrTooManyErrors is returned by the handlers once the error budget is spent.
var ErrTooManyErrors = errors.New("validate: maximum error count reached")

// Options configures one validation run.
type Options struct {
	// MaxErrors stops validation once more than this many errors have been
	// reported. Zero means unlimited.
	MaxErrors int
	// Prefix declares the input the leading fragment of a stream, suppressing
	// missing eos errors.
	Prefix bool
	// Suffix declares the input the trailing fragment of a stream, suppressing
	// missing bos errors in its first chain.
	Suffix bool
	// ReadSize is the byte quota per read (DefaultReadSize when 0).
	ReadSize int
	// Report is called for every reported error, in order.
	Report func(Diagnostic)
	Logger *slog.Logger
}

// Result summarises a validation run.
type Result struct {
	Errors      int
	Diagnostics []Diagnostic
	// Bailed is set when validation stopped at the error budget.
	Bailed bool
	// Bytes is the number of input bytes consumed.
	Bytes int64
	// Written is the number of bytes the re-multiplexer produced.
	Written int64
	Chains  int
	Tracks  int
	Skipped int64
}

// OK reports whether the input validated without errors.
func (r Result) OK() bool { return r.Errors == 0 }

// Session validates a single input. Its state is reset at every chain
// boundary.
type Session struct {
	opts   Options
	logger *slog.Logger

	prefix bool
	suffix bool

	reader *ogg.Reader
	writer *ogg.Writer
	// pending holds serialnos whose BOS was seen and whose EOS was not.
	pending   *table.Table[uint32, struct{}]
	video     int
	audio     int
	watermark int64
	started   bool

	result Result
}

// NewSession prepares a session reading from src.
func NewSession(src io.Reader, opts Options) *Session {
	if opts.ReadSize <= 0 {
		opts.ReadSize = DefaultReadSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		opts:   opts,
		logger: logger,
		prefix: opts.Prefix,
		suffix: opts.Suffix,
		reader: ogg.NewReader(src),
	}
	s.reader.SetPageHandler(s.handlePage)
	s.reader.SetPacketHandler(s.handlePacket)
	s.openChain()
	return s
}

// Validate runs a session over src. The returned error reports a failure to
// read src or a cancelled context; framing errors are reported in the Result.
func Validate(ctx context.Context, src io.Reader, opts Options) (Result, error) {
	return NewSession(src, opts).Run(ctx)
}

// Run reads the input to the end or until the error budget is exceeded.
func (s *Session) Run(ctx context.Context) (Result, error) {
	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		n, err := s.reader.Read(s.opts.ReadSize)
		s.result.Bytes += int64(n)
		if errors.Is(err, ErrTooManyErrors) {
			s.result.Bailed = true
			break
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			runErr = fmt.Errorf("validate: %w", err)
			break
		}
		s.drain()
	}
	s.drain()

	if s.result.Written == 0 {
		_ = s.report(Diagnostic{Kind: EmptyFile, Timestamp: clock.Unset, Offset: s.reader.Tell()})
	}
	s.closeChain()

	s.result.Tracks = s.reader.NumTracks()
	s.result.Skipped = s.reader.Skipped()
	if s.exhausted() {
		s.result.Bailed = true
	}
	s.logger.Debug("validation finished",
		slog.Int("errors", s.result.Errors),
		slog.Int("chains", s.result.Chains),
		slog.Int("tracks", s.result.Tracks),
		slog.Int64("bytes", s.result.Bytes),
		slog.Bool("bailed", s.result.Bailed),
	)
	return s.result, runErr
}

func (s *Session) openChain() {
	var flags ogg.WriterFlag
	if s.prefix {
		flags |= ogg.WriterPrefix
	}
	if s.suffix {
		flags |= ogg.WriterSuffix
	}
	s.writer = ogg.NewWriter(flags)
	s.pending = table.New[uint32, struct{}]()
	s.video = 0
	s.audio = 0
	s.watermark = 0
	s.started = false
}

// closeChain reports every track left without an EOS unless in prefix mode.
func (s *Session) closeChain() {
	_ = s.writer.Close()
	s.drain()
	if s.prefix {
		return
	}
	for _, serialno := range s.pending.Keys() {
		_ = s.report(Diagnostic{
			Kind:      MissingEos,
			Serialno:  serialno,
			Timestamp: clock.Unset,
			Offset:    s.reader.Tell(),
		})
	}
}

func (s *Session) drain() {
	n, _ := s.writer.WriteTo(io.Discard)
	s.result.Written += n
}

func (s *Session) exhausted() bool {
	return s.opts.MaxErrors > 0 && s.result.Errors > s.opts.MaxErrors
}

// report records d unless the budget is already spent. It returns
// ErrTooManyErrors once the budget is exceeded.
func (s *Session) report(d Diagnostic) error {
	if s.exhausted() {
		return ErrTooManyErrors
	}
	s.result.Errors++
	s.result.Diagnostics = append(s.result.Diagnostics, d)
	if s.opts.Report != nil {
		s.opts.Report(d)
	}
	if s.exhausted() {
		return ErrTooManyErrors
	}
	return nil
}

func (s *Session) handlePage(p *ogg.Page) error {
	var stop error
	serialno := p.Serialno()

	if p.BOS() {
		if m, ok := codec.Identify(p.FirstPacket()); ok {
			switch {
			case m.IsVideo():
				s.video++
				if s.audio > 0 {
					stop = s.report(Diagnostic{
						Kind:      VideoBosAfterAudioBos,
						Serialno:  serialno,
						Timestamp: clock.Unset,
						Offset:    s.reader.Tell(),
						Codec:     m.Name,
					})
				}
			case m.IsAudio():
				s.audio++
			}
		}
	}

	if gp := p.GranulePos(); gp != ogg.UnsetGranulePos && p.Packets() == 0 {
		if err := s.report(Diagnostic{
			Kind:       GranuleposOnIncompletePacket,
			Serialno:   serialno,
			Timestamp:  clock.Unset,
			Offset:     s.reader.Tell(),
			GranulePos: gp,
		}); err != nil {
			stop = err
		}
	}
	return stop
}

func (s *Session) handlePacket(pkt *ogg.Packet) error {
	var stop error
	serialno := pkt.Serialno
	fail := func(d Diagnostic) {
		d.Serialno = serialno
		d.Offset = s.reader.Tell()
		if err := s.report(d); err != nil {
			stop = err
		}
	}

	if !s.started {
		s.started = true
		s.result.Chains++
	}
	if pkt.BOS {
		s.pending.Put(serialno, struct{}{})
	}
	if !s.suffix && !s.pending.Has(serialno) {
		fail(Diagnostic{Kind: MissingBos, Timestamp: clock.Unset})
	}
	if !s.suffix && pkt.EOS {
		if !s.pending.Remove(serialno) {
			fail(Diagnostic{Kind: EosWithoutBos, Timestamp: clock.Unset})
		}
	}

	ts := clock.Unset
	if rate, ok := s.reader.GranuleRate(serialno); ok {
		ts = clock.Timestamp(pkt.GranulePos, s.reader.GranuleShift(serialno), rate)
	}
	if ts != clock.Unset {
		if ts < s.watermark {
			fail(Diagnostic{Kind: PacketOutOfOrder, Timestamp: ts, Previous: s.watermark})
		} else {
			s.watermark = ts
		}
	}

	flush := pkt.GranulePos != ogg.UnsetGranulePos
	if err := s.writer.Feed(pkt, serialno, flush); err != nil {
		var fe *ogg.FeedError
		code := 0
		if errors.As(err, &fe) {
			code = fe.Code
		}
		fail(Diagnostic{Kind: kindForCode(code), Timestamp: ts, Code: code})
	}

	if pkt.EOS && s.pending.Empty() {
		s.closeChain()
		s.suffix = false
		s.openChain()
	}
	return stop
}
