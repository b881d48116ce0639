// Package merge interleaves the pages of several Ogg files into one physical
// bitstream ordered by presentation time.
//
// Pages are copied verbatim: serial numbers, sequence numbers and granule
// positions are not rewritten. Beginning-of-stream pages are emitted as soon
// as they are seen, and when exactly two inputs are merged a Theora BOS page
// is kept ahead of a Vorbis one.
package merge

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

var (
	// ErrNoInputs is returned by Run when no input was added.
	ErrNoInputs = errors.New("merge: no inputs")

	// ErrOutputWrite wraps a failure to write to the output. It aborts the merge.
	ErrOutputWrite = errors.New("merge: writing output")
)

// AllVorbisWarning is emitted when every input is a single-track Vorbis file.
const AllVorbisWarning = "Merging Ogg Vorbis I files. The resulting file will contain %d tracks in parallel, " +
	"interleaved for simultaneous playback. If you want to sequence these files one after another, use cat instead."

// Options configures a Session.
type Options struct {
	// ReadSize is the byte quota per read on each input (ogg.DefaultReadSize when 0).
	ReadSize int
	Logger   *slog.Logger
}

// Stats summarises a completed merge.
type Stats struct {
	Inputs       int
	Pages        int64
	Bytes        int64
	Rounds       int64
	ReadFailures int
	// Warnings holds user-facing diagnostics raised during the merge.
	Warnings []string
}

// Session merges a fixed set of inputs. It is single use and not safe for
// concurrent use.
type Session struct {
	opts   Options
	logger *slog.Logger
	inputs *table.Table[int, *Input]
	next   int
}

// New returns an empty Session.
func New(opts Options) *Session {
	if opts.ReadSize <= 0 {
		opts.ReadSize = ogg.DefaultReadSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		opts:   opts,
		logger: logger,
		inputs: table.New[int, *Input](),
	}
}

// Add registers an input. If src implements io.Closer it is closed once the
// input is exhausted or the session is closed.
func (s *Session) Add(name string, src io.Reader) {
	s.inputs.Put(s.next, newInput(name, src, s.opts.ReadSize))
	s.next++
}

// Len returns the number of inputs still live.
func (s *Session) Len() int { return s.inputs.Len() }

// Close releases every remaining input.
func (s *Session) Close() error {
	var errs []error
	for _, key := range s.inputs.Keys() {
		in, _ := s.inputs.Get(key)
		errs = append(errs, in.close())
		s.inputs.Remove(key)
	}
	return errors.Join(errs...)
}

// Run writes the merged stream to w, returning once every input is exhausted.
// A read failure on one input drops that input and the merge carries on.
// A write failure on w is returned wrapped in ErrOutputWrite.
func (s *Session) Run(ctx context.Context, w io.Writer) (Stats, error) {
	stats := Stats{Inputs: s.inputs.Len()}
	if stats.Inputs == 0 {
		return stats, ErrNoInputs
	}

	carefulForTheora := stats.Inputs == 2
	warnAllVorbis := true

	for !s.inputs.Empty() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Rounds++

		minUnits := clock.Unset
		minIndex := -1
		var best *Input

		pos := 0
		for _, key := range s.inputs.Keys() {
			in, _ := s.inputs.Get(key)
			ok, err := in.fill()
			if err != nil {
				stats.ReadFailures++
				s.logger.Warn("input read failed, dropping it",
					slog.String("input", in.Name), slog.String("error", err.Error()))
			}
			if !ok {
				s.drop(key, in)
				continue
			}
			i := pos
			pos++

			stop := false
			if in.page.BOS() {
				best, minIndex = in, i
				if carefulForTheora || warnAllVorbis {
					isVorbis := in.codec() == codec.Vorbis
					if i == 0 && isVorbis {
						carefulForTheora = false
					} else {
						stop = true
					}
					if !isVorbis {
						warnAllVorbis = false
					}
				} else {
					stop = true
				}
			} else if warnAllVorbis {
				warnAllVorbis = s.checkAllVorbis(&stats)
			}

			units := in.reader.TellUnits()
			selected := minUnits == clock.Unset || units == 0 || (units > clock.Unset && units < minUnits)
			if selected {
				minUnits = units
				best, minIndex = in, i
			}
			s.logger.Debug("candidate page",
				slog.Int("index", i),
				slog.String("input", in.Name),
				slog.String("serialno", fmt.Sprintf("%010d", in.page.Serialno())),
				slog.Int64("units", units),
				slog.String("time", clock.Format(units)),
				slog.Bool("bos", in.page.BOS()),
				slog.Bool("min", selected),
			)

			if stop {
				break
			}
		}

		s.logger.Debug("round complete", slog.Int("min_index", minIndex))
		if best == nil {
			continue
		}

		p := best.take()
		n, err := p.WriteTo(w)
		stats.Bytes += n
		if err != nil {
			return stats, fmt.Errorf("%w: %w", ErrOutputWrite, err)
		}
		stats.Pages++
	}

	return stats, nil
}

// checkAllVorbis inspects every input once all BOS pages seen so far were
// Vorbis. It reports whether the all-Vorbis check should stay armed.
func (s *Session) checkAllVorbis(stats *Stats) bool {
	beyondBOS := true
	for _, in := range s.inputs.Values() {
		if in.reader.AtBOS() {
			beyondBOS = false
		} else if in.reader.NumTracks() > 1 {
			return false
		}
	}
	if !beyondBOS {
		return true
	}
	if stats.Inputs > 1 {
		msg := fmt.Sprintf(AllVorbisWarning, s.inputs.Len())
		stats.Warnings = append(stats.Warnings, msg)
		s.logger.Warn(msg)
	}
	return false
}

func (s *Session) drop(key int, in *Input) {
	s.inputs.Remove(key)
	if err := in.close(); err != nil {
		s.logger.Debug("closing input", slog.String("input", in.Name), slog.String("error", err.Error()))
	}
	s.logger.Debug("input exhausted",
		slog.String("input", in.Name),
		slog.Int64("pages_read", in.pagesIn),
		slog.Int64("pages_written", in.pagesOut),
		slog.Int64("bytes_read", in.bytesRead),
	)
}
