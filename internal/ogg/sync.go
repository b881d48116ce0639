package ogg

import (
	"bytes"
	"errors"
)

// syncState accumulates raw bytes and carves CRC-valid pages out of them,
// skipping anything that does not frame correctly.
type syncState struct {
	buf []byte
	// offset is the stream position of buf[0].
	offset  int64
	skipped int64
}

func (s *syncState) write(p []byte) {
	s.buf = append(s.buf, p...)
}

func (s *syncState) consume(n int) {
	s.buf = s.buf[n:]
	s.offset += int64(n)
	if len(s.buf) == 0 {
		s.buf = nil
	}
}

func (s *syncState) skip(n int) {
	s.skipped += int64(n)
	s.consume(n)
}

// next returns the next complete page and its stream offset, or nil when more
// input is needed. With final set no more input will arrive, so truncated
// pages are skipped over instead of waited for.
func (s *syncState) next(final bool) (*Page, int64) {
	for len(s.buf) > 0 {
		i := bytes.Index(s.buf, []byte(capturePattern))
		if i < 0 {
			if final {
				s.skip(len(s.buf))
				return nil, 0
			}
			// keep a possible partial capture pattern
			s.skip(max(0, len(s.buf)-(len(capturePattern)-1)))
			return nil, 0
		}
		if i > 0 {
			s.skip(i)
		}

		p, n, err := ParsePage(s.buf)
		switch {
		case errors.Is(err, errShortPage) && !final:
			return nil, 0
		case err != nil:
			s.skip(1)
			continue
		}
		off := s.offset
		s.consume(n)
		return p, off
	}
	return nil, 0
}
