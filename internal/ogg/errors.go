package ogg

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPage indicates the page structure is malformed.
	// This includes a missing "OggS" capture pattern, an unsupported version
	// or inconsistent lengths.
	ErrInvalidPage = errors.New("ogg: invalid page structure")

	// ErrBadCRC indicates the page CRC checksum does not match the computed value.
	ErrBadCRC = errors.New("ogg: CRC mismatch")

	// ErrStop may be returned by a page or packet handler to make Read return
	// immediately without an error. Undelivered packets are kept for the next Read.
	ErrStop = errors.New("ogg: stop reading")

	// ErrWriterClosed is returned when feeding a closed Writer.
	ErrWriterClosed = errors.New("ogg: writer closed")

	// ErrUnterminated is reported by Writer.Close for tracks without an EOS packet.
	ErrUnterminated = errors.New("ogg: track not terminated")

	errShortPage = errors.New("ogg: short page")
)

// Framing violations reported by Writer.Feed. Each FeedError unwraps to one of these.
var (
	ErrBadSerialno   = errors.New("packet belongs to unknown serialno")
	ErrBadBOSOrder   = errors.New("bos packet after data packets")
	ErrBadGranulepos = errors.New("granulepos decreasing within track")
	ErrDuplicateBOS  = errors.New("multiple bos packets")
	ErrDuplicateEOS  = errors.New("packet after eos")
	ErrBadPacketno   = errors.New("packetno not increasing within track")
	ErrFraming       = errors.New("framing violation")
)

// Feed error codes. The numbering follows the established Ogg tooling
// convention so that diagnostics stay comparable.
const (
	CodeDuplicateBOS  = -5
	CodeDuplicateEOS  = -6
	CodeBadSerialno   = -20
	CodeBadBOSOrder   = -22
	CodeBadGranulepos = -24
	CodeBadPacketno   = -25
)

// FeedError describes a packet rejected by Writer.Feed.
type FeedError struct {
	Code     int
	Serialno uint32
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("ogg: serialno %010d: %v (%d)", e.Serialno, e.Unwrap(), e.Code)
}

// Unwrap returns the sentinel matching the error code.
func (e *FeedError) Unwrap() error {
	switch e.Code {
	case CodeDuplicateBOS:
		return ErrDuplicateBOS
	case CodeDuplicateEOS:
		return ErrDuplicateEOS
	case CodeBadSerialno:
		return ErrBadSerialno
	case CodeBadBOSOrder:
		return ErrBadBOSOrder
	case CodeBadGranulepos:
		return ErrBadGranulepos
	case CodeBadPacketno:
		return ErrBadPacketno
	default:
		return ErrFraming
	}
}

func feedError(code int, serialno uint32) error {
	return &FeedError{Code: code, Serialno: serialno}
}
