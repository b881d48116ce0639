package validate

import (
	"fmt"

	"github.com/jmylchreest/oggkit/internal/clock"
	"github.com/jmylchreest/oggkit/internal/codec"
)

// Diagnostic is one reported error.
type Diagnostic struct {
	Kind     Kind
	Serialno uint32
	// Timestamp is the packet's presentation time in milliseconds, clock.Unset
	// when unknown.
	Timestamp int64
	// Previous is the ordering watermark a PacketOutOfOrder packet fell behind.
	Previous int64
	// Offset is the byte offset of the page being processed.
	Offset int64
	// GranulePos is set for GranuleposOnIncompletePacket.
	GranulePos int64
	// Code is the framing error code for kinds raised by the re-multiplexer.
	Code int
	// Codec names the video codec for VideoBosAfterAudioBos.
	Codec codec.Name
}

// Position renders where the error occurred: the timestamp when known,
// otherwise the byte offset.
func (d Diagnostic) Position() string {
	if d.Timestamp != clock.Unset {
		return clock.Format(d.Timestamp)
	}
	return fmt.Sprintf("%d", d.Offset)
}

// String renders the diagnostic as a single report line.
func (d Diagnostic) String() string {
	serial := fmt.Sprintf("serialno %010d", d.Serialno)
	switch d.Kind {
	case EmptyFile:
		return d.Kind.Description()
	case PacketOutOfOrder:
		return fmt.Sprintf("%s: %s: Packet out of order (previous %s)",
			clock.Format(d.Timestamp), serial, clock.Format(d.Previous))
	case MissingBos:
		return serial + ": missing *** bos"
	case MissingEos:
		return serial + ": missing *** eos"
	case EosWithoutBos:
		return serial + ": *** eos marked but no bos"
	case GranuleposOnIncompletePacket:
		return fmt.Sprintf("%s: granulepos %d on page with no completed packets, must be -1", serial, d.GranulePos)
	case VideoBosAfterAudioBos:
		return fmt.Sprintf("%s: %s video bos page after audio bos page", serial, d.Codec)
	case UnclassifiedFramingViolation:
		return fmt.Sprintf("%s: %s: %s: %d", d.Position(), serial, d.Kind.Description(), d.Code)
	default:
		return fmt.Sprintf("%s: %s: %s", d.Position(), serial, d.Kind.Description())
	}
}
