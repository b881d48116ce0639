package validate

import (
	"github.com/jmylchreest/oggkit/internal/ogg"
)

// Kind classifies a framing or ordering error.
type Kind int

// Error kinds.
const (
	EmptyFile Kind = iota + 1
	PacketOutOfOrder
	UnknownSerialno
	GranuleposDecreasing
	DuplicateBos
	DuplicateEos
	EosWithoutBos
	MissingBos
	MissingEos
	GranuleposOnIncompletePacket
	VideoBosAfterAudioBos
	UnclassifiedFramingViolation
)

var kindNames = map[Kind]string{
	EmptyFile:                    "EmptyFile",
	PacketOutOfOrder:             "PacketOutOfOrder",
	UnknownSerialno:              "UnknownSerialno",
	GranuleposDecreasing:         "GranuleposDecreasing",
	DuplicateBos:                 "DuplicateBos",
	DuplicateEos:                 "DuplicateEos",
	EosWithoutBos:                "EosWithoutBos",
	MissingBos:                   "MissingBos",
	MissingEos:                   "MissingEos",
	GranuleposOnIncompletePacket: "GranuleposOnIncompletePacket",
	VideoBosAfterAudioBos:        "VideoBosAfterAudioBos",
	UnclassifiedFramingViolation: "UnclassifiedFramingViolation",
}

var kindDescriptions = map[Kind]string{
	EmptyFile:                    "File contains no Ogg packets",
	PacketOutOfOrder:             "Packets out of order",
	UnknownSerialno:              "Packet belongs to unknown serialno",
	GranuleposDecreasing:         "Granulepos decreasing within track",
	DuplicateBos:                 "Multiple bos packets",
	DuplicateEos:                 "Multiple eos packets",
	EosWithoutBos:                "eos marked but no bos",
	MissingBos:                   "Missing bos packets",
	MissingEos:                   "Missing eos packets",
	GranuleposOnIncompletePacket: "Granulepos on page with no completed packets",
	VideoBosAfterAudioBos:        "Video bos page after audio bos page",
	UnclassifiedFramingViolation: "Packet violates Ogg framing constraints",
}

// String returns the identifier of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Description returns a human readable summary of the kind.
func (k Kind) Description() string {
	return kindDescriptions[k]
}

// Kinds returns every error kind the validator can report, in listing order.
func Kinds() []Kind {
	return []Kind{
		EmptyFile,
		PacketOutOfOrder,
		UnknownSerialno,
		GranuleposDecreasing,
		DuplicateBos,
		DuplicateEos,
		EosWithoutBos,
		MissingBos,
		MissingEos,
		GranuleposOnIncompletePacket,
		VideoBosAfterAudioBos,
		UnclassifiedFramingViolation,
	}
}

// kindForCode maps a Writer.Feed error code to a kind.
func kindForCode(code int) Kind {
	switch code {
	case ogg.CodeBadSerialno:
		return UnknownSerialno
	case ogg.CodeBadGranulepos:
		return GranuleposDecreasing
	case ogg.CodeDuplicateBOS:
		return DuplicateBos
	case ogg.CodeDuplicateEOS:
		return DuplicateEos
	default:
		return UnclassifiedFramingViolation
	}
}
