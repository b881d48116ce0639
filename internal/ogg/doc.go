// Package ogg implements the Ogg container layer used by the merge and
// validate tools: page framing and CRC, resynchronisation over damaged input,
// per-track packet reconstruction, a pull-based Reader that dispatches page and
// packet callbacks synchronously, and a Writer that re-multiplexes packets into
// pages while enforcing the container's framing rules.
//
// Unlike a single-stream codec reader, everything here is keyed by serial
// number so that grouped (multiplexed) and chained (concatenated) physical
// bitstreams are handled.
package ogg
