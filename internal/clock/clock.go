// Package clock converts Ogg granule positions into presentation timestamps.
//
// A granule position is a codec-defined 64-bit counter. Codecs such as Theora
// split it in two: the high bits count keyframes and the low bits count frames
// since that keyframe. The split point is the track's granule shift. The
// decoded granule count is the sum of both halves, which is then scaled by the
// track's granule rate to obtain a time.
//
// Timestamps are expressed in milliseconds (SubSeconds units per second).
package clock

import "fmt"

// SubSeconds is the number of timestamp units per second.
const SubSeconds = 1000

// Unset is returned when no timestamp can be derived.
const Unset int64 = -1

// Rate is a rational granule rate: Num granules every Den seconds.
// The zero Rate means the rate has not been established yet.
type Rate struct {
	Num int64
	Den int64
}

// Valid reports whether the rate can be used for conversion.
func (r Rate) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// String returns the rate as "num/den".
func (r Rate) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Granules splits a granule position at shift and returns iframe + pframe.
func Granules(granulepos int64, shift uint) int64 {
	if shift == 0 || shift >= 64 {
		return granulepos
	}
	iframe := granulepos >> shift
	pframe := granulepos - (iframe << shift)
	return iframe + pframe
}

// Timestamp returns the presentation time of granulepos in milliseconds,
// or Unset when granulepos is -1 or the rate is unknown.
func Timestamp(granulepos int64, shift uint, rate Rate) int64 {
	if granulepos == -1 || !rate.Valid() {
		return Unset
	}
	return scale(Granules(granulepos, shift), rate.Den*SubSeconds, rate.Num)
}

// scale computes v*mul/div, splitting v to keep the intermediate product small.
func scale(v, mul, div int64) int64 {
	q, r := v/div, v%div
	return q*mul + r*mul/div
}

// Format renders a millisecond timestamp as HH:MM:SS.mmm.
// Unset renders as "--:--:--.---".
func Format(ts int64) string {
	if ts < 0 {
		return "--:--:--.---"
	}
	ms := ts % SubSeconds
	secs := ts / SubSeconds
	return fmt.Sprintf("%02d:%02d:%02d.%03d", secs/3600, (secs/60)%60, secs%60, ms)
}
