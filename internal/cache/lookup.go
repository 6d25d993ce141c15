package cache

import (
	"errors"

	"polybars/internal/model"
)

// ErrSegmentCorrupt marks a segment file that exists but cannot be decoded.
var ErrSegmentCorrupt = errors.New("segment corrupt")

// MissReason says why a segment could not be served.
type MissReason int

const (
	NotFound MissReason = iota
	Empty               // zero-byte file
	Corrupt             // undecodable
	Stale               // current year, written before the current trade date
	TooShort            // current year, written before bars the request needs
)

func (r MissReason) String() string {
	switch r {
	case NotFound:
		return "not found"
	case Empty:
		return "zero-byte file"
	case Corrupt:
		return "corrupt"
	case Stale:
		return "stale"
	case TooShort:
		return "too short"
	default:
		return "unknown"
	}
}

// Lookup is the outcome of validating a segment: Hit or Miss.
type Lookup interface {
	lookup()
}

// Hit carries a valid segment's bars.
type Hit struct {
	Bars []model.Bar
}

// Miss means the segment must be (re)fetched. Err holds the underlying cause, if any.
type Miss struct {
	Reason MissReason
	Err    error
}

func (Hit) lookup()  {}
func (Miss) lookup() {}
