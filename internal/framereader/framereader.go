// Package framereader implements the steady-state, post-handshake
// resumable frame extractor: 4-byte big-endian length prefix, then body.
// Like package handshake, it is driven by repeated calls announcing how
// many more bytes are needed, so it never blocks and fits inside a
// single-threaded reactor loop.
package framereader

import (
	"fmt"

	"github.com/bealr/peerwire/internal/mse"
)

// Result is returned from New and Step.
type Result struct {
	// NeedMore is how many more bytes Step must be called with next.
	// Zero only when Violation is set.
	NeedMore int

	// Frame holds the complete frame body just extracted; it is nil for
	// a keep-alive and when no frame is ready.
	Frame []byte
	// HasFrame distinguishes a genuine (possibly empty) Frame from no
	// frame being ready yet.
	HasFrame bool

	Violation error
}

func violation(format string, args ...interface{}) Result {
	return Result{Violation: fmt.Errorf("framereader: "+format, args...)}
}

type state int

const (
	stateWaitLength state = iota
	stateWaitBody
)

// Reader extracts length-prefixed frames from a byte stream, optionally
// decrypting with an ARC4 stream installed after an obfuscated
// handshake.
type Reader struct {
	maxMessageLength int
	decrypt          *mse.Stream

	state state
}

// New creates a Reader. maxMessageLength bounds body size (spec
// max_message_length); decrypt may be nil for an unobfuscated
// connection.
func New(maxMessageLength int, decrypt *mse.Stream) (*Reader, Result) {
	r := &Reader{maxMessageLength: maxMessageLength, decrypt: decrypt, state: stateWaitLength}
	return r, Result{NeedMore: 4}
}

// Step feeds exactly the number of bytes last requested via NeedMore.
func (r *Reader) Step(data []byte) Result {
	if r.decrypt != nil {
		data = r.decrypt.XORKeyStream(data)
	}

	switch r.state {
	case stateWaitLength:
		length := int(uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]))
		if length < 0 {
			return violation("negative frame length")
		}
		if length > r.maxMessageLength {
			return violation("frame length %d exceeds maximum %d", length, r.maxMessageLength)
		}
		if length == 0 {
			// keep-alive: stay in stateWaitLength, report the empty frame
			return Result{NeedMore: 4, Frame: nil, HasFrame: true}
		}
		r.state = stateWaitBody
		return Result{NeedMore: length}

	case stateWaitBody:
		r.state = stateWaitLength
		body := append([]byte(nil), data...)
		return Result{NeedMore: 4, Frame: body, HasFrame: true}

	default:
		return violation("step called in unknown state")
	}
}
