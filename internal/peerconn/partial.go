package peerconn

import "github.com/bealr/peerwire/internal/wire"

// SendPartial is the rate limiter's entry point: "produce up to n bytes
// of outbound data now." Piece payload and control frames must never
// interleave within a frame boundary, so control messages queued while
// a partial run is in flight are held in outqueue until that run
// drains.
func (c *Conn) SendPartial(n int) int {
	if c.Closed {
		return 0
	}
	if c.partialMessage == nil && c.Upload.Buffer().Empty() {
		return 0
	}

	if c.partialMessage == nil {
		for len(c.partialMessage) < n {
			block, ok := c.Upload.Buffer().PopFront()
			if !ok {
				break
			}
			c.partialMessage = append(c.partialMessage, wire.EncodePiece(int32(block.Index), int32(block.Begin), block.Data)...)
		}
		if len(c.partialMessage) == 0 {
			return 0
		}
	}

	if n < len(c.partialMessage) {
		head := c.partialMessage[:n]
		c.partialMessage = c.partialMessage[n:]
		_ = c.writeFrame(head)
		c.Upload.UpdateRate(n)
		return n
	}

	sent := len(c.partialMessage)
	_ = c.writeFrame(c.partialMessage)
	c.partialMessage = nil

	if c.ChokeSent != c.Upload.Choked() {
		var frame []byte
		if c.Upload.Choked() {
			frame = wire.EncodeChoke()
			c.Upload.SentChoke()
		} else {
			frame = wire.EncodeUnchoke()
		}
		_ = c.writeFrame(frame)
		sent += len(frame)
		c.ChokeSent = c.Upload.Choked()
	}

	for _, frame := range c.outqueue {
		_ = c.writeFrame(frame)
		sent += len(frame)
	}
	c.outqueue = nil

	c.Upload.UpdateRate(sent)
	return sent
}
