package peerconn

import "github.com/bealr/peerwire/internal/wire"

// The FAST-specific senders must not be called unless FAST was
// negotiated on this connection; doing so is a programmer error and
// panics, matching the Python original's assert.

func (c *Conn) assertFast() {
	if !c.UsesFastExtension {
		panic("peerconn: FAST-specific send called without FAST negotiated")
	}
}

// SendChoke and SendUnchoke are suppressed while a partial_message is
// in flight; their effect is applied when the partial drains (see
// SendPartial), which reconciles against Upload.Choked() directly.
func (c *Conn) SendChoke() {
	if c.Closed || c.partialMessage != nil {
		return
	}
	_ = c.writeFrame(wire.EncodeChoke())
	c.ChokeSent = true
}

func (c *Conn) SendUnchoke() {
	if c.Closed || c.partialMessage != nil {
		return
	}
	_ = c.writeFrame(wire.EncodeUnchoke())
	c.ChokeSent = false
}

// sendOrQueue is every other sender's single path out: while a
// partial_message run is in flight the frame is appended to outqueue
// and flushed once that run drains, so it never lands in the middle of
// a piece payload; otherwise it is written immediately.
func (c *Conn) sendOrQueue(frame []byte) {
	if c.Closed {
		return
	}
	if c.partialMessage != nil {
		c.outqueue = append(c.outqueue, frame)
		return
	}
	_ = c.writeFrame(frame)
}

func (c *Conn) SendInterested() {
	c.sendOrQueue(wire.EncodeInterested())
}

func (c *Conn) SendNotInterested() {
	c.sendOrQueue(wire.EncodeNotInterested())
}

func (c *Conn) SendHave(index int) {
	c.sendOrQueue(wire.EncodeHave(int32(index)))
}

func (c *Conn) SendBitfield(bits []byte) {
	c.sendOrQueue(wire.EncodeBitfield(bits))
}

func (c *Conn) SendRequest(index, begin, length int) {
	c.sendOrQueue(wire.EncodeRequest(int32(index), int32(begin), int32(length)))
}

func (c *Conn) SendCancel(index, begin, length int) {
	c.sendOrQueue(wire.EncodeCancel(int32(index), int32(begin), int32(length)))
}

func (c *Conn) SendPort(port uint16) {
	c.sendOrQueue(wire.EncodePort(port))
}

func (c *Conn) SendHaveAll() {
	c.assertFast()
	c.sendOrQueue(wire.EncodeHaveAll())
}

func (c *Conn) SendHaveNone() {
	c.assertFast()
	c.sendOrQueue(wire.EncodeHaveNone())
}

func (c *Conn) SendRejectRequest(index, begin, length int) {
	c.assertFast()
	c.sendOrQueue(wire.EncodeRejectRequest(int32(index), int32(begin), int32(length)))
}

func (c *Conn) SendAllowedFast(index int) {
	c.assertFast()
	c.sendOrQueue(wire.EncodeAllowedFast(int32(index)))
}

func (c *Conn) SendKeepalive() {
	c.sendOrQueue(wire.KeepAlive())
}
