package peerconn

import "fmt"

// Close is idempotent and one-way. It instructs the transport to close;
// the transport's subsequent Lost callback performs teardown.
func (c *Conn) Close() {
	if c.Closed {
		return
	}
	c.Closed = true
	_ = c.transport.Close()
}

// Lost handles the transport's connection_lost callback: mark closed,
// drop from the parent's bookkeeping, dequeue from the rate limiter,
// notify the download policy and choker, and fall back to an
// obfuscated reconnect if this was an outgoing connection that never
// received any data at all.
func (c *Conn) Lost() {
	wasComplete := c.Complete
	reconnect := c.LocallyInitiated && !c.ReceivedData

	c.Closed = true
	c.Complete = false

	if c.queuedWithRateLimiter {
		c.parent.RateLimiterDequeue(c)
		c.queuedWithRateLimiter = false
	}

	c.parent.ReplaceConnection()

	if wasComplete {
		c.Download.Disconnected()
		c.parent.ChokerConnectionLost(c)
	}

	if reconnect {
		c.parent.StartConnection(fmt.Sprintf("%s:%d", c.IP, c.Port), nil, true)
	}
}

// Flushed handles the transport's connection_flushed callback: once
// complete, if there is pending outbound data and we are not already
// queued, enqueue with the rate limiter.
func (c *Conn) Flushed() {
	if !c.Complete || c.queuedWithRateLimiter {
		return
	}
	hasPending := c.partialMessage != nil || !c.Upload.Buffer().Empty()
	if !hasPending {
		return
	}
	c.parent.RateLimiterQueue(c)
	c.queuedWithRateLimiter = true
}
