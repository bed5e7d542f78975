package peerconn

import (
	"fmt"

	"github.com/bealr/peerwire/internal/bitfield"
	"github.com/bealr/peerwire/internal/wire"
)

// dispatchFrame validates and routes one post-handshake frame. Any
// violation returns an error, which the caller turns into a connection
// close; no error ever reaches collaborator code.
func (c *Conn) dispatchFrame(body []byte) error {
	if len(body) == 0 {
		return nil // keep-alive
	}

	t := wire.MessageType(body[0])
	payload := body[1:]

	switch t {
	case wire.Choke:
		if len(payload) != 0 {
			return fmt.Errorf("peerconn: CHOKE with non-empty payload")
		}
		c.latch()
		c.Download.GotChoke()

	case wire.Unchoke:
		if len(payload) != 0 {
			return fmt.Errorf("peerconn: UNCHOKE with non-empty payload")
		}
		c.latch()
		c.Download.GotUnchoke()

	case wire.Interested:
		if len(payload) != 0 {
			return fmt.Errorf("peerconn: INTERESTED with non-empty payload")
		}
		c.latch()
		c.Upload.GotInterested()

	case wire.NotInterested:
		if len(payload) != 0 {
			return fmt.Errorf("peerconn: NOT_INTERESTED with non-empty payload")
		}
		c.latch()
		c.Upload.GotNotInterested()

	case wire.Have:
		index, err := wire.DecodeIndex(payload)
		if err != nil {
			return err
		}
		if err := c.checkIndex(index); err != nil {
			return err
		}
		c.latch()
		c.Download.GotHave(int(index))

	case wire.BitfieldMsg:
		if c.GotAnything {
			return fmt.Errorf("peerconn: BITFIELD after other messages")
		}
		bf, err := bitfield.NewFromBytes(c.parent.NumPieces(), payload)
		if err != nil {
			return err
		}
		c.latch()
		c.Download.GotHaveBitfield(bf)

	case wire.Request:
		p, err := wire.DecodeIndexBeginLength(payload)
		if err != nil {
			return err
		}
		if err := c.checkIndex(p.Index); err != nil {
			return err
		}
		c.latch()
		c.Upload.GotRequest(int(p.Index), int(p.Begin), int(p.Length))

	case wire.Cancel:
		p, err := wire.DecodeIndexBeginLength(payload)
		if err != nil {
			return err
		}
		if err := c.checkIndex(p.Index); err != nil {
			return err
		}
		c.latch()
		c.Upload.GotCancel(int(p.Index), int(p.Begin), int(p.Length))

	case wire.Piece:
		index, begin, data, err := wire.DecodePiece(payload)
		if err != nil {
			return err
		}
		if err := c.checkIndex(index); err != nil {
			return err
		}
		c.latch()
		c.Download.GotPiece(int(index), int(begin), data)

	case wire.Port:
		port, err := wire.DecodePort(payload)
		if err != nil {
			return err
		}
		c.latch()
		c.DHTPort = int(port)
		c.parent.GotPort(c)

	case wire.SuggestPiece:
		if !c.UsesFastExtension {
			return fmt.Errorf("peerconn: SUGGEST_PIECE without FAST negotiated")
		}
		index, err := wire.DecodeIndex(payload)
		if err != nil {
			return err
		}
		if err := c.checkIndex(index); err != nil {
			return err
		}
		c.latch()
		c.Download.GotSuggestPiece(int(index))

	case wire.HaveAll:
		if !c.UsesFastExtension {
			return fmt.Errorf("peerconn: HAVE_ALL without FAST negotiated")
		}
		if c.GotAnything {
			return fmt.Errorf("peerconn: HAVE_ALL after other messages")
		}
		c.latch()
		c.Download.GotHaveAll()

	case wire.HaveNone:
		if !c.UsesFastExtension {
			return fmt.Errorf("peerconn: HAVE_NONE without FAST negotiated")
		}
		if c.GotAnything {
			return fmt.Errorf("peerconn: HAVE_NONE after other messages")
		}
		c.latch()
		c.Download.GotHaveNone()

	case wire.RejectRequest:
		if !c.UsesFastExtension {
			return fmt.Errorf("peerconn: REJECT_REQUEST without FAST negotiated")
		}
		p, err := wire.DecodeIndexBeginLength(payload)
		if err != nil {
			return err
		}
		if err := c.checkIndex(p.Index); err != nil {
			return err
		}
		c.latch()
		c.Download.GotRejectRequest(int(p.Index), int(p.Begin), int(p.Length))

	case wire.AllowedFast:
		if !c.UsesFastExtension {
			return fmt.Errorf("peerconn: ALLOWED_FAST without FAST negotiated")
		}
		index, err := wire.DecodeIndex(payload)
		if err != nil {
			return err
		}
		c.latch()
		c.Download.GotAllowedFast(int(index))

	default:
		return fmt.Errorf("peerconn: unknown message type %d", t)
	}

	return nil
}

// latch sets GotAnything before any handler for the current message
// runs, matching the invariant that it is true iff at least one
// post-handshake frame has been dispatched.
func (c *Conn) latch() { c.GotAnything = true }

func (c *Conn) checkIndex(index int32) error {
	if index < 0 || int(index) >= c.parent.NumPieces() {
		return fmt.Errorf("peerconn: piece index %d out of range [0,%d)", index, c.parent.NumPieces())
	}
	return nil
}
