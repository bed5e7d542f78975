package handshake

import (
	"bytes"

	"github.com/bealr/peerwire/internal/wire"
)

// The classical sub-machine reads the five plaintext handshake fields
// (spec'd length/name/reserved/info-hash/peer-id). It is shared by a
// never-obfuscated connection and by the tail of an obfuscated one; in
// the latter case Step decrypts every byte with the connection's ARC4
// stream before it reaches these handlers, and every byte this code
// sends is encrypted before being
// returned.

func (m *Machine) stepClWaitLen(data []byte) Result {
	if data[0] != byte(len(wire.ProtocolName)) {
		return violation("bad protocol name length %d", data[0])
	}
	m.state = stateClWaitName
	return Result{NeedMore: len(wire.ProtocolName)}
}

func (m *Machine) stepClWaitName(data []byte) Result {
	if !bytes.Equal(data, []byte(wire.ProtocolName)) {
		return violation("unrecognized protocol name %q", data)
	}
	m.state = stateClWaitReserved
	return Result{NeedMore: 8}
}

func (m *Machine) stepClWaitReserved(data []byte) Result {
	last := data[7]
	m.usesDHT = last&wire.FlagDHT != 0
	m.usesCache = last&wire.FlagCache != 0
	m.usesFast = last&wire.FlagFast != 0
	if !m.cfg.FastEnabled {
		m.usesFast = false
	}
	m.state = stateClWaitInfoHash
	return Result{NeedMore: 20}
}

func (m *Machine) stepClWaitInfoHash(data []byte) Result {
	infoHash := append([]byte(nil), data...)

	if m.cfg.LocallyInitiated {
		if !bytes.Equal(infoHash, m.cfg.InfoHash) {
			return violation("info hash mismatch")
		}
		m.resolvedInfoHash = infoHash
		m.state = stateClWaitPeerID
		return Result{NeedMore: 20}
	}

	if m.resolvedInfoHash != nil {
		if !bytes.Equal(infoHash, m.resolvedInfoHash) {
			return violation("classical info hash does not match obfuscated selection")
		}
	} else {
		if m.cfg.Selector == nil {
			return violation("no torrent selector configured")
		}
		if !m.cfg.Selector.SelectTorrent(infoHash) {
			return violation("torrent rejected")
		}
		m.resolvedInfoHash = infoHash
	}

	m.state = stateClWaitPeerID
	if m.ownHandshakeSent {
		return Result{NeedMore: 20}
	}

	reserved := wire.LocalReserved(m.cfg.FastEnabled)
	plain := buildClassicalHandshake(reserved, m.resolvedInfoHash, m.cfg.MyID)
	send := plain
	if m.encStream != nil {
		send = m.encStream.XORKeyStream(plain)
	}
	m.ownHandshakeSent = true
	return Result{Send: send, NeedMore: 20}
}

func (m *Machine) stepClWaitPeerID(data []byte) Result {
	var peerID [20]byte
	copy(peerID[:], data)

	if peerID == m.cfg.MyID {
		return violation("self connection")
	}
	if m.cfg.ExpectedPeerID != nil && peerID != *m.cfg.ExpectedPeerID {
		return violation("peer id does not match expected id")
	}

	m.state = stateDone
	return Result{
		Done:          true,
		InfoHash:      m.resolvedInfoHash,
		PeerID:        peerID,
		UsesDHT:       m.usesDHT,
		UsesCache:     m.usesCache,
		UsesFast:      m.usesFast,
		Obfuscated:    m.obfuscated,
		EncryptStream: m.encStream,
		DecryptStream: m.decStream,
	}
}
