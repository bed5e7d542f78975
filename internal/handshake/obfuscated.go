package handshake

import (
	"bytes"

	"github.com/bealr/peerwire/internal/mse"
	"github.com/bealr/peerwire/internal/wire"
)

// Obfuscated handshake handlers. Both directions scan an unknown-length
// random pad to find alignment: the initiator advances one byte at a
// time, decrypting each 8-byte window from the start of the responder's
// keystream and looking for the plaintext verification constant; the responder
// reads raw (still unencrypted at that point) bytes looking for
// HASH('req1'||S). Everything after that alignment point is at a known
// offset, so no further scanning is needed.

const (
	vcSearchWindowInitiator = 520
	req1SearchWindowResponder = 532
	cryptoProvideSelect     = 0x00000002
	padMaxAccepted          = 512
)

// --- responder: obfuscation is detected by the first received byte not
// being the classical protocol-name length. ---

func (m *Machine) stepRespPeek(data []byte) Result {
	if data[0] == byte(len(wire.ProtocolName)) {
		m.state = stateClWaitName
		return Result{NeedMore: len(wire.ProtocolName)}
	}
	m.pubAPrefix = []byte{data[0]}
	m.state = stateRespWaitPubKeyRest
	return Result{NeedMore: mse.DHBytes - 1}
}

func (m *Machine) stepRespWaitPubKeyRest(data []byte) Result {
	pubA := concat(m.pubAPrefix, data)

	priv, err := mse.PrivateKey()
	if err != nil {
		return Result{Violation: err}
	}
	padB, err := mse.Pad()
	if err != nil {
		return Result{Violation: err}
	}

	m.dhSecret = mse.SharedSecret(priv, pubA)
	m.req1Target = mse.Req1(m.dhSecret)

	pubB := mse.PublicKey(priv)
	m.state = stateRespScanReq1
	m.scanWindowRaw = nil
	m.scanCount = 0
	return Result{Send: concat(pubB, padB), NeedMore: 1}
}

func (m *Machine) stepRespScanReq1(data []byte) Result {
	m.scanWindowRaw = append(m.scanWindowRaw, data[0])
	if len(m.scanWindowRaw) > 20 {
		m.scanWindowRaw = m.scanWindowRaw[len(m.scanWindowRaw)-20:]
	}
	m.scanCount++
	if m.scanCount > req1SearchWindowResponder {
		return violation("req1 marker not found within window")
	}
	if len(m.scanWindowRaw) == 20 && bytes.Equal(m.scanWindowRaw, m.req1Target) {
		m.state = stateRespWaitReq23
		return Result{NeedMore: 20}
	}
	return Result{NeedMore: 1}
}

func (m *Machine) stepRespWaitReq23(data []byte) Result {
	req3 := mse.Req3(m.dhSecret)
	recoveredReq2 := mse.XOR(data, req3)

	infoHash, ok := m.cfg.Selector.SelectTorrentObfuscated(recoveredReq2)
	if !ok {
		return violation("no torrent matched obfuscated handshake")
	}
	m.resolvedInfoHash = infoHash

	keyA := mse.KeyA(m.dhSecret, infoHash)
	keyB := mse.KeyB(m.dhSecret, infoHash)
	decStream, err := mse.NewStream(keyA)
	if err != nil {
		return Result{Violation: err}
	}
	encStream, err := mse.NewStream(keyB)
	if err != nil {
		return Result{Violation: err}
	}
	m.decStream = decStream
	m.encStream = encStream
	m.obfuscated = true

	m.state = stateRespWaitVCBlock
	return Result{NeedMore: 14}
}

func (m *Machine) stepRespWaitVCBlock(data []byte) Result {
	decrypted := m.decStream.XORKeyStream(data)
	if !allZero(decrypted[0:8]) {
		return violation("bad verification constant")
	}
	cryptoProvide := wire.Uint32(decrypted[8:12])
	if int32(cryptoProvide)&cryptoProvideSelect == 0 {
		return violation("peer does not offer required crypto mode")
	}
	padlen := int(wire.Uint16(decrypted[12:14]))
	if padlen > padMaxAccepted {
		return violation("padlen %d exceeds maximum", padlen)
	}
	m.pendingPadLen = padlen
	m.state = stateRespWaitPadCIALen
	return Result{NeedMore: padlen + 2}
}

func (m *Machine) stepRespWaitPadCIALen(data []byte) Result {
	decrypted := m.decStream.XORKeyStream(data)
	ialen := int(wire.Uint16(decrypted[m.pendingPadLen : m.pendingPadLen+2]))
	if ialen > 0 {
		m.state = stateRespWaitIA
		return Result{NeedMore: ialen}
	}
	return m.sendObfuscatedResponderReply()
}

func (m *Machine) stepRespWaitIA(data []byte) Result {
	_ = m.decStream.XORKeyStream(data) // initial-payload extension not supported; discard
	return m.sendObfuscatedResponderReply()
}

func (m *Machine) sendObfuscatedResponderReply() Result {
	padD, err := mse.Pad()
	if err != nil {
		return Result{Violation: err}
	}
	vc := make([]byte, 8)
	cryptoSelect := wire.PutUint32(cryptoProvideSelect)
	padLenBytes := wire.PutUint16(uint16(len(padD)))
	plain := concat(vc, cryptoSelect, padLenBytes, padD)
	send := m.encStream.XORKeyStream(plain)

	m.state = stateClWaitLen
	return Result{Send: send, NeedMore: 1}
}

// --- initiator: the decrypted verification constant is scanned for
// because the responder's preceding pad_B has unknown length. ---

func (m *Machine) stepObfWaitPubKey(data []byte) Result {
	pubB := data
	S := mse.SharedSecret(m.priv, pubB)
	m.dhSecret = S
	skey := m.cfg.InfoHash

	keyA := mse.KeyA(S, skey)
	keyB := mse.KeyB(S, skey)
	encStream, err := mse.NewStream(keyA)
	if err != nil {
		return Result{Violation: err}
	}
	decStream, err := mse.NewStream(keyB)
	if err != nil {
		return Result{Violation: err}
	}
	m.encStream = encStream
	m.decStream = decStream
	m.obfuscated = true

	req1 := mse.Req1(S)
	req23 := mse.Req2XorReq3(S, skey)

	padC, err := mse.Pad()
	if err != nil {
		return Result{Violation: err}
	}
	vc := make([]byte, 8)
	cryptoProvide := wire.PutUint32(cryptoProvideSelect)
	padCLen := wire.PutUint16(uint16(len(padC)))
	iaLen := wire.PutUint16(0)
	plain := concat(vc, cryptoProvide, padCLen, padC, iaLen)
	encryptedBlock := m.encStream.XORKeyStream(plain)

	m.state = stateObfScanVC
	m.scanWindow = nil
	m.scanCount = 0
	return Result{Send: concat(req1, req23, encryptedBlock), NeedMore: 1}
}

func (m *Machine) stepObfScanVC(data []byte) Result {
	m.scanWindow = append(m.scanWindow, data[0])
	if len(m.scanWindow) > 8 {
		m.scanWindow = m.scanWindow[len(m.scanWindow)-8:]
	}
	m.scanCount++
	if m.scanCount > vcSearchWindowInitiator {
		return violation("verification constant not found within window")
	}
	if len(m.scanWindow) == 8 {
		// The VC is the first thing the responder encrypts, so each
		// candidate is decrypted with a freshly keyed stream.
		candidate, err := mse.NewStream(mse.KeyB(m.dhSecret, m.cfg.InfoHash))
		if err != nil {
			return Result{Violation: err}
		}
		if allZero(candidate.XORKeyStream(m.scanWindow)) {
			m.decStream = candidate
			m.state = stateObfAfterVC
			return Result{NeedMore: 6}
		}
	}
	return Result{NeedMore: 1}
}

func (m *Machine) stepObfAfterVC(data []byte) Result {
	decrypted := m.decStream.XORKeyStream(data)
	cryptoSelect := wire.Uint32(decrypted[0:4])
	if int32(cryptoSelect) != cryptoProvideSelect {
		return violation("unsupported crypto_select %x", cryptoSelect)
	}
	padlen := int(wire.Uint16(decrypted[4:6]))
	if padlen > padMaxAccepted {
		return violation("padlen %d exceeds maximum", padlen)
	}
	if padlen == 0 {
		return m.sendInitiatorClassicalHandshake()
	}
	m.state = stateObfSkipPadD
	return Result{NeedMore: padlen}
}

func (m *Machine) stepObfSkipPadD(data []byte) Result {
	_ = m.decStream.XORKeyStream(data)
	return m.sendInitiatorClassicalHandshake()
}

func (m *Machine) sendInitiatorClassicalHandshake() Result {
	reserved := wire.LocalReserved(m.cfg.FastEnabled)
	plain := buildClassicalHandshake(reserved, m.cfg.InfoHash, m.cfg.MyID)
	send := m.encStream.XORKeyStream(plain)
	m.ownHandshakeSent = true
	m.resolvedInfoHash = m.cfg.InfoHash
	m.state = stateClWaitLen
	return Result{Send: send, NeedMore: 1}
}
