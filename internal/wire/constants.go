// Package wire implements the length-prefixed peer-wire message codec:
// the message type table, big-endian pack/unpack helpers, and per-message
// encode/decode functions used on both sides of a handshake-completed
// connection.
package wire

// MessageType identifies the single leading byte of a peer-wire frame.
type MessageType byte

// Message type codes, bit-exact with the wire protocol.
const (
	Choke         MessageType = 0
	Unchoke       MessageType = 1
	Interested    MessageType = 2
	NotInterested MessageType = 3
	Have          MessageType = 4
	BitfieldMsg   MessageType = 5
	Request       MessageType = 6
	Piece         MessageType = 7
	Cancel        MessageType = 8
	Port          MessageType = 9

	// proposed FAST_EXTENSION (BEP 6)
	SuggestPiece   MessageType = 13
	HaveAll        MessageType = 14
	HaveNone       MessageType = 15
	RejectRequest  MessageType = 16
	AllowedFast    MessageType = 17
)

var messageNames = map[MessageType]string{
	Choke:         "CHOKE",
	Unchoke:       "UNCHOKE",
	Interested:    "INTERESTED",
	NotInterested: "NOT_INTERESTED",
	Have:          "HAVE",
	BitfieldMsg:   "BITFIELD",
	Request:       "REQUEST",
	Piece:         "PIECE",
	Cancel:        "CANCEL",
	Port:          "PORT",
	SuggestPiece:  "SUGGEST_PIECE",
	HaveAll:       "HAVE_ALL",
	HaveNone:      "HAVE_NONE",
	RejectRequest: "REJECT_REQUEST",
	AllowedFast:   "ALLOWED_FAST",
}

// String renders the message type's wire name, or "UNKNOWN" for
// unknown codes (mirrors Connector.py's message_dict lookup).
func (t MessageType) String() string {
	if s, ok := messageNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// ProtocolName is the literal 19-byte BitTorrent protocol identifier sent
// at the start of the plaintext handshake.
const ProtocolName = "BitTorrent protocol"

// Reserved-byte flag bits (last of the 8 reserved bytes).
const (
	FlagDHT   byte = 0x01
	FlagCache byte = 0x02
	FlagFast  byte = 0x04
)

// LocalReserved returns the 8 reserved handshake bytes this engine
// advertises locally. The cache extension is never advertised: it has no
// implemented payload semantics (spec Open Question).
func LocalReserved(fastEnabled bool) [8]byte {
	var r [8]byte
	flags := FlagDHT
	if fastEnabled {
		flags |= FlagFast
	}
	r[7] = flags
	return r
}
