package wire

import "encoding/binary"

// PutUint32 big-endian encodes i into a fresh 4-byte slice.
func PutUint32(i int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(i))
	return b
}

// Uint32 decodes a big-endian i32 from the first 4 bytes of b.
func Uint32(b []byte) int32 {
	return int32(binary.BigEndian.Uint32(b))
}

// PutUint16 big-endian encodes i into a fresh 2-byte slice.
func PutUint16(i uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, i)
	return b
}

// Uint16 decodes a big-endian u16 from the first 2 bytes of b.
func Uint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// frame prepends the 4-byte big-endian length prefix to body.
func frame(body []byte) []byte {
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(body)))
	copy(out[4:], body)
	return out
}

// KeepAlive returns the zero-length keep-alive frame.
func KeepAlive() []byte { return frame(nil) }

// EncodeChoke, EncodeUnchoke, EncodeInterested and EncodeNotInterested
// encode the four fixed single-byte messages.
func EncodeChoke() []byte         { return frame([]byte{byte(Choke)}) }
func EncodeUnchoke() []byte       { return frame([]byte{byte(Unchoke)}) }
func EncodeInterested() []byte    { return frame([]byte{byte(Interested)}) }
func EncodeNotInterested() []byte { return frame([]byte{byte(NotInterested)}) }

// EncodeHave encodes a HAVE message for the given piece index.
func EncodeHave(index int32) []byte {
	body := append([]byte{byte(Have)}, PutUint32(index)...)
	return frame(body)
}

// EncodeBitfield encodes a BITFIELD message wrapping raw bitfield bytes.
func EncodeBitfield(bits []byte) []byte {
	body := append([]byte{byte(BitfieldMsg)}, bits...)
	return frame(body)
}

// encodeIndexBeginLength is the shared REQUEST/CANCEL/REJECT_REQUEST shape.
func encodeIndexBeginLength(t MessageType, index, begin, length int32) []byte {
	body := make([]byte, 0, 13)
	body = append(body, byte(t))
	body = append(body, PutUint32(index)...)
	body = append(body, PutUint32(begin)...)
	body = append(body, PutUint32(length)...)
	return frame(body)
}

// EncodeRequest encodes a REQUEST message.
func EncodeRequest(index, begin, length int32) []byte {
	return encodeIndexBeginLength(Request, index, begin, length)
}

// EncodeCancel encodes a CANCEL message.
func EncodeCancel(index, begin, length int32) []byte {
	return encodeIndexBeginLength(Cancel, index, begin, length)
}

// EncodeRejectRequest encodes a REJECT_REQUEST message (FAST extension).
func EncodeRejectRequest(index, begin, length int32) []byte {
	return encodeIndexBeginLength(RejectRequest, index, begin, length)
}

// EncodePiece encodes a PIECE message carrying payload for (index, begin).
func EncodePiece(index, begin int32, payload []byte) []byte {
	body := make([]byte, 0, 9+len(payload))
	body = append(body, byte(Piece))
	body = append(body, PutUint32(index)...)
	body = append(body, PutUint32(begin)...)
	body = append(body, payload...)
	return frame(body)
}

// EncodePort encodes a PORT message.
func EncodePort(port uint16) []byte {
	body := append([]byte{byte(Port)}, PutUint16(port)...)
	return frame(body)
}

// EncodeSuggestPiece encodes a SUGGEST_PIECE message (FAST extension).
func EncodeSuggestPiece(index int32) []byte {
	body := append([]byte{byte(SuggestPiece)}, PutUint32(index)...)
	return frame(body)
}

// EncodeHaveAll and EncodeHaveNone encode the zero-payload FAST messages.
func EncodeHaveAll() []byte  { return frame([]byte{byte(HaveAll)}) }
func EncodeHaveNone() []byte { return frame([]byte{byte(HaveNone)}) }

// EncodeAllowedFast encodes an ALLOWED_FAST message (FAST extension).
func EncodeAllowedFast(index int32) []byte {
	body := append([]byte{byte(AllowedFast)}, PutUint32(index)...)
	return frame(body)
}
