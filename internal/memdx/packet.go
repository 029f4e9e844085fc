package memdx

import (
	"encoding/binary"
	"fmt"
)

// Magic identifies the kind and flavor of a packet's 24-byte header.
type Magic uint8

const (
	MagicReq = Magic(0x80)
	MagicReqExt = Magic(0x08)
	MagicRes = Magic(0x81)
	MagicResExt = Magic(0x18)
	MagicServerReq = Magic(0x82)
)

func (m Magic) IsResponse() bool {
	return m == MagicRes || m == MagicResExt
}

func (m Magic) HasFramingExtras() bool {
	return m == MagicReqExt || m == MagicResExt
}

// Datatype is the bitmask describing a packet's value encoding.
type Datatype uint8

const (
	DatatypeRaw Datatype = 0x00
	DatatypeJSON Datatype = 0x01
	DatatypeSnappy Datatype = 0x02
)

// HeaderSize is the fixed length of every memcached binary protocol header.
const HeaderSize = 24

// Packet is a single memcached binary protocol message, request or
// response.
type Packet struct {
	Magic Magic
	OpCode OpCode
	Datatype Datatype

	// VbucketID is the target vbucket on requests; on responses this same
	// wire slot carries the Status code.
	VbucketID uint16
	Status Status

	Opaque uint32
	CAS uint64

	FramingExtras []byte
	Extras []byte
	Key []byte
	Value []byte

	// frameLen, extrasLen and keyLen are scratch fields populated by
	// DecodeHeader and consumed by DecodeBody to slice the body without
	// re-parsing the header.
	frameLen int
	extrasLen int
	keyLen int
}

// Encode serializes the packet into its 24-byte header followed by the
// framing-extras, extras, key and value bodies in that order.
func (p *Packet) Encode() []byte {
	framingLen := len(p.FramingExtras)
	extrasLen := len(p.Extras)
	keyLen := len(p.Key)
	valueLen := len(p.Value)

	bodyLen := framingLen + extrasLen + keyLen + valueLen
	buf := make([]byte, HeaderSize+bodyLen)

	buf[0] = byte(p.Magic)
	buf[1] = byte(p.OpCode)

	if p.Magic.HasFramingExtras() {
		buf[2] = byte(framingLen)
		binary.BigEndian.PutUint16(buf[3:5], uint16(keyLen))
	} else {
		binary.BigEndian.PutUint16(buf[2:4], uint16(keyLen))
	}

	buf[4] = byte(extrasLen)
	buf[5] = byte(p.Datatype)

	if p.Magic.IsResponse() {
		binary.BigEndian.PutUint16(buf[6:8], uint16(p.Status))
	} else {
		binary.BigEndian.PutUint16(buf[6:8], p.VbucketID)
	}

	binary.BigEndian.PutUint32(buf[8:12], uint32(bodyLen))
	binary.BigEndian.PutUint32(buf[12:16], p.Opaque)
	binary.BigEndian.PutUint64(buf[16:24], p.CAS)

	off := HeaderSize
	off += copy(buf[off:], p.FramingExtras)
	off += copy(buf[off:], p.Extras)
	off += copy(buf[off:], p.Key)
	copy(buf[off:], p.Value)

	return buf
}

// DecodeHeader parses the fixed 24-byte header. It returns the declared
// body length so the caller can read exactly that many further bytes
// before decoding the body with DecodeBody.
func DecodeHeader(hdr []byte) (p Packet, bodyLen uint32, err error) {
	if len(hdr) != HeaderSize {
		return Packet{}, 0, fmt.Errorf("memdx: header must be %d bytes, got %d", HeaderSize, len(hdr))
	}

	p.Magic = Magic(hdr[0])
	p.OpCode = OpCode(hdr[1])

	var framingLen, keyLen int
	if p.Magic.HasFramingExtras() {
		framingLen = int(hdr[2])
		keyLen = int(binary.BigEndian.Uint16(hdr[3:5]))
	} else {
		keyLen = int(binary.BigEndian.Uint16(hdr[2:4]))
	}

	extrasLen := int(hdr[4])
	p.Datatype = Datatype(hdr[5])

	if p.Magic.IsResponse() {
		p.Status = Status(binary.BigEndian.Uint16(hdr[6:8]))
	} else {
		p.VbucketID = binary.BigEndian.Uint16(hdr[6:8])
	}

	bodyLen = binary.BigEndian.Uint32(hdr[8:12])
	p.Opaque = binary.BigEndian.Uint32(hdr[12:16])
	p.CAS = binary.BigEndian.Uint64(hdr[16:24])

	if uint32(framingLen+extrasLen+keyLen) > bodyLen {
		return Packet{}, 0, fmt.Errorf("memdx: header declares lengths larger than body (%d+%d+%d > %d)",
			framingLen, extrasLen, keyLen, bodyLen)
	}

	p.frameLen = framingLen
	p.extrasLen = extrasLen
	p.keyLen = keyLen

	return p, bodyLen, nil
}

// DecodeBody slices body (of the length returned alongside p by
// DecodeHeader) into p's FramingExtras, Extras, Key and Value fields.
func DecodeBody(p *Packet, body []byte) error {
	off := 0
	p.FramingExtras = body[off : off+p.frameLen]
	off += p.frameLen
	p.Extras = body[off : off+p.extrasLen]
	off += p.extrasLen
	p.Key = body[off : off+p.keyLen]
	off += p.keyLen
	p.Value = body[off:]
	return nil
}
