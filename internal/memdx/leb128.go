package memdx

import "fmt"

// EncodeCollectionID prefixes key with its unsigned LEB128-encoded
// collection id, as required for every collection-qualified key once
// collections have been negotiated during bootstrap.
func EncodeCollectionID(collectionID uint32, key []byte) []byte {
	prefix := appendUvarint(nil, collectionID)
	out := make([]byte, 0, len(prefix)+len(key))
	out = append(out, prefix...)
	out = append(out, key...)
	return out
}

// DecodeCollectionID splits a collection-qualified key back into its
// collection id and the bare key.
func DecodeCollectionID(encoded []byte) (collectionID uint32, key []byte, err error) {
	id, n := readUvarint(encoded)
	if n <= 0 {
		return 0, nil, fmt.Errorf("memdx: malformed LEB128 collection id prefix")
	}
	return uint32(id), encoded[n:], nil
}

// appendUvarint encodes v as unsigned LEB128 (7 bits per byte, high bit set
// on every byte but the last), which is the variant the KV engine uses for
// collection ids. This is the same encoding as encoding/binary's
// AppendUvarint; it is reimplemented here to keep collection id encoding
// self-contained to the wire format it serves.
func appendUvarint(buf []byte, v uint32) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

func readUvarint(buf []byte) (uint64, int) {
	var x uint64
	var s uint
	for i, b := range buf {
		if b < 0x80 {
			if i > 9 || (i == 9 && b > 1) {
				return 0, -(i + 1)
			}
			return x | uint64(b)<<s, i + 1
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, 0
}
