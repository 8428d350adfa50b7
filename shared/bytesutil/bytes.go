// Package bytesutil defines helper methods for converting integers to byte
// slices used as database keys.
package bytesutil

import (
	"encoding/binary"
)

// Bytes8 returns integer x to bytes in big-endian format, x.to_bytes(8, 'big').
func Bytes8(x uint64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, x)
	return bytes
}

// FromBytes8 returns an integer which is decoded from bytes in big-endian format.
func FromBytes8(x []byte) uint64 {
	if len(x) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(x)
}

// Bytes4 returns integer x to bytes in big-endian format, x.to_bytes(4, 'big').
func Bytes4(x uint64) []byte {
	bytes := make([]byte, 4)
	binary.BigEndian.PutUint32(bytes, uint32(x))
	return bytes
}
