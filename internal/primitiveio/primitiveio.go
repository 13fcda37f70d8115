// Package primitiveio implements PrimitiveIO: little-endian,
// fixed-width reads and writes over a byte buffer at an absolute offset.
//
// Every function here either writes into buf at an offset the caller has
// already made room for (growing it is the caller's job; Writer always
// pre-sizes its arena) or reads from an offset
// the caller has already bounds-checked via Bounds. Keeping the bounds
// check as a single, explicit, reusable predicate is what lets Reader turn
// a truncated buffer into a single CorruptFrame error instead of a panic.
package primitiveio

import (
	"encoding/binary"
	"math"
)

// Bounds reports whether [off, off+n) is within len(buf).
func Bounds(buf []byte, off, n int) bool {
	return off >= 0 && n >= 0 && off+n >= off && off+n <= len(buf)
}

func PutUint8(buf []byte, off int, v uint8) { buf[off] = v }
func Uint8(buf []byte, off int) uint8       { return buf[off] }

func PutUint16(buf []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(buf[off:], v)
}

func Uint16(buf []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(buf[off:])
}

func PutUint32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:], v)
}

func Uint32(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}

func PutUint64(buf []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(buf[off:], v)
}

func Uint64(buf []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(buf[off:])
}

func PutInt32(buf []byte, off int, v int32) { PutUint32(buf, off, uint32(v)) }
func Int32(buf []byte, off int) int32       { return int32(Uint32(buf, off)) }

func PutInt64(buf []byte, off int, v int64) { PutUint64(buf, off, uint64(v)) }
func Int64(buf []byte, off int) int64       { return int64(Uint64(buf, off)) }

func PutInt16(buf []byte, off int, v int16) { PutUint16(buf, off, uint16(v)) }
func Int16(buf []byte, off int) int16       { return int16(Uint16(buf, off)) }

func PutFloat32(buf []byte, off int, v float32) {
	PutUint32(buf, off, math.Float32bits(v))
}

func Float32(buf []byte, off int) float32 {
	return math.Float32frombits(Uint32(buf, off))
}

func PutFloat64(buf []byte, off int, v float64) {
	PutUint64(buf, off, math.Float64bits(v))
}

func Float64(buf []byte, off int) float64 {
	return math.Float64frombits(Uint64(buf, off))
}
