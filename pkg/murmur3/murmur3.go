// Package murmur3 implements incremental 32-bit MurmurHash3.
//
// Input can arrive in chunks of any size. The running state is a triple of
// hash, carry and total length: the carry holds up to three bytes that did not
// fill a 4-byte block, with the count of those bytes in its low two bits.
// Feeding the same byte stream in any chunking yields the same Sum32, which is
// what lets the object hash fold a nested parameter graph in a single pass.
package murmur3

import (
	"encoding/binary"
	"math/bits"
)

const (
	c1 uint32 = 0xcc9e2d51
	c2 uint32 = 0x1b873593
)

// Process folds data into the running hash and carry and returns the new
// pair. Callers track the total length themselves.
func Process(h, carry uint32, data []byte) (uint32, uint32) {
	c := carry
	n := int(c & 3)
	i := 0

	// top up a partial block left by the previous call
	if n != 0 {
		for ; i < len(data) && n < 4; i++ {
			c = c>>8 | uint32(data[i])<<24
			n++
		}
		if n == 4 {
			h = block(h, c)
			n = 0
		}
	}

	for ; i+4 <= len(data); i += 4 {
		h = block(h, binary.LittleEndian.Uint32(data[i:]))
	}

	for ; i < len(data); i++ {
		c = c>>8 | uint32(data[i])<<24
		n++
	}

	return h, (c &^ 0xff) | uint32(n)
}

// Result finalizes a running hash. total is the number of bytes processed.
func Result(h, carry, total uint32) uint32 {
	if n := carry & 3; n != 0 {
		k := carry >> ((4 - n) * 8)
		k *= c1
		k = bits.RotateLeft32(k, 15)
		k *= c2
		h ^= k
	}
	h ^= total
	return fmix(h)
}

// Sum32 hashes data in one shot with a zero seed.
func Sum32(data []byte) uint32 {
	h, c := Process(0, 0, data)
	return Result(h, c, uint32(len(data)))
}

// Incremental is the running (hash, carry, length) state. The zero value is a
// fresh hash with seed 0. It implements io.Writer.
type Incremental struct {
	Hash   uint32
	Carry  uint32
	Length uint32
}

// New returns a running hash seeded with seed.
func New(seed uint32) *Incremental {
	return &Incremental{Hash: seed}
}

// Write folds p into the running state. It never fails.
func (m *Incremental) Write(p []byte) (int, error) {
	m.Hash, m.Carry = Process(m.Hash, m.Carry, p)
	m.Length += uint32(len(p))
	return len(p), nil
}

// WriteUint32 folds v as four little-endian bytes.
func (m *Incremental) WriteUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = m.Write(buf[:])
}

// Sum32 returns the finalized hash without disturbing the running state.
func (m *Incremental) Sum32() uint32 {
	return Result(m.Hash, m.Carry, m.Length)
}

// Reset returns the state to a fresh hash with seed.
func (m *Incremental) Reset(seed uint32) {
	*m = Incremental{Hash: seed}
}

func block(h, k uint32) uint32 {
	k *= c1
	k = bits.RotateLeft32(k, 15)
	k *= c2
	h ^= k
	h = bits.RotateLeft32(h, 13)
	return h*5 + 0xe6546b64
}

func fmix(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
