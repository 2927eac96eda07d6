package murmur3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum32_KnownVectors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  uint32
	}{
		{"empty", "", 0},
		{"hello", "hello", 0x248bfa47},
		{"pangram", "The quick brown fox jumps over the lazy dog", 0x2e4ff723},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sum32([]byte(tt.input)))
		})
	}
}

func TestIncremental_ChunkingIndependent(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	want := Sum32(data)

	for chunk := 1; chunk <= 9; chunk++ {
		m := New(0)
		for i := 0; i < len(data); i += chunk {
			end := i + chunk
			if end > len(data) {
				end = len(data)
			}
			_, err := m.Write(data[i:end])
			assert.NoError(t, err)
		}
		assert.Equal(t, want, m.Sum32(), "chunk size %d", chunk)
		assert.Equal(t, uint32(len(data)), m.Length)
	}
}

func TestIncremental_SumDoesNotDisturbState(t *testing.T) {
	m := New(0)
	_, _ = m.Write([]byte("hel"))
	first := m.Sum32()
	assert.Equal(t, first, m.Sum32())

	_, _ = m.Write([]byte("lo"))
	assert.Equal(t, uint32(0x248bfa47), m.Sum32())
}

func TestIncremental_EmptyWrites(t *testing.T) {
	m := New(0)
	_, _ = m.Write(nil)
	_, _ = m.Write([]byte{})
	assert.Equal(t, uint32(0), m.Sum32())
}

func TestIncremental_WriteUint32(t *testing.T) {
	a := New(0)
	a.WriteUint32(0x6c6c6568) // "hell" little-endian
	_, _ = a.Write([]byte("o"))

	assert.Equal(t, Sum32([]byte("hello")), a.Sum32())
}

func TestIncremental_Reset(t *testing.T) {
	m := New(0)
	_, _ = m.Write([]byte("garbage"))
	m.Reset(0)
	_, _ = m.Write([]byte("hello"))
	assert.Equal(t, uint32(0x248bfa47), m.Sum32())
}

func BenchmarkIncremental_Write(b *testing.B) {
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i)
	}
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := New(0)
		_, _ = m.Write(data)
		_ = m.Sum32()
	}
}
