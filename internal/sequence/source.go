package sequence

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// Source supplies uniform integers in [0,n). It is satisfied by
// *math/rand/v2.Rand, which tests use with a fixed seed.
type Source interface {
	IntN(n int) int
}

type cryptoReader struct{}

func (cryptoReader) Uint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint64(b[:])
}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() Source {
	return mrand.New(cryptoReader{})
}
