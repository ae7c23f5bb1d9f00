package rtb

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
)

// Source yields uniform values in [0, 1). Implementations used by a shared
// Simulator must be safe for concurrent use.
type Source interface {
	Float64() (float64, error)
}

// ReaderSource draws values from a byte stream.
type ReaderSource struct {
	r io.Reader
}

// NewReaderSource returns a Source reading from r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// NewCryptoSource returns the production source backed by crypto/rand.
func NewCryptoSource() *ReaderSource {
	return NewReaderSource(crand.Reader)
}

// Float64 implements Source.
func (s *ReaderSource) Float64() (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(s.r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRandomSource, err)
	}
	// 53 high bits fill the float64 mantissa exactly.
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53), nil
}

// SeededSource is a reproducible source for tests and replays.
type SeededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a PCG-backed source. Equal seeds yield equal sequences.
func NewSeededSource(seed1, seed2 uint64) *SeededSource {
	return &SeededSource{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Float64 implements Source.
func (s *SeededSource) Float64() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64(), nil
}
