// Package prng implements the deterministic pseudo-random stream that the
// encoder and decoder both rely on to agree, without exchanging them, on
// which source blocks compose an encoded block.
//
// The generator is a 64-bit linear congruential generator with the
// multiplier (6364136223846793005) and increment (1442695040888963407) of
// Knuth's MMIX. Both sides of a
// codec must use this exact recurrence: any other choice, even one that is
// individually well-specified, will desynchronize encoder and decoder.
package prng

const (
	multiplier uint64 = 6364136223846793005
	increment  uint64 = 1442695040888963407
)

// Source is a deterministic, seedable 64-bit PRNG. Its only state is the
// current word; it holds no other mutable data and is safe to copy by value.
type Source struct {
	state uint64
}

// New returns a PRNG seeded with seed. Two Sources constructed with the same
// seed produce identical draw sequences.
func New(seed uint64) *Source {
	return &Source{state: seed}
}

// NextUint64 advances the generator and returns the next 64-bit word.
func (s *Source) NextUint64() uint64 {
	s.state = s.state*multiplier + increment
	return s.state
}

// GenRange returns a uniformly distributed value in [lo, hi). It panics if
// hi <= lo, since the range would otherwise be empty or inverted.
//
// Rejection sampling is used to avoid the modulo-bias that a plain
// `next_u64() % span` would introduce: without it, some values in the
// range would be slightly overrepresented whenever span does not evenly
// divide 2^64, which would bias the encoder's and decoder's choice of
// source indices in ways that mattered at small k.
func (s *Source) GenRange(lo, hi uint64) uint64 {
	if hi <= lo {
		panic("prng: GenRange requires lo < hi")
	}
	span := hi - lo
	limit := -span % span // 2^64 mod span, computed via unsigned wraparound
	for {
		v := s.NextUint64()
		if v >= limit {
			return lo + v%span
		}
	}
}

// GenUnit returns a uniformly distributed float64 in [0, 1).
func (s *Source) GenUnit() float64 {
	// Use the top 53 bits so the result is exactly representable as a
	// float64 mantissa, matching the precision of math/rand's Float64.
	return float64(s.NextUint64()>>11) / (1 << 53)
}
