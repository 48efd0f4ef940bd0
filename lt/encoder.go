package lt

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/corvid-labs/ltfountain/prng"
	"github.com/corvid-labs/ltfountain/soliton"
)

// EncodedBlock is a single unit of an LT fountain code transmission: the
// seed that deterministically reproduces its degree and source indices, the
// degree and indices themselves, and the XOR-combined payload. Indices is
// informational only: a Decoder regenerates the index set from Seed and
// never reads this field.
type EncodedBlock struct {
	Seed    uint64
	Degree  uint32
	Indices []uint32
	Payload Block
}

// encoderConfig holds the tunable Robust Soliton parameters. It is kept
// separate from Encoder so WithSolitonParams can be a functional option
// applied before the distribution is built.
type encoderConfig struct {
	c, delta float64
}

// EncoderOption configures an Encoder at construction time.
type EncoderOption func(*encoderConfig)

// WithSolitonParams overrides the default Robust Soliton tuning constants
// c and delta. Callers that do not need non-default behavior should omit
// this option; soliton.DefaultC and soliton.DefaultDelta are used otherwise.
func WithSolitonParams(c, delta float64) EncoderOption {
	return func(cfg *encoderConfig) {
		cfg.c = c
		cfg.delta = delta
	}
}

// Encoder produces an unbounded stream of EncodedBlocks from a fixed set of
// equal-length source blocks. It holds no decoder-visible state: every
// EncodedBlock it emits is self-describing, and an Encoder can be discarded
// and recreated as long as the same master seed and source blocks are used.
type Encoder struct {
	sources   []Block
	blockSize int
	k         uint32
	master    *prng.Source
	dist      *soliton.RobustSoliton
}

// NewEncoder builds an Encoder over sourceBlocks, which must be non-empty
// and all of equal length. If masterSeed is nil, a seed is drawn from the
// operating system's entropy source; otherwise the supplied value is used
// verbatim, which is useful for reproducible tests and simulations.
func NewEncoder(sourceBlocks []Block, masterSeed *uint64, opts ...EncoderOption) (*Encoder, error) {
	if len(sourceBlocks) == 0 {
		return nil, &InvalidArgumentError{Reason: "source block set must not be empty"}
	}
	blockSize := len(sourceBlocks[0])
	if blockSize == 0 {
		return nil, &InvalidArgumentError{Reason: "block size must not be zero"}
	}
	sources := make([]Block, len(sourceBlocks))
	for i, b := range sourceBlocks {
		if len(b) != blockSize {
			return nil, &InvalidArgumentError{Reason: "all source blocks must have the same length"}
		}
		sources[i] = b.clone()
	}

	cfg := encoderConfig{c: soliton.DefaultC, delta: soliton.DefaultDelta}
	for _, opt := range opts {
		opt(&cfg)
	}

	k := uint32(len(sources))
	dist, err := soliton.New(uint64(k), cfg.c, cfg.delta)
	if err != nil {
		return nil, err
	}

	var resolvedSeed uint64
	if masterSeed == nil {
		resolvedSeed = entropySeed()
	} else {
		resolvedSeed = *masterSeed
	}

	return &Encoder{
		sources:   sources,
		blockSize: blockSize,
		k:         k,
		master:    prng.New(resolvedSeed),
		dist:      dist,
	}, nil
}

// entropySeed draws a 64-bit seed from the operating system's entropy
// source. It is used only when a caller does not supply its own master
// seed; the sequence it feeds the PRNG is never itself part of the
// normative encoder/decoder contract, only the resulting seed value is.
func entropySeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand.Read does not fail on a supported platform in
		// practice; a fixed fallback keeps NewEncoder from surfacing an
		// error a caller has no way to act on.
		return 0x9e3779b97f4a7c15
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// SourceBlockCount returns k, the number of source blocks this Encoder
// was built over.
func (e *Encoder) SourceBlockCount() uint32 {
	return e.k
}

// GenerateBlock produces the next EncodedBlock. If blockSeed is nil, the
// Encoder's internal master PRNG advances and supplies the seed, giving an
// unbounded, non-repeating stream suitable for a live transmission. If
// blockSeed is non-nil, that exact seed is used instead and the internal
// master PRNG is left untouched, letting a caller regenerate or retransmit
// a specific block on demand.
func (e *Encoder) GenerateBlock(blockSeed *uint64) EncodedBlock {
	var seed uint64
	if blockSeed == nil {
		seed = e.master.NextUint64()
	} else {
		seed = *blockSeed
	}

	degree, indices := sampleNeighbors(seed, e.dist, e.k)

	payload := make(Block, e.blockSize)
	for _, idx := range indices {
		xorInto(payload, e.sources[idx])
	}

	return EncodedBlock{
		Seed:    seed,
		Degree:  degree,
		Indices: indices,
		Payload: payload,
	}
}

// EncodeFileBlocks generates n EncodedBlocks from blocks in one call, using
// masterSeed to drive the internal PRNG (or OS entropy if masterSeed is
// nil). It is a convenience wrapper around NewEncoder and repeated calls to
// GenerateBlock for callers that want a finite batch rather than a stream.
func EncodeFileBlocks(blocks []Block, masterSeed *uint64, n int) ([]EncodedBlock, error) {
	enc, err := NewEncoder(blocks, masterSeed)
	if err != nil {
		return nil, err
	}
	out := make([]EncodedBlock, n)
	for i := range out {
		out[i] = enc.GenerateBlock(nil)
	}
	return out, nil
}
