package lt

import (
	"fmt"
	"log"

	"github.com/corvid-labs/ltfountain/soliton"
)

// pendingBlock is a source block the decoder has not yet recovered. It
// tracks every encoded block still waiting on it, mirroring the teacher
// pattern of a pending-transaction stub blocking a list of codewords,
// except the key here is a source index rather than a transaction hash.
type pendingBlock struct {
	index    uint32
	blocking []*pendingCodeword
}

// markSolved marks this source block as solved, peels it out of every
// encoded block still waiting on it, and appends any newly degree-one
// codewords to decodable. p is never used again after this call.
func (p *pendingBlock) markSolved(data Block, decodable []*pendingCodeword) []*pendingCodeword {
	for i, cw := range p.blocking {
		cw.peel(p, data)
		if len(cw.remaining) == 1 && !cw.queued {
			cw.queued = true
			decodable = append(decodable, cw)
		}
		p.blocking[i] = nil
	}
	return decodable
}

// pendingCodeword is an EncodedBlock still waiting on one or more source
// blocks. Its residual payload has already absorbed every source block
// that was solved at the time it arrived or was subsequently peeled.
type pendingCodeword struct {
	residual  Block
	remaining []*pendingBlock
	queued    bool
}

// peel removes stub from cw's remaining set and XORs data into the
// residual. stub must currently be a member of cw.remaining.
func (cw *pendingCodeword) peel(stub *pendingBlock, data Block) {
	for i, p := range cw.remaining {
		if p == stub {
			l := len(cw.remaining)
			cw.remaining[i] = cw.remaining[l-1]
			cw.remaining[l-1] = nil
			cw.remaining = cw.remaining[:l-1]
			xorInto(cw.residual, data)
			return
		}
	}
	panic("lt: peeling a block not referenced by this codeword")
}

// Decoder recovers k source blocks from a stream of EncodedBlocks via
// belief-propagation peeling: any encoded block reduced to a single
// unresolved source index immediately yields that block, which may in turn
// unblock other pending codewords.
type Decoder struct {
	k         uint32
	blockSize int
	dist      *soliton.RobustSoliton

	solved  map[uint32]Block
	pending map[uint32]*pendingBlock

	round         int
	logger        *log.Logger
	fingerprinter Fingerprinter

	// CorruptResidualCount counts encoded blocks that, after every source
	// index they referenced turned out to already be solved, still carried
	// a non-zero residual payload. Such a block is dropped without
	// affecting the rest of decoder state and without returning an error,
	// since no caller action can recover a wire-level corruption.
	CorruptResidualCount int
}

// DecoderOption configures a Decoder at construction time.
type DecoderOption func(*Decoder)

// WithDecoderLogger attaches logger to a Decoder. CorruptResidual and
// rejected-block events are reported through it; by default a Decoder
// logs nothing, keeping the peeling hot path allocation-free.
func WithDecoderLogger(logger *log.Logger) DecoderOption {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// WithDecoderFingerprinter attaches fp to a Decoder. Every log line the
// decoder emits includes the fingerprint of the block it concerns; by
// default a Decoder fingerprints under a zero key, which is fine since the
// fingerprint is diagnostic-only and never compared across decoders with
// different keys unless the caller chooses to.
func WithDecoderFingerprinter(fp Fingerprinter) DecoderOption {
	return func(d *Decoder) {
		d.fingerprinter = fp
	}
}

// NewDecoder creates a Decoder expecting k source blocks of length
// blockSize. Both must be supplied up front: a decoder has no way to learn
// blockSize from the first encoded block alone if that block happens to
// have degree zero, and k bounds every source index it will accept.
func NewDecoder(k uint32, blockSize int, opts ...DecoderOption) (*Decoder, error) {
	if k == 0 {
		return nil, &InvalidArgumentError{Reason: "k must be at least 1"}
	}
	if blockSize == 0 {
		return nil, &InvalidArgumentError{Reason: "block size must not be zero"}
	}
	dist, err := soliton.New(uint64(k), soliton.DefaultC, soliton.DefaultDelta)
	if err != nil {
		return nil, err
	}
	d := &Decoder{
		k:             k,
		blockSize:     blockSize,
		dist:          dist,
		solved:        make(map[uint32]Block),
		pending:       make(map[uint32]*pendingBlock),
		fingerprinter: NewFingerprinter([FingerprintSize]byte{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// AddEncodedBlock feeds one EncodedBlock into the decoder, regenerates its
// degree and indices from its seed and checks the regenerated degree
// against the claimed one (b.Indices is not consulted), peels every source
// index already solved out of its payload, and runs belief-propagation
// peeling to completion. It returns the decoder's total decoded count
// after absorbing b.
func (d *Decoder) AddEncodedBlock(b EncodedBlock) (int, error) {
	if len(b.Payload) != d.blockSize {
		return d.DecodedCount(), &PayloadLengthError{Got: len(b.Payload), Want: d.blockSize}
	}
	if b.Degree < 1 || b.Degree > d.k {
		return d.DecodedCount(), &InvalidArgumentError{Reason: fmt.Sprintf("degree %d outside [1, %d]", b.Degree, d.k)}
	}

	regenDegree, regenIndices := sampleNeighbors(b.Seed, d.dist, d.k)
	if regenDegree != b.Degree {
		err := &SeedMismatchError{Seed: b.Seed, Claimed: b.Degree, Regenerated: regenDegree}
		if d.logger != nil {
			d.logger.Printf("lt: rejecting block (fingerprint %x): %v", d.fingerprinter.Of(b.Payload), err)
		}
		return d.DecodedCount(), err
	}

	cw := &pendingCodeword{residual: b.Payload.clone()}
	cw.remaining = make([]*pendingBlock, 0, len(regenIndices))
	for _, idx := range regenIndices {
		if solved, ok := d.solved[idx]; ok {
			xorInto(cw.residual, solved)
			continue
		}
		stub, ok := d.pending[idx]
		if !ok {
			stub = &pendingBlock{index: idx}
			d.pending[idx] = stub
		}
		stub.blocking = append(stub.blocking, cw)
		cw.remaining = append(cw.remaining, stub)
	}

	if len(cw.remaining) == 0 {
		if !cw.residual.isZero() {
			d.CorruptResidualCount++
			if d.logger != nil {
				d.logger.Printf("lt: corrupt residual on block seed %d (fingerprint %x), discarding", b.Seed, d.fingerprinter.Of(cw.residual))
			}
		}
		return d.DecodedCount(), nil
	}

	queue := make([]*pendingCodeword, 0, 1)
	if len(cw.remaining) == 1 {
		cw.queued = true
		queue = append(queue, cw)
	}
	d.drain(queue)
	return d.DecodedCount(), nil
}

// drain runs belief-propagation peeling over queue, a set of codewords each
// reduced to exactly one remaining source index, until no more blocks can
// be solved. round advances once per popped codeword, matching the
// peeling loop's own notion of a round rather than the number of
// AddEncodedBlock calls that fed it. It returns the count of newly solved
// blocks.
func (d *Decoder) drain(queue []*pendingCodeword) int {
	solvedCount := 0
	for len(queue) > 0 {
		cw := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		d.round++

		// A codeword queued at degree one can be peeled down to degree
		// zero by a different codeword resolving its last index before
		// it is popped here; that is a fully-absorbed codeword, not a
		// decoding error, so discard it rather than panicking. Its residual
		// must then be zero; a non-zero one is counted as corrupt.
		if len(cw.remaining) == 0 {
			if !cw.residual.isZero() {
				d.CorruptResidualCount++
				if d.logger != nil {
					d.logger.Printf("lt: corrupt residual while peeling (fingerprint %x), discarding", d.fingerprinter.Of(cw.residual))
				}
			}
			continue
		}
		if len(cw.remaining) != 1 {
			panic("lt: draining a codeword that is not degree one")
		}
		stub := cw.remaining[0]

		if _, already := d.solved[stub.index]; already {
			continue
		}

		data := cw.residual.clone()
		d.solved[stub.index] = data
		delete(d.pending, stub.index)
		solvedCount++

		// stub.blocking includes cw itself (every codeword adds itself to
		// each stub it references, degree one or not), so markSolved's own
		// peel of cw is what empties cw.remaining; clearing it here first
		// would leave peel unable to find stub in it and panic.
		queue = stub.markSolved(data, queue)
	}
	return solvedCount
}

// DecodedCount returns the number of source blocks solved so far.
func (d *Decoder) DecodedCount() int {
	return len(d.solved)
}

// IsComplete reports whether every one of the k source blocks has been
// solved.
func (d *Decoder) IsComplete() bool {
	return len(d.solved) == int(d.k)
}

// CurrentRound returns the number of peeling steps the decoder has
// performed: one per codeword popped off the belief-propagation queue,
// not one per AddEncodedBlock call. A block that merely joins the pending
// set without ever reaching degree one contributes nothing to this count.
func (d *Decoder) CurrentRound() int {
	return d.round
}

// GetAllDecodedBlocks returns every solved source block indexed by its
// position, in ascending index order, and true, iff IsComplete reports
// true. Otherwise it returns nil, false: callers cannot tell a decoder
// that is one block away from complete apart from one that has barely
// started by inspecting the slice alone, so completeness is reported
// explicitly instead.
func (d *Decoder) GetAllDecodedBlocks() ([]Block, bool) {
	if len(d.solved) != int(d.k) {
		return nil, false
	}
	out := make([]Block, d.k)
	for idx, data := range d.solved {
		out[idx] = data
	}
	return out, true
}
