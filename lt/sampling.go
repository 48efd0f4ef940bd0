package lt

import (
	"github.com/corvid-labs/ltfountain/prng"
	"github.com/corvid-labs/ltfountain/soliton"
)

// sampleNeighbors draws a degree and a set of distinct source indices from
// a PRNG seeded identically on the encoder and decoder side. It is the one
// place that fixes the normative draw sequence described in the design
// notes: exactly one gen_unit() draw for the degree, then repeated
// gen_range(0, k) draws with duplicates rejected until degree distinct
// values have been collected. Any deviation here desynchronizes encoder
// and decoder.
func sampleNeighbors(seed uint64, dist *soliton.RobustSoliton, k uint32) (degree uint32, indices []uint32) {
	src := prng.New(seed)
	degree = uint32(dist.Sample(src.GenUnit()))

	seen := make(map[uint32]struct{}, degree)
	indices = make([]uint32, 0, degree)
	for uint32(len(indices)) < degree {
		idx := uint32(src.GenRange(0, uint64(k)))
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	return degree, indices
}
