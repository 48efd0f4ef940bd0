// Package bench runs repeated encode/decode trials over the lt package and
// summarizes them: how many encoded blocks a trial needed before the
// decoder completed, and how long each block took to apply. Each trial
// builds its own encoder and decoder; RunTrials runs the trials one after
// another and pools their latencies into a single sketch.
package bench

import (
	"fmt"
	"sort"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/aclements/go-moremath/stats"

	"github.com/corvid-labs/ltfountain/lt"
)

var fingerprinter = lt.NewFingerprinter([lt.FingerprintSize]byte{})

// TrialResult holds the outcome of one encode/decode trial.
type TrialResult struct {
	SourceBlockCount int
	RoundsToComplete int
	OverheadRatio    float64 // RoundsToComplete / SourceBlockCount
	CorruptResiduals int
}

// RunTrial builds an Encoder and Decoder over k freshly generated source
// blocks of the given blockSize, seeded with seed, and feeds encoded blocks
// to the decoder until it completes or maxRounds is exhausted. latency, if
// non-nil, receives the wall-clock time AddEncodedBlock took for every
// block fed to the decoder.
func RunTrial(k uint32, blockSize int, seed uint64, maxRounds int, latency *ddsketch.DDSketch) (TrialResult, error) {
	sources := make([]lt.Block, k)
	src := deterministicSourceFiller(seed)
	for i := range sources {
		b := make(lt.Block, blockSize)
		for j := range b {
			b[j] = src()
		}
		sources[i] = b
	}

	encSeed := seed
	enc, err := lt.NewEncoder(sources, &encSeed)
	if err != nil {
		return TrialResult{}, err
	}
	dec, err := lt.NewDecoder(k, blockSize)
	if err != nil {
		return TrialResult{}, err
	}

	rounds := 0
	for !dec.IsComplete() && rounds < maxRounds {
		blk := enc.GenerateBlock(nil)
		start := time.Now()
		if _, err := dec.AddEncodedBlock(blk); err != nil {
			return TrialResult{}, fmt.Errorf("block seed %d (fingerprint %x): %w", blk.Seed, fingerprinter.Of(blk.Payload), err)
		}
		if latency != nil {
			latency.Add(time.Since(start).Seconds())
		}
		rounds++
	}

	return TrialResult{
		SourceBlockCount: int(k),
		RoundsToComplete: rounds,
		OverheadRatio:    float64(rounds) / float64(k),
		CorruptResiduals: dec.CorruptResidualCount,
	}, nil
}

// deterministicSourceFiller returns a closure producing a reproducible
// stream of int32 values from seed, used only to build synthetic source
// blocks for trials; it is unrelated to the PRNG contract between lt's
// Encoder and Decoder.
func deterministicSourceFiller(seed uint64) func() int32 {
	state := seed
	return func() int32 {
		state = state*6364136223846793005 + 1442695040888963407
		return int32(state >> 33)
	}
}

// Summary aggregates a batch of TrialResults.
type Summary struct {
	Trials           int
	MeanRounds       float64
	StdDevRounds     float64
	MeanOverhead     float64
	RoundsQuantiles  map[float64]float64 // quantile -> RoundsToComplete value
	LatencyQuantiles map[float64]float64 // quantile -> seconds, only set if a sketch was supplied
}

// RunTrials runs n independent trials with seeds seed, seed+1, ..., seed+n-1
// and summarizes the batch. If trackLatency is true, per-block decode
// latency across every trial is pooled into one DDSketch and its quantiles
// reported in Summary.LatencyQuantiles.
func RunTrials(k uint32, blockSize int, seed uint64, n, maxRounds int, trackLatency bool) (Summary, error) {
	var sketch *ddsketch.DDSketch
	if trackLatency {
		s, err := ddsketch.NewDefaultDDSketch(0.01)
		if err != nil {
			return Summary{}, err
		}
		sketch = s
	}

	sample := stats.Sample{}
	overheads := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		res, err := RunTrial(k, blockSize, seed+uint64(i), maxRounds, sketch)
		if err != nil {
			return Summary{}, err
		}
		sample.Xs = append(sample.Xs, float64(res.RoundsToComplete))
		overheads = append(overheads, res.OverheadRatio)
	}
	sort.Float64s(sample.Xs)
	sample.Sorted = true

	meanOverhead := 0.0
	for _, o := range overheads {
		meanOverhead += o
	}
	meanOverhead /= float64(len(overheads))

	summary := Summary{
		Trials:       n,
		MeanRounds:   sample.Mean(),
		StdDevRounds: sample.StdDev(),
		MeanOverhead: meanOverhead,
		RoundsQuantiles: map[float64]float64{
			0.05: sample.Quantile(0.05),
			0.50: sample.Quantile(0.50),
			0.95: sample.Quantile(0.95),
		},
	}
	if sketch != nil {
		qs, err := sketch.GetValuesAtQuantiles([]float64{0.05, 0.50, 0.95})
		if err != nil {
			return Summary{}, err
		}
		summary.LatencyQuantiles = map[float64]float64{
			0.05: qs[0],
			0.50: qs[1],
			0.95: qs[2],
		}
	}
	return summary, nil
}
