package main

import (
	"crypto/rand"
	"flag"
	"log"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/corvid-labs/ltfountain/bench"
	"github.com/corvid-labs/ltfountain/lt"
)

func main() {
	k := flag.Uint64("k", 200, "number of source blocks")
	blockSize := flag.Int("blocksize", 16, "source block length in 32-bit words")
	maxRounds := flag.Int("maxrounds", 0, "abort a round-trip after this many encoded blocks (0 = k*20)")
	c := flag.Float64("c", 0.03, "robust soliton parameter c")
	delta := flag.Float64("delta", 0.05, "robust soliton parameter delta")
	trials := flag.Int("trials", 1, "number of trials to run for the summary report")
	flag.Parse()

	if *maxRounds == 0 {
		*maxRounds = int(*k) * 20
	}

	sources := randomSourceBlocks(uint32(*k), *blockSize)
	digest := blake2b.Sum256(flattenSources(sources))
	log.Printf("generated %d source blocks (blake2b digest %x)", len(sources), digest)

	masterSeed := uint64(0)
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err == nil {
		masterSeed = bytesToUint64(buf)
	}

	enc, err := lt.NewEncoder(sources, &masterSeed, lt.WithSolitonParams(*c, *delta))
	if err != nil {
		log.Fatalln("building encoder:", err)
	}
	dec, err := lt.NewDecoder(uint32(*k), *blockSize)
	if err != nil {
		log.Fatalln("building decoder:", err)
	}

	started := time.Now()
	rounds := 0
	for !dec.IsComplete() && rounds < *maxRounds {
		blk := enc.GenerateBlock(nil)
		if _, err := dec.AddEncodedBlock(blk); err != nil {
			log.Fatalln("decoding:", err)
		}
		rounds++
	}
	elapsed := time.Since(started)

	if !dec.IsComplete() {
		log.Fatalf("decoder did not complete within %d rounds", *maxRounds)
	}
	decoded, ok := dec.GetAllDecodedBlocks()
	if !ok {
		log.Fatalln("decoder reported complete but GetAllDecodedBlocks returned incomplete")
	}
	decodedDigest := blake2b.Sum256(flattenSources(decoded))
	if decodedDigest != digest {
		log.Fatalln("decoded blocks do not match the original source blocks")
	}

	log.Printf("decoded %d blocks from %d encoded blocks in %v (overhead %.3f, corrupt residuals %d)",
		*k, rounds, elapsed, float64(rounds)/float64(*k), dec.CorruptResidualCount)

	if *trials > 1 {
		summary, err := bench.RunTrials(uint32(*k), *blockSize, masterSeed, *trials, *maxRounds, true)
		if err != nil {
			log.Fatalln("running trials:", err)
		}
		log.Printf("over %d trials: mean rounds %.1f (stddev %.1f), mean overhead %.3f", summary.Trials, summary.MeanRounds, summary.StdDevRounds, summary.MeanOverhead)
		log.Printf("rounds p5/p50/p95: %.1f/%.1f/%.1f", summary.RoundsQuantiles[0.05], summary.RoundsQuantiles[0.50], summary.RoundsQuantiles[0.95])
	}
}

func randomSourceBlocks(k uint32, blockSize int) []lt.Block {
	blocks := make([]lt.Block, k)
	for i := range blocks {
		b := make(lt.Block, blockSize)
		buf := make([]byte, blockSize*4)
		rand.Read(buf)
		for j := range b {
			b[j] = int32(buf[j*4]) | int32(buf[j*4+1])<<8 | int32(buf[j*4+2])<<16 | int32(buf[j*4+3])<<24
		}
		blocks[i] = b
	}
	return blocks
}

func flattenSources(blocks []lt.Block) []byte {
	if len(blocks) == 0 {
		return nil
	}
	blockSize := len(blocks[0])
	out := make([]byte, 0, len(blocks)*blockSize*4)
	for _, b := range blocks {
		for _, v := range b {
			out = append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		}
	}
	return out
}

func bytesToUint64(b [8]byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
