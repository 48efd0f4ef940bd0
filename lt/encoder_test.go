package lt

import (
	"fmt"
	"testing"
)

func TestNewEncoderRejectsBadInput(t *testing.T) {
	seed := uint64(0)
	if _, err := NewEncoder(nil, &seed); err == nil {
		t.Error("NewEncoder with no source blocks should have failed")
	}
	if _, err := NewEncoder([]Block{{}}, &seed); err == nil {
		t.Error("NewEncoder with zero-length blocks should have failed")
	}
	mismatched := []Block{make(Block, 4), make(Block, 5)}
	if _, err := NewEncoder(mismatched, &seed); err == nil {
		t.Error("NewEncoder with mismatched block lengths should have failed")
	}
}

func TestGenerateBlockIsDeterministicInSeed(t *testing.T) {
	sources := makeSourceBlocks(50)
	seed := uint64(123)

	e1, err := NewEncoder(sources, &seed)
	if err != nil {
		t.Fatal(err)
	}
	e2, err := NewEncoder(sources, &seed)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		b1 := e1.GenerateBlock(nil)
		b2 := e2.GenerateBlock(nil)
		if b1.Seed != b2.Seed || b1.Degree != b2.Degree {
			t.Fatalf("draw %d diverged between identically-seeded encoders", i)
		}
		for j := range b1.Indices {
			if b1.Indices[j] != b2.Indices[j] {
				t.Fatalf("draw %d: index %d diverged between identically-seeded encoders", i, j)
			}
		}
	}
}

func TestGenerateBlockWithExplicitSeedIsReproducible(t *testing.T) {
	sources := makeSourceBlocks(30)
	masterSeed := uint64(9)
	e, err := NewEncoder(sources, &masterSeed)
	if err != nil {
		t.Fatal(err)
	}

	explicit := uint64(555)
	first := e.GenerateBlock(&explicit)
	second := e.GenerateBlock(&explicit)
	if first.Degree != second.Degree || len(first.Indices) != len(second.Indices) {
		t.Fatal("same explicit seed produced different draws")
	}
	for i := range first.Indices {
		if first.Indices[i] != second.Indices[i] {
			t.Fatal("same explicit seed produced different indices")
		}
	}
}

func TestGenerateBlockExplicitSeedDoesNotAdvanceMaster(t *testing.T) {
	sources := makeSourceBlocks(30)
	masterSeed := uint64(9)

	e1, err := NewEncoder(sources, &masterSeed)
	if err != nil {
		t.Fatal(err)
	}
	e2, err := NewEncoder(sources, &masterSeed)
	if err != nil {
		t.Fatal(err)
	}

	explicit := uint64(555)
	e1.GenerateBlock(&explicit)
	afterExplicit := e1.GenerateBlock(nil)
	afterNothing := e2.GenerateBlock(nil)

	if afterExplicit.Seed != afterNothing.Seed {
		t.Fatal("an explicit-seed draw perturbed the master PRNG sequence")
	}
}

func TestGenerateBlockDegreeAndIndicesInRange(t *testing.T) {
	const k = 100
	sources := makeSourceBlocks(k)
	seed := uint64(77)
	e, err := NewEncoder(sources, &seed)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 500; i++ {
		blk := e.GenerateBlock(nil)
		if blk.Degree < 1 || blk.Degree > k {
			t.Fatalf("degree %d out of [1, %d]", blk.Degree, k)
		}
		if int(blk.Degree) != len(blk.Indices) {
			t.Fatalf("degree %d does not match len(Indices) %d", blk.Degree, len(blk.Indices))
		}
		seen := make(map[uint32]bool, len(blk.Indices))
		for _, idx := range blk.Indices {
			if idx >= k {
				t.Fatalf("index %d out of range [0, %d)", idx, k)
			}
			if seen[idx] {
				t.Fatalf("duplicate index %d in a single block", idx)
			}
			seen[idx] = true
		}
	}
}

func TestGenerateBlockPayloadIsXorOfNamedSources(t *testing.T) {
	sources := makeSourceBlocks(40)
	seed := uint64(3)
	e, err := NewEncoder(sources, &seed)
	if err != nil {
		t.Fatal(err)
	}

	blk := e.GenerateBlock(nil)
	want := make(Block, codecBlockSize)
	for _, idx := range blk.Indices {
		xorInto(want, sources[idx])
	}
	for i := range want {
		if want[i] != blk.Payload[i] {
			t.Fatalf("payload[%d] = %d, want %d", i, blk.Payload[i], want[i])
		}
	}
}

func BenchmarkGenerateBlock(b *testing.B) {
	ks := []int{500, 1000, 2000}
	genrun := func(k int) func(b *testing.B) {
		return func(b *testing.B) {
			sources := makeSourceBlocks(k)
			seed := uint64(0)
			e, err := NewEncoder(sources, &seed)
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.SetBytes(codecBlockSize * 4)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				e.GenerateBlock(nil)
			}
		}
	}
	for _, k := range ks {
		b.Run(fmt.Sprintf("k=%d", k), genrun(k))
	}
}
