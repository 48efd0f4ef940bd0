package lt

import "testing"

func TestFingerprintIsDeterministicAndKeyDependent(t *testing.T) {
	var key1 [FingerprintSize]byte
	for i := range key1 {
		key1[i] = byte(i)
	}
	key2 := key1
	key2[0] ^= 0xff

	f1 := NewFingerprinter(key1)
	f2 := NewFingerprinter(key1)
	f3 := NewFingerprinter(key2)

	b := block(1, 2, 3, 4)
	if f1.Of(b) != f2.Of(b) {
		t.Error("same key produced different fingerprints for the same block")
	}
	if f1.Of(b) == f3.Of(b) {
		t.Error("different keys produced the same fingerprint; salting is not working")
	}
}

func TestFingerprintDoesNotAffectDecoding(t *testing.T) {
	const k = 20
	sources := makeSourceBlocks(k)
	seed := uint64(1)
	enc, err := NewEncoder(sources, &seed)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := NewDecoder(k, codecBlockSize)
	if err != nil {
		t.Fatal(err)
	}

	var key [FingerprintSize]byte
	fp := NewFingerprinter(key)

	for !dec.IsComplete() {
		blk := enc.GenerateBlock(nil)
		_ = fp.Of(blk.Payload) // computing a fingerprint must be a pure side observation
		if _, err := dec.AddEncodedBlock(blk); err != nil {
			t.Fatal(err)
		}
	}
	if dec.CorruptResidualCount != 0 {
		t.Errorf("CorruptResidualCount = %d, want 0", dec.CorruptResidualCount)
	}
}
