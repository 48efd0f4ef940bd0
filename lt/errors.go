package lt

import "fmt"

// InvalidArgumentError reports a construction or call argument that
// violates a hard precondition: an empty source set, mismatched block
// lengths, a zero k or block size, or a degree outside [1, k]. A payload
// whose length does not match block_size is reported as PayloadLengthError
// instead.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "lt: invalid argument: " + e.Reason
}

// SeedMismatchError reports that the degree transmitted alongside an
// encoded block disagrees with the degree regenerated from its seed. The
// block carrying the mismatch is rejected without affecting decoder state.
type SeedMismatchError struct {
	Seed        uint64
	Claimed     uint32
	Regenerated uint32
}

func (e *SeedMismatchError) Error() string {
	return fmt.Sprintf("lt: seed %d claims degree %d but regenerates degree %d", e.Seed, e.Claimed, e.Regenerated)
}

// PayloadLengthError reports that a block's payload did not match the
// decoder's configured block_size. It is a distinct type from
// InvalidArgumentError so callers can tell a malformed wire block apart
// from a malformed constructor call, even though both are reported
// informally as "InvalidArgument" in the design notes.
type PayloadLengthError struct {
	Got, Want int
}

func (e *PayloadLengthError) Error() string {
	return fmt.Sprintf("lt: payload length %d does not match block size %d", e.Got, e.Want)
}
