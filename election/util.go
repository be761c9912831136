package election

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// electionRNG is a per-peer random source for election timeout jitter,
// grounded on Constituent.cpp's sleepFor(min_t, max_t) pattern, which draws
// a fresh uniform deadline on every follower wait. It must not be shared
// across peers in tests: two Constituents sharing one rng would correlate
// their timeouts and defeat split-vote coverage.
type electionRNG struct {
	// state is seeded once at construction from crypto/rand rather than
	// time-seeded math/rand, so tests launching many peers in the same
	// nanosecond still get independent sequences.
	state uint64
}

func newElectionRNG() *electionRNG {
	var seed uint64
	if err := binary.Read(rand.Reader, binary.BigEndian, &seed); err != nil {
		seed = uint64(time.Now().UnixNano())
	}
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &electionRNG{state: seed}
}

// next returns the next value of a xorshift64* generator. Not
// cryptographically strong; this is timeout jitter, not key material.
func (r *electionRNG) next() uint64 {
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.state = x
	return x * 0x2545F4914F6CDD1D
}

// fraction returns a pseudo-random float64 in [0, 1).
func (r *electionRNG) fraction() float64 {
	return float64(r.next()>>11) * (1.0 / (1 << 53))
}

// uniform returns a random duration drawn from U(min, max) seconds.
func (r *electionRNG) uniform(min, max float64) time.Duration {
	if max <= min {
		return time.Duration(min * float64(time.Second))
	}
	span := max - min
	seconds := min + r.fraction()*span
	return time.Duration(math.Round(seconds * float64(time.Second)))
}
