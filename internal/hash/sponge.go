package hash

import "encoding/binary"

// Sponge parameters: a width-12 state absorbing 8 field elements per
// permutation, squeezing a 4-element (32-byte) digest. The permutation is
// a Poseidon-family construction — full rounds sandwiching partial rounds,
// x^7 S-box, additive round constants, and a cheap invertible linear layer
// (diagonal plus all-ones) — following the round structure of
// vybium-starks-vm's core hash package.
const (
	spongeWidth    = 12
	spongeRate     = 8
	spongeCapacity = spongeWidth - spongeRate
	digestElems    = 4

	roundsFull    = 8
	roundsPartial = 22
	roundsTotal   = roundsFull + roundsPartial
)

// roundConstants and mixDiagonal are derived once from a fixed seed via a
// splitmix64 expansion, so every build of the compiler agrees on them.
var (
	roundConstants [roundsTotal][spongeWidth]uint64
	mixDiagonal    [spongeWidth]uint64
)

func init() {
	seed := uint64(0x74726964656e7431) // "trident1"
	next := func() uint64 {
		seed += 0x9E3779B97F4A7C15
		z := seed
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return feCanon(z ^ (z >> 31))
	}
	for r := 0; r < roundsTotal; r++ {
		for i := 0; i < spongeWidth; i++ {
			roundConstants[r][i] = next()
		}
	}
	for i := 0; i < spongeWidth; i++ {
		// The diagonal must avoid 0 and Modulus-1 so the layer stays
		// invertible.
		d := next()
		if d == 0 || d == Modulus-1 {
			d = 2
		}
		mixDiagonal[i] = d
	}
}

type state [spongeWidth]uint64

func sbox(x uint64) uint64 {
	x2 := feMul(x, x)
	x4 := feMul(x2, x2)
	x6 := feMul(x4, x2)
	return feMul(x6, x)
}

func (s *state) mix() {
	var sum uint64
	for _, x := range s {
		sum = feAdd(sum, x)
	}
	for i := range s {
		s[i] = feAdd(feMul(s[i], mixDiagonal[i]), sum)
	}
}

func (s *state) permute() {
	round := 0
	for ; round < roundsFull/2; round++ {
		for i := range s {
			s[i] = sbox(feAdd(s[i], roundConstants[round][i]))
		}
		s.mix()
	}
	for ; round < roundsFull/2+roundsPartial; round++ {
		s[0] = sbox(feAdd(s[0], roundConstants[round][0]))
		s.mix()
	}
	for ; round < roundsTotal; round++ {
		for i := range s {
			s[i] = sbox(feAdd(s[i], roundConstants[round][i]))
		}
		s.mix()
	}
}

// sumBytes absorbs an arbitrary byte buffer and squeezes a 32-byte digest.
// Bytes are packed little-endian, 8 per field element, with a 1-byte
// domain-separating pad marking the end of input.
func sumBytes(data []byte) [32]byte {
	padded := make([]byte, 0, len(data)+1)
	padded = append(padded, data...)
	padded = append(padded, 0x01)
	for len(padded)%(8*spongeRate) != 0 {
		padded = append(padded, 0x00)
	}

	var s state
	for off := 0; off < len(padded); off += 8 * spongeRate {
		for i := 0; i < spongeRate; i++ {
			s[i] = feCanon(binary.LittleEndian.Uint64(padded[off+8*i:]))
		}
		s.permute()
	}

	var out [32]byte
	for i := 0; i < digestElems; i++ {
		binary.LittleEndian.PutUint64(out[8*i:], s[i])
	}
	return out
}
