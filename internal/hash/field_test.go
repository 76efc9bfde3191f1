package hash

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

var bigMod = new(big.Int).SetUint64(Modulus)

func refAdd(a, b uint64) uint64 {
	s := new(big.Int).Add(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	return s.Mod(s, bigMod).Uint64()
}

func refMul(a, b uint64) uint64 {
	p := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	return p.Mod(p, bigMod).Uint64()
}

func TestFieldAddMatchesBigInt(t *testing.T) {
	cases := [][2]uint64{
		{0, 0},
		{1, 1},
		{Modulus - 1, 1},
		{Modulus - 1, Modulus - 1},
		{1 << 63, 1 << 63},
		{0xFFFFFFFF, 0xFFFFFFFF00000000},
		{12345678901234567, 98765432109876543},
	}
	for _, c := range cases {
		require.Equal(t, refAdd(c[0], c[1]), feAdd(c[0], c[1]), "add(%d, %d)", c[0], c[1])
	}
}

func TestFieldMulMatchesBigInt(t *testing.T) {
	cases := [][2]uint64{
		{0, 5},
		{1, Modulus - 1},
		{Modulus - 1, Modulus - 1},
		{1 << 32, 1 << 32},
		{0xFFFFFFFFFFFFFFFF % Modulus, 0xFFFFFFFFFFFFFFFF % Modulus},
		{3141592653589793238, 2718281828459045235},
	}
	for _, c := range cases {
		require.Equal(t, refMul(c[0], c[1]), feMul(c[0], c[1]), "mul(%d, %d)", c[0], c[1])
	}
}

func TestFieldMulPseudoRandom(t *testing.T) {
	// splitmix64-driven coverage of the reduction's carry/borrow paths.
	seed := uint64(42)
	next := func() uint64 {
		seed += 0x9E3779B97F4A7C15
		z := seed
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return z ^ (z >> 31)
	}
	for i := 0; i < 1000; i++ {
		a, b := next(), next()
		require.Equal(t, refMul(feCanon(a), feCanon(b)), feMul(feCanon(a), feCanon(b)))
	}
}

func TestSumBytesDeterministic(t *testing.T) {
	a := sumBytes([]byte("trident"))
	b := sumBytes([]byte("trident"))
	require.Equal(t, a, b)
}

func TestSumBytesSensitiveToInput(t *testing.T) {
	require.NotEqual(t, sumBytes([]byte("a")), sumBytes([]byte("b")))
	require.NotEqual(t, sumBytes([]byte("")), sumBytes([]byte{0}))
	// Padding must separate lengths that share a prefix.
	require.NotEqual(t, sumBytes([]byte{1}), sumBytes([]byte{1, 0}))
}

func TestSumBytesOutputInField(t *testing.T) {
	out := sumBytes([]byte("check limbs"))
	for i := 0; i < 4; i++ {
		limb := uint64(0)
		for j := 7; j >= 0; j-- {
			limb = limb<<8 | uint64(out[8*i+j])
		}
		require.Less(t, limb, Modulus)
	}
}
