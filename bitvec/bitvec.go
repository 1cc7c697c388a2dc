// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package bitvec converts between integers and fixed width bit vectors.
//
// A bit vector is a []int of 0 and 1 values, least significant bit first.
// Negative integers are encoded in two's-complement.
//
package bitvec

import (
	"math/big"
	"strings"

	"github.com/db47h/evsim"
	"github.com/pkg/errors"
)

var one = big.NewInt(1)

// Encode returns the bits-wide two's-complement representation of v, least
// significant bit first. Bits that do not fit are silently dropped, that is
// the result is v mod 2^bits.
//
//	Encode(big.NewInt(8), 4)  // [0 0 0 1]
//	Encode(big.NewInt(-1), 3) // [1 1 1]
//
func Encode(v *big.Int, bits int) []int {
	if bits <= 0 {
		return []int{}
	}
	out := make([]int, bits)
	// big.Int.Rsh is an arithmetic shift: negative values stay negative and
	// shift in ones.
	n := new(big.Int).Set(v)
	var b big.Int
	for i := range out {
		out[i] = int(b.And(n, one).Int64())
		n.Rsh(n, 1)
	}
	return out
}

// EncodeInt64 is like Encode for an int64.
//
func EncodeInt64(v int64, bits int) []int {
	return Encode(big.NewInt(v), bits)
}

// Decode returns the unsigned value of a bit vector, least significant bit
// first. An empty vector decodes to 0. It fails with evsim.ErrInvalidValue if
// the vector holds anything other than 0 and 1.
//
func Decode(bits []int) (*big.Int, error) {
	r := new(big.Int)
	for i := len(bits) - 1; i >= 0; i-- {
		d := bits[i]
		if d != 0 && d != 1 {
			return nil, errors.Wrapf(evsim.ErrInvalidValue, "bit %d is %d", i, d)
		}
		r.Lsh(r, 1)
		if d == 1 {
			r.Or(r, one)
		}
	}
	return r, nil
}

// Signed returns the two's-complement interpretation of an unsigned bits-wide
// value given its sign bit: u - 2^bits if sign is 1, u otherwise.
//
func Signed(u *big.Int, sign int, bits int) *big.Int {
	r := new(big.Int).Set(u)
	if sign == 1 {
		r.Sub(r, new(big.Int).Lsh(one, uint(bits)))
	}
	return r
}

// DecodeSigned returns the two's-complement value of a bit vector. The last
// bit is the sign bit.
//
func DecodeSigned(bits []int) (*big.Int, error) {
	u, err := Decode(bits)
	if err != nil || len(bits) == 0 {
		return u, err
	}
	return Signed(u, bits[len(bits)-1], len(bits)), nil
}

// String returns the usual textual representation of a bit vector: most
// significant bit first.
//
//	String([]int{0, 0, 1}) // "100"
//
func String(bits []int) string {
	var b strings.Builder
	b.Grow(len(bits))
	for i := len(bits) - 1; i >= 0; i-- {
		b.WriteByte('0' + byte(bits[i]&1))
	}
	return b.String()
}

// Parse parses a bit string, most significant bit first, into a bit vector.
// Underscores are ignored and can be used as separators: "1010_0110".
//
func Parse(s string) ([]int, error) {
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return nil, errors.New("empty bit string")
	}
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
		case '1':
			out[len(s)-1-i] = 1
		default:
			return nil, errors.Wrapf(evsim.ErrInvalidValue, "in %q at pos %d", s, i+1)
		}
	}
	return out, nil
}
