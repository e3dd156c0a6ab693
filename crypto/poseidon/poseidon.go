// Copyright 2026 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package poseidon implements the circuit-native hash used by the state trie
// and by contract code commitments. It is a thin layer over the Poseidon2
// permutation on the BN254 scalar field from gnark-crypto.
package poseidon

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
	"github.com/ethereum/go-ethereum/common"
)

// Domain separators prepended to fixed-arity inputs.
const (
	DomainBytes    uint64 = 256
	DomainCode     uint64 = 512
	DomainKey      uint64 = 768
	DomainLeaf     uint64 = 1
	DomainBranch   uint64 = 2
	codeChunkBytes        = 31
)

// Modulus returns the BN254 scalar field order.
func Modulus() *big.Int {
	return fr.Modulus()
}

// HashElems hashes an ordered list of field elements.
func HashElems(elems ...fr.Element) common.Hash {
	h := poseidon2.NewMerkleDamgardHasher()
	for i := range elems {
		b := elems[i].Bytes()
		if _, err := h.Write(b[:]); err != nil {
			// Canonical encodings are always accepted by the compressor.
			panic(err)
		}
	}
	return common.BytesToHash(h.Sum(nil))
}

// Element reduces an arbitrary big-endian byte string into a field element.
func Element(b []byte) fr.Element {
	var e fr.Element
	e.SetBytes(b)
	return e
}

// Uint64 returns the field element for v.
func Uint64(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

// IsCanonical reports whether the 32 byte big-endian word is smaller than the
// field modulus.
func IsCanonical(h common.Hash) bool {
	var e fr.Element
	return e.SetBytesCanonical(h[:]) == nil
}

// HashWord hashes a full 256-bit word by splitting it into two 128-bit halves,
// both of which always fit into the field.
func HashWord(w common.Hash) common.Hash {
	return HashElems(Uint64(DomainBytes), Element(w[:16]), Element(w[16:]))
}

// HashKey derives the trie path of an arbitrary key of at most 32 bytes.
func HashKey(key []byte) common.Hash {
	var w common.Hash
	w.SetBytes(key)
	return HashElems(Uint64(DomainKey), Element(w[:16]), Element(w[16:]))
}

// CodeHash computes the circuit-native commitment to contract code. The code
// is split into 31 byte chunks, each of which fits into one field element, and
// the byte length is appended so codes differing only by trailing zeroes hash
// differently.
func CodeHash(code []byte) common.Hash {
	elems := make([]fr.Element, 0, 2+(len(code)+codeChunkBytes-1)/codeChunkBytes)
	elems = append(elems, Uint64(DomainCode))
	for start := 0; start < len(code); start += codeChunkBytes {
		end := start + codeChunkBytes
		if end > len(code) {
			end = len(code)
		}
		chunk := make([]byte, codeChunkBytes)
		copy(chunk, code[start:end])
		elems = append(elems, Element(chunk))
	}
	elems = append(elems, Uint64(uint64(len(code))))
	return HashElems(elems...)
}

// EmptyCodeHash is the circuit-native hash of empty code.
var EmptyCodeHash = CodeHash(nil)
