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

// Package rawdb contains the low level accessors of the witness store kept
// next to the trie nodes.
package rawdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// witnessPrefix + num (uint64 big endian) + hash -> encoded witness
	witnessPrefix = []byte("zkw-witness-")

	// witnessRootPrefix + num (uint64 big endian) -> post-state root
	witnessRootPrefix = []byte("zkw-root-")

	// witnessHeadKey tracks the highest block with a stored witness.
	witnessHeadKey = []byte("zkw-head")
)

// encodeBlockNumber encodes a block number as big endian uint64.
func encodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

// witnessKey = witnessPrefix + num (uint64 big endian) + hash
func witnessKey(number uint64, hash common.Hash) []byte {
	return append(append(append([]byte{}, witnessPrefix...), encodeBlockNumber(number)...), hash.Bytes()...)
}

// witnessRootKey = witnessRootPrefix + num (uint64 big endian)
func witnessRootKey(number uint64) []byte {
	return append(append([]byte{}, witnessRootPrefix...), encodeBlockNumber(number)...)
}
