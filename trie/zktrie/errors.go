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

package zktrie

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrMissingNode is returned when a node needed for a traversal is not in
	// the node store. The pre-state proofs did not cover the accessed path.
	ErrMissingNode = errors.New("missing trie node")

	// ErrProofHashMismatch is returned when a proof node's hash doesn't match
	// the reference held by its parent.
	ErrProofHashMismatch = errors.New("proof node hash mismatch")

	// ErrMaxDepth is returned when an insertion would exceed MaxDepth.
	ErrMaxDepth = errors.New("trie reached maximum depth")

	// ErrInvalidAccountLeaf is returned when a leaf does not decode into
	// account data.
	ErrInvalidAccountLeaf = errors.New("invalid account leaf")

	// ErrTooManyValues is returned for leaves carrying more words than the
	// encoding can represent.
	ErrTooManyValues = errors.New("too many leaf values")
)

// MissingNodeError identifies the node that could not be resolved.
type MissingNodeError struct {
	Hash  common.Hash // hash of the missing node
	Key   common.Hash // hashed key being traversed, zero for root loads
	Depth int         // depth at which the node was referenced
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("missing trie node %x (key %x, depth %d)", e.Hash, e.Key, e.Depth)
}

func (e *MissingNodeError) Unwrap() error {
	return ErrMissingNode
}
