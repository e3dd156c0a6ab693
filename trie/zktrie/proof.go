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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Prove returns the serialized nodes on the path from the root to the node
// terminating the lookup of key. For an absent key the proof ends at the
// empty slot or at the unrelated leaf occupying the path.
func (t *Trie) Prove(key common.Hash) ([][]byte, error) {
	var (
		proof [][]byte
		hash  = t.root
	)
	for depth := 0; ; depth++ {
		n, err := t.resolve(hash, key, depth)
		if err != nil {
			return nil, err
		}
		if n.Type == NodeTypeEmpty {
			return proof, nil
		}
		proof = append(proof, n.Serialize())
		if n.IsTerminal() {
			return proof, nil
		}
		if pathBit(key, depth) == 0 {
			hash = n.Left
		} else {
			hash = n.Right
		}
	}
}

// ProveDeletion returns the extra nodes needed to delete key from a trie
// that was reconstructed from Prove output: the sibling of the leaf's slot,
// which may be hoisted into the parent position once the leaf is gone.
func (t *Trie) ProveDeletion(key common.Hash) ([][]byte, error) {
	var (
		hash    = t.root
		sibling common.Hash
	)
	for depth := 0; ; depth++ {
		n, err := t.resolve(hash, key, depth)
		if err != nil {
			return nil, err
		}
		switch n.Type {
		case NodeTypeEmpty:
			return nil, nil
		case NodeTypeLeaf:
			if n.Key != key || sibling == (common.Hash{}) {
				return nil, nil
			}
			sib, err := t.resolve(sibling, key, depth)
			if err != nil {
				return nil, err
			}
			return [][]byte{sib.Serialize()}, nil
		}
		if pathBit(key, depth) == 0 {
			hash, sibling = n.Left, n.Right
		} else {
			hash, sibling = n.Right, n.Left
		}
	}
}

// VerifyProof checks a proof produced by Prove against root and returns the
// words stored under key, nil for a valid absence proof.
func VerifyProof(root, key common.Hash, proof [][]byte) ([]common.Hash, error) {
	nodes := make(map[common.Hash]*Node, len(proof))
	for i, blob := range proof {
		n, err := DeserializeNode(blob)
		if err != nil {
			return nil, fmt.Errorf("proof node %d: %w", i, err)
		}
		nodes[n.Hash()] = n
	}
	hash := root
	for depth := 0; ; depth++ {
		if hash == (common.Hash{}) {
			return nil, nil
		}
		n, ok := nodes[hash]
		if !ok {
			return nil, &MissingNodeError{Hash: hash, Key: key, Depth: depth}
		}
		switch n.Type {
		case NodeTypeLeaf:
			if n.Key != key {
				return nil, nil
			}
			return n.Values, nil
		case NodeTypeBranch:
			if pathBit(key, depth) == 0 {
				hash = n.Left
			} else {
				hash = n.Right
			}
		default:
			return nil, fmt.Errorf("%w: empty node referenced by hash %x", ErrProofHashMismatch, hash)
		}
	}
}
