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

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/tkmct/zkwitness/crypto/poseidon"
)

// NodeType is the serialized discriminator of a trie node.
type NodeType byte

const (
	NodeTypeEmpty  NodeType = 0
	NodeTypeBranch NodeType = 1
	NodeTypeLeaf   NodeType = 2
)

const (
	// HashSize is the byte length of node hashes and hashed keys.
	HashSize = common.HashLength

	// MaxDepth bounds the path length. Hashed keys are field elements, so two
	// distinct keys always diverge before this depth.
	MaxDepth = 254

	// maxLeafValues bounds the number of words a single leaf may carry.
	maxLeafValues = 255
)

var (
	errInvalidNodeType = errors.New("invalid node type")
	errInvalidNodeSize = errors.New("invalid node size")
)

// Node is a sparse binary Merkle trie node. Branches reference their children
// by hash; leaves carry the hashed key and an ordered list of 32-byte words.
type Node struct {
	Type NodeType

	Left  common.Hash
	Right common.Hash

	Key    common.Hash
	Values []common.Hash

	hash *common.Hash
}

var emptyNode = &Node{Type: NodeTypeEmpty}

// NewBranchNode creates a branch from two child hashes.
func NewBranchNode(left, right common.Hash) *Node {
	return &Node{Type: NodeTypeBranch, Left: left, Right: right}
}

// NewLeafNode creates a leaf for the hashed key holding the given words.
func NewLeafNode(key common.Hash, values []common.Hash) *Node {
	cpy := make([]common.Hash, len(values))
	copy(cpy, values)
	return &Node{Type: NodeTypeLeaf, Key: key, Values: cpy}
}

// Hash returns the commitment of the node. The empty node commits to zero.
func (n *Node) Hash() common.Hash {
	if n.hash != nil {
		return *n.hash
	}
	var h common.Hash
	switch n.Type {
	case NodeTypeBranch:
		h = poseidon.HashElems(poseidon.Uint64(poseidon.DomainBranch), element(n.Left), element(n.Right))
	case NodeTypeLeaf:
		h = poseidon.HashElems(poseidon.Uint64(poseidon.DomainLeaf), element(n.Key), element(n.ValueHash()))
	}
	n.hash = &h
	return h
}

// ValueHash commits to the leaf words. Each word is split in two halves so
// values above the field modulus are representable.
func (n *Node) ValueHash() common.Hash {
	elems := make([]fr.Element, 0, 1+2*len(n.Values))
	elems = append(elems, poseidon.Uint64(uint64(len(n.Values))))
	for _, v := range n.Values {
		elems = append(elems, poseidon.Element(v[:16]), poseidon.Element(v[16:]))
	}
	return poseidon.HashElems(elems...)
}

// IsTerminal reports whether a traversal stops at this node.
func (n *Node) IsTerminal() bool {
	return n.Type != NodeTypeBranch
}

// Serialize encodes the node into its storage format:
//
//	empty:  0x00
//	branch: 0x01 || left || right
//	leaf:   0x02 || key || count || values...
func (n *Node) Serialize() []byte {
	switch n.Type {
	case NodeTypeBranch:
		out := make([]byte, 1+2*HashSize)
		out[0] = byte(NodeTypeBranch)
		copy(out[1:], n.Left[:])
		copy(out[1+HashSize:], n.Right[:])
		return out
	case NodeTypeLeaf:
		out := make([]byte, 2+HashSize+len(n.Values)*HashSize)
		out[0] = byte(NodeTypeLeaf)
		copy(out[1:], n.Key[:])
		out[1+HashSize] = byte(len(n.Values))
		for i, v := range n.Values {
			copy(out[2+HashSize+i*HashSize:], v[:])
		}
		return out
	default:
		return []byte{byte(NodeTypeEmpty)}
	}
}

// DeserializeNode decodes a node produced by Serialize.
func DeserializeNode(blob []byte) (*Node, error) {
	if len(blob) == 0 {
		return nil, errInvalidNodeSize
	}
	switch NodeType(blob[0]) {
	case NodeTypeEmpty:
		if len(blob) != 1 {
			return nil, fmt.Errorf("%w: empty node of %d bytes", errInvalidNodeSize, len(blob))
		}
		return &Node{Type: NodeTypeEmpty}, nil
	case NodeTypeBranch:
		if len(blob) != 1+2*HashSize {
			return nil, fmt.Errorf("%w: branch node of %d bytes", errInvalidNodeSize, len(blob))
		}
		return NewBranchNode(common.BytesToHash(blob[1:1+HashSize]), common.BytesToHash(blob[1+HashSize:])), nil
	case NodeTypeLeaf:
		if len(blob) < 2+HashSize {
			return nil, fmt.Errorf("%w: leaf node of %d bytes", errInvalidNodeSize, len(blob))
		}
		count := int(blob[1+HashSize])
		if len(blob) != 2+HashSize+count*HashSize {
			return nil, fmt.Errorf("%w: leaf with %d values has %d bytes", errInvalidNodeSize, count, len(blob))
		}
		values := make([]common.Hash, count)
		for i := range values {
			values[i] = common.BytesToHash(blob[2+HashSize+i*HashSize : 2+HashSize+(i+1)*HashSize])
		}
		return &Node{Type: NodeTypeLeaf, Key: common.BytesToHash(blob[1 : 1+HashSize]), Values: values}, nil
	default:
		return nil, fmt.Errorf("%w: %d", errInvalidNodeType, blob[0])
	}
}

// pathBit returns the branch direction of key at the given depth, counting
// from the least significant bit of the big-endian key.
func pathBit(key common.Hash, depth int) byte {
	return (key[HashSize-1-depth/8] >> (depth % 8)) & 1
}

func element(h common.Hash) fr.Element {
	return poseidon.Element(h[:])
}
