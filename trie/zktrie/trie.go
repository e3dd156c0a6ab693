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

// Package zktrie implements the sparse binary Merkle trie committing to the
// account and storage state of the zkEVM. Leaves sit at the shallowest depth
// at which their hashed key is unique, which makes the root a function of
// the leaf set alone, independent of insertion order.
package zktrie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Trie is a handle on one root inside a node Database. Every mutation writes
// the new nodes through to the database immediately; the handle only tracks
// the current root. Trie is not safe for concurrent use.
type Trie struct {
	db   *Database
	root common.Hash
}

// New opens a trie; see Database.NewTrie.
func New(root common.Hash, db *Database) (*Trie, error) {
	return db.NewTrie(root)
}

// Hash returns the current root hash.
func (t *Trie) Hash() common.Hash {
	return t.root
}

// Database returns the node store backing the trie.
func (t *Trie) Database() *Database {
	return t.db
}

// Copy returns an independent handle on the same root.
func (t *Trie) Copy() *Trie {
	return &Trie{db: t.db, root: t.root}
}

// TryGet returns the words stored under the hashed key, or nil if the key is
// provably absent. A path that cannot be resolved yields a MissingNodeError.
func (t *Trie) TryGet(key common.Hash) ([]common.Hash, error) {
	hash := t.root
	for depth := 0; ; depth++ {
		n, err := t.resolve(hash, key, depth)
		if err != nil {
			return nil, err
		}
		switch n.Type {
		case NodeTypeEmpty:
			return nil, nil
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
		}
	}
}

// TryUpdate inserts or replaces the leaf under the hashed key.
func (t *Trie) TryUpdate(key common.Hash, values []common.Hash) error {
	if len(values) > maxLeafValues {
		return fmt.Errorf("%w: %d", ErrTooManyValues, len(values))
	}
	root, err := t.insert(t.root, NewLeafNode(key, values), 0)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// TryDelete removes the leaf under the hashed key. Deleting an absent key is
// a no-op.
func (t *Trie) TryDelete(key common.Hash) error {
	root, _, err := t.delete(t.root, key, 0)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

func (t *Trie) resolve(hash, key common.Hash, depth int) (*Node, error) {
	n, err := t.db.node(hash)
	if err != nil {
		if mn, ok := err.(*MissingNodeError); ok {
			mn.Key, mn.Depth = key, depth
		}
		return nil, err
	}
	return n, nil
}

func (t *Trie) insert(hash common.Hash, leaf *Node, depth int) (common.Hash, error) {
	if depth >= MaxDepth {
		return common.Hash{}, ErrMaxDepth
	}
	n, err := t.resolve(hash, leaf.Key, depth)
	if err != nil {
		return common.Hash{}, err
	}
	switch n.Type {
	case NodeTypeEmpty:
		return t.db.put(leaf)
	case NodeTypeLeaf:
		if n.Key == leaf.Key {
			return t.db.put(leaf)
		}
		return t.split(leaf, n, depth)
	default:
		left, right := n.Left, n.Right
		if pathBit(leaf.Key, depth) == 0 {
			left, err = t.insert(left, leaf, depth+1)
		} else {
			right, err = t.insert(right, leaf, depth+1)
		}
		if err != nil {
			return common.Hash{}, err
		}
		return t.db.put(NewBranchNode(left, right))
	}
}

// split pushes two leaves with distinct keys down until their paths diverge.
func (t *Trie) split(fresh, existing *Node, depth int) (common.Hash, error) {
	if depth >= MaxDepth {
		return common.Hash{}, ErrMaxDepth
	}
	freshHash, err := t.db.put(fresh)
	if err != nil {
		return common.Hash{}, err
	}
	existingHash := existing.Hash()

	// Walk down the shared prefix first, then build the branches bottom-up.
	shared := depth
	for pathBit(fresh.Key, shared) == pathBit(existing.Key, shared) {
		shared++
		if shared >= MaxDepth {
			return common.Hash{}, ErrMaxDepth
		}
	}
	var child common.Hash
	if pathBit(fresh.Key, shared) == 0 {
		child, err = t.db.put(NewBranchNode(freshHash, existingHash))
	} else {
		child, err = t.db.put(NewBranchNode(existingHash, freshHash))
	}
	if err != nil {
		return common.Hash{}, err
	}
	for d := shared - 1; d >= depth; d-- {
		if pathBit(fresh.Key, d) == 0 {
			child, err = t.db.put(NewBranchNode(child, common.Hash{}))
		} else {
			child, err = t.db.put(NewBranchNode(common.Hash{}, child))
		}
		if err != nil {
			return common.Hash{}, err
		}
	}
	return child, nil
}

// delete returns the new subtree hash and whether the key was found.
func (t *Trie) delete(hash, key common.Hash, depth int) (common.Hash, bool, error) {
	n, err := t.resolve(hash, key, depth)
	if err != nil {
		return common.Hash{}, false, err
	}
	switch n.Type {
	case NodeTypeEmpty:
		return hash, false, nil
	case NodeTypeLeaf:
		if n.Key != key {
			return hash, false, nil
		}
		return common.Hash{}, true, nil
	}
	var (
		child, sibling common.Hash
		goLeft         = pathBit(key, depth) == 0
	)
	if goLeft {
		child, sibling = n.Left, n.Right
	} else {
		child, sibling = n.Right, n.Left
	}
	newChild, found, err := t.delete(child, key, depth+1)
	if err != nil || !found {
		return hash, found, err
	}
	// Restore the canonical shape: a branch never holds a single leaf next to
	// an empty slot, so a lone leaf is hoisted into the parent position.
	switch {
	case newChild == (common.Hash{}) && sibling == (common.Hash{}):
		return common.Hash{}, true, nil
	case newChild == (common.Hash{}):
		sib, err := t.resolve(sibling, key, depth+1)
		if err != nil {
			return common.Hash{}, false, err
		}
		if sib.Type == NodeTypeLeaf {
			return sibling, true, nil
		}
	case sibling == (common.Hash{}):
		nc, err := t.resolve(newChild, key, depth+1)
		if err != nil {
			return common.Hash{}, false, err
		}
		if nc.Type == NodeTypeLeaf {
			return newChild, true, nil
		}
	}
	var branch *Node
	if goLeft {
		branch = NewBranchNode(newChild, sibling)
	} else {
		branch = NewBranchNode(sibling, newChild)
	}
	newHash, err := t.db.put(branch)
	return newHash, true, err
}
