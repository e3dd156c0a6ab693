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

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/log"
)

// Database is a content-addressed node store shared by the account trie and
// all storage tries of one block. Nodes are keyed by their own hash, so junk
// injected through proofs can never be reached from a valid root.
type Database struct {
	diskdb ethdb.KeyValueStore
	cleans *fastcache.Cache // nil when caching is disabled
}

// NewDatabase wraps the given key-value store. A positive cacheSize (in bytes)
// enables a clean node cache in front of the store.
func NewDatabase(diskdb ethdb.KeyValueStore, cacheSize int) *Database {
	db := &Database{diskdb: diskdb}
	if cacheSize > 0 {
		db.cleans = fastcache.New(cacheSize)
	}
	return db
}

// NewMemoryDatabase creates an uncached node store backed by memory.
func NewMemoryDatabase() *Database {
	return NewDatabase(memorydb.New(), 0)
}

// node resolves a node by hash. The zero hash is the empty node.
func (db *Database) node(hash common.Hash) (*Node, error) {
	if hash == (common.Hash{}) {
		return emptyNode, nil
	}
	nodeReadMeter.Mark(1)
	if db.cleans != nil {
		if blob, ok := db.cleans.HasGet(nil, hash[:]); ok {
			nodeCacheHitMeter.Mark(1)
			return decodeStored(hash, blob)
		}
	}
	blob, err := db.diskdb.Get(hash[:])
	if err != nil || len(blob) == 0 {
		nodeMissingCounter.Inc(1)
		return nil, &MissingNodeError{Hash: hash}
	}
	if db.cleans != nil {
		db.cleans.Set(hash[:], blob)
	}
	return decodeStored(hash, blob)
}

func decodeStored(hash common.Hash, blob []byte) (*Node, error) {
	n, err := DeserializeNode(blob)
	if err != nil {
		return nil, fmt.Errorf("corrupt node %x: %w", hash, err)
	}
	n.hash = &hash
	return n, nil
}

// put stores the node under its hash and returns the hash.
func (db *Database) put(n *Node) (common.Hash, error) {
	hash := n.Hash()
	if n.Type == NodeTypeEmpty {
		return hash, nil
	}
	blob := n.Serialize()
	if err := db.diskdb.Put(hash[:], blob); err != nil {
		return common.Hash{}, err
	}
	if db.cleans != nil {
		db.cleans.Set(hash[:], blob)
	}
	nodeWriteMeter.Mark(1)
	return hash, nil
}

// Has reports whether the node with the given hash is resolvable.
func (db *Database) Has(hash common.Hash) bool {
	if hash == (common.Hash{}) {
		return true
	}
	ok, err := db.diskdb.Has(hash[:])
	return err == nil && ok
}

// AddProofNode imports one serialized node, storing it under its recomputed
// hash, and returns that hash.
func (db *Database) AddProofNode(blob []byte) (common.Hash, error) {
	n, err := DeserializeNode(blob)
	if err != nil {
		return common.Hash{}, err
	}
	proofNodesCounter.Inc(1)
	return db.put(n)
}

// AddProof imports every node of a proof path.
func (db *Database) AddProof(proof [][]byte) error {
	for i, blob := range proof {
		if _, err := db.AddProofNode(blob); err != nil {
			return fmt.Errorf("proof node %d: %w", i, err)
		}
	}
	return nil
}

// NewTrie opens the trie rooted at root. The root node must be resolvable.
func (db *Database) NewTrie(root common.Hash) (*Trie, error) {
	if !db.Has(root) {
		log.Debug("Trie root not in node store", "root", root)
		return nil, &MissingNodeError{Hash: root}
	}
	return &Trie{db: db, root: root}, nil
}
