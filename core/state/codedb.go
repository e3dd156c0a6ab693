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

package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/tkmct/zkwitness/crypto/poseidon"
)

// CodeDB maps circuit-native code hashes to code.
type CodeDB struct {
	codes map[common.Hash][]byte
}

// NewCodeDB returns a code store that already knows the empty code.
func NewCodeDB() *CodeDB {
	db := &CodeDB{codes: make(map[common.Hash][]byte)}
	db.Insert(nil)
	return db
}

// Insert stores code and returns its hash.
func (db *CodeDB) Insert(code []byte) common.Hash {
	hash := poseidon.CodeHash(code)
	if _, ok := db.codes[hash]; !ok {
		db.codes[hash] = common.CopyBytes(code)
	}
	return hash
}

// Get returns the code with the given hash.
func (db *CodeDB) Get(hash common.Hash) ([]byte, bool) {
	if hash == (common.Hash{}) {
		hash = poseidon.EmptyCodeHash
	}
	code, ok := db.codes[hash]
	return code, ok
}

// Len returns the number of distinct codes stored.
func (db *CodeDB) Len() int {
	return len(db.codes)
}
