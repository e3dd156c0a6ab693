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

package rawdb

import (
	"bytes"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
)

// ReadBlockWitness retrieves the encoded witness of a block, nil if absent.
func ReadBlockWitness(db ethdb.KeyValueReader, number uint64, hash common.Hash) []byte {
	data, _ := db.Get(witnessKey(number, hash))
	return data
}

// HasBlockWitness reports whether a block's witness is stored.
func HasBlockWitness(db ethdb.KeyValueReader, number uint64, hash common.Hash) bool {
	ok, _ := db.Has(witnessKey(number, hash))
	return ok
}

// WriteBlockWitness stores the encoded witness of a block.
func WriteBlockWitness(db ethdb.KeyValueWriter, number uint64, hash common.Hash, blob []byte) {
	if err := db.Put(witnessKey(number, hash), blob); err != nil {
		log.Crit("Failed to store block witness", "number", number, "hash", hash, "err", err)
	}
}

// DeleteBlockWitness removes the witness of a block.
func DeleteBlockWitness(db ethdb.KeyValueWriter, number uint64, hash common.Hash) {
	if err := db.Delete(witnessKey(number, hash)); err != nil {
		log.Crit("Failed to delete block witness", "number", number, "hash", hash, "err", err)
	}
}

// ReadWitnessRoot retrieves the post-state root recorded with a witness.
func ReadWitnessRoot(db ethdb.KeyValueReader, number uint64) (common.Hash, bool) {
	data, _ := db.Get(witnessRootKey(number))
	if len(data) != common.HashLength {
		return common.Hash{}, false
	}
	return common.BytesToHash(data), true
}

// WriteWitnessRoot stores the post-state root of a block.
func WriteWitnessRoot(db ethdb.KeyValueWriter, number uint64, root common.Hash) {
	if err := db.Put(witnessRootKey(number), root.Bytes()); err != nil {
		log.Crit("Failed to store witness root", "number", number, "err", err)
	}
}

// ReadWitnessHead retrieves the highest block number with a stored witness.
func ReadWitnessHead(db ethdb.KeyValueReader) (uint64, bool) {
	data, _ := db.Get(witnessHeadKey)
	if len(data) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(data), true
}

// WriteWitnessHead stores the highest block number with a stored witness.
func WriteWitnessHead(db ethdb.KeyValueWriter, number uint64) {
	if err := db.Put(witnessHeadKey, encodeBlockNumber(number)); err != nil {
		log.Crit("Failed to store witness head", "err", err)
	}
}

// WriteBlockWitnessAtomic stores a witness with its root in one batch and
// advances the head when number is beyond it.
func WriteBlockWitnessAtomic(db ethdb.KeyValueStore, number uint64, hash, root common.Hash, blob []byte) error {
	batch := db.NewBatch()
	if err := batch.Put(witnessKey(number, hash), blob); err != nil {
		return err
	}
	if err := batch.Put(witnessRootKey(number), root.Bytes()); err != nil {
		return err
	}
	if head, ok := ReadWitnessHead(db); !ok || number > head {
		if err := batch.Put(witnessHeadKey, encodeBlockNumber(number)); err != nil {
			return err
		}
	}
	return batch.Write()
}

// IterateBlockWitnesses calls fn for every stored witness from block start
// on, in block order, until fn returns false.
func IterateBlockWitnesses(db ethdb.Iteratee, start uint64, fn func(number uint64, hash common.Hash, blob []byte) bool) error {
	it := db.NewIterator(witnessPrefix, encodeBlockNumber(start))
	defer it.Release()

	for it.Next() {
		key := it.Key()
		if len(key) != len(witnessPrefix)+8+common.HashLength || !bytes.HasPrefix(key, witnessPrefix) {
			continue
		}
		number := binary.BigEndian.Uint64(key[len(witnessPrefix):])
		hash := common.BytesToHash(key[len(witnessPrefix)+8:])
		if !fn(number, hash, common.CopyBytes(it.Value())) {
			break
		}
	}
	return it.Error()
}
