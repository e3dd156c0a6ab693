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
	"context"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/core/types"
	"github.com/tkmct/zkwitness/trie/zktrie"
)

// EvmDatabase owns the flat state, the code store and the state trie of one
// block and keeps them in lockstep. It is not safe for concurrent use; every
// block gets its own instance.
type EvmDatabase struct {
	txID   int
	codeDB *CodeDB
	sdb    *StateDB
	nodes  *zktrie.Database
	trie   *zktrie.Trie
}

// New builds the pre-state of a block from the proofs in its trace. Every
// account and storage proof is verified against the trace's pre-state root
// before its leaf enters the flat store. A nil nodes argument selects an
// in-memory node store.
func New(trace *types.BlockTrace, nodes *zktrie.Database) (*EvmDatabase, error) {
	st := trace.StorageTrace
	if st == nil {
		return nil, ErrNoStorageTrace
	}
	if nodes == nil {
		nodes = zktrie.NewMemoryDatabase()
	}
	var (
		sdb          = NewStateDB()
		storageRoots = make(map[common.Address]common.Hash)
		slots        int
	)
	for _, addr := range sortedAddresses(st.Proofs) {
		data, err := nodes.ImportAccountProof(st.RootBefore, addr, types.ProofBytes(st.Proofs[addr]))
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}
		log.Trace("Loaded account from proof", "address", addr, "nonce", data.Nonce, "balance", &data.Balance)
		sdb.setAccount(addr, accountFromData(data))
		storageRoots[addr] = data.StorageRoot
	}
	for _, addr := range sortedAddresses(st.StorageProofs) {
		for slot, proof := range st.StorageProofs[addr] {
			value, err := nodes.ImportStorageProof(storageRoots[addr], slot, types.ProofBytes(proof))
			if err != nil {
				return nil, fmt.Errorf("account %s: %w", addr, err)
			}
			if value != (common.Hash{}) {
				sdb.setStorage(addr, slot, *new(uint256.Int).SetBytes32(value[:]))
				slots++
			}
		}
	}
	for i, blob := range st.DeletionProofs {
		if _, err := nodes.AddProofNode(blob); err != nil {
			return nil, fmt.Errorf("deletion proof %d: %w", i, err)
		}
	}
	codeDB := NewCodeDB()
	for _, code := range trace.Codes {
		codeDB.Insert(code)
	}
	for addr, acc := range sdb.accounts {
		if _, ok := codeDB.Get(acc.CodeHash); !ok {
			log.Warn("Code missing from block trace", "address", addr, "codehash", acc.CodeHash)
		}
	}
	trie, err := nodes.NewTrie(st.RootBefore)
	if err != nil {
		return nil, err
	}
	proofAccountsGauge.Update(int64(sdb.Len()))
	proofStorageGauge.Update(int64(slots))
	log.Debug("Built partial state from proofs", "root", trie.Hash(), "accounts", sdb.Len(), "slots", slots, "codes", codeDB.Len())

	return &EvmDatabase{
		txID:   1,
		codeDB: codeDB,
		sdb:    sdb,
		nodes:  nodes,
		trie:   trie,
	}, nil
}

// Root returns the current state root.
func (db *EvmDatabase) Root() common.Hash {
	return db.trie.Hash()
}

// TxID returns the id of the next transaction to commit, starting at 1.
func (db *EvmDatabase) TxID() int {
	return db.txID
}

// StateDB returns the flat store. Its mutators are unexported, so callers
// can only read through it.
func (db *EvmDatabase) StateDB() *StateDB {
	return db.sdb
}

// CodeDB returns the code store.
func (db *EvmDatabase) CodeDB() *CodeDB {
	return db.codeDB
}

// GetAccount reads an account from the flat store.
func (db *EvmDatabase) GetAccount(addr common.Address) (bool, *Account) {
	return db.sdb.GetAccount(addr)
}

// GetCode looks code up by circuit-native hash.
func (db *EvmDatabase) GetCode(hash common.Hash) ([]byte, bool) {
	return db.codeDB.Get(hash)
}

// Basic returns the account the execution engine sees, with its code
// loaded, or nil when the account is unknown.
func (db *EvmDatabase) Basic(addr common.Address) *types.AccountInfo {
	exist, acc := db.sdb.GetAccount(addr)
	log.Trace("Loaded account", "address", addr, "exist", exist)
	if !exist {
		return nil
	}
	code, _ := db.codeDB.Get(acc.CodeHash)
	return &types.AccountInfo{
		Balance:        acc.Balance,
		Nonce:          acc.Nonce,
		CodeHash:       acc.CodeHash,
		KeccakCodeHash: acc.KeccakCodeHash,
		Code:           common.CopyBytes(code),
	}
}

// Storage returns a storage value, zero when unset.
func (db *EvmDatabase) Storage(addr common.Address, key common.Hash) uint256.Int {
	_, v := db.sdb.GetStorage(addr, key)
	return v
}

// CodeByHash returns code by circuit-native hash.
func (db *EvmDatabase) CodeByHash(hash common.Hash) ([]byte, error) {
	code, ok := db.codeDB.Get(hash)
	if !ok {
		return nil, fmt.Errorf("%w: %x", ErrCodeNotFound, hash)
	}
	return code, nil
}

// Commit applies the post-state of one transaction to the flat store and the
// trie. Accounts that were empty and stay empty are skipped. A failure leaves
// the database unusable for the rest of the block.
func (db *EvmDatabase) Commit(diff types.StateDiff) error {
	defer func(start time.Time) { commitTimer.UpdateSince(start) }(time.Now())

	for _, addr := range sortedAddresses(diff) {
		incoming := diff[addr]
		_, current := db.sdb.GetAccount(addr)
		wasEmpty := current.IsEmpty()
		if wasEmpty && incoming.IsEmpty() {
			commitSkippedCounter.Inc(1)
			continue
		}
		if err := db.commitAccount(addr, incoming, wasEmpty); err != nil {
			return &CommitError{TxID: db.txID, Address: addr, Err: err}
		}
		commitAccountsMeter.Mark(1)
	}
	log.Debug("Committed transaction state", "tx", db.txID, "accounts", len(diff), "root", db.trie.Hash())
	db.txID++
	return nil
}

func (db *EvmDatabase) commitAccount(addr common.Address, incoming *types.AccountChange, wasEmpty bool) error {
	acc := db.sdb.account(addr)
	if log.Root().Enabled(context.Background(), log.LevelTrace) {
		dump := *incoming
		dump.Info.Code = nil
		log.Trace("Committing account", "address", addr, "incoming", spew.Sdump(&dump), "current", spew.Sdump(acc))
	}
	data, err := db.trie.GetAccount(addr)
	if err != nil {
		return err
	}
	if data == nil {
		data = new(zktrie.AccountData)
	}
	if len(incoming.Storage) > 0 {
		storage, err := db.nodes.NewTrie(data.StorageRoot)
		if err != nil {
			return fmt.Errorf("storage trie: %w", err)
		}
		for _, key := range sortedSlots(incoming) {
			slot := incoming.Storage[key]
			switch {
			case !slot.Present.IsZero():
				db.sdb.setStorage(addr, key, slot.Present)
				if err := storage.UpdateStorage(key, slot.Present.Bytes32()); err != nil {
					return fmt.Errorf("slot %x: %w", key, err)
				}
				storageUpdateMeter.Mark(1)
			case !slot.Original.IsZero():
				db.sdb.deleteStorage(addr, key)
				if err := storage.DeleteStorage(key); err != nil {
					return fmt.Errorf("slot %x: %w", key, err)
				}
				storageDeleteMeter.Mark(1)
			}
		}
		data.StorageRoot = storage.Hash()
	}
	if !acc.Balance.Eq(&incoming.Info.Balance) {
		acc.Balance = incoming.Info.Balance
		data.Balance = incoming.Info.Balance
	}
	if acc.Nonce != incoming.Info.Nonce {
		acc.Nonce = incoming.Info.Nonce
		data.Nonce = incoming.Info.Nonce
	}
	if (wasEmpty && !incoming.IsEmpty()) || acc.CodeHash != incoming.Info.CodeHash {
		codeHash, keccakHash, size, err := db.codeHashes(&incoming.Info)
		if err != nil {
			return err
		}
		acc.CodeHash, acc.KeccakCodeHash, acc.CodeSize = codeHash, keccakHash, size
		data.PoseidonCodeHash, data.KeccakCodeHash, data.CodeSize = codeHash, keccakHash, size
	}
	return db.trie.UpdateAccount(addr, data)
}

// codeHashes derives the circuit-native hash, the protocol-native hash and
// the size of the incoming code. Both hashes are computed independently from
// the code when it is present; otherwise the claimed hashes are taken and the
// size comes from the code store.
func (db *EvmDatabase) codeHashes(info *types.AccountInfo) (common.Hash, common.Hash, uint64, error) {
	if info.Code == nil {
		var size uint64
		if code, ok := db.codeDB.Get(info.CodeHash); ok {
			size = uint64(len(code))
		}
		return info.CodeHash, info.KeccakCodeHash, size, nil
	}
	codeHash := db.codeDB.Insert(info.Code)
	keccakHash := crypto.Keccak256Hash(info.Code)
	if info.CodeHash != (common.Hash{}) && info.CodeHash != codeHash {
		return common.Hash{}, common.Hash{}, 0, fmt.Errorf("%w: circuit hash %x, code hashes to %x", ErrCodeHashMismatch, info.CodeHash, codeHash)
	}
	if info.KeccakCodeHash != (common.Hash{}) && info.KeccakCodeHash != keccakHash {
		return common.Hash{}, common.Hash{}, 0, fmt.Errorf("%w: keccak hash %x, code hashes to %x", ErrCodeHashMismatch, info.KeccakCodeHash, keccakHash)
	}
	return codeHash, keccakHash, uint64(len(info.Code)), nil
}

// VerifyRoot compares the current root with the expected one.
func (db *EvmDatabase) VerifyRoot(expected common.Hash) error {
	if got := db.trie.Hash(); got != expected {
		rootMismatchesCounter.Inc(1)
		return &RootMismatchError{TxID: db.txID - 1, Expected: expected, Got: got}
	}
	return nil
}
