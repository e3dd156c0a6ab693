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

// Package state implements the flat account/storage view of the witness
// builder and the database that keeps it in lockstep with the state trie.
package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/core/types"
	"github.com/tkmct/zkwitness/trie/zktrie"
)

// Account is the flat record of an account. CodeHash is the circuit-native
// code hash, KeccakCodeHash the protocol-native one.
type Account struct {
	Nonce          uint64
	Balance        uint256.Int
	CodeHash       common.Hash
	KeccakCodeHash common.Hash
	CodeSize       uint64
}

// IsEmpty reports whether the account has no nonce, no balance and no code.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && types.IsEmptyCodeHash(a.CodeHash)
}

func accountFromData(data *zktrie.AccountData) *Account {
	return &Account{
		Nonce:          data.Nonce,
		Balance:        data.Balance,
		CodeHash:       data.PoseidonCodeHash,
		KeccakCodeHash: data.KeccakCodeHash,
		CodeSize:       data.CodeSize,
	}
}

// StateDB is the flat state of one block. Reads never fail: an untouched
// account or slot reads as zero. Only the proof loader and Commit mutate it.
type StateDB struct {
	accounts map[common.Address]*Account
	storage  map[common.Address]map[common.Hash]uint256.Int
}

// NewStateDB returns an empty flat store.
func NewStateDB() *StateDB {
	return &StateDB{
		accounts: make(map[common.Address]*Account),
		storage:  make(map[common.Address]map[common.Hash]uint256.Int),
	}
}

// GetAccount returns a copy of the account and whether it is known. An
// unknown address yields the zero account.
func (s *StateDB) GetAccount(addr common.Address) (bool, *Account) {
	acc, ok := s.accounts[addr]
	if !ok {
		return false, new(Account)
	}
	cpy := *acc
	return true, &cpy
}

// GetStorage returns a slot value and whether the slot is set.
func (s *StateDB) GetStorage(addr common.Address, key common.Hash) (bool, uint256.Int) {
	v, ok := s.storage[addr][key]
	return ok, v
}

// Len returns the number of known accounts.
func (s *StateDB) Len() int {
	return len(s.accounts)
}

// account returns the mutable record of addr, creating a zero one.
func (s *StateDB) account(addr common.Address) *Account {
	acc, ok := s.accounts[addr]
	if !ok {
		acc = new(Account)
		s.accounts[addr] = acc
	}
	return acc
}

func (s *StateDB) setAccount(addr common.Address, acc *Account) {
	s.accounts[addr] = acc
}

func (s *StateDB) setStorage(addr common.Address, key common.Hash, value uint256.Int) {
	slots, ok := s.storage[addr]
	if !ok {
		slots = make(map[common.Hash]uint256.Int)
		s.storage[addr] = slots
	}
	slots[key] = value
}

func (s *StateDB) deleteStorage(addr common.Address, key common.Hash) {
	delete(s.storage[addr], key)
}
