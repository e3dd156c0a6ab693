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

// ImportAccountProof stores the nodes of an account proof and returns the
// account it proves against root, nil when the proof shows absence.
func (db *Database) ImportAccountProof(root common.Hash, addr common.Address, proof [][]byte) (*AccountData, error) {
	if err := db.AddProof(proof); err != nil {
		return nil, fmt.Errorf("account proof %s: %w", addr, err)
	}
	values, err := VerifyProof(root, AccountKey(addr), proof)
	if err != nil {
		return nil, fmt.Errorf("account proof %s: %w", addr, err)
	}
	if values == nil {
		return nil, nil
	}
	return DecodeAccountData(values)
}

// ImportStorageProof stores the nodes of a storage proof and returns the slot
// value it proves against the account's storage root.
func (db *Database) ImportStorageProof(storageRoot, slot common.Hash, proof [][]byte) (common.Hash, error) {
	if err := db.AddProof(proof); err != nil {
		return common.Hash{}, fmt.Errorf("storage proof %x: %w", slot, err)
	}
	values, err := VerifyProof(storageRoot, StorageKey(slot), proof)
	if err != nil {
		return common.Hash{}, fmt.Errorf("storage proof %x: %w", slot, err)
	}
	if len(values) == 0 {
		return common.Hash{}, nil
	}
	return values[0], nil
}
