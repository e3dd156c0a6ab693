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
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/crypto/poseidon"
)

// accountValueCount is the number of words in an account leaf.
const accountValueCount = 5

// AccountData is the composite value committed at an account's position in
// the state trie. Both code hashes are first-class fields; neither is derived
// from the other.
type AccountData struct {
	Nonce            uint64
	CodeSize         uint64
	Balance          uint256.Int
	StorageRoot      common.Hash
	KeccakCodeHash   common.Hash
	PoseidonCodeHash common.Hash
}

// Values encodes the account into leaf words:
//
//	[0] codeSize (bytes 16..24) || nonce (bytes 24..32)
//	[1] balance
//	[2] storage root
//	[3] keccak code hash
//	[4] poseidon code hash
func (a *AccountData) Values() []common.Hash {
	var packed common.Hash
	binary.BigEndian.PutUint64(packed[16:24], a.CodeSize)
	binary.BigEndian.PutUint64(packed[24:32], a.Nonce)
	return []common.Hash{
		packed,
		a.Balance.Bytes32(),
		a.StorageRoot,
		a.KeccakCodeHash,
		a.PoseidonCodeHash,
	}
}

// DecodeAccountData is the inverse of Values.
func DecodeAccountData(values []common.Hash) (*AccountData, error) {
	if len(values) != accountValueCount {
		return nil, fmt.Errorf("%w: %d words", ErrInvalidAccountLeaf, len(values))
	}
	packed := values[0]
	for _, b := range packed[:16] {
		if b != 0 {
			return nil, fmt.Errorf("%w: dirty nonce word %x", ErrInvalidAccountLeaf, packed)
		}
	}
	acc := &AccountData{
		CodeSize:         binary.BigEndian.Uint64(packed[16:24]),
		Nonce:            binary.BigEndian.Uint64(packed[24:32]),
		StorageRoot:      values[2],
		KeccakCodeHash:   values[3],
		PoseidonCodeHash: values[4],
	}
	acc.Balance.SetBytes32(values[1][:])
	return acc, nil
}

// AccountKey is the hashed trie key of an address.
func AccountKey(addr common.Address) common.Hash {
	return poseidon.HashKey(addr.Bytes())
}

// StorageKey is the hashed trie key of a storage slot.
func StorageKey(slot common.Hash) common.Hash {
	return poseidon.HashKey(slot[:])
}

// GetAccount returns the account stored for addr, or nil when absent.
func (t *Trie) GetAccount(addr common.Address) (*AccountData, error) {
	values, err := t.TryGet(AccountKey(addr))
	if err != nil || values == nil {
		return nil, err
	}
	return DecodeAccountData(values)
}

// UpdateAccount writes the composite leaf for addr.
func (t *Trie) UpdateAccount(addr common.Address, acc *AccountData) error {
	return t.TryUpdate(AccountKey(addr), acc.Values())
}

// GetStorage returns the value of a slot, zero when absent.
func (t *Trie) GetStorage(slot common.Hash) (common.Hash, error) {
	values, err := t.TryGet(StorageKey(slot))
	if err != nil || values == nil {
		return common.Hash{}, err
	}
	if len(values) != 1 {
		return common.Hash{}, fmt.Errorf("storage leaf for %x has %d words", slot, len(values))
	}
	return values[0], nil
}

// UpdateStorage writes a slot value. A zero value deletes the slot.
func (t *Trie) UpdateStorage(slot, value common.Hash) error {
	if value == (common.Hash{}) {
		return t.DeleteStorage(slot)
	}
	return t.TryUpdate(StorageKey(slot), []common.Hash{value})
}

// DeleteStorage removes a slot from the storage trie.
func (t *Trie) DeleteStorage(slot common.Hash) error {
	return t.TryDelete(StorageKey(slot))
}
