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

package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/crypto/poseidon"
)

// StateDiff is the execution engine's view of the accounts a transaction
// touched, keyed by address.
type StateDiff map[common.Address]*AccountChange

// AccountChange is the post-state of one touched account.
type AccountChange struct {
	Info    AccountInfo                  `json:"info"`
	Storage map[common.Hash]*StorageSlot `json:"storage,omitempty"`
}

// AccountInfo holds the post-state account fields. Code is nil when the
// engine did not load the code; both hashes are then taken as given.
type AccountInfo struct {
	Balance        uint256.Int   `json:"balance"`
	Nonce          uint64        `json:"nonce"`
	CodeHash       common.Hash   `json:"codeHash"`       // circuit-native
	KeccakCodeHash common.Hash   `json:"keccakCodeHash"` // protocol-native
	Code           hexutil.Bytes `json:"code,omitempty"`
}

// StorageSlot is a slot's value at the start and end of the transaction.
type StorageSlot struct {
	Original uint256.Int `json:"originalValue"`
	Present  uint256.Int `json:"presentValue"`
}

// IsEmpty reports whether the post-state account is empty: no nonce, no
// balance and no code.
func (c *AccountChange) IsEmpty() bool {
	return c.Info.Nonce == 0 && c.Info.Balance.IsZero() && IsEmptyCodeHash(c.Info.CodeHash)
}

// IsEmptyCodeHash reports whether a circuit-native code hash denotes no code.
func IsEmptyCodeHash(h common.Hash) bool {
	return h == (common.Hash{}) || h == poseidon.EmptyCodeHash
}
