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

// Package types defines the block trace consumed by witness generation: the
// pre-state proofs, per-transaction struct logs produced by the tracer and
// the post-transaction state diffs produced by the execution engine.
package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// BlockTrace is everything needed to regenerate the witness of one block.
type BlockTrace struct {
	ChainID          uint64             `json:"chainID"`
	Number           uint64             `json:"number"`
	Hash             common.Hash        `json:"hash"`
	Coinbase         common.Address     `json:"coinbase"`
	Timestamp        uint64             `json:"timestamp"`
	GasLimit         uint64             `json:"gasLimit"`
	StorageTrace     *StorageTrace      `json:"storageTrace"`
	Codes            []hexutil.Bytes    `json:"codes"`
	Transactions     []*TransactionData `json:"transactions"`
	ExecutionResults []*ExecutionResult `json:"executionResults"`
	StateDiffs       []StateDiff        `json:"stateDiffs"`
}

// StorageTrace carries the proofs establishing the pre-state of the block.
// Every node in Proofs, StorageProofs and DeletionProofs is a serialized
// state trie node.
type StorageTrace struct {
	RootBefore     common.Hash                                          `json:"rootBefore"`
	RootAfter      common.Hash                                          `json:"rootAfter"`
	Proofs         map[common.Address][]hexutil.Bytes                   `json:"proofs"`
	StorageProofs  map[common.Address]map[common.Hash][]hexutil.Bytes `json:"storageProofs"`
	DeletionProofs []hexutil.Bytes                                      `json:"deletionProofs"`
}

// TransactionData is the subset of a transaction the witness builder needs.
type TransactionData struct {
	Hash  common.Hash     `json:"txHash"`
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"` // nil for contract creation
	Nonce uint64          `json:"nonce"`
	Gas   uint64          `json:"gas"`
	Value *uint256.Int    `json:"value"`
	Data  hexutil.Bytes   `json:"data"`
}

// IsCreate reports whether the transaction deploys a contract.
func (tx *TransactionData) IsCreate() bool {
	return tx.To == nil
}

// ExecutionResult is the tracer output for one transaction.
type ExecutionResult struct {
	Gas         uint64        `json:"gas"`
	Failed      bool          `json:"failed"`
	ReturnValue hexutil.Bytes `json:"returnValue"`
	StructLogs  []*StructLog  `json:"structLogs"`
}

// ProofBytes flattens a proof for the node store.
func ProofBytes(proof []hexutil.Bytes) [][]byte {
	out := make([][]byte, len(proof))
	for i, p := range proof {
		out[i] = p
	}
	return out
}
