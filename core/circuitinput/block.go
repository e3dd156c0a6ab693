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

package circuitinput

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/core/operation"
	"github.com/tkmct/zkwitness/core/types"
)

// Block is the witness of one block.
type Block struct {
	ChainID       uint64
	Number        uint64
	Hash          common.Hash
	Coinbase      common.Address
	Timestamp     uint64
	PrevStateRoot common.Hash
	StateRoot     common.Hash

	Txs        []*Transaction
	Container  *operation.Container
	CopyEvents []*CopyEvent
}

// NewBlock creates an empty block witness carrying the trace's header.
func NewBlock(trace *types.BlockTrace) *Block {
	b := &Block{
		ChainID:   trace.ChainID,
		Number:    trace.Number,
		Hash:      trace.Hash,
		Coinbase:  trace.Coinbase,
		Timestamp: trace.Timestamp,
		Container: operation.NewContainer(),
	}
	if trace.StorageTrace != nil {
		b.PrevStateRoot = trace.StorageTrace.RootBefore
	}
	return b
}

// Transaction is the witness of one transaction.
type Transaction struct {
	ID          uint64 // 1-based position in the block
	Hash        common.Hash
	From        common.Address
	To          *common.Address
	Nonce       uint64
	Value       uint256.Int
	Data        []byte
	Failed      bool
	ReturnValue []byte

	Calls []*Call
	Steps []*ExecStep
}

// BlockContext is the state shared by all transactions of a block.
type BlockContext struct {
	rwc operation.RWCounter
}

// NewBlockContext returns a context whose first row gets counter 1.
func NewBlockContext() *BlockContext {
	return &BlockContext{rwc: 1}
}

// RWC returns the counter the next row will get.
func (c *BlockContext) RWC() operation.RWCounter {
	return c.rwc
}
