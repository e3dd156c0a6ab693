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
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/tkmct/zkwitness/core/operation"
)

// ExecState distinguishes opcode steps from synthetic ones.
type ExecState uint8

const (
	StateOpcode ExecState = iota
	StateBeginTx
)

// ExecStep is the witness of one struct log, or of the transaction setup.
// Steps are immutable once appended to their transaction.
type ExecStep struct {
	State     ExecState
	PC        uint64
	Op        vm.OpCode
	Depth     int
	Gas       uint64
	GasCost   uint64
	CallIndex int
	CallID    uint64
	Error     string

	// RWCounter is the row counter before the step's first row.
	RWCounter operation.RWCounter
	Ops       []operation.OperationRef

	CopyEvents         []*CopyEvent
	CopyRWCounterDelta uint64 // rows emitted by the step's copies
	LogID              uint64 // set by LOG steps, 1-based within the tx
}
