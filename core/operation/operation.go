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

// Package operation defines the typed read/write rows of the witness and the
// per-block container that orders them.
package operation

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/core/types"
)

// RW marks an operation as a read or a write.
type RW bool

const (
	Read  RW = false
	Write RW = true
)

// IsWrite reports whether the operation is a write.
func (rw RW) IsWrite() bool { return rw == Write }

func (rw RW) String() string {
	if rw == Write {
		return "W"
	}
	return "R"
}

// RWCounter is the global index of an operation within a block. The first
// operation of a block carries counter 1.
type RWCounter uint64

// Inc returns the current value and advances the counter by one.
func (c *RWCounter) Inc() RWCounter {
	v := *c
	*c++
	return v
}

// Target identifies the address space an operation touches.
type Target uint8

const (
	TargetMemory Target = iota + 1
	TargetStack
	TargetStorage
	TargetTxAccessListAccount
	TargetTxRefund
	TargetAccount
	TargetCallContext
	TargetTxLog

	numTargets = int(TargetTxLog) + 1
)

var targetNames = [...]string{
	TargetMemory:              "Memory",
	TargetStack:               "Stack",
	TargetStorage:             "Storage",
	TargetTxAccessListAccount: "TxAccessListAccount",
	TargetTxRefund:            "TxRefund",
	TargetAccount:             "Account",
	TargetCallContext:         "CallContext",
	TargetTxLog:               "TxLog",
}

func (t Target) String() string {
	if int(t) < len(targetNames) && targetNames[t] != "" {
		return targetNames[t]
	}
	return fmt.Sprintf("Target(%d)", uint8(t))
}

// Op is the payload of an operation. The set of implementations is closed:
// StackOp, MemoryOp, StorageOp, TxAccessListAccountOp, TxRefundOp, AccountOp,
// CallContextOp and TxLogOp.
type Op interface {
	Target() Target
	op()
}

// Operation is one row of the read/write trace.
type Operation struct {
	RWC RWCounter
	RW  RW
	Op  Op
}

func (o Operation) String() string {
	return fmt.Sprintf("#%d %s %s %+v", o.RWC, o.RW, o.Op.Target(), o.Op)
}

// StackOp reads or writes one stack slot of a call.
type StackOp struct {
	CallID  uint64
	Address types.StackAddress
	Value   uint256.Int
}

// MemoryOp reads or writes one byte of a call's memory.
type MemoryOp struct {
	CallID  uint64
	Address types.MemoryAddress
	Value   byte
}

// StorageOp reads or writes one storage slot.
type StorageOp struct {
	Address        common.Address
	Key            uint256.Int
	Value          uint256.Int
	ValuePrev      uint256.Int
	TxID           uint64
	CommittedValue uint256.Int
}

// TxAccessListAccountOp marks an account as warm within a transaction.
type TxAccessListAccountOp struct {
	TxID       uint64
	Address    common.Address
	IsWarm     bool
	IsWarmPrev bool
}

// TxRefundOp reads or writes the gas refund counter of a transaction.
type TxRefundOp struct {
	TxID      uint64
	Value     uint64
	ValuePrev uint64
}

// AccountField selects an account field.
type AccountField uint8

const (
	AccountNonce AccountField = iota + 1
	AccountBalance
	AccountCodeHash
	AccountKeccakCodeHash
	AccountCodeSize
)

// AccountOp reads or writes one field of an account.
type AccountOp struct {
	Address   common.Address
	Field     AccountField
	Value     uint256.Int
	ValuePrev uint256.Int
}

// CallContextField selects a call context field.
type CallContextField uint8

const (
	CallContextRWCounterEndOfReversion CallContextField = iota + 1
	CallContextCallerID
	CallContextTxID
	CallContextDepth
	CallContextCallerAddress
	CallContextCalleeAddress
	CallContextCallDataOffset
	CallContextCallDataLength
	CallContextReturnDataOffset
	CallContextReturnDataLength
	CallContextValue
	CallContextIsSuccess
	CallContextIsPersistent
	CallContextIsStatic
	CallContextLastCalleeID
	CallContextLastCalleeReturnDataOffset
	CallContextLastCalleeReturnDataLength
	CallContextIsRoot
	CallContextIsCreate
	CallContextCodeHash
	CallContextProgramCounter
	CallContextStackPointer
	CallContextGasLeft
	CallContextMemorySize
	CallContextReversibleWriteCounter
)

// CallContextOp reads or writes one call context field.
type CallContextOp struct {
	CallID uint64
	Field  CallContextField
	Value  uint256.Int
}

// TxLogField selects the part of a log an operation writes.
type TxLogField uint8

const (
	TxLogAddress TxLogField = iota + 1
	TxLogTopic
	TxLogData
)

// TxLogOp writes one element of a transaction log.
type TxLogOp struct {
	TxID  uint64
	LogID uint64
	Field TxLogField
	Index uint64
	Value uint256.Int
}

func (StackOp) Target() Target               { return TargetStack }
func (MemoryOp) Target() Target              { return TargetMemory }
func (StorageOp) Target() Target             { return TargetStorage }
func (TxAccessListAccountOp) Target() Target { return TargetTxAccessListAccount }
func (TxRefundOp) Target() Target            { return TargetTxRefund }
func (AccountOp) Target() Target             { return TargetAccount }
func (CallContextOp) Target() Target         { return TargetCallContext }
func (TxLogOp) Target() Target               { return TargetTxLog }

func (StackOp) op()               {}
func (MemoryOp) op()              {}
func (StorageOp) op()             {}
func (TxAccessListAccountOp) op() {}
func (TxRefundOp) op()            {}
func (AccountOp) op()             {}
func (CallContextOp) op()         {}
func (TxLogOp) op()               {}
