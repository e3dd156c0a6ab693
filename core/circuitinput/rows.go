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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/core/operation"
	"github.com/tkmct/zkwitness/core/types"
)

func u256(v uint64) uint256.Int {
	return *uint256.NewInt(v)
}

func boolWord(v bool) uint256.Int {
	if v {
		return u256(1)
	}
	return uint256.Int{}
}

func addrWord(addr common.Address) uint256.Int {
	var w uint256.Int
	w.SetBytes20(addr[:])
	return w
}

func hashWord(h common.Hash) uint256.Int {
	var w uint256.Int
	w.SetBytes32(h[:])
	return w
}

// addOp assigns the next row counter to op and attaches it to step.
func (b *Builder) addOp(step *ExecStep, rw operation.RW, op operation.Op) {
	ref := b.block.Container.Insert(operation.Operation{RWC: b.ctx.rwc.Inc(), RW: rw, Op: op})
	step.Ops = append(step.Ops, ref)
	rowsMeter.Mark(1)
}

func (b *Builder) stackRead(step *ExecStep, addr types.StackAddress, value uint256.Int) {
	b.addOp(step, operation.Read, operation.StackOp{CallID: b.call().CallID, Address: addr, Value: value})
}

func (b *Builder) memoryRead(step *ExecStep, callID, addr uint64, value byte) {
	b.addOp(step, operation.Read, operation.MemoryOp{CallID: callID, Address: types.MemoryAddress(addr), Value: value})
}

func (b *Builder) memoryWrite(step *ExecStep, callID, addr uint64, value byte) {
	b.addOp(step, operation.Write, operation.MemoryOp{CallID: callID, Address: types.MemoryAddress(addr), Value: value})
}

func (b *Builder) callContextRead(step *ExecStep, callID uint64, field operation.CallContextField, value uint256.Int) {
	b.addOp(step, operation.Read, operation.CallContextOp{CallID: callID, Field: field, Value: value})
}

func (b *Builder) callContextWrite(step *ExecStep, callID uint64, field operation.CallContextField, value uint256.Int) {
	b.addOp(step, operation.Write, operation.CallContextOp{CallID: callID, Field: field, Value: value})
}

// accessListWrite warms addr for the rest of the transaction.
func (b *Builder) accessListWrite(step *ExecStep, addr common.Address) {
	prev := b.txCtx.markWarm(addr)
	b.addOp(step, operation.Write, operation.TxAccessListAccountOp{TxID: b.tx.ID, Address: addr, IsWarm: true, IsWarmPrev: prev})
}

func (b *Builder) accountRead(step *ExecStep, addr common.Address, field operation.AccountField, value uint256.Int) {
	b.addOp(step, operation.Read, operation.AccountOp{Address: addr, Field: field, Value: value, ValuePrev: value})
}

func (b *Builder) txLogWrite(step *ExecStep, field operation.TxLogField, index uint64, value uint256.Int) {
	b.addOp(step, operation.Write, operation.TxLogOp{TxID: b.tx.ID, LogID: b.txCtx.logID, Field: field, Index: index, Value: value})
}

// stackOperands reads the top n stack items of geth, emitting one stack read
// per item, top first. Nothing is emitted when the stack is too short.
func (b *Builder) stackOperands(step *ExecStep, geth *types.StructLog, n int) ([]uint256.Int, error) {
	if len(geth.Stack) < n {
		return nil, fmt.Errorf("%s needs %d operands: %w", geth.Op, n, types.ErrStackUnderflow)
	}
	args := make([]uint256.Int, n)
	for i := range args {
		args[i], _ = geth.Stack.NthLast(i)
		b.stackRead(step, geth.Stack.NthLastFilled(i), args[i])
	}
	return args, nil
}
