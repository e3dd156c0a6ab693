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
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/core/operation"
	"github.com/tkmct/zkwitness/core/types"
	"github.com/tkmct/zkwitness/crypto/poseidon"
)

// opcodeHandler emits the rows of steps[0] into step. The remaining struct
// logs are lookahead, used to learn how a call ended up.
type opcodeHandler func(b *Builder, step *ExecStep, steps []*types.StructLog) error

// opcodeTable lists the opcodes that emit rows. Every other opcode yields a
// step without rows.
var opcodeTable = map[vm.OpCode]opcodeHandler{
	vm.MSTORE:         handleMstore,
	vm.MSTORE8:        handleMstore,
	vm.CALLDATACOPY:   handleCallDataCopy,
	vm.CODECOPY:       handleCodeCopy,
	vm.EXTCODECOPY:    handleExtCodeCopy,
	vm.RETURNDATACOPY: handleReturnDataCopy,
	vm.MCOPY:          handleMcopy,
	vm.LOG0:           handleLog,
	vm.LOG1:           handleLog,
	vm.LOG2:           handleLog,
	vm.LOG3:           handleLog,
	vm.LOG4:           handleLog,
	vm.CALL:           handleCall,
	vm.CALLCODE:       handleCall,
	vm.DELEGATECALL:   handleCall,
	vm.STATICCALL:     handleCall,
	vm.CREATE:         handleCreate,
	vm.CREATE2:        handleCreate,
	vm.RETURN:         handleReturnRevert,
	vm.REVERT:         handleReturnRevert,
	vm.STOP:           handleStop,
}

func lookahead(steps []*types.StructLog) *types.StructLog {
	if len(steps) < 2 {
		return nil
	}
	return steps[1]
}

func handleMstore(b *Builder, step *ExecStep, steps []*types.StructLog) error {
	geth := steps[0]
	args, err := b.stackOperands(step, geth, 2)
	if err != nil {
		return err
	}
	offset := args[0].Uint64()
	var data []byte
	if geth.Op == vm.MSTORE8 {
		data = []byte{byte(args[1].Uint64())}
	} else {
		word := args[1].Bytes32()
		data = word[:]
	}
	callID := b.call().CallID
	for i, v := range data {
		b.memoryWrite(step, callID, offset+uint64(i), v)
	}
	b.callCtx().Memory.Write(offset, data)
	return nil
}

// handleReturnDataCopy copies from the return buffer of the last callee,
// which is the callee's memory starting at the recorded return data offset.
func handleReturnDataCopy(b *Builder, step *ExecStep, steps []*types.StructLog) error {
	args, err := b.stackOperands(step, steps[0], 3)
	if err != nil {
		return err
	}
	call, ctx := b.call(), b.callCtx()
	returnDataLen := uint64(len(ctx.ReturnData))
	b.invariant(call.LastCalleeReturnDataLength == returnDataLen,
		"callee return data size %d, buffered return data %d", call.LastCalleeReturnDataLength, returnDataLen)

	b.callContextRead(step, call.CallID, operation.CallContextLastCalleeID, u256(call.LastCalleeID))
	b.callContextRead(step, call.CallID, operation.CallContextLastCalleeReturnDataOffset, u256(call.LastCalleeReturnDataOffset))
	b.callContextRead(step, call.CallID, operation.CallContextLastCalleeReturnDataLength, u256(returnDataLen))

	src := copySource{
		Type:   CopyDataTypeMemory,
		ID:     Number(call.LastCalleeID),
		CallID: call.LastCalleeID,
		Base:   call.LastCalleeReturnDataOffset,
		Data:   ctx.ReturnData,
	}
	b.genCopy(step, src, args[1], b.memoryDest(args[0].Uint64()), args[2].Uint64())
	return nil
}

// handleCallDataCopy copies from the transaction input for the root call and
// from the caller's memory for internal calls.
func handleCallDataCopy(b *Builder, step *ExecStep, steps []*types.StructLog) error {
	args, err := b.stackOperands(step, steps[0], 3)
	if err != nil {
		return err
	}
	call, ctx := b.call(), b.callCtx()
	var src copySource
	if call.IsRoot {
		b.callContextRead(step, call.CallID, operation.CallContextTxID, u256(b.tx.ID))
		b.callContextRead(step, call.CallID, operation.CallContextCallDataLength, u256(call.CallDataLength))
		src = copySource{Type: CopyDataTypeTxCalldata, ID: Number(b.tx.ID), Data: ctx.CallData}
	} else {
		b.callContextRead(step, call.CallID, operation.CallContextCallerID, u256(call.CallerID))
		b.callContextRead(step, call.CallID, operation.CallContextCallDataLength, u256(call.CallDataLength))
		b.callContextRead(step, call.CallID, operation.CallContextCallDataOffset, u256(call.CallDataOffset))
		src = copySource{
			Type:   CopyDataTypeMemory,
			ID:     Number(call.CallerID),
			CallID: call.CallerID,
			Base:   call.CallDataOffset,
			Data:   ctx.CallData,
		}
	}
	b.genCopy(step, src, args[1], b.memoryDest(args[0].Uint64()), args[2].Uint64())
	return nil
}

func handleCodeCopy(b *Builder, step *ExecStep, steps []*types.StructLog) error {
	args, err := b.stackOperands(step, steps[0], 3)
	if err != nil {
		return err
	}
	call, ctx := b.call(), b.callCtx()
	b.callContextRead(step, call.CallID, operation.CallContextCodeHash, hashWord(call.CodeHash))
	src := copySource{Type: CopyDataTypeBytecode, ID: Hash(call.CodeHash), Data: ctx.Code}
	b.genCopy(step, src, args[1], b.memoryDest(args[0].Uint64()), args[2].Uint64())
	return nil
}

func handleExtCodeCopy(b *Builder, step *ExecStep, steps []*types.StructLog) error {
	args, err := b.stackOperands(step, steps[0], 4)
	if err != nil {
		return err
	}
	addr := common.Address(args[0].Bytes20())
	b.accessListWrite(step, addr)
	code, codeHash, err := b.code(addr)
	if err != nil {
		return err
	}
	b.accountRead(step, addr, operation.AccountCodeHash, hashWord(b.accountCodeHash(addr, codeHash)))
	src := copySource{Type: CopyDataTypeBytecode, ID: Hash(codeHash), Data: code}
	b.genCopy(step, src, args[2], b.memoryDest(args[1].Uint64()), args[3].Uint64())
	return nil
}

// handleMcopy copies within the current frame's memory. Source bytes are
// captured before any destination byte is written, so overlapping ranges
// behave like memmove.
func handleMcopy(b *Builder, step *ExecStep, steps []*types.StructLog) error {
	args, err := b.stackOperands(step, steps[0], 3)
	if err != nil {
		return err
	}
	call, ctx := b.call(), b.callCtx()
	length := args[2].Uint64()
	ctx.Memory.Extend(args[1].Uint64(), length)
	src := copySource{
		Type:   CopyDataTypeMemory,
		ID:     Number(call.CallID),
		CallID: call.CallID,
		Data:   ctx.Memory.Bytes(),
	}
	b.genCopy(step, src, args[1], b.memoryDest(args[0].Uint64()), length)
	return nil
}

func handleLog(b *Builder, step *ExecStep, steps []*types.StructLog) error {
	geth := steps[0]
	topics := int(geth.Op - vm.LOG0)
	args, err := b.stackOperands(step, geth, 2+topics)
	if err != nil {
		return err
	}
	call, ctx := b.call(), b.callCtx()
	b.callContextRead(step, call.CallID, operation.CallContextTxID, u256(b.tx.ID))
	b.callContextRead(step, call.CallID, operation.CallContextCalleeAddress, addrWord(call.Address))

	b.txCtx.logID++
	step.LogID = b.txCtx.logID
	b.txLogWrite(step, operation.TxLogAddress, 0, addrWord(call.Address))
	for i, topic := range args[2:] {
		b.txLogWrite(step, operation.TxLogTopic, uint64(i), topic)
	}
	length := args[1].Uint64()
	ctx.Memory.Extend(args[0].Uint64(), length)
	src := copySource{
		Type:   CopyDataTypeMemory,
		ID:     Number(call.CallID),
		CallID: call.CallID,
		Data:   ctx.Memory.Bytes(),
	}
	dst := copyDest{Type: CopyDataTypeTxLog, ID: Number(b.tx.ID), LogID: b.txCtx.logID}
	b.genCopy(step, src, args[0], dst, length)
	return nil
}

func handleCall(b *Builder, step *ExecStep, steps []*types.StructLog) error {
	geth := steps[0]
	kind, err := callKind(geth.Op)
	if err != nil {
		return err
	}
	n := 6
	if kind == CallKindCall || kind == CallKindCallCode {
		n = 7
	}
	args, err := b.stackOperands(step, geth, n)
	if err != nil {
		return err
	}
	addr := common.Address(args[1].Bytes20())
	var value uint256.Int
	rest := args[2:]
	if n == 7 {
		value, rest = args[2], args[3:]
	}
	argsOffset, argsLength := rest[0].Uint64(), rest[1].Uint64()
	retOffset, retLength := rest[2].Uint64(), rest[3].Uint64()

	caller, callerCtx := b.call(), b.callCtx()
	callerCtx.Memory.Extend(argsOffset, argsLength)
	callerCtx.Memory.Extend(retOffset, retLength)
	b.accessListWrite(step, addr)
	b.setLastCallee(step, caller, 0, 0, 0)
	callerCtx.ReturnData = nil

	callee := &Call{
		Kind:             kind,
		Depth:            caller.Depth + 1,
		IsStatic:         caller.IsStatic || kind == CallKindStaticCall,
		CallerID:         caller.CallID,
		CallerAddress:    caller.Address,
		Address:          addr,
		Value:            value,
		CallDataOffset:   argsOffset,
		CallDataLength:   argsLength,
		ReturnDataOffset: retOffset,
		ReturnDataLength: retLength,
	}
	switch kind {
	case CallKindCallCode:
		callee.Address = caller.Address
	case CallKindDelegateCall:
		callee.CallerAddress = caller.CallerAddress
		callee.Address = caller.Address
		callee.Value = caller.Value
	}
	code, codeHash, err := b.code(addr)
	if err != nil {
		return err
	}
	callee.CodeHash = codeHash

	next := lookahead(steps)
	if next == nil || next.Depth != geth.Depth+1 {
		output := b.runPrecompile(addr, callerCtx.Memory.Read(argsOffset, argsLength))
		b.skipCall(step, callee, output, next)
		return nil
	}
	b.pushCall(step, callee, &CallContext{
		Memory:   NewMemory(nil),
		CallData: callerCtx.Memory.Read(argsOffset, argsLength),
		Code:     code,
	})
	return nil
}

func handleCreate(b *Builder, step *ExecStep, steps []*types.StructLog) error {
	geth := steps[0]
	kind, err := callKind(geth.Op)
	if err != nil {
		return err
	}
	n := 3
	if kind == CallKindCreate2 {
		n = 4
	}
	args, err := b.stackOperands(step, geth, n)
	if err != nil {
		return err
	}
	offset, length := args[1].Uint64(), args[2].Uint64()

	caller, callerCtx := b.call(), b.callCtx()
	callerCtx.Memory.Extend(offset, length)
	initCode := callerCtx.Memory.Read(offset, length)

	nonce := b.nonce(caller.Address)
	var addr common.Address
	if kind == CallKindCreate {
		addr = crypto.CreateAddress(caller.Address, nonce)
	} else {
		addr = crypto.CreateAddress2(caller.Address, args[3].Bytes32(), crypto.Keccak256(initCode))
	}
	b.accessListWrite(step, addr)
	b.setLastCallee(step, caller, 0, 0, 0)
	callerCtx.ReturnData = nil

	callee := &Call{
		Kind:          kind,
		Depth:         caller.Depth + 1,
		IsStatic:      caller.IsStatic,
		CallerID:      caller.CallID,
		CallerAddress: caller.Address,
		Address:       addr,
		Value:         args[0],
		CodeHash:      poseidon.CodeHash(initCode),
	}
	next := lookahead(steps)
	if next == nil || next.Depth != geth.Depth+1 {
		b.skipCall(step, callee, nil, next)
		if callee.IsSuccess {
			// Empty init code deploys an empty contract.
			b.txCtx.nonces[caller.Address] = nonce + 1
			b.txCtx.nonces[addr] = 1
			b.txCtx.codes[addr] = []byte{}
		}
		return nil
	}
	b.txCtx.nonces[caller.Address] = nonce + 1
	b.txCtx.nonces[addr] = 1
	b.pushCall(step, callee, &CallContext{Memory: NewMemory(nil), Code: initCode})
	return nil
}

func handleReturnRevert(b *Builder, step *ExecStep, steps []*types.StructLog) error {
	geth := steps[0]
	args, err := b.stackOperands(step, geth, 2)
	if err != nil {
		return err
	}
	offset, length := args[0].Uint64(), args[1].Uint64()
	mem := b.callCtx().Memory
	mem.Extend(offset, length)
	b.endCall(step, geth.Op == vm.RETURN, mem.Read(offset, length), offset)
	return nil
}

func handleStop(b *Builder, step *ExecStep, steps []*types.StructLog) error {
	b.endCall(step, true, nil, 0)
	return nil
}
