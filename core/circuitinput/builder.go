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

// Package circuitinput turns the struct-log trace of a block into the
// witness consumed by the circuits: execution steps, the ordered read/write
// rows they emit and the copy events describing bulk data movements.
package circuitinput

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/core/operation"
	"github.com/tkmct/zkwitness/core/state"
	"github.com/tkmct/zkwitness/core/types"
	"github.com/tkmct/zkwitness/crypto/poseidon"
)

// Database is the state the builder reads while generating steps and
// commits to after every transaction.
type Database interface {
	GetAccount(addr common.Address) (bool, *state.Account)
	GetCode(codeHash common.Hash) ([]byte, bool)
	Commit(diff types.StateDiff) error
	Root() common.Hash
	VerifyRoot(expected common.Hash) error
}

// Builder generates the witness of one block. It is not safe for concurrent
// use.
type Builder struct {
	db          Database
	block       *Block
	ctx         *BlockContext
	precompiles vm.PrecompiledContracts

	tx        *Transaction
	txCtx     *TransactionContext
	txIndex   int
	stepIndex int
}

// NewBuilder returns a builder appending to block.
func NewBuilder(db Database, block *Block) *Builder {
	return &Builder{
		db:          db,
		block:       block,
		ctx:         NewBlockContext(),
		precompiles: vm.PrecompiledContractsOsaka,
	}
}

// runPrecompile returns the output of the precompile at addr for input, or
// nil when addr is not a precompile or the precompile fails.
func (b *Builder) runPrecompile(addr common.Address, input []byte) []byte {
	p, ok := b.precompiles[addr]
	if !ok {
		return nil
	}
	output, err := p.Run(input)
	if err != nil {
		log.Debug("Precompile failed", "address", addr, "name", p.Name(), "err", err)
		return nil
	}
	return output
}

// Block returns the witness built so far.
func (b *Builder) Block() *Block {
	return b.block
}

// HandleBlock builds every transaction of the trace, committing each
// transaction's state diff before the next one starts, and checks the final
// root against the trace's post-state root when one is given.
func (b *Builder) HandleBlock(trace *types.BlockTrace) (*Block, error) {
	if len(trace.ExecutionResults) != len(trace.Transactions) {
		return nil, fmt.Errorf("%w: %d transactions, %d execution results", ErrTraceLength, len(trace.Transactions), len(trace.ExecutionResults))
	}
	if len(trace.StateDiffs) != len(trace.Transactions) {
		return nil, fmt.Errorf("%w: %d transactions, %d state diffs", ErrTraceLength, len(trace.Transactions), len(trace.StateDiffs))
	}
	for i, tx := range trace.Transactions {
		if err := b.HandleTx(i, tx, trace.ExecutionResults[i]); err != nil {
			return nil, err
		}
		if err := b.db.Commit(trace.StateDiffs[i]); err != nil {
			return nil, err
		}
	}
	b.block.StateRoot = b.db.Root()
	if trace.StorageTrace != nil && trace.StorageTrace.RootAfter != (common.Hash{}) {
		if err := b.db.VerifyRoot(trace.StorageTrace.RootAfter); err != nil {
			return nil, err
		}
	}
	log.Info("Built block witness", "number", b.block.Number, "txs", len(b.block.Txs),
		"rows", b.block.Container.Len(), "copies", len(b.block.CopyEvents), "root", b.block.StateRoot)
	return b.block, nil
}

// HandleTx builds the steps of one transaction from its struct logs.
func (b *Builder) HandleTx(txIndex int, tx *types.TransactionData, result *types.ExecutionResult) error {
	defer func(start time.Time) { txTimer.UpdateSince(start) }(time.Now())

	b.tx = &Transaction{
		ID:          uint64(len(b.block.Txs) + 1),
		Hash:        tx.Hash,
		From:        tx.From,
		To:          tx.To,
		Nonce:       tx.Nonce,
		Data:        common.CopyBytes(tx.Data),
		Failed:      result.Failed,
		ReturnValue: common.CopyBytes(result.ReturnValue),
	}
	if tx.Value != nil {
		b.tx.Value = *tx.Value
	}
	b.txCtx = newTransactionContext(b.tx.ID)
	b.txIndex, b.stepIndex = txIndex, -1

	if err := b.beginTx(tx); err != nil {
		return &StepError{TxIndex: txIndex, StepIndex: -1, Err: err}
	}
	steps := result.StructLogs
	for i := range steps {
		b.stepIndex = i
		if err := b.handleStep(steps[i:]); err != nil {
			return &StepError{TxIndex: txIndex, StepIndex: i, PC: steps[i].PC, Op: steps[i].Op, Err: err}
		}
	}
	// A transaction without struct logs never enters its root call.
	for b.txCtx.depth() > 0 {
		b.endCall(b.tx.Steps[len(b.tx.Steps)-1], !result.Failed, nil, 0)
	}
	b.block.Txs = append(b.block.Txs, b.tx)
	log.Debug("Built transaction witness", "tx", b.tx.ID, "hash", b.tx.Hash, "steps", len(b.tx.Steps), "calls", len(b.tx.Calls), "rwc", b.ctx.rwc)
	return nil
}

// beginTx opens the root call. Its rows live in a synthetic first step.
func (b *Builder) beginTx(tx *types.TransactionData) error {
	step := &ExecStep{State: StateBeginTx, Depth: 1, RWCounter: b.ctx.rwc, CallIndex: 0}
	b.tx.Steps = append(b.tx.Steps, step)

	root := &Call{
		IsRoot:        true,
		Depth:         1,
		CallerAddress: tx.From,
		Value:         b.tx.Value,
	}
	ctx := &CallContext{Memory: NewMemory(nil)}
	b.txCtx.nonces[tx.From] = tx.Nonce + 1
	if tx.IsCreate() {
		root.Kind = CallKindCreate
		root.Address = crypto.CreateAddress(tx.From, tx.Nonce)
		ctx.Code = common.CopyBytes(tx.Data)
		root.CodeHash = poseidon.CodeHash(ctx.Code)
		b.txCtx.nonces[root.Address] = 1
	} else {
		root.Kind = CallKindCall
		root.Address = *tx.To
		code, hash, err := b.code(root.Address)
		if err != nil {
			return err
		}
		ctx.Code, root.CodeHash = code, hash
		ctx.CallData = common.CopyBytes(tx.Data)
		root.CallDataLength = uint64(len(tx.Data))
	}
	for _, addr := range []common.Address{tx.From, root.Address, b.block.Coinbase} {
		b.accessListWrite(step, addr)
	}
	b.pushCall(step, root, ctx)
	step.CallID = root.CallID
	return nil
}

// handleStep processes steps[0]; the remaining steps are lookahead.
func (b *Builder) handleStep(steps []*types.StructLog) error {
	geth := steps[0]
	var next *types.StructLog
	if len(steps) > 1 {
		next = steps[1]
	}
	if geth.Depth == 0 || geth.Depth != b.txCtx.depth() {
		return fmt.Errorf("%w: step at depth %d with %d open calls", ErrMalformedTrace, geth.Depth, b.txCtx.depth())
	}
	step := b.newStep(geth)
	stepsMeter.Mark(1)

	handler := opcodeTable[geth.Op]
	switch {
	case geth.Error != "":
		log.Trace("Struct log carries an error", "pc", geth.PC, "op", geth.Op, "err", geth.Error)
	case handler != nil:
		if err := handler(b, step, steps); err != nil {
			return err
		}
	default:
		if next != nil && next.Depth == geth.Depth && next.Memory != nil {
			b.callCtx().Memory = NewMemory(next.Memory)
		}
	}
	nextDepth := 0
	if next != nil {
		nextDepth = next.Depth
	}
	if nextDepth > b.txCtx.depth() {
		return fmt.Errorf("%w: %s moves from depth %d to %d", ErrMalformedTrace, geth.Op, geth.Depth, nextDepth)
	}
	// Frames that end without RETURN, REVERT or STOP: errors, INVALID and
	// SELFDESTRUCT.
	for b.txCtx.depth() > nextDepth {
		b.endCall(step, geth.Error == "" && geth.Op == vm.SELFDESTRUCT, nil, 0)
	}
	b.tx.Steps = append(b.tx.Steps, step)
	return nil
}

func (b *Builder) newStep(geth *types.StructLog) *ExecStep {
	call := b.call()
	return &ExecStep{
		State:     StateOpcode,
		PC:        geth.PC,
		Op:        geth.Op,
		Depth:     geth.Depth,
		Gas:       geth.Gas,
		GasCost:   geth.GasCost,
		CallIndex: call.Index,
		CallID:    call.CallID,
		Error:     geth.Error,
		RWCounter: b.ctx.rwc,
	}
}

func (b *Builder) call() *Call {
	return b.tx.Calls[b.txCtx.current().Index]
}

func (b *Builder) callCtx() *CallContext {
	return b.txCtx.current()
}

func (b *Builder) invariant(ok bool, format string, args ...any) {
	if ok {
		return
	}
	panic(&InvariantError{
		TxIndex:   b.txIndex,
		StepIndex: b.stepIndex,
		CallID:    b.call().CallID,
		Msg:       fmt.Sprintf(format, args...),
	})
}

// code returns the code and circuit-native code hash of addr, preferring
// code deployed earlier in the same transaction.
func (b *Builder) code(addr common.Address) ([]byte, common.Hash, error) {
	if code, ok := b.txCtx.codes[addr]; ok {
		return code, poseidon.CodeHash(code), nil
	}
	exist, acc := b.db.GetAccount(addr)
	if !exist || types.IsEmptyCodeHash(acc.CodeHash) {
		return nil, poseidon.EmptyCodeHash, nil
	}
	code, ok := b.db.GetCode(acc.CodeHash)
	if !ok {
		return nil, common.Hash{}, fmt.Errorf("%w: account %s, hash %x", ErrCodeNotFound, addr, acc.CodeHash)
	}
	return code, acc.CodeHash, nil
}

// accountCodeHash returns the code hash field of addr as the account table
// holds it, given the hash returned by code. A missing account has a zero
// hash.
func (b *Builder) accountCodeHash(addr common.Address, codeHash common.Hash) common.Hash {
	if _, ok := b.txCtx.codes[addr]; ok {
		return codeHash
	}
	exist, acc := b.db.GetAccount(addr)
	if !exist {
		return common.Hash{}
	}
	return acc.CodeHash
}

// nonce returns the current nonce of addr including bumps made earlier in
// the same transaction.
func (b *Builder) nonce(addr common.Address) uint64 {
	if n, ok := b.txCtx.nonces[addr]; ok {
		return n
	}
	_, acc := b.db.GetAccount(addr)
	return acc.Nonce
}

// pushCall opens a call frame and writes its call context.
func (b *Builder) pushCall(step *ExecStep, call *Call, ctx *CallContext) {
	call.CallID = uint64(b.ctx.rwc)
	call.Index = len(b.tx.Calls)
	ctx.Index = call.Index
	b.tx.Calls = append(b.tx.Calls, call)
	b.txCtx.push(ctx)
	callsMeter.Mark(1)
	log.Trace("Entering call", "id", call.CallID, "depth", call.Depth, "address", call.Address, "create", call.IsCreate())

	for _, f := range []struct {
		field operation.CallContextField
		value uint256.Int
	}{
		{operation.CallContextCallerID, u256(call.CallerID)},
		{operation.CallContextTxID, u256(b.tx.ID)},
		{operation.CallContextDepth, u256(uint64(call.Depth))},
		{operation.CallContextCallerAddress, addrWord(call.CallerAddress)},
		{operation.CallContextCalleeAddress, addrWord(call.Address)},
		{operation.CallContextCallDataOffset, u256(call.CallDataOffset)},
		{operation.CallContextCallDataLength, u256(call.CallDataLength)},
		{operation.CallContextReturnDataOffset, u256(call.ReturnDataOffset)},
		{operation.CallContextReturnDataLength, u256(call.ReturnDataLength)},
		{operation.CallContextValue, call.Value},
		{operation.CallContextIsStatic, boolWord(call.IsStatic)},
		{operation.CallContextIsRoot, boolWord(call.IsRoot)},
		{operation.CallContextIsCreate, boolWord(call.IsCreate())},
		{operation.CallContextCodeHash, hashWord(call.CodeHash)},
		{operation.CallContextLastCalleeID, uint256.Int{}},
		{operation.CallContextLastCalleeReturnDataOffset, uint256.Int{}},
		{operation.CallContextLastCalleeReturnDataLength, uint256.Int{}},
	} {
		b.callContextWrite(step, call.CallID, f.field, f.value)
	}
}

// skipCall records a call whose callee executed no struct logs: a call to an
// account without code, a precompile, or a call rejected before entry. The
// callee's result is taken from the next step's stack. A successful call
// returns output, which is copied to the caller's return area.
func (b *Builder) skipCall(step *ExecStep, call *Call, output []byte, next *types.StructLog) {
	call.CallID = uint64(b.ctx.rwc)
	call.Index = len(b.tx.Calls)
	if next != nil {
		if top, err := next.Stack.Last(); err == nil {
			call.IsSuccess = !top.IsZero()
		}
	}
	b.tx.Calls = append(b.tx.Calls, call)
	callsMeter.Mark(1)
	if !call.IsSuccess {
		output = nil
	}
	if len(output) > 0 && call.ReturnDataLength > 0 {
		b.genCopy(step, copySource{
			Type:   CopyDataTypeMemory,
			ID:     Number(call.CallID),
			CallID: call.CallID,
			Data:   output,
		}, uint256.Int{}, b.memoryDest(call.ReturnDataOffset), min(uint64(len(output)), call.ReturnDataLength))
	}
	b.setLastCallee(step, b.call(), call.CallID, 0, uint64(len(output)))
	b.callCtx().ReturnData = common.CopyBytes(output)
	if next != nil && next.Memory != nil {
		b.callCtx().Memory = NewMemory(next.Memory)
	}
}

// endCall closes the current frame with the given output, which the callee
// placed in its memory at offset. Deployed code and returned data are copied
// to where the caller expects them.
func (b *Builder) endCall(step *ExecStep, success bool, data []byte, offset uint64) {
	callee := b.call()
	callee.IsSuccess = success
	log.Trace("Leaving call", "id", callee.CallID, "depth", callee.Depth, "success", success, "output", len(data))

	if callee.IsCreate() && success {
		b.txCtx.codes[callee.Address] = common.CopyBytes(data)
		codeHash := poseidon.CodeHash(data)
		b.genCopy(step, copySource{
			Type:   CopyDataTypeMemory,
			ID:     Number(callee.CallID),
			CallID: callee.CallID,
			Base:   offset,
			Data:   data,
		}, uint256.Int{}, copyDest{Type: CopyDataTypeBytecode, ID: Hash(codeHash)}, uint64(len(data)))
	}
	b.txCtx.pop()
	if callee.IsRoot {
		return
	}
	caller, callerCtx := b.call(), b.callCtx()
	if callee.IsCreate() && success {
		data = nil
	}
	if !callee.IsCreate() && len(data) > 0 && callee.ReturnDataLength > 0 {
		length := min(uint64(len(data)), callee.ReturnDataLength)
		b.genCopy(step, copySource{
			Type:   CopyDataTypeMemory,
			ID:     Number(callee.CallID),
			CallID: callee.CallID,
			Base:   offset,
			Data:   data,
		}, uint256.Int{}, b.memoryDest(callee.ReturnDataOffset), length)
	}
	callerCtx.ReturnData = common.CopyBytes(data)
	if len(data) == 0 {
		offset = 0
	}
	b.setLastCallee(step, caller, callee.CallID, offset, uint64(len(data)))
}

// setLastCallee records the outcome of the caller's latest call.
func (b *Builder) setLastCallee(step *ExecStep, caller *Call, id, offset, length uint64) {
	caller.LastCalleeID = id
	caller.LastCalleeReturnDataOffset = offset
	caller.LastCalleeReturnDataLength = length
	b.callContextWrite(step, caller.CallID, operation.CallContextLastCalleeID, u256(id))
	b.callContextWrite(step, caller.CallID, operation.CallContextLastCalleeReturnDataOffset, u256(offset))
	b.callContextWrite(step, caller.CallID, operation.CallContextLastCalleeReturnDataLength, u256(length))
}
