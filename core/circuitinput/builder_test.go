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
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/core/operation"
	"github.com/tkmct/zkwitness/core/state"
	"github.com/tkmct/zkwitness/core/types"
	"github.com/tkmct/zkwitness/crypto/poseidon"
)

var (
	testSender   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testContract = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testCallee   = common.HexToAddress("0x3000000000000000000000000000000000000003")
	testCoinbase = common.HexToAddress("0xc0ffee00000000000000000000000000000000c0")
)

// testDB serves accounts and code from maps and counts commits.
type testDB struct {
	accounts map[common.Address]*state.Account
	codes    map[common.Hash][]byte
	commits  int
	root     common.Hash
}

func newTestDB() *testDB {
	return &testDB{
		accounts: make(map[common.Address]*state.Account),
		codes:    make(map[common.Hash][]byte),
	}
}

func (db *testDB) deploy(addr common.Address, nonce uint64, code []byte) {
	hash := poseidon.CodeHash(code)
	db.codes[hash] = code
	db.accounts[addr] = &state.Account{
		Nonce:          nonce,
		CodeHash:       hash,
		KeccakCodeHash: crypto.Keccak256Hash(code),
		CodeSize:       uint64(len(code)),
	}
}

func (db *testDB) GetAccount(addr common.Address) (bool, *state.Account) {
	acc, ok := db.accounts[addr]
	if !ok {
		return false, new(state.Account)
	}
	cpy := *acc
	return true, &cpy
}

func (db *testDB) GetCode(hash common.Hash) ([]byte, bool) {
	code, ok := db.codes[hash]
	return code, ok
}

func (db *testDB) Commit(types.StateDiff) error {
	db.commits++
	return nil
}

func (db *testDB) Root() common.Hash {
	return db.root
}

func (db *testDB) VerifyRoot(expected common.Hash) error {
	if expected != db.root {
		return fmt.Errorf("root %x, want %x", db.root, expected)
	}
	return nil
}

func w(v uint64) uint256.Int {
	return *uint256.NewInt(v)
}

func wb(b []byte) uint256.Int {
	var v uint256.Int
	v.SetBytes(b)
	return v
}

// sl returns a struct log with the given stack, bottom first.
func sl(pc uint64, op vm.OpCode, depth int, stack ...uint256.Int) *types.StructLog {
	return &types.StructLog{PC: pc, Op: op, Depth: depth, Gas: 100000, Stack: types.Stack(stack)}
}

func testTrace(to *common.Address, data []byte, logs ...*types.StructLog) *types.BlockTrace {
	return &types.BlockTrace{
		ChainID:  1,
		Number:   7,
		Coinbase: testCoinbase,
		Transactions: []*types.TransactionData{{
			Hash:  common.HexToHash("0xaa"),
			From:  testSender,
			To:    to,
			Nonce: 3,
			Gas:   100000,
			Data:  data,
		}},
		ExecutionResults: []*types.ExecutionResult{{StructLogs: logs}},
		StateDiffs:       []types.StateDiff{{}},
	}
}

func buildBlock(t *testing.T, db *testDB, trace *types.BlockTrace) *Block {
	t.Helper()
	block, err := NewBuilder(db, NewBlock(trace)).HandleBlock(trace)
	if err != nil {
		t.Fatalf("building block: %v", err)
	}
	if err := block.Container.CheckOrdering(); err != nil {
		t.Fatal(err)
	}
	if err := block.Container.CheckConsistency(operation.TargetMemory, operation.TargetCallContext, operation.TargetTxAccessListAccount); err != nil {
		t.Fatal(err)
	}
	return block
}

func findStep(t *testing.T, tx *Transaction, op vm.OpCode) *ExecStep {
	t.Helper()
	for _, step := range tx.Steps {
		if step.State == StateOpcode && step.Op == op {
			return step
		}
	}
	t.Fatalf("no %s step", op)
	return nil
}

// The constructor stores the runtime code below and returns it. The runtime
// copies 32 bytes of calldata to memory and returns them.
var (
	testRuntime  = common.FromHex("6020600060003760206000f3")
	testInitCode = common.FromHex("6b6020600060003760206000f3600052600c6014f3")
)

// createCallTrace deploys testRuntime from testContract, calls it with the
// first memory word as input and copies the returned word to memory offset
// 0x40 with RETURNDATACOPY.
func createCallTrace() (*types.BlockTrace, common.Address, []byte) {
	var word, runtime [32]byte
	copy(word[32-len(testInitCode):], testInitCode)
	copy(runtime[32-len(testRuntime):], testRuntime)
	created := crypto.CreateAddress(testContract, 1)

	x, r, a := wb(word[:]), wb(runtime[:]), addrWord(created)
	logs := []*types.StructLog{
		sl(0, vm.PUSH21, 1),
		sl(22, vm.PUSH1, 1, x),
		sl(24, vm.MSTORE, 1, x, w(0)),
		sl(25, vm.PUSH1, 1),
		sl(27, vm.PUSH1, 1, w(0x15)),
		sl(29, vm.PUSH1, 1, w(0x15), w(0xb)),
		sl(31, vm.CREATE, 1, w(0x15), w(0xb), w(0)),

		sl(0, vm.PUSH12, 2),
		sl(13, vm.PUSH1, 2, r),
		sl(15, vm.MSTORE, 2, r, w(0)),
		sl(16, vm.PUSH1, 2),
		sl(18, vm.PUSH1, 2, w(0xc)),
		sl(20, vm.RETURN, 2, w(0xc), w(0x14)),

		sl(32, vm.PUSH1, 1, a),
		sl(34, vm.PUSH1, 1, a, w(0x20)),
		sl(36, vm.PUSH1, 1, a, w(0x20), w(0x20)),
		sl(38, vm.PUSH1, 1, a, w(0x20), w(0x20), w(0x20)),
		sl(40, vm.PUSH1, 1, a, w(0x20), w(0x20), w(0x20), w(0)),
		sl(42, vm.DUP6, 1, a, w(0x20), w(0x20), w(0x20), w(0), w(0)),
		sl(43, vm.PUSH2, 1, a, w(0x20), w(0x20), w(0x20), w(0), w(0), a),
		sl(46, vm.CALL, 1, a, w(0x20), w(0x20), w(0x20), w(0), w(0), a, w(0xffff)),

		sl(0, vm.PUSH1, 2),
		sl(2, vm.PUSH1, 2, w(0x20)),
		sl(4, vm.PUSH1, 2, w(0x20), w(0)),
		sl(6, vm.CALLDATACOPY, 2, w(0x20), w(0), w(0)),
		sl(7, vm.PUSH1, 2),
		sl(9, vm.PUSH1, 2, w(0x20)),
		sl(11, vm.RETURN, 2, w(0x20), w(0)),

		sl(47, vm.PUSH1, 1, a, w(1)),
		sl(49, vm.PUSH1, 1, a, w(1), w(0x20)),
		sl(51, vm.PUSH1, 1, a, w(1), w(0x20), w(0)),
		sl(53, vm.RETURNDATACOPY, 1, a, w(1), w(0x20), w(0), w(0x40)),
		sl(54, vm.STOP, 1, a, w(1)),
	}
	to := testContract
	return testTrace(&to, nil, logs...), created, word[:]
}

func createCallDB() *testDB {
	db := newTestDB()
	db.deploy(testContract, 1, []byte{byte(vm.STOP)})
	return db
}

func TestCreateCallReturnDataCopy(t *testing.T) {
	trace, created, word := createCallTrace()
	db := createCallDB()
	block := buildBlock(t, db, trace)

	if db.commits != 1 {
		t.Fatalf("commits %d, want 1", db.commits)
	}
	if len(block.Txs) != 1 {
		t.Fatalf("txs %d", len(block.Txs))
	}
	tx := block.Txs[0]
	if len(tx.Steps) != len(trace.ExecutionResults[0].StructLogs)+1 {
		t.Fatalf("steps %d", len(tx.Steps))
	}
	if len(tx.Calls) != 3 {
		t.Fatalf("calls %d, want 3", len(tx.Calls))
	}
	root, create, call := tx.Calls[0], tx.Calls[1], tx.Calls[2]
	if !create.IsCreate() || !create.IsSuccess || create.Address != created {
		t.Fatalf("create call %+v", create)
	}
	if call.Address != created || call.CallerAddress != testContract || !call.IsSuccess {
		t.Fatalf("inner call %+v", call)
	}
	if create.CallID <= root.CallID || call.CallID <= create.CallID {
		t.Fatalf("call ids %d, %d, %d not increasing", root.CallID, create.CallID, call.CallID)
	}
	if root.LastCalleeID != call.CallID || root.LastCalleeReturnDataLength != 32 {
		t.Fatalf("last callee %d/%d", root.LastCalleeID, root.LastCalleeReturnDataLength)
	}

	if len(block.CopyEvents) != 4 {
		t.Fatalf("copy events %d, want 4", len(block.CopyEvents))
	}
	deploy := block.CopyEvents[0]
	if deploy.SrcType != CopyDataTypeMemory || deploy.DstType != CopyDataTypeBytecode {
		t.Fatalf("deploy copy %s -> %s", deploy.SrcType, deploy.DstType)
	}
	if deploy.DstID != Hash(poseidon.CodeHash(testRuntime)) || !bytes.Equal(deploy.Bytes, testRuntime) {
		t.Fatalf("deployed %x under %s", deploy.Bytes, deploy.DstID)
	}
	if deploy.SrcAddr != 0x14 || deploy.SrcAddrEnd != 0x20 {
		t.Fatalf("deploy source range [%d, %d)", deploy.SrcAddr, deploy.SrcAddrEnd)
	}

	rdc := block.CopyEvents[3]
	if rdc.SrcType != CopyDataTypeMemory || rdc.SrcID != Number(call.CallID) {
		t.Fatalf("return data copy source %s %s", rdc.SrcType, rdc.SrcID)
	}
	if rdc.DstType != CopyDataTypeMemory || rdc.DstID != Number(root.CallID) || rdc.DstAddr != 0x40 {
		t.Fatalf("return data copy destination %s %s %d", rdc.DstType, rdc.DstID, rdc.DstAddr)
	}
	if rdc.SrcAddr != 0 || rdc.SrcAddrEnd != 32 || rdc.Length() != 32 || !bytes.Equal(rdc.Bytes, word) {
		t.Fatalf("return data copy %d..%d: %x", rdc.SrcAddr, rdc.SrcAddrEnd, rdc.Bytes)
	}

	step := findStep(t, tx, vm.RETURNDATACOPY)
	if len(step.CopyEvents) != 1 || step.CopyEvents[0] != rdc {
		t.Fatal("copy event not attached to its step")
	}
	if step.CopyRWCounterDelta != 64 || len(step.Ops) != 3+3+64 {
		t.Fatalf("step rows %d, copy rows %d", len(step.Ops), step.CopyRWCounterDelta)
	}
	if rdc.RWCounterStart != step.RWCounter+6 {
		t.Fatalf("copy starts at %d, step at %d", rdc.RWCounterStart, step.RWCounter)
	}
	for i, ref := range step.Ops[:3] {
		op := block.Container.Get(ref)
		stack, ok := op.Op.(operation.StackOp)
		if !ok || stack.Address != types.StackAddress(1019+i) || op.RW.IsWrite() {
			t.Fatalf("row %d: %s", i, op)
		}
	}
	fields := []operation.CallContextField{
		operation.CallContextLastCalleeID,
		operation.CallContextLastCalleeReturnDataOffset,
		operation.CallContextLastCalleeReturnDataLength,
	}
	for i, ref := range step.Ops[3:6] {
		op, ok := block.Container.Get(ref).Op.(operation.CallContextOp)
		if !ok || op.Field != fields[i] || op.CallID != root.CallID {
			t.Fatalf("call context row %d: %v", i, block.Container.Get(ref))
		}
	}
	for i, ref := range step.Ops[6:] {
		op := block.Container.Get(ref)
		mem := op.Op.(operation.MemoryOp)
		wantCall, wantAddr := call.CallID, uint64(i/2)
		if op.RW.IsWrite() {
			wantCall, wantAddr = root.CallID, 0x40+uint64(i/2)
		}
		if op.RW.IsWrite() != (i%2 == 1) || mem.CallID != wantCall || uint64(mem.Address) != wantAddr || mem.Value != word[i/2] {
			t.Fatalf("copy row %d: %s", i, op)
		}
	}
}

func TestSkippedCall(t *testing.T) {
	db := newTestDB()
	db.deploy(testContract, 1, []byte{byte(vm.STOP)})
	logs := []*types.StructLog{
		sl(0, vm.CALL, 1, w(0), w(0), w(0), w(0), w(0), addrWord(testCallee), w(0xffff)),
		sl(1, vm.PUSH1, 1, w(1)),
		sl(3, vm.PUSH1, 1, w(1), w(0)),
		sl(5, vm.PUSH1, 1, w(1), w(0), w(0)),
		sl(7, vm.RETURNDATACOPY, 1, w(1), w(0), w(0), w(0)),
		sl(8, vm.STOP, 1, w(1)),
	}
	to := testContract
	block := buildBlock(t, db, testTrace(&to, nil, logs...))

	tx := block.Txs[0]
	if len(tx.Calls) != 2 {
		t.Fatalf("calls %d", len(tx.Calls))
	}
	callee := tx.Calls[1]
	if !callee.IsSuccess || callee.Address != testCallee || callee.CodeHash != poseidon.EmptyCodeHash {
		t.Fatalf("callee %+v", callee)
	}
	if tx.Calls[0].LastCalleeID != callee.CallID {
		t.Fatalf("last callee %d, want %d", tx.Calls[0].LastCalleeID, callee.CallID)
	}
	step := findStep(t, tx, vm.RETURNDATACOPY)
	if len(step.CopyEvents) != 1 || step.CopyEvents[0].Length() != 0 || step.CopyRWCounterDelta != 0 {
		t.Fatal("empty return data copy emitted rows")
	}
}

func TestPrecompileReturnData(t *testing.T) {
	input := common.FromHex("0xdeadbeef")
	var word [32]byte
	copy(word[:], input)
	identity := common.BytesToAddress([]byte{0x04})
	logs := []*types.StructLog{
		sl(0, vm.MSTORE, 1, wb(word[:]), w(0)),
		sl(1, vm.STATICCALL, 1, w(4), w(0x20), w(4), w(0), addrWord(identity), w(0xffff)),
		sl(2, vm.RETURNDATACOPY, 1, w(1), w(4), w(0), w(0x40)),
		sl(3, vm.STOP, 1, w(1)),
	}
	to := testContract
	block := buildBlock(t, createCallDB(), testTrace(&to, nil, logs...))

	tx := block.Txs[0]
	caller, callee := tx.Calls[0], tx.Calls[1]
	if !callee.IsSuccess || caller.LastCalleeID != callee.CallID || caller.LastCalleeReturnDataLength != 4 {
		t.Fatalf("caller %+v, callee %+v", caller, callee)
	}
	// The output lands in the caller's return area.
	call := findStep(t, tx, vm.STATICCALL)
	if len(call.CopyEvents) != 1 {
		t.Fatalf("call copy events %d", len(call.CopyEvents))
	}
	if event := call.CopyEvents[0]; !bytes.Equal(event.AuxBytes, input) || event.DstAddr != 0x20 || event.SrcID != Number(callee.CallID) {
		t.Fatalf("return area copy %+v", event)
	}
	step := findStep(t, tx, vm.RETURNDATACOPY)
	event := step.CopyEvents[0]
	if !bytes.Equal(event.Bytes, input) || !bytes.Equal(event.AuxBytes, input) {
		t.Fatalf("bytes %x aux %x", event.Bytes, event.AuxBytes)
	}
	if event.SrcAddr != 0 || event.SrcAddrEnd != 4 || event.DstAddr != 0x40 {
		t.Fatalf("event %+v", event)
	}
}

func TestFailedPrecompileReturnsNothing(t *testing.T) {
	identity := common.BytesToAddress([]byte{0x04})
	logs := []*types.StructLog{
		sl(0, vm.STATICCALL, 1, w(4), w(0x20), w(4), w(0), addrWord(identity), w(0)),
		sl(1, vm.STOP, 1, w(0)),
	}
	to := testContract
	block := buildBlock(t, createCallDB(), testTrace(&to, nil, logs...))

	tx := block.Txs[0]
	if tx.Calls[1].IsSuccess || tx.Calls[0].LastCalleeReturnDataLength != 0 {
		t.Fatalf("failed call kept output: %+v", tx.Calls[0])
	}
	if n := len(findStep(t, tx, vm.STATICCALL).CopyEvents); n != 0 {
		t.Fatalf("failed call copied %d events", n)
	}
}

func TestRootCreateDeploysCode(t *testing.T) {
	var runtime [32]byte
	copy(runtime[32-len(testRuntime):], testRuntime)
	r := wb(runtime[:])
	logs := []*types.StructLog{
		sl(0, vm.PUSH12, 1),
		sl(13, vm.PUSH1, 1, r),
		sl(15, vm.MSTORE, 1, r, w(0)),
		sl(16, vm.PUSH1, 1),
		sl(18, vm.PUSH1, 1, w(0xc)),
		sl(20, vm.RETURN, 1, w(0xc), w(0x14)),
	}
	block := buildBlock(t, newTestDB(), testTrace(nil, testInitCode, logs...))

	root := block.Txs[0].Calls[0]
	if !root.IsCreate() || !root.IsSuccess || root.Address != crypto.CreateAddress(testSender, 3) {
		t.Fatalf("root call %+v", root)
	}
	if len(block.CopyEvents) != 1 || !bytes.Equal(block.CopyEvents[0].Bytes, testRuntime) {
		t.Fatal("runtime code not copied to bytecode")
	}
}

func TestBeginTxRows(t *testing.T) {
	db := createCallDB()
	to := testContract
	block := buildBlock(t, db, testTrace(&to, []byte{1, 2}, sl(0, vm.STOP, 1)))

	begin := block.Txs[0].Steps[0]
	if begin.State != StateBeginTx || begin.RWCounter != 1 {
		t.Fatalf("begin step %+v", begin)
	}
	// Three access list writes, then the root call context.
	if len(begin.Ops) != 3+17 {
		t.Fatalf("begin step rows %d", len(begin.Ops))
	}
	for i, ref := range begin.Ops[:3] {
		if ref.Target != operation.TargetTxAccessListAccount {
			t.Fatalf("row %d targets %s", i, ref.Target)
		}
	}
	root := block.Txs[0].Calls[0]
	if root.CallID != 4 || root.CallDataLength != 2 || !root.IsRoot {
		t.Fatalf("root call %+v", root)
	}
}

func TestStackUnderflow(t *testing.T) {
	db := createCallDB()
	to := testContract
	trace := testTrace(&to, nil, sl(0, vm.RETURNDATACOPY, 1, w(0), w(0)))
	_, err := NewBuilder(db, NewBlock(trace)).HandleBlock(trace)

	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.StepIndex != 0 || stepErr.Op != vm.RETURNDATACOPY {
		t.Fatalf("got %v, want step error", err)
	}
	if !errors.Is(err, types.ErrStackUnderflow) {
		t.Fatalf("got %v, want stack underflow", err)
	}
	if db.commits != 0 {
		t.Fatal("failed transaction was committed")
	}
}

func TestMalformedDepth(t *testing.T) {
	to := testContract
	trace := testTrace(&to, nil, sl(0, vm.PUSH1, 1), sl(2, vm.PUSH1, 3, w(1)))
	_, err := NewBuilder(createCallDB(), NewBlock(trace)).HandleBlock(trace)
	if !errors.Is(err, ErrMalformedTrace) {
		t.Fatalf("got %v, want ErrMalformedTrace", err)
	}
}

func TestTraceLengthMismatch(t *testing.T) {
	to := testContract
	trace := testTrace(&to, nil)
	trace.StateDiffs = nil
	if _, err := NewBuilder(createCallDB(), NewBlock(trace)).HandleBlock(trace); !errors.Is(err, ErrTraceLength) {
		t.Fatalf("got %v, want ErrTraceLength", err)
	}
}

func TestMissingCode(t *testing.T) {
	db := createCallDB()
	delete(db.codes, db.accounts[testContract].CodeHash)
	to := testContract
	trace := testTrace(&to, nil, sl(0, vm.STOP, 1))
	if _, err := NewBuilder(db, NewBlock(trace)).HandleBlock(trace); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("got %v, want ErrCodeNotFound", err)
	}
}

func TestReturnDataInvariant(t *testing.T) {
	db := createCallDB()
	to := testContract
	trace := testTrace(&to, nil)
	b := NewBuilder(db, NewBlock(trace))
	b.tx = &Transaction{ID: 1}
	b.txCtx = newTransactionContext(1)
	if err := b.beginTx(trace.Transactions[0]); err != nil {
		t.Fatal(err)
	}
	b.call().LastCalleeReturnDataLength = 5

	defer func() {
		err, ok := recover().(*InvariantError)
		if !ok {
			t.Fatalf("expected invariant violation, got %v", err)
		}
		if err.CallID != b.call().CallID {
			t.Fatalf("violation reported for call %d", err.CallID)
		}
	}()
	geth := sl(0, vm.RETURNDATACOPY, 1, w(0), w(0), w(0))
	handleReturnDataCopy(b, b.newStep(geth), []*types.StructLog{geth})
}

func TestBlockRootVerification(t *testing.T) {
	db := createCallDB()
	db.root = common.HexToHash("0x01")
	to := testContract
	trace := testTrace(&to, nil, sl(0, vm.STOP, 1))
	trace.StorageTrace = &types.StorageTrace{RootAfter: common.HexToHash("0x02")}
	if _, err := NewBuilder(db, NewBlock(trace)).HandleBlock(trace); err == nil {
		t.Fatal("root mismatch not reported")
	}
	trace.StorageTrace.RootAfter = db.root
	block := buildBlock(t, db, trace)
	if block.StateRoot != db.root {
		t.Fatalf("state root %x", block.StateRoot)
	}
}
