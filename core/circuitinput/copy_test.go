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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/tkmct/zkwitness/core/operation"
	"github.com/tkmct/zkwitness/crypto/poseidon"
)

func countRows(block *Block, step *ExecStep, target operation.Target, write bool) int {
	var n int
	for _, ref := range step.Ops {
		if ref.Target == target && block.Container.Get(ref).RW.IsWrite() == write {
			n++
		}
	}
	return n
}

func TestCallDataCopyPastEnd(t *testing.T) {
	calldata := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	to := testContract
	block := buildBlock(t, createCallDB(), testTrace(&to, calldata,
		sl(0, vm.CALLDATACOPY, 1, w(16), w(4), w(0)),
		sl(1, vm.STOP, 1),
	))
	step := findStep(t, block.Txs[0], vm.CALLDATACOPY)
	if len(step.CopyEvents) != 1 {
		t.Fatalf("copy events %d", len(step.CopyEvents))
	}
	event := step.CopyEvents[0]
	if event.SrcType != CopyDataTypeTxCalldata || event.SrcID != Number(1) {
		t.Fatalf("source %s %s", event.SrcType, event.SrcID)
	}
	if event.SrcAddr != 4 || event.SrcAddrEnd != 10 {
		t.Fatalf("source range [%d, %d)", event.SrcAddr, event.SrcAddrEnd)
	}
	if !bytes.Equal(event.Bytes, calldata[4:]) {
		t.Fatalf("bytes %x", event.Bytes)
	}
	want := append(append([]byte{}, calldata[4:]...), make([]byte, 10)...)
	if !bytes.Equal(event.AuxBytes, want) || event.Length() != 16 {
		t.Fatalf("written %x", event.AuxBytes)
	}
	// Calldata lives outside the rw table; only the memory writes are rows.
	if n := countRows(block, step, operation.TargetMemory, false); n != 0 {
		t.Fatalf("%d memory reads", n)
	}
	if n := countRows(block, step, operation.TargetMemory, true); n != 16 {
		t.Fatalf("%d memory writes, want 16", n)
	}
	if step.CopyRWCounterDelta != 16 {
		t.Fatalf("copy rows %d", step.CopyRWCounterDelta)
	}
}

func TestCallDataCopyFromCaller(t *testing.T) {
	db := createCallDB()
	db.deploy(testCallee, 0, []byte{byte(vm.CALLDATACOPY), byte(vm.STOP)})

	input := common.FromHex("0x00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")
	v := wb(input)
	to := testContract
	block := buildBlock(t, db, testTrace(&to, nil,
		sl(0, vm.MSTORE, 1, v, w(0)),
		// Pass the first 10 bytes of memory to the callee.
		sl(1, vm.STATICCALL, 1, w(0), w(0), w(10), w(0), addrWord(testCallee), w(0xffff)),
		sl(0, vm.CALLDATACOPY, 2, w(16), w(4), w(0)),
		sl(1, vm.STOP, 2),
		sl(2, vm.STOP, 1, w(1)),
	))
	tx := block.Txs[0]
	caller, callee := tx.Calls[0], tx.Calls[1]
	if !callee.IsStatic || callee.CallDataLength != 10 {
		t.Fatalf("callee %+v", callee)
	}
	step := findStep(t, tx, vm.CALLDATACOPY)
	event := step.CopyEvents[0]
	if event.SrcType != CopyDataTypeMemory || event.SrcID != Number(caller.CallID) {
		t.Fatalf("source %s %s", event.SrcType, event.SrcID)
	}
	if event.SrcAddr != 4 || event.SrcAddrEnd != 10 || !bytes.Equal(event.Bytes, input[4:10]) {
		t.Fatalf("source [%d, %d): %x", event.SrcAddr, event.SrcAddrEnd, event.Bytes)
	}
	if n := countRows(block, step, operation.TargetMemory, false); n != 6 {
		t.Fatalf("%d memory reads, want 6", n)
	}
	if n := countRows(block, step, operation.TargetMemory, true); n != 16 {
		t.Fatalf("%d memory writes, want 16", n)
	}
	if step.CopyRWCounterDelta != 22 {
		t.Fatalf("copy rows %d", step.CopyRWCounterDelta)
	}
}

func TestZeroLengthCopy(t *testing.T) {
	to := testContract
	block := buildBlock(t, createCallDB(), testTrace(&to, []byte{1, 2, 3},
		sl(0, vm.CALLDATACOPY, 1, w(0), w(1), w(64)),
		sl(1, vm.MSIZE, 1),
	))
	step := findStep(t, block.Txs[0], vm.CALLDATACOPY)
	if len(step.CopyEvents) != 1 {
		t.Fatal("zero-length copy produced no event")
	}
	event := step.CopyEvents[0]
	if event.Length() != 0 || len(event.Bytes) != 0 || step.CopyRWCounterDelta != 0 {
		t.Fatalf("zero-length copy event %+v", event)
	}
	if n := countRows(block, step, operation.TargetMemory, true); n != 0 {
		t.Fatalf("%d memory writes", n)
	}
	if event.RWCounterStart != step.RWCounter+operation.RWCounter(len(step.Ops)) {
		t.Fatalf("copy starts at %d", event.RWCounterStart)
	}
}

func TestMcopyOverlap(t *testing.T) {
	var word [32]byte
	for i := range word {
		word[i] = byte(i + 1)
	}
	for _, tt := range []struct {
		name     string
		dst, src uint64
	}{
		{"forward", 4, 0},
		{"backward", 0, 4},
	} {
		t.Run(tt.name, func(t *testing.T) {
			to := testContract
			trace := testTrace(&to, nil,
				sl(0, vm.MSTORE, 1, wb(word[:]), w(0)),
				sl(1, vm.MCOPY, 1, w(16), w(tt.src), w(tt.dst)),
				sl(2, vm.STOP, 1),
			)
			b := NewBuilder(createCallDB(), NewBlock(trace))
			if err := b.HandleTx(0, trace.Transactions[0], trace.ExecutionResults[0]); err != nil {
				t.Fatal(err)
			}
			if err := b.block.Container.CheckConsistency(operation.TargetMemory); err != nil {
				t.Fatal(err)
			}
			step := findStep(t, b.block.Txs[0], vm.MCOPY)
			event := step.CopyEvents[0]
			if !bytes.Equal(event.Bytes, word[tt.src:tt.src+16]) {
				t.Fatalf("copied %x", event.Bytes)
			}
			if event.SrcID != event.DstID || event.DstAddr != tt.dst || event.SrcAddrEnd != 32 {
				t.Fatalf("event %+v", event)
			}
			if reads, writes := countRows(b.block, step, operation.TargetMemory, false), countRows(b.block, step, operation.TargetMemory, true); reads != 16 || writes != 16 {
				t.Fatalf("memory rows: %d reads, %d writes", reads, writes)
			}
			var written bool
			for _, ref := range step.Ops {
				if ref.Target != operation.TargetMemory {
					continue
				}
				if b.block.Container.Get(ref).RW.IsWrite() {
					written = true
				} else if written {
					t.Fatal("memory read after a write of the same copy")
				}
			}
			// Reconstruct memory from the rows: the last write per address wins.
			want := word
			copy(want[tt.dst:tt.dst+16], word[tt.src:tt.src+16])
			final := make(map[uint64]byte)
			for _, op := range b.block.Container.Ops(operation.TargetMemory) {
				if op.RW.IsWrite() {
					m := op.Op.(operation.MemoryOp)
					final[uint64(m.Address)] = m.Value
				}
			}
			for i := range want {
				if final[uint64(i)] != want[i] {
					t.Fatalf("memory[%d] = %d, want %d", i, final[uint64(i)], want[i])
				}
			}
		})
	}
}

func TestLogCopy(t *testing.T) {
	data := common.FromHex("0x0102030405060708")
	var word [32]byte
	copy(word[:], data)
	to := testContract
	block := buildBlock(t, createCallDB(), testTrace(&to, nil,
		sl(0, vm.MSTORE, 1, wb(word[:]), w(0)),
		sl(1, vm.LOG2, 1, w(0xbb), w(0xaa), w(8), w(0)),
		sl(2, vm.LOG0, 1, w(0), w(0)),
		sl(3, vm.STOP, 1),
	))
	tx := block.Txs[0]
	step := findStep(t, tx, vm.LOG2)
	if step.LogID != 1 {
		t.Fatalf("log id %d", step.LogID)
	}
	// Address, two topics and eight data bytes.
	if n := countRows(block, step, operation.TargetTxLog, true); n != 11 {
		t.Fatalf("%d log rows, want 11", n)
	}
	event := step.CopyEvents[0]
	if event.DstType != CopyDataTypeTxLog || event.DstID != Number(tx.ID) || event.LogID != 1 {
		t.Fatalf("destination %s %s log %d", event.DstType, event.DstID, event.LogID)
	}
	if !bytes.Equal(event.Bytes, data) {
		t.Fatalf("log data %x", event.Bytes)
	}
	var topics []uint64
	for _, ref := range step.Ops {
		if op, ok := block.Container.Get(ref).Op.(operation.TxLogOp); ok && op.Field == operation.TxLogTopic {
			topics = append(topics, op.Value.Uint64())
		}
	}
	if len(topics) != 2 || topics[0] != 0xaa || topics[1] != 0xbb {
		t.Fatalf("topics %x", topics)
	}
	if second := tx.Steps[len(tx.Steps)-2]; second.Op != vm.LOG0 || second.LogID != 2 {
		t.Fatalf("second log step %s id %d", second.Op, second.LogID)
	}
}

func TestCodeCopy(t *testing.T) {
	code := []byte{byte(vm.PUSH1), 0x20, byte(vm.CODECOPY), byte(vm.STOP)}
	db := newTestDB()
	db.deploy(testContract, 1, code)
	db.deploy(testCallee, 1, testRuntime)
	to := testContract
	block := buildBlock(t, db, testTrace(&to, nil,
		sl(0, vm.CODECOPY, 1, w(8), w(2), w(0)),
		sl(1, vm.EXTCODECOPY, 1, w(4), w(10), w(0x20), addrWord(testCallee)),
		sl(2, vm.STOP, 1),
	))
	tx := block.Txs[0]
	own := findStep(t, tx, vm.CODECOPY).CopyEvents[0]
	if own.SrcType != CopyDataTypeBytecode || own.SrcID != Hash(poseidon.CodeHash(code)) {
		t.Fatalf("codecopy source %s %s", own.SrcType, own.SrcID)
	}
	if !bytes.Equal(own.Bytes, code[2:]) || own.Length() != 8 {
		t.Fatalf("codecopy bytes %x", own.AuxBytes)
	}
	ext := findStep(t, tx, vm.EXTCODECOPY)
	event := ext.CopyEvents[0]
	if event.SrcID != Hash(poseidon.CodeHash(testRuntime)) || !bytes.Equal(event.Bytes, testRuntime[10:]) {
		t.Fatalf("extcodecopy %s %x", event.SrcID, event.Bytes)
	}
	if event.DstAddr != 0x20 || event.SrcAddr != 10 || event.SrcAddrEnd != uint64(len(testRuntime)) {
		t.Fatalf("extcodecopy event %+v", event)
	}
	if n := countRows(block, ext, operation.TargetAccount, false); n != 1 {
		t.Fatalf("%d account reads", n)
	}
}

func TestExtCodeCopyMissingAccount(t *testing.T) {
	missing := common.HexToAddress("0x00000000000000000000000000000000000000dd")
	to := testContract
	block := buildBlock(t, createCallDB(), testTrace(&to, nil,
		sl(0, vm.EXTCODECOPY, 1, w(4), w(0), w(0), addrWord(missing)),
		sl(1, vm.STOP, 1),
	))
	step := findStep(t, block.Txs[0], vm.EXTCODECOPY)
	var found bool
	for _, ref := range step.Ops {
		if ref.Target != operation.TargetAccount {
			continue
		}
		op := block.Container.Get(ref).Op.(operation.AccountOp)
		if op.Address != missing || op.Field != operation.AccountCodeHash {
			t.Fatalf("unexpected account row %+v", op)
		}
		if !op.Value.IsZero() {
			t.Fatalf("code hash of missing account recorded as %s", op.Value.Hex())
		}
		found = true
	}
	if !found {
		t.Fatal("no account code hash read")
	}
	event := step.CopyEvents[0]
	if len(event.Bytes) != 0 || !bytes.Equal(event.AuxBytes, make([]byte, 4)) {
		t.Fatalf("copy from missing account: bytes %x aux %x", event.Bytes, event.AuxBytes)
	}
}

func TestCopyDataTypeString(t *testing.T) {
	for typ, want := range map[CopyDataType]string{
		CopyDataTypePadding:  "Padding",
		CopyDataTypeBytecode: "Bytecode",
		CopyDataTypeMemory:   "Memory",
		CopyDataTypeTxLog:    "TxLog",
		CopyDataType(9):      "CopyDataType(9)",
	} {
		if typ.String() != want {
			t.Fatalf("%d: %s, want %s", typ, typ.String(), want)
		}
	}
	if word := Number(0x0102).Word(); word[30] != 1 || word[31] != 2 || Hash(word).Word() != word {
		t.Fatalf("unexpected id word %x", word)
	}
}
