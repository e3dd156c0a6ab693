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
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/crypto/poseidon"
)

func TestStackAddressing(t *testing.T) {
	s := Stack{*uint256.NewInt(3), *uint256.NewInt(2), *uint256.NewInt(1)}
	for n, want := range []uint64{1, 2, 3} {
		v, err := s.NthLast(n)
		if err != nil {
			t.Fatal(err)
		}
		if v.Uint64() != want {
			t.Fatalf("NthLast(%d) = %d, want %d", n, v.Uint64(), want)
		}
		if addr := s.NthLastFilled(n); addr != StackAddress(1021+n) {
			t.Fatalf("NthLastFilled(%d) = %d, want %d", n, addr, 1021+n)
		}
	}
	if _, err := s.NthLast(3); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	if _, err := (Stack{}).Last(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("expected underflow on empty stack, got %v", err)
	}
}

func TestStructLogJSON(t *testing.T) {
	input := `{
		"pc": 18, "op": "RETURNDATACOPY", "gas": 100, "gasCost": 9, "depth": 1,
		"stack": ["0x20", "0x0", "0x40"],
		"memory": ["0000000000000000000000000000000000000000000000000000000000000001", "0x0000000000000000000000000000000000000000000000000000000000000002"]
	}`
	var log StructLog
	if err := json.Unmarshal([]byte(input), &log); err != nil {
		t.Fatal(err)
	}
	if log.Op != vm.RETURNDATACOPY || log.PC != 18 || log.Depth != 1 {
		t.Fatalf("bad decode: %+v", log)
	}
	top, _ := log.Stack.Last()
	if top.Uint64() != 0x40 {
		t.Fatalf("top of stack %d, want 0x40", top.Uint64())
	}
	if len(log.Memory) != 64 || log.Memory[31] != 1 || log.Memory[63] != 2 {
		t.Fatalf("bad memory %x", []byte(log.Memory))
	}
	enc, err := json.Marshal(log)
	if err != nil {
		t.Fatal(err)
	}
	var again StructLog
	if err := json.Unmarshal(enc, &again); err != nil {
		t.Fatal(err)
	}
	if again.Op != log.Op || !bytes.Equal(again.Memory, log.Memory) || len(again.Stack) != 3 {
		t.Fatalf("re-decoded log differs: %+v", again)
	}
	if err := json.Unmarshal([]byte(`{"op":"NOTANOP"}`), &log); err == nil {
		t.Fatal("expected error for unknown opcode")
	}
}

func TestAccountChangeIsEmpty(t *testing.T) {
	c := &AccountChange{}
	if !c.IsEmpty() {
		t.Fatal("zero account change should be empty")
	}
	c.Info.CodeHash = poseidon.EmptyCodeHash
	if !c.IsEmpty() {
		t.Fatal("empty code hash should count as empty")
	}
	c.Info.CodeHash = common.HexToHash("0x01")
	if c.IsEmpty() {
		t.Fatal("account with code reported empty")
	}
	c.Info.CodeHash = common.Hash{}
	c.Info.Nonce = 1
	if c.IsEmpty() {
		t.Fatal("account with nonce reported empty")
	}
}
