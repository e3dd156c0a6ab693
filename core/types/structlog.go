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
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
)

// stackLimit is the maximum EVM stack depth.
const stackLimit = 1024

// ErrStackUnderflow is returned when an opcode needs more operands than the
// recorded stack holds.
var ErrStackUnderflow = errors.New("stack underflow")

// StackAddress is the position of a stack slot. The stack grows downwards
// from stackLimit, so the top of a stack holding n items sits at
// stackLimit-n.
type StackAddress uint64

// MemoryAddress is a byte offset into a call frame's memory.
type MemoryAddress uint64

// Stack is a stack snapshot, bottom first.
type Stack []uint256.Int

// Last returns the top of the stack.
func (s Stack) Last() (uint256.Int, error) {
	return s.NthLast(0)
}

// NthLast returns the n-th item counted from the top, zero being the top.
func (s Stack) NthLast(n int) (uint256.Int, error) {
	if n < 0 || n >= len(s) {
		return uint256.Int{}, fmt.Errorf("%w: want item %d of %d", ErrStackUnderflow, n, len(s))
	}
	return s[len(s)-1-n], nil
}

// LastFilled is the address of the current top of the stack.
func (s Stack) LastFilled() StackAddress {
	return StackAddress(stackLimit - len(s))
}

// NthLastFilled is the address of the n-th item counted from the top.
func (s Stack) NthLastFilled(n int) StackAddress {
	return s.LastFilled() + StackAddress(n)
}

// Memory is a memory snapshot.
type Memory []byte

// UnmarshalJSON accepts the tracer's list of 32-byte hex words, with or
// without 0x prefixes.
func (m *Memory) UnmarshalJSON(input []byte) error {
	var words []string
	if err := json.Unmarshal(input, &words); err != nil {
		return err
	}
	mem := make([]byte, 0, 32*len(words))
	for i, w := range words {
		if !strings.HasPrefix(w, "0x") && !strings.HasPrefix(w, "0X") {
			w = "0x" + w
		}
		b, err := hexutil.Decode(w)
		if err != nil {
			return fmt.Errorf("memory word %d: %w", i, err)
		}
		mem = append(mem, b...)
	}
	*m = mem
	return nil
}

// MarshalJSON encodes memory as a list of 32-byte hex words.
func (m Memory) MarshalJSON() ([]byte, error) {
	words := make([]string, 0, (len(m)+31)/32)
	for i := 0; i < len(m); i += 32 {
		end := min(i+32, len(m))
		words = append(words, hexutil.Encode(m[i:end]))
	}
	return json.Marshal(words)
}

// StructLog is one step of the tracer output, captured before the opcode at
// PC executes.
type StructLog struct {
	PC      uint64    `json:"pc"`
	Op      vm.OpCode `json:"-"`
	Gas     uint64    `json:"gas"`
	GasCost uint64    `json:"gasCost"`
	Depth   int       `json:"depth"`
	Refund  uint64    `json:"refund,omitempty"`
	Error   string    `json:"error,omitempty"`
	Stack   Stack     `json:"stack"`
	Memory  Memory    `json:"memory,omitempty"` // nil when the tracer omitted it
}

type structLogJSON struct {
	PC      uint64 `json:"pc"`
	Op      string `json:"op"`
	Gas     uint64 `json:"gas"`
	GasCost uint64 `json:"gasCost"`
	Depth   int    `json:"depth"`
	Refund  uint64 `json:"refund,omitempty"`
	Error   string `json:"error,omitempty"`
	Stack   Stack  `json:"stack"`
	Memory  Memory `json:"memory,omitempty"`
}

// UnmarshalJSON decodes a struct log, resolving the opcode by name.
func (l *StructLog) UnmarshalJSON(input []byte) error {
	var dec structLogJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	op := vm.StringToOp(dec.Op)
	if op == 0 && dec.Op != vm.STOP.String() {
		return fmt.Errorf("unknown opcode %q at pc %d", dec.Op, dec.PC)
	}
	*l = StructLog{
		PC:      dec.PC,
		Op:      op,
		Gas:     dec.Gas,
		GasCost: dec.GasCost,
		Depth:   dec.Depth,
		Refund:  dec.Refund,
		Error:   dec.Error,
		Stack:   dec.Stack,
		Memory:  dec.Memory,
	}
	return nil
}

// MarshalJSON encodes a struct log with the opcode name.
func (l StructLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(structLogJSON{
		PC:      l.PC,
		Op:      l.Op.String(),
		Gas:     l.Gas,
		GasCost: l.GasCost,
		Depth:   l.Depth,
		Refund:  l.Refund,
		Error:   l.Error,
		Stack:   l.Stack,
		Memory:  l.Memory,
	})
}
