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
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
)

// CallKind is the opcode, or transaction type, that opened a call.
type CallKind uint8

const (
	CallKindCall CallKind = iota
	CallKindCallCode
	CallKindDelegateCall
	CallKindStaticCall
	CallKindCreate
	CallKindCreate2
)

func callKind(op vm.OpCode) (CallKind, error) {
	switch op {
	case vm.CALL:
		return CallKindCall, nil
	case vm.CALLCODE:
		return CallKindCallCode, nil
	case vm.DELEGATECALL:
		return CallKindDelegateCall, nil
	case vm.STATICCALL:
		return CallKindStaticCall, nil
	case vm.CREATE:
		return CallKindCreate, nil
	case vm.CREATE2:
		return CallKindCreate2, nil
	}
	return 0, fmt.Errorf("%s does not open a call", op)
}

// IsCreate reports whether the kind deploys a contract.
func (k CallKind) IsCreate() bool {
	return k == CallKindCreate || k == CallKindCreate2
}

// Call is the bookkeeping of one call frame. CallID is the row counter at
// the moment the call was opened, which makes it unique within a block.
type Call struct {
	CallID    uint64
	Index     int // position in the transaction's call list
	Kind      CallKind
	IsRoot    bool
	IsStatic  bool
	IsSuccess bool
	Depth     int

	CallerID      uint64
	CallerAddress common.Address
	Address       common.Address
	CodeHash      common.Hash // circuit-native hash of the executing code
	Value         uint256.Int

	CallDataOffset   uint64
	CallDataLength   uint64
	ReturnDataOffset uint64 // where the caller wants the output
	ReturnDataLength uint64

	LastCalleeID               uint64
	LastCalleeReturnDataOffset uint64
	LastCalleeReturnDataLength uint64
}

// IsCreate reports whether the call deploys a contract.
func (c *Call) IsCreate() bool {
	return c.Kind.IsCreate()
}

// CallContext is the mutable execution state of an open call: its memory,
// the return data of its last callee, its input and its code.
type CallContext struct {
	Index      int
	Memory     *Memory
	ReturnData []byte
	CallData   []byte
	Code       []byte
}
