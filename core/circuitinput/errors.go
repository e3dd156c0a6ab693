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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/core/vm"
)

var (
	// ErrMalformedTrace is returned when struct logs contradict the call
	// structure the builder tracks.
	ErrMalformedTrace = errors.New("malformed trace")

	// ErrCodeNotFound is returned when a called account's code is missing
	// from the code store.
	ErrCodeNotFound = errors.New("code not found")

	// ErrTraceLength is returned when a block trace has a different number
	// of execution results, transactions or state diffs.
	ErrTraceLength = errors.New("trace length mismatch")
)

// StepError reports a struct log the builder could not process. StepIndex is
// -1 for failures while setting up the transaction.
type StepError struct {
	TxIndex   int
	StepIndex int
	PC        uint64
	Op        vm.OpCode
	Err       error
}

func (e *StepError) Error() string {
	if e.StepIndex < 0 {
		return fmt.Sprintf("tx %d: %v", e.TxIndex, e.Err)
	}
	return fmt.Sprintf("tx %d step %d (pc %d, %s): %v", e.TxIndex, e.StepIndex, e.PC, e.Op, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// InvariantError is raised, via panic, when the builder's own bookkeeping is
// found inconsistent. It is never returned as an error: once it fires, every
// row generated so far is suspect.
type InvariantError struct {
	TxIndex   int
	StepIndex int
	CallID    uint64
	Msg       string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in tx %d step %d call %d: %s", e.TxIndex, e.StepIndex, e.CallID, e.Msg)
}
