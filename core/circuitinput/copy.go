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
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tkmct/zkwitness/core/operation"
)

// CopyDataType is the address space on one side of a copy.
type CopyDataType uint8

const (
	CopyDataTypePadding CopyDataType = iota
	CopyDataTypeBytecode
	CopyDataTypeMemory
	CopyDataTypeTxCalldata
	CopyDataTypeTxLog
)

func (t CopyDataType) String() string {
	switch t {
	case CopyDataTypePadding:
		return "Padding"
	case CopyDataTypeBytecode:
		return "Bytecode"
	case CopyDataTypeMemory:
		return "Memory"
	case CopyDataTypeTxCalldata:
		return "TxCalldata"
	case CopyDataTypeTxLog:
		return "TxLog"
	}
	return fmt.Sprintf("CopyDataType(%d)", uint8(t))
}

// NumberOrHash identifies the owner of an address space: a call or
// transaction id, or a code hash.
type NumberOrHash struct {
	Number uint64
	Hash   common.Hash
	IsHash bool
}

// Number returns an id naming a call or transaction.
func Number(n uint64) NumberOrHash {
	return NumberOrHash{Number: n}
}

// Hash returns an id naming code by its circuit-native hash.
func Hash(h common.Hash) NumberOrHash {
	return NumberOrHash{Hash: h, IsHash: true}
}

// Word encodes the id as 32 bytes: the hash, or the big-endian number.
func (n NumberOrHash) Word() common.Hash {
	if n.IsHash {
		return n.Hash
	}
	var w common.Hash
	binary.BigEndian.PutUint64(w[24:], n.Number)
	return w
}

func (n NumberOrHash) String() string {
	if n.IsHash {
		return n.Hash.Hex()
	}
	return fmt.Sprint(n.Number)
}

// CopyEvent describes one bulk byte movement. Bytes holds what was read from
// the source, at most the bytes available between SrcAddr and SrcAddrEnd;
// AuxBytes holds what was written, always the requested length, zero past
// the end of Bytes.
type CopyEvent struct {
	SrcType    CopyDataType
	SrcID      NumberOrHash
	SrcAddr    uint64
	SrcAddrEnd uint64

	DstType CopyDataType
	DstID   NumberOrHash
	DstAddr uint64

	LogID          uint64 // non-zero for copies into a log
	RWCounterStart operation.RWCounter

	Bytes    []byte
	AuxBytes []byte
}

// Length is the number of bytes written.
func (e *CopyEvent) Length() uint64 {
	return uint64(len(e.AuxBytes))
}

// copySource is the readable side of a copy: Data is the whole source space
// starting at address Base.
type copySource struct {
	Type   CopyDataType
	ID     NumberOrHash
	Base   uint64
	Data   []byte
	CallID uint64 // memory sources only
}

// copyDest is the writable side of a copy.
type copyDest struct {
	Type   CopyDataType
	ID     NumberOrHash
	Addr   uint64
	CallID uint64  // memory destinations only
	Memory *Memory // memory destinations only
	LogID  uint64  // log destinations only
}

// memoryDest targets the current call's memory at addr. Only the low 64 bits
// of the address are used; larger offsets cannot pass the gas check.
func (b *Builder) memoryDest(addr uint64) copyDest {
	call := b.call()
	return copyDest{
		Type:   CopyDataTypeMemory,
		ID:     Number(call.CallID),
		Addr:   addr,
		CallID: call.CallID,
		Memory: b.callCtx().Memory,
	}
}

// genCopy moves length bytes from src, starting offset bytes into it, to dst
// and records the copy event on step. For every byte inside the source a
// read row is emitted when the source is memory; bytes past the end of the
// source are zero and only written. Memory and log destinations get one
// write row per byte. Copies inside a single frame's memory emit all reads
// before the writes.
func (b *Builder) genCopy(step *ExecStep, src copySource, offset uint256.Int, dst copyDest, length uint64) *CopyEvent {
	avail := uint64(len(src.Data))
	off := avail
	if v, overflow := offset.Uint64WithOverflow(); !overflow && v < avail {
		off = v
	}
	var read []byte
	if dst.Memory != nil {
		read = dst.Memory.CopyFrom(dst.Addr, off, length, src.Data)
	} else {
		read = sliceSource(src.Data, off, length)
	}
	event := &CopyEvent{
		SrcType:        src.Type,
		SrcID:          src.ID,
		SrcAddr:        src.Base + off,
		SrcAddrEnd:     src.Base + avail,
		DstType:        dst.Type,
		DstID:          dst.ID,
		DstAddr:        dst.Addr,
		LogID:          dst.LogID,
		RWCounterStart: b.ctx.rwc,
		Bytes:          read,
		AuxBytes:       make([]byte, length),
	}
	copy(event.AuxBytes, read)

	// Within one frame's memory the ranges may overlap, so every source
	// byte is read before the first destination byte is written.
	sameMemory := src.Type == CopyDataTypeMemory && dst.Type == CopyDataTypeMemory && src.CallID == dst.CallID
	if sameMemory {
		for i, value := range read {
			b.memoryRead(step, src.CallID, event.SrcAddr+uint64(i), value)
		}
	}
	for i := uint64(0); i < length; i++ {
		value := event.AuxBytes[i]
		if !sameMemory && i < uint64(len(read)) && src.Type == CopyDataTypeMemory {
			b.memoryRead(step, src.CallID, event.SrcAddr+i, value)
		}
		switch dst.Type {
		case CopyDataTypeMemory:
			b.memoryWrite(step, dst.CallID, dst.Addr+i, value)
		case CopyDataTypeTxLog:
			b.txLogWrite(step, operation.TxLogData, i, u256(uint64(value)))
		}
	}
	step.CopyRWCounterDelta += uint64(b.ctx.rwc - event.RWCounterStart)
	step.CopyEvents = append(step.CopyEvents, event)
	b.block.CopyEvents = append(b.block.CopyEvents, event)

	copyEventsCounter.Inc(1)
	copyBytesMeter.Mark(int64(length))
	return event
}
