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
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	"github.com/tkmct/zkwitness/core/operation"
)

// Witness is the serialized form of a block witness. Operations are listed
// in counter order; a step's rows are the Operations from RWCounter on,
// RWCount of them.
type Witness struct {
	ChainID       uint64
	Number        uint64
	Hash          common.Hash
	PrevStateRoot common.Hash
	StateRoot     common.Hash

	Operations []WitnessOperation
	Steps      []WitnessStep
	CopyEvents []WitnessCopyEvent
}

// WitnessOperation is one row. Payload is the RLP encoding of the target's
// operation struct.
type WitnessOperation struct {
	RWC     uint64
	Write   bool
	Target  uint8
	Payload []byte
}

type WitnessStep struct {
	TxID               uint64
	State              uint8
	PC                 uint64
	Op                 uint8
	CallID             uint64
	Gas                uint64
	GasCost            uint64
	RWCounter          uint64
	RWCount            uint64
	CopyRWCounterDelta uint64
	LogID              uint64
	Error              string
}

type WitnessCopyEvent struct {
	SrcType        uint8
	SrcID          common.Hash
	SrcIDIsHash    bool
	SrcAddr        uint64
	SrcAddrEnd     uint64
	DstType        uint8
	DstID          common.Hash
	DstIDIsHash    bool
	DstAddr        uint64
	LogID          uint64
	RWCounterStart uint64
	Bytes          []byte
	AuxBytes       []byte
}

// Witness flattens the block into its serialized form.
func (b *Block) Witness() (*Witness, error) {
	w := &Witness{
		ChainID:       b.ChainID,
		Number:        b.Number,
		Hash:          b.Hash,
		PrevStateRoot: b.PrevStateRoot,
		StateRoot:     b.StateRoot,
	}
	for _, op := range b.Container.All() {
		payload, err := rlp.EncodeToBytes(op.Op)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", op, err)
		}
		w.Operations = append(w.Operations, WitnessOperation{
			RWC:     uint64(op.RWC),
			Write:   op.RW.IsWrite(),
			Target:  uint8(op.Op.Target()),
			Payload: payload,
		})
	}
	for _, tx := range b.Txs {
		for _, step := range tx.Steps {
			w.Steps = append(w.Steps, WitnessStep{
				TxID:               tx.ID,
				State:              uint8(step.State),
				PC:                 step.PC,
				Op:                 uint8(step.Op),
				CallID:             step.CallID,
				Gas:                step.Gas,
				GasCost:            step.GasCost,
				RWCounter:          uint64(step.RWCounter),
				RWCount:            uint64(len(step.Ops)),
				CopyRWCounterDelta: step.CopyRWCounterDelta,
				LogID:              step.LogID,
				Error:              step.Error,
			})
		}
	}
	for _, e := range b.CopyEvents {
		w.CopyEvents = append(w.CopyEvents, WitnessCopyEvent{
			SrcType:        uint8(e.SrcType),
			SrcID:          e.SrcID.Word(),
			SrcIDIsHash:    e.SrcID.IsHash,
			SrcAddr:        e.SrcAddr,
			SrcAddrEnd:     e.SrcAddrEnd,
			DstType:        uint8(e.DstType),
			DstID:          e.DstID.Word(),
			DstIDIsHash:    e.DstID.IsHash,
			DstAddr:        e.DstAddr,
			LogID:          e.LogID,
			RWCounterStart: uint64(e.RWCounterStart),
			Bytes:          e.Bytes,
			AuxBytes:       e.AuxBytes,
		})
	}
	return w, nil
}

// EncodeWitness serializes w as RLP, snappy-compressed if compress is set.
func EncodeWitness(w *Witness, compress bool) ([]byte, error) {
	blob, err := rlp.EncodeToBytes(w)
	if err != nil {
		return nil, err
	}
	if compress {
		blob = snappy.Encode(nil, blob)
	}
	return blob, nil
}

// DecodeWitness parses the output of EncodeWitness.
func DecodeWitness(blob []byte, compressed bool) (*Witness, error) {
	if compressed {
		var err error
		if blob, err = snappy.Decode(nil, blob); err != nil {
			return nil, err
		}
	}
	w := new(Witness)
	if err := rlp.DecodeBytes(blob, w); err != nil {
		return nil, err
	}
	return w, nil
}

// DecodeOperation restores the row held by a WitnessOperation.
func DecodeOperation(wo WitnessOperation) (operation.Operation, error) {
	out := operation.Operation{RWC: operation.RWCounter(wo.RWC), RW: operation.RW(wo.Write)}
	var err error
	switch target := operation.Target(wo.Target); target {
	case operation.TargetStack:
		out.Op, err = decodeOp[operation.StackOp](wo.Payload)
	case operation.TargetMemory:
		out.Op, err = decodeOp[operation.MemoryOp](wo.Payload)
	case operation.TargetStorage:
		out.Op, err = decodeOp[operation.StorageOp](wo.Payload)
	case operation.TargetTxAccessListAccount:
		out.Op, err = decodeOp[operation.TxAccessListAccountOp](wo.Payload)
	case operation.TargetTxRefund:
		out.Op, err = decodeOp[operation.TxRefundOp](wo.Payload)
	case operation.TargetAccount:
		out.Op, err = decodeOp[operation.AccountOp](wo.Payload)
	case operation.TargetCallContext:
		out.Op, err = decodeOp[operation.CallContextOp](wo.Payload)
	case operation.TargetTxLog:
		out.Op, err = decodeOp[operation.TxLogOp](wo.Payload)
	default:
		return out, fmt.Errorf("unknown operation target %d", wo.Target)
	}
	return out, err
}

func decodeOp[T operation.Op](payload []byte) (operation.Op, error) {
	var op T
	if err := rlp.DecodeBytes(payload, &op); err != nil {
		return nil, err
	}
	return op, nil
}
