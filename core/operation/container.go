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

package operation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/holiman/uint256"
)

var (
	// ErrCounterOrder is returned when operation counters are not strictly
	// increasing and gap-free.
	ErrCounterOrder = errors.New("operation counters out of order")

	// ErrInconsistentRead is returned when a read observes a value other
	// than the one last written to the same location.
	ErrInconsistentRead = errors.New("inconsistent read")
)

// OperationRef points at an operation stored in a Container.
type OperationRef struct {
	Target Target
	Index  int
}

// Container holds all operations of a block, bucketed by target, plus the
// global insertion order.
type Container struct {
	ops   [numTargets][]Operation
	order []OperationRef
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{}
}

// Insert appends an operation and returns a reference to it. A nil payload
// is a programming error and panics.
func (c *Container) Insert(op Operation) OperationRef {
	if op.Op == nil {
		panic("operation: nil op")
	}
	target := op.Op.Target()
	ref := OperationRef{Target: target, Index: len(c.ops[target])}
	c.ops[target] = append(c.ops[target], op)
	c.order = append(c.order, ref)
	return ref
}

// Get returns the referenced operation.
func (c *Container) Get(ref OperationRef) Operation {
	return c.ops[ref.Target][ref.Index]
}

// Ops returns the operations of one target in insertion order.
func (c *Container) Ops(target Target) []Operation {
	return c.ops[target]
}

// Len returns the total number of operations.
func (c *Container) Len() int {
	return len(c.order)
}

// All returns every operation in insertion order.
func (c *Container) All() []Operation {
	out := make([]Operation, len(c.order))
	for i, ref := range c.order {
		out[i] = c.Get(ref)
	}
	return out
}

// CheckOrdering verifies that counters start at 1, follow insertion order and
// have no gaps.
func (c *Container) CheckOrdering() error {
	for i, ref := range c.order {
		if want := RWCounter(i + 1); c.Get(ref).RWC != want {
			return fmt.Errorf("%w: operation %d has counter %d, want %d", ErrCounterOrder, i, c.Get(ref).RWC, want)
		}
	}
	return nil
}

type locationKey struct {
	target Target
	id     uint64
	addr   string
	key    uint256.Int
}

// location maps an operation to the location it accesses and the value it
// observes or produces. ok is false for targets without read-after-write
// consistency (logs are write-only).
func location(op Op) (loc locationKey, value uint256.Int, prev *uint256.Int, ok bool) {
	switch o := op.(type) {
	case StackOp:
		return locationKey{target: TargetStack, id: o.CallID, key: *uint256.NewInt(uint64(o.Address))}, o.Value, nil, true
	case MemoryOp:
		return locationKey{target: TargetMemory, id: o.CallID, key: *uint256.NewInt(uint64(o.Address))}, *uint256.NewInt(uint64(o.Value)), nil, true
	case StorageOp:
		return locationKey{target: TargetStorage, addr: string(o.Address[:]), key: o.Key}, o.Value, &o.ValuePrev, true
	case TxAccessListAccountOp:
		var v, p uint256.Int
		if o.IsWarm {
			v.SetOne()
		}
		if o.IsWarmPrev {
			p.SetOne()
		}
		return locationKey{target: TargetTxAccessListAccount, id: o.TxID, addr: string(o.Address[:])}, v, &p, true
	case TxRefundOp:
		return locationKey{target: TargetTxRefund, id: o.TxID}, *uint256.NewInt(o.Value), uint256.NewInt(o.ValuePrev), true
	case AccountOp:
		return locationKey{target: TargetAccount, id: uint64(o.Field), addr: string(o.Address[:])}, o.Value, &o.ValuePrev, true
	case CallContextOp:
		return locationKey{target: TargetCallContext, id: o.CallID, key: *uint256.NewInt(uint64(o.Field))}, o.Value, nil, true
	case TxLogOp:
		return locationKey{}, uint256.Int{}, nil, false
	default:
		panic(fmt.Sprintf("operation: unknown op %T", op))
	}
}

// CheckConsistency verifies that every read returns the value most recently
// written to the same location, and that writes carrying a previous value
// agree with the location's history. The first access to a location is
// taken as the pre-state. Only the given targets are checked, all of them if
// none are given; a target should only be checked when every write to it is
// traced.
func (c *Container) CheckConsistency(targets ...Target) error {
	var selected [numTargets]bool
	for _, t := range targets {
		selected[t] = true
	}
	type access struct {
		op  Operation
		seq int
	}
	byLoc := make(map[locationKey][]access)
	var keys []locationKey
	for i, ref := range c.order {
		op := c.Get(ref)
		loc, _, _, ok := location(op.Op)
		if !ok || (len(targets) > 0 && !selected[loc.target]) {
			continue
		}
		if _, seen := byLoc[loc]; !seen {
			keys = append(keys, loc)
		}
		byLoc[loc] = append(byLoc[loc], access{op, i})
	}
	for _, loc := range keys {
		accesses := byLoc[loc]
		sort.SliceStable(accesses, func(i, j int) bool { return accesses[i].op.RWC < accesses[j].op.RWC })

		var current uint256.Int
		for i, a := range accesses {
			_, value, prev, _ := location(a.op.Op)
			if i > 0 {
				if !a.op.RW.IsWrite() && !value.Eq(&current) {
					return fmt.Errorf("%w: %s reads %s, last value %s", ErrInconsistentRead, a.op, value.Hex(), current.Hex())
				}
				if a.op.RW.IsWrite() && prev != nil && !prev.Eq(&current) {
					return fmt.Errorf("%w: %s overwrites %s, last value %s", ErrInconsistentRead, a.op, prev.Hex(), current.Hex())
				}
			}
			current = value
		}
	}
	return nil
}
