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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

// TransactionContext tracks the open calls of the transaction being built
// and the state changes the flat store does not see until commit: warm
// accounts, nonces bumped by contract creation and freshly deployed code.
type TransactionContext struct {
	id     uint64
	calls  []*CallContext
	warm   mapset.Set[common.Address]
	nonces map[common.Address]uint64
	codes  map[common.Address][]byte
	logID  uint64
}

func newTransactionContext(id uint64) *TransactionContext {
	return &TransactionContext{
		id:     id,
		warm:   mapset.NewThreadUnsafeSet[common.Address](),
		nonces: make(map[common.Address]uint64),
		codes:  make(map[common.Address][]byte),
	}
}

// depth is the number of open calls.
func (c *TransactionContext) depth() int {
	return len(c.calls)
}

func (c *TransactionContext) current() *CallContext {
	return c.calls[len(c.calls)-1]
}

func (c *TransactionContext) push(ctx *CallContext) {
	c.calls = append(c.calls, ctx)
}

func (c *TransactionContext) pop() *CallContext {
	ctx := c.current()
	c.calls = c.calls[:len(c.calls)-1]
	return ctx
}

// markWarm adds addr to the access list and reports whether it was already
// there.
func (c *TransactionContext) markWarm(addr common.Address) bool {
	return !c.warm.Add(addr)
}
