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

package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNoStorageTrace is returned when a block trace carries no proofs.
	ErrNoStorageTrace = errors.New("block trace has no storage trace")

	// ErrCodeNotFound is returned when code is requested for an unknown hash.
	ErrCodeNotFound = errors.New("code not found")

	// ErrCodeHashMismatch is returned when a diff carries code whose hash
	// differs from the hash it claims.
	ErrCodeHashMismatch = errors.New("code hash mismatch")
)

// RootMismatchError reports a state root that differs from the expected one.
// The reconstructed state is unusable once this happens.
type RootMismatchError struct {
	TxID     int // number of transactions committed so far
	Expected common.Hash
	Got      common.Hash
}

func (e *RootMismatchError) Error() string {
	return fmt.Sprintf("state root mismatch after %d txs: expected %x, got %x", e.TxID, e.Expected, e.Got)
}

// CommitError annotates a failed commit with the transaction and account
// being applied.
type CommitError struct {
	TxID    int
	Address common.Address
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit tx %d account %s: %v", e.TxID, e.Address, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
