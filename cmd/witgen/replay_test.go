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

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/stretchr/testify/require"
	"github.com/tkmct/zkwitness/core/circuitinput"
	"github.com/tkmct/zkwitness/core/rawdb"
	"github.com/tkmct/zkwitness/core/state"
)

// A block with one plain transfer into an empty state: no struct logs, no
// state changes.
const transferTrace = `{
	"chainID": 1,
	"number": %d,
	"coinbase": "0x00000000000000000000000000000000000000c0",
	"storageTrace": {
		"rootBefore": "0x0000000000000000000000000000000000000000000000000000000000000000",
		"rootAfter": "%s"
	},
	"transactions": [{
		"txHash": "0x00000000000000000000000000000000000000000000000000000000000000aa",
		"from": "0x0000000000000000000000000000000000000001",
		"to": "0x0000000000000000000000000000000000000002",
		"nonce": 0,
		"gas": 21000,
		"data": "0x"
	}],
	"executionResults": [{"gas": 21000, "failed": false, "returnValue": "0x", "structLogs": []}],
	"stateDiffs": [{}]
}`

func writeTrace(t *testing.T, dir string, number int, rootAfter string) string {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("trace-%d.json", number))
	body := []byte(fmt.Sprintf(transferTrace, number, rootAfter))
	require.NoError(t, os.WriteFile(path, body, 0o644))
	return path
}

func TestReplayWritesWitness(t *testing.T) {
	dir := t.TempDir()
	zero := "0x0000000000000000000000000000000000000000000000000000000000000000"
	paths := []string{writeTrace(t, dir, 1, zero), writeTrace(t, dir, 2, zero)}

	for _, compress := range []bool{false, true} {
		cfg := defaultConfig
		cfg.OutputDir = t.TempDir()
		cfg.Compress = compress
		cfg.Parallel = 2

		nodedb := memorydb.New()
		results, err := replayFiles(context.Background(), &cfg, nodedb, paths)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for i, res := range results {
			require.Equal(t, uint64(i+1), res.Number)
			require.Equal(t, 1, res.Txs)

			blob, err := os.ReadFile(res.Witness)
			require.NoError(t, err)
			w, err := circuitinput.DecodeWitness(blob, compress)
			require.NoError(t, err)
			require.Equal(t, res.Number, w.Number)
			require.Len(t, w.Operations, res.Rows)
			require.Equal(t, blob, rawdb.ReadBlockWitness(nodedb, res.Number, common.Hash{}))
		}
		head, ok := rawdb.ReadWitnessHead(nodedb)
		require.True(t, ok)
		require.Equal(t, uint64(2), head)

		var out bytes.Buffer
		require.NoError(t, printWitnesses(&out, nodedb, 2, head))
		require.Equal(t, 2, strings.Count(out.String(), "\n"))
		require.Contains(t, out.String(), "head 2")
	}
}

func TestReplayRootMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeTrace(t, dir, 1, "0x00000000000000000000000000000000000000000000000000000000000000ff")

	cfg := defaultConfig
	cfg.OutputDir = t.TempDir()
	_, err := replayFiles(context.Background(), &cfg, memorydb.New(), []string{path})

	var mismatch *state.RootMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestReplayMissingFile(t *testing.T) {
	cfg := defaultConfig
	cfg.OutputDir = t.TempDir()
	_, err := replayFiles(context.Background(), &cfg, memorydb.New(), []string{filepath.Join(t.TempDir(), "absent.json")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOutputDirLocked(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	lock, err := lockOutputDir(dir)
	require.NoError(t, err)

	_, err = lockOutputDir(dir)
	require.ErrorIs(t, err, errOutputDirUsed)

	require.NoError(t, lock.Unlock())
	again, err := lockOutputDir(dir)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}
