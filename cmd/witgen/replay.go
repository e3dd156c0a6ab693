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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/ethdb/pebble"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
	"github.com/tkmct/zkwitness/core/circuitinput"
	"github.com/tkmct/zkwitness/core/operation"
	"github.com/tkmct/zkwitness/core/rawdb"
	"github.com/tkmct/zkwitness/core/state"
	"github.com/tkmct/zkwitness/core/types"
	"github.com/tkmct/zkwitness/trie/zktrie"
	"golang.org/x/sync/errgroup"
)

// replayResult summarizes one replayed block.
type replayResult struct {
	Path    string
	Number  uint64
	Txs     int
	Rows    int
	Copies  int
	Root    common.Hash
	Witness string
}

// openNodeDB opens the persistent trie node store, or an in-memory one when
// no path is configured.
func openNodeDB(cfg *Config) (ethdb.KeyValueStore, error) {
	if cfg.NodeDB == "" {
		return memorydb.New(), nil
	}
	switch cfg.NodeDBEngine {
	case "pebble":
		return pebble.New(cfg.NodeDB, cfg.CacheMB, cfg.Handles, "witgen/nodedb/", false)
	default:
		return leveldb.New(cfg.NodeDB, cfg.CacheMB, cfg.Handles, "witgen/nodedb/", false)
	}
}

// errOutputDirUsed is returned when another replay holds the output directory.
var errOutputDirUsed = errors.New("output directory already used by another process")

// lockOutputDir creates the output directory and takes its instance lock.
func lockOutputDir(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(dir, "LOCK"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, errOutputDirUsed
	}
	return lock, nil
}

func loadTrace(path string) (*types.BlockTrace, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trace := new(types.BlockTrace)
	if err := json.Unmarshal(blob, trace); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trace, nil
}

// replayFiles builds the witness of every trace file, at most cfg.Parallel
// at a time. Blocks share the node store but nothing else.
func replayFiles(ctx context.Context, cfg *Config, nodedb ethdb.KeyValueStore, paths []string) ([]*replayResult, error) {
	results := make([]*replayResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallel)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			replayInflightGauge.Inc(1)
			defer replayInflightGauge.Dec(1)

			res, err := replayBlock(cfg, nodedb, path)
			if err != nil {
				replayFailures.Inc(1)
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// replayBlock builds one block witness and writes it to the output
// directory. Invariant violations inside the builder surface as errors.
func replayBlock(cfg *Config, nodedb ethdb.KeyValueStore, path string) (res *replayResult, err error) {
	defer func(start time.Time) { replayLatency.UpdateSince(start) }(time.Now())
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*circuitinput.InvariantError)
			if !ok {
				panic(r)
			}
			res, err = nil, ie
		}
	}()

	trace, err := loadTrace(path)
	if err != nil {
		return nil, err
	}
	nodes := zktrie.NewDatabase(nodedb, cfg.CacheMB*1024*1024)
	db, err := state.New(trace, nodes)
	if err != nil {
		return nil, err
	}
	block, err := circuitinput.NewBuilder(db, circuitinput.NewBlock(trace)).HandleBlock(trace)
	if err != nil {
		return nil, err
	}
	if cfg.Check {
		if err := block.Container.CheckOrdering(); err != nil {
			return nil, err
		}
		if err := block.Container.CheckConsistency(operation.TargetMemory, operation.TargetCallContext, operation.TargetTxAccessListAccount); err != nil {
			return nil, err
		}
	}
	witness, err := block.Witness()
	if err != nil {
		return nil, err
	}
	blob, err := circuitinput.EncodeWitness(witness, cfg.Compress)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("witness-%d.rlp", block.Number)
	if cfg.Compress {
		name += ".snappy"
	}
	out := filepath.Join(cfg.OutputDir, name)
	if err := os.WriteFile(out, blob, 0o644); err != nil {
		return nil, err
	}
	if err := rawdb.WriteBlockWitnessAtomic(nodedb, block.Number, block.Hash, block.StateRoot, blob); err != nil {
		return nil, fmt.Errorf("storing witness: %w", err)
	}
	replayBlocksMeter.Mark(1)
	replayTxsMeter.Mark(int64(len(block.Txs)))
	witnessBytesMeter.Mark(int64(len(blob)))
	log.Info("Wrote block witness", "number", block.Number, "file", out, "size", common.StorageSize(len(blob)))

	return &replayResult{
		Path:    path,
		Number:  block.Number,
		Txs:     len(block.Txs),
		Rows:    block.Container.Len(),
		Copies:  len(block.CopyEvents),
		Root:    block.StateRoot,
		Witness: out,
	}, nil
}
