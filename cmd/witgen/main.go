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

// witgen replays block traces and writes the circuit witness of each block.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tkmct/zkwitness/core/rawdb"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: defaultConfig.Verbosity,
	}
	outputDirFlag = &cli.StringFlag{
		Name:  "output",
		Usage: "Directory receiving the witness files",
		Value: defaultConfig.OutputDir,
	}
	compressFlag = &cli.BoolFlag{
		Name:  "compress",
		Usage: "Snappy-compress witness files",
	}
	nodeDBFlag = &cli.StringFlag{
		Name:  "nodedb",
		Usage: "Directory of a persistent trie node store (empty = in memory)",
	}
	nodeDBEngineFlag = &cli.StringFlag{
		Name:  "nodedb.engine",
		Usage: "Backing engine of the node store (leveldb, pebble)",
		Value: defaultConfig.NodeDBEngine,
	}
	cacheFlag = &cli.IntFlag{
		Name:  "cache",
		Usage: "Megabytes of memory allocated to the trie node cache",
		Value: defaultConfig.CacheMB,
	}
	parallelFlag = &cli.IntFlag{
		Name:  "parallel",
		Usage: "Number of blocks replayed concurrently",
		Value: defaultConfig.Parallel,
	}
	checkFlag = &cli.BoolFlag{
		Name:  "check",
		Usage: "Verify row ordering and read consistency of every block",
		Value: defaultConfig.Check,
	}

	replayCommand = &cli.Command{
		Name:      "replay",
		Usage:     "Build the witness of one or more block trace files",
		ArgsUsage: "<trace.json> [<trace.json> ...]",
		Action:    replay,
	}
	witnessesCommand = &cli.Command{
		Name:      "witnesses",
		Usage:     "List the witnesses kept in the node store",
		ArgsUsage: "[<start block>]",
		Action:    listWitnesses,
	}
	dumpConfigCommand = &cli.Command{
		Name:   "dumpconfig",
		Usage:  "Show configuration values",
		Action: dumpConfigAction,
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "witgen",
		Usage: "zkEVM witness generator",
		Flags: []cli.Flag{
			configFileFlag,
			verbosityFlag,
			outputDirFlag,
			compressFlag,
			nodeDBFlag,
			nodeDBEngineFlag,
			cacheFlag,
			parallelFlag,
			checkFlag,
		},
		Commands: []*cli.Command{replayCommand, witnessesCommand, dumpConfigCommand},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// makeConfig starts from the defaults, applies the config file if given and
// then every flag set on the command line.
func makeConfig(ctx *cli.Context) (*Config, error) {
	cfg := defaultConfig
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return nil, err
		}
	}
	if ctx.IsSet(verbosityFlag.Name) {
		cfg.Verbosity = ctx.Int(verbosityFlag.Name)
	}
	if ctx.IsSet(outputDirFlag.Name) {
		cfg.OutputDir = ctx.String(outputDirFlag.Name)
	}
	if ctx.IsSet(compressFlag.Name) {
		cfg.Compress = ctx.Bool(compressFlag.Name)
	}
	if ctx.IsSet(nodeDBFlag.Name) {
		cfg.NodeDB = ctx.String(nodeDBFlag.Name)
	}
	if ctx.IsSet(nodeDBEngineFlag.Name) {
		cfg.NodeDBEngine = ctx.String(nodeDBEngineFlag.Name)
	}
	if ctx.IsSet(cacheFlag.Name) {
		cfg.CacheMB = ctx.Int(cacheFlag.Name)
	}
	if ctx.IsSet(parallelFlag.Name) {
		cfg.Parallel = ctx.Int(parallelFlag.Name)
	}
	if ctx.IsSet(checkFlag.Name) {
		cfg.Check = ctx.Bool(checkFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func replay(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.New("no trace files given")
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	setupLogging(cfg.Verbosity)

	lock, err := lockOutputDir(cfg.OutputDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	nodedb, err := openNodeDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to open node store: %w", err)
	}
	defer nodedb.Close()

	runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := replayFiles(runCtx, cfg, nodedb, ctx.Args().Slice())
	if err != nil {
		return err
	}
	for _, res := range results {
		log.Info("Replayed block", "number", res.Number, "txs", res.Txs, "rows", res.Rows, "copies", res.Copies, "root", res.Root)
	}
	return nil
}

func listWitnesses(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.NodeDB == "" {
		return errors.New("witnesses are only kept in a persistent node store, set --nodedb")
	}
	setupLogging(cfg.Verbosity)

	var start uint64
	if ctx.NArg() > 0 {
		if start, err = strconv.ParseUint(ctx.Args().First(), 0, 64); err != nil {
			return fmt.Errorf("invalid start block: %w", err)
		}
	}
	nodedb, err := openNodeDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to open node store: %w", err)
	}
	defer nodedb.Close()

	head, _ := rawdb.ReadWitnessHead(nodedb)
	return printWitnesses(os.Stdout, nodedb, start, head)
}

func printWitnesses(w io.Writer, db ethdb.KeyValueStore, start, head uint64) error {
	fmt.Fprintf(w, "head %d\n", head)
	return rawdb.IterateBlockWitnesses(db, start, func(number uint64, hash common.Hash, blob []byte) bool {
		root, _ := rawdb.ReadWitnessRoot(db, number)
		fmt.Fprintf(w, "%d %s root=%s size=%v\n", number, hash.Hex(), root.Hex(), common.StorageSize(len(blob)))
		return true
	})
}

func dumpConfigAction(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	return dumpConfig(os.Stdout, cfg)
}
