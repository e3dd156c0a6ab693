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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
)

// Config holds the witgen configuration.
type Config struct {
	Verbosity int    // 0 = silent ... 5 = trace
	OutputDir string // Directory receiving one witness file per block
	Compress  bool   // Snappy-compress witness files

	// Trie node store. An empty NodeDB keeps nodes in memory.
	NodeDB       string
	NodeDBEngine string // "leveldb" or "pebble"
	CacheMB      int    // Clean node cache
	Handles      int    // Open file handles for the node store

	Parallel int  // Blocks replayed concurrently
	Check    bool // Verify row ordering and read consistency after building
}

// defaultConfig is the configuration used when neither a file nor flags
// override a setting.
var defaultConfig = Config{
	Verbosity:    3,
	OutputDir:    ".",
	NodeDBEngine: "leveldb",
	CacheMB:      64,
	Handles:      256,
	Parallel:     1,
	Check:        true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if c.Verbosity < 0 || c.Verbosity > 5 {
		return fmt.Errorf("verbosity must be in [0, 5], got %d", c.Verbosity)
	}
	if c.NodeDB != "" && c.NodeDBEngine != "leveldb" && c.NodeDBEngine != "pebble" {
		return fmt.Errorf("nodedb engine must be 'leveldb' or 'pebble', got %q", c.NodeDBEngine)
	}
	if c.CacheMB < 0 {
		return fmt.Errorf("cache size must be >= 0, got %d", c.CacheMB)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be > 0, got %d", c.Parallel)
	}
	return nil
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		id := fmt.Sprintf("%s.%s", rt.String(), field)
		if len(field) > 0 && unicode.IsUpper(rune(field[0])) {
			return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
		}
		return fmt.Errorf("unexported field %s", id)
	},
}

func loadConfig(file string, cfg *Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

func dumpConfig(w io.Writer, cfg *Config) error {
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
