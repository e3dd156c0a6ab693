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
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"missing output", func(c *Config) { c.OutputDir = "" }, "output directory is required"},
		{"bad verbosity", func(c *Config) { c.Verbosity = 9 }, "verbosity must be in [0, 5]"},
		{"bad engine", func(c *Config) { c.NodeDB, c.NodeDBEngine = "/tmp/x", "rocksdb" }, "nodedb engine"},
		{"engine ignored in memory", func(c *Config) { c.NodeDBEngine = "rocksdb" }, ""},
		{"negative cache", func(c *Config) { c.CacheMB = -1 }, "cache size"},
		{"zero parallel", func(c *Config) { c.Parallel = 0 }, "parallel must be > 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestConfigFileRoundTrip(t *testing.T) {
	cfg := defaultConfig
	cfg.Compress = true
	cfg.Parallel = 4
	cfg.NodeDB = "/var/lib/witgen"

	var buf bytes.Buffer
	require.NoError(t, dumpConfig(&buf, &cfg))

	file := filepath.Join(t.TempDir(), "witgen.toml")
	require.NoError(t, os.WriteFile(file, buf.Bytes(), 0o644))

	var loaded Config
	require.NoError(t, loadConfig(file, &loaded))
	require.Equal(t, cfg, loaded)
}

func TestConfigFileUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "witgen.toml")
	require.NoError(t, os.WriteFile(file, []byte("Bogus = 1\n"), 0o644))

	cfg := defaultConfig
	err := loadConfig(file, &cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Bogus")
}

func TestMakeConfigFlagsOverrideFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "witgen.toml")
	require.NoError(t, os.WriteFile(file, []byte("Parallel = 3\nCompress = true\n"), 0o644))

	app := newApp()
	set := flag.NewFlagSet("witgen-test", flag.ContinueOnError)
	for _, f := range app.Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Set(configFileFlag.Name, file))
	require.NoError(t, set.Set(parallelFlag.Name, "8"))

	cfg, err := makeConfig(cli.NewContext(app, set, nil))
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Parallel)
	require.True(t, cfg.Compress)
	require.Equal(t, defaultConfig.CacheMB, cfg.CacheMB)
}
