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

import "github.com/ethereum/go-ethereum/metrics"

var (
	stepsMeter        = metrics.NewRegisteredMeter("witgen/builder/steps", nil)
	rowsMeter         = metrics.NewRegisteredMeter("witgen/builder/rows", nil)
	callsMeter        = metrics.NewRegisteredMeter("witgen/builder/calls", nil)
	copyEventsCounter = metrics.NewRegisteredCounter("witgen/builder/copy/events", nil)
	copyBytesMeter    = metrics.NewRegisteredMeter("witgen/builder/copy/bytes", nil)
	txTimer           = metrics.NewRegisteredTimer("witgen/builder/tx/time", nil)
)
