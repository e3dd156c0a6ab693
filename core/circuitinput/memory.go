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

// Memory is the byte-addressed memory of one call frame. Frames never share
// a Memory; copies between or within frames go through offsets.
type Memory struct {
	data []byte
}

// NewMemory returns a memory holding a copy of b.
func NewMemory(b []byte) *Memory {
	return &Memory{data: append([]byte(nil), b...)}
}

// Len returns the current size in bytes.
func (m *Memory) Len() uint64 {
	return uint64(len(m.data))
}

// Bytes returns the backing slice. It is only valid until the next write.
func (m *Memory) Bytes() []byte {
	return m.data
}

func wordCeil(n uint64) uint64 {
	return (n + 31) / 32 * 32
}

// Extend grows memory to cover [offset, offset+length), rounded up to a whole
// word. A zero length never grows memory.
func (m *Memory) Extend(offset, length uint64) {
	if length == 0 {
		return
	}
	if size := wordCeil(offset + length); size > uint64(len(m.data)) {
		m.data = append(m.data, make([]byte, size-uint64(len(m.data)))...)
	}
}

// Read returns a copy of [offset, offset+length). Bytes past the end of
// memory read as zero; memory is not grown.
func (m *Memory) Read(offset, length uint64) []byte {
	out := make([]byte, length)
	if offset < uint64(len(m.data)) {
		copy(out, m.data[offset:])
	}
	return out
}

// Write stores data at offset, growing memory as needed.
func (m *Memory) Write(offset uint64, data []byte) {
	m.Extend(offset, uint64(len(data)))
	copy(m.data[offset:], data)
}

// CopyFrom overwrites [dst, dst+length) with data[src:src+length], padding
// with zeroes where data runs out, and returns the bytes taken from data.
// The source bytes are captured before the destination is touched, so data
// may alias this memory.
func (m *Memory) CopyFrom(dst, src, length uint64, data []byte) []byte {
	read := sliceSource(data, src, length)
	if length == 0 {
		return read
	}
	m.Extend(dst, length)
	region := m.data[dst : dst+length]
	clear(region)
	copy(region, read)
	return read
}

// sliceSource returns a copy of data[src:src+length] truncated to the end of
// data. A source offset at or past the end yields no bytes.
func sliceSource(data []byte, src, length uint64) []byte {
	if src >= uint64(len(data)) {
		return []byte{}
	}
	end := uint64(len(data))
	if length < end-src {
		end = src + length
	}
	return append([]byte{}, data[src:end]...)
}
