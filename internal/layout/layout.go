// Copyright 2025 The sdict Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package layout implements the pure, offset-computing half of the .sdict
// file format: magic bytes, section boundaries, and little-endian integer
// encoding. It touches no file handles.
package layout

import "encoding/binary"

// Magic is the 7-byte magic prefix of every .sdict file. The sixth byte is
// the format version; the seventh is reserved and always zero.
var Magic = [7]byte{'S', 'D', 'I', 'C', 'T', 0x01, 0x00}

// InitReservedWords is the number of index-table slots a freshly created
// file reserves.
const InitReservedWords = 32

// InitWordsSectSize is the number of bytes a freshly created file reserves
// for the packed words section.
const InitWordsSectSize = 256

// BatchSize is the chunk size used for streaming definition reads (hash
// verification, payload comparison during compaction).
const BatchSize = 4096

// HeaderSize is the size, in bytes, of the three-uint32 header that
// follows the magic bytes: reservedWords, wordsSectSize, numWords.
const HeaderSize = 12

// IndsSectionOffset returns the byte offset of the start of the word-index
// table, which immediately follows the magic bytes and header.
func IndsSectionOffset() int64 {
	return int64(len(Magic)) + HeaderSize
}

// WordsSectionOffset returns the byte offset of the start of the words
// section, given the number of reserved word slots. The word-index table
// and the def-index table each occupy reservedWords*4 bytes.
func WordsSectionOffset(reservedWords uint32) int64 {
	return IndsSectionOffset() + int64(reservedWords)*4*2
}

// DefsSectionOffset returns the byte offset of the start of the defs
// section.
func DefsSectionOffset(reservedWords, wordsSectSize uint32) int64 {
	return WordsSectionOffset(reservedWords) + int64(wordsSectSize)
}

// DefIndexOffset returns the byte offset of the def-index table, which
// follows the word-index table within the combined index section.
func DefIndexOffset(reservedWords uint32) int64 {
	return IndsSectionOffset() + int64(reservedWords)*4
}

// NextPow2 returns the smallest power of two that is >= n, or 1 if n == 0.
func NextPow2(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	p := uint32(1)
	for p < n {
		p *= 2
	}
	return p
}

// PutUint32 encodes v as little-endian into b, which must be at least 4
// bytes.
func PutUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// Uint32 decodes a little-endian uint32 from the first 4 bytes of b.
func Uint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// PutUint64 encodes v as little-endian into b, which must be at least 8
// bytes.
func PutUint64(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}

// Uint64 decodes a little-endian uint64 from the first 8 bytes of b.
func Uint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}
