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

// Package dedup implements the in-memory (size, hash) -> def-offset
// candidate index used to reuse existing definition records instead of
// writing duplicate payloads.
package dedup

// Index is a two-level size -> hash -> candidate-offsets map. It never
// touches a file; callers are responsible for re-checking the header hash
// (and, during compaction, the full payload) of any candidate it returns.
type Index struct {
	bySize map[uint32]map[uint64][]uint32
}

// New returns an empty dedup Index.
func New() *Index {
	return &Index{bySize: make(map[uint32]map[uint64][]uint32)}
}

// Lookup returns the candidate def offsets previously registered under
// (size, hash), or nil if there are none.
func (idx *Index) Lookup(size uint32, hash uint64) []uint32 {
	byHash, ok := idx.bySize[size]
	if !ok {
		return nil
	}
	return byHash[hash]
}

// Add registers offset as a candidate for (size, hash). If offset is
// already registered for this (size, hash), it is not added again.
func (idx *Index) Add(size uint32, hash uint64, offset uint32) {
	byHash, ok := idx.bySize[size]
	if !ok {
		byHash = make(map[uint64][]uint32)
		idx.bySize[size] = byHash
	}
	for _, existing := range byHash[hash] {
		if existing == offset {
			return
		}
	}
	byHash[hash] = append(byHash[hash], offset)
}

// Reset clears the index, for use when rebuilding it from scratch (e.g.
// during compaction, against the new file's already-written records).
func (idx *Index) Reset() {
	idx.bySize = make(map[uint32]map[uint64][]uint32)
}
