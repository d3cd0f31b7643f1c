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

// Package wordindex implements the in-memory word -> definition-offset
// index: a sorted prefix plus an unsorted tail of recently appended
// entries, amortizing inserts without requiring a balanced tree.
package wordindex

import (
	"bytes"
	"errors"
	"slices"
	"sort"
)

// ErrDuplicateWord indicates Finalize found two equal keys in the tail
// being merged in. The caller is expected to have already prevented this
// via Find, so this is an internal invariant violation.
var ErrDuplicateWord = errors.New("wordindex: duplicate word in flush tail")

// None is the sentinel value of FirstNewWord meaning "fully sorted, no
// tail".
const None = -1

// Entry is a single word -> definition-offset mapping.
type Entry struct {
	Key       []byte
	DefOffset uint32
}

// Index is the sorted-prefix-plus-tail word index described in the sdict
// file format: Entries[:FirstNewWord] is sorted by Key; the remainder is
// an unsorted tail of entries appended since the last Finalize.
type Index struct {
	Entries      []Entry
	FirstNewWord int
}

// New returns an Index over already-sorted entries (as read from an
// existing file), with no tail.
func New(entries []Entry) *Index {
	return &Index{
		Entries:      entries,
		FirstNewWord: None,
	}
}

// Len returns the total number of entries, sorted and tail combined.
func (idx *Index) Len() int {
	return len(idx.Entries)
}

// Find returns the definition offset for key and true, or (0, false) if
// key is not present. The sorted prefix is searched with a binary search;
// any tail is searched linearly.
func (idx *Index) Find(key []byte) (uint32, bool) {
	end := len(idx.Entries)
	if idx.FirstNewWord != None {
		end = idx.FirstNewWord
	}

	i, found := sort.Find(end, func(i int) int {
		return bytes.Compare(key, idx.Entries[i].Key)
	})
	if found {
		return idx.Entries[i].DefOffset, true
	}

	if end == len(idx.Entries) {
		return 0, false
	}
	for i := end; i < len(idx.Entries); i++ {
		if bytes.Equal(idx.Entries[i].Key, key) {
			return idx.Entries[i].DefOffset, true
		}
	}
	return 0, false
}

// Append adds a new (key, defOffset) pair to the unsorted tail. The
// caller must have already confirmed key is not present via Find.
func (idx *Index) Append(key []byte, defOffset uint32) {
	if idx.FirstNewWord == None {
		idx.FirstNewWord = len(idx.Entries)
	}
	idx.Entries = append(idx.Entries, Entry{Key: append([]byte(nil), key...), DefOffset: defOffset})
}

// Finalize sorts the tail and merges it with the sorted prefix into a
// newly allocated Entries slice, leaving the whole of Entries sorted and
// FirstNewWord reset to None.
// It returns ErrDuplicateWord if the tail contains (or introduces) a
// duplicate key; this indicates a caller bug, since Find should have
// prevented the duplicate from ever reaching Append.
func (idx *Index) Finalize() error {
	if idx.FirstNewWord == None {
		return nil
	}

	tail := idx.Entries[idx.FirstNewWord:]
	slices.SortFunc(tail, func(a, b Entry) int {
		return bytes.Compare(a.Key, b.Key)
	})
	for i := 1; i < len(tail); i++ {
		if bytes.Equal(tail[i-1].Key, tail[i].Key) {
			return ErrDuplicateWord
		}
	}

	merged := make([]Entry, 0, len(idx.Entries))
	merged = mergeSorted(merged, idx.Entries[:idx.FirstNewWord], tail)
	idx.Entries = merged
	idx.FirstNewWord = None

	for i := 1; i < len(idx.Entries); i++ {
		if bytes.Equal(idx.Entries[i-1].Key, idx.Entries[i].Key) {
			return ErrDuplicateWord
		}
	}
	return nil
}

func mergeSorted(dst []Entry, a, b []Entry) []Entry {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if bytes.Compare(a[i].Key, b[j].Key) <= 0 {
			dst = append(dst, a[i])
			i++
		} else {
			dst = append(dst, b[j])
			j++
		}
	}
	dst = append(dst, a[i:]...)
	dst = append(dst, b[j:]...)
	return dst
}

// SortAndCheck sorts entries in place by Key and reports whether any
// duplicate key was found, for use when validating entries freshly read
// from disk.
func SortAndCheck(entries []Entry) bool {
	slices.SortFunc(entries, func(a, b Entry) int {
		return bytes.Compare(a.Key, b.Key)
	})
	for i := 1; i < len(entries); i++ {
		if bytes.Equal(entries[i-1].Key, entries[i].Key) {
			return true
		}
	}
	return false
}
