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

// Package defstore implements reading and writing of definition records
// in the defs section of an .sdict file: a {size uint32, hash uint64,
// payload []byte} header followed by the opaque payload bytes.
package defstore

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"io"

	"github.com/sdictio/sdict/internal/layout"
)

// ErrZeroSize indicates a definition record's size field was zero, which
// is never valid: defs must be non-empty.
var ErrZeroSize = errors.New("defstore: read zero definition size")

// ErrHashMismatch indicates a definition's recomputed hash does not match
// its stored hash.
var ErrHashMismatch = errors.New("defstore: definition hash does not match")

const headerSize = 4 + 8 // size uint32 + hash uint64

// Hash returns the FNV-1a-64 hash of payload, the exact algorithm pinned
// by the file format (hash/fnv's New64a implements it directly).
func Hash(payload []byte) uint64 {
	h := fnv.New64a()
	h.Write(payload) //nolint:errcheck // hash.Hash64.Write never errors
	return h.Sum64()
}

// Store reads definition records from an underlying file. The offsets its
// methods take are absolute file offsets of a record's header; the caller
// adds the defs-section offset, which changes whenever the file's
// reserved sizes change.
type Store struct {
	f io.ReaderAt
}

// New returns a Store reading definition records through f.
func New(f io.ReaderAt) *Store {
	return &Store{f: f}
}

// WriteRecord writes a {size, hash, payload} record for payload to w at
// the writer's current position and returns the number of bytes written.
// The hash is computed from payload before writing.
func WriteRecord(w io.Writer, payload []byte) (int64, error) {
	if len(payload) == 0 {
		return 0, fmt.Errorf("defstore: %w", errEmptyPayload)
	}
	hdr := make([]byte, headerSize)
	layout.PutUint32(hdr, uint32(len(payload)))
	layout.PutUint64(hdr[4:], Hash(payload))

	n, err := w.Write(hdr)
	if err != nil {
		return int64(n), fmt.Errorf("defstore: writing header: %w", err)
	}
	m, err := w.Write(payload)
	if err != nil {
		return int64(n + m), fmt.Errorf("defstore: writing payload: %w", err)
	}
	return int64(n + m), nil
}

var errEmptyPayload = errors.New("empty payload")

// ReadHeader reads the size and hash fields of the record at offset and
// returns an error if size is zero.
func (s *Store) ReadHeader(offset int64) (size uint32, hash uint64, err error) {
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(newSectionReader(s.f, offset), hdr); err != nil {
		return 0, 0, fmt.Errorf("defstore: reading header: %w", err)
	}
	size = layout.Uint32(hdr)
	if size == 0 {
		return 0, 0, ErrZeroSize
	}
	hash = layout.Uint64(hdr[4:])
	return size, hash, nil
}

// ReadFull reads the full payload of the record at offset. If verify is
// set, the payload's FNV-1a-64 hash is recomputed and compared against
// the stored hash.
func (s *Store) ReadFull(offset int64, verify bool) ([]byte, error) {
	size, hash, err := s.ReadHeader(offset)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(newSectionReader(s.f, offset+headerSize), payload); err != nil {
		return nil, fmt.Errorf("defstore: reading payload: %w", err)
	}

	if verify && Hash(payload) != hash {
		return nil, ErrHashMismatch
	}
	return payload, nil
}

// StreamHash reads the size-byte payload at offset+headerSize in fixed
// BatchSize chunks and folds it into an FNV-1a-64 accumulator, avoiding
// loading very large definitions into memory all at once. It returns the
// resulting hash and reports whether it matches the stored header hash.
func (s *Store) StreamHash(offset int64, size uint32) (hash uint64, matches bool, err error) {
	_, storedHash, err := s.ReadHeader(offset)
	if err != nil {
		return 0, false, err
	}

	h := fnv.New64a()
	r := newSectionReader(s.f, offset+headerSize)
	buf := make([]byte, layout.BatchSize)
	var remaining int64 = int64(size)
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return 0, false, fmt.Errorf("defstore: streaming payload: %w", err)
		}
		h.Write(buf[:n]) //nolint:errcheck // hash.Hash64.Write never errors
		remaining -= n
	}
	sum := h.Sum64()
	return sum, sum == storedHash, nil
}

// PayloadEqual compares the size-byte payloads at offsetA (in this Store)
// and offsetB (in other) batch by batch, used as the final confirmation
// of a dedup candidate during compaction.
func (s *Store) PayloadEqual(offsetA int64, other *Store, offsetB int64, size uint32) (bool, error) {
	ra := newSectionReader(s.f, offsetA+headerSize)
	rb := newSectionReader(other.f, offsetB+headerSize)

	bufA := make([]byte, layout.BatchSize)
	bufB := make([]byte, layout.BatchSize)
	var remaining int64 = int64(size)
	for remaining > 0 {
		n := int64(len(bufA))
		if remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(ra, bufA[:n]); err != nil {
			return false, fmt.Errorf("defstore: comparing payload: %w", err)
		}
		if _, err := io.ReadFull(rb, bufB[:n]); err != nil {
			return false, fmt.Errorf("defstore: comparing payload: %w", err)
		}
		if !bytes.Equal(bufA[:n], bufB[:n]) {
			return false, nil
		}
		remaining -= n
	}
	return true, nil
}

// newSectionReader returns an io.Reader starting at offset within f,
// without assuming f is also an io.Seeker.
func newSectionReader(f io.ReaderAt, offset int64) io.Reader {
	return io.NewSectionReader(f, offset, 1<<62)
}
