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

package sdict

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"io"
	"os"

	"github.com/sdictio/sdict/internal/dedup"
	"github.com/sdictio/sdict/internal/defstore"
	"github.com/sdictio/sdict/internal/layout"
	"github.com/sdictio/sdict/internal/wordindex"
)

// File is a single open .sdict dictionary file. It is not safe for
// concurrent use from multiple goroutines: callers that need concurrent
// access must serialize their own calls.
type File struct {
	path string
	f    *os.File

	reservedWords uint32
	wordsSectSize uint32

	idx   *wordindex.Index
	store *defstore.Store
	dedup *dedup.Index

	doDedup     bool
	verifyDefs  bool
	createdFile bool
	closed      bool
}

// Open opens the .sdict file at path, creating it if it does not exist
// (unless WithCreateIfMissing(false) is given).
func Open(path string, opts ...OpenOption) (*File, error) {
	cfg := defaultOpenConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	info, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
		}
	case os.IsNotExist(statErr):
		if !cfg.createIfMissing {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		if err := createFile(path); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("sdict: stat %s: %w", path, statErr)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sdict: opening %s: %w", path, err)
	}

	file := &File{
		path:        path,
		f:           f,
		doDedup:     cfg.deduplicate,
		verifyDefs:  cfg.verifyDefs,
		createdFile: statErr != nil,
	}
	if err := file.load(); err != nil {
		f.Close()
		return nil, err
	}
	return file, nil
}

// createFile writes a fresh, empty .sdict file at path: magic, header,
// zero-filled index tables, and a zero-filled words section.
func createFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("sdict: creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(layout.Magic[:]); err != nil {
		return fmt.Errorf("sdict: writing magic: %w", err)
	}
	hdr := make([]byte, layout.HeaderSize)
	layout.PutUint32(hdr[0:4], layout.InitReservedWords)
	layout.PutUint32(hdr[4:8], layout.InitWordsSectSize)
	layout.PutUint32(hdr[8:12], 0)
	if _, err := f.Write(hdr); err != nil {
		return fmt.Errorf("sdict: writing header: %w", err)
	}

	zeros := make([]byte, layout.InitReservedWords*4*2+layout.InitWordsSectSize)
	if _, err := f.Write(zeros); err != nil {
		return fmt.Errorf("sdict: writing index and words sections: %w", err)
	}
	return nil
}

// load reads the magic, header, index tables, and words section of an
// already-open file, and optionally verifies and indexes the defs section.
func (f *File) load() error {
	info, err := f.f.Stat()
	if err != nil {
		return fmt.Errorf("sdict: stat: %w", err)
	}
	fileSize := info.Size()

	if fileSize < int64(len(layout.Magic))+layout.HeaderSize {
		return fmt.Errorf("%w: %s: file too small", ErrCorrupt, f.path)
	}

	magic := make([]byte, len(layout.Magic))
	if _, err := io.ReadFull(io.NewSectionReader(f.f, 0, int64(len(magic))), magic); err != nil {
		return fmt.Errorf("sdict: reading magic: %w", err)
	}
	if !bytes.Equal(magic, layout.Magic[:]) {
		return fmt.Errorf("%w: %s: bad magic", ErrCorrupt, f.path)
	}

	hdr := make([]byte, layout.HeaderSize)
	if _, err := io.ReadFull(io.NewSectionReader(f.f, int64(len(layout.Magic)), layout.HeaderSize), hdr); err != nil {
		return fmt.Errorf("sdict: reading header: %w", err)
	}
	reservedWords := layout.Uint32(hdr[0:4])
	wordsSectSize := layout.Uint32(hdr[4:8])
	numWords := layout.Uint32(hdr[8:12])
	if reservedWords == 0 || wordsSectSize == 0 {
		return fmt.Errorf("%w: %s: zero-sized section", ErrCorrupt, f.path)
	}
	if numWords > reservedWords {
		return fmt.Errorf("%w: %s: numWords exceeds reservedWords", ErrCorrupt, f.path)
	}

	defsOff := layout.DefsSectionOffset(reservedWords, wordsSectSize)
	if fileSize < defsOff {
		return fmt.Errorf("%w: %s: truncated index or words section", ErrCorrupt, f.path)
	}

	wordOffs := make([]uint32, reservedWords)
	if err := readUint32Table(f.f, layout.IndsSectionOffset(), wordOffs); err != nil {
		return err
	}
	defOffs := make([]uint32, reservedWords)
	if err := readUint32Table(f.f, layout.DefIndexOffset(reservedWords), defOffs); err != nil {
		return err
	}

	wordsSectionOff := layout.WordsSectionOffset(reservedWords)
	entries := make([]wordindex.Entry, 0, numWords)
	for i := range wordOffs {
		if wordOffs[i] == 0 {
			continue
		}
		if defOffs[i] == 0 {
			return fmt.Errorf("%w: %s: word slot %d has no def offset", ErrCorrupt, f.path, i)
		}
		if wordOffs[i]-1 >= wordsSectSize {
			return fmt.Errorf("%w: %s: word offset out of bounds", ErrCorrupt, f.path)
		}
		key, err := readCString(f.f, wordsSectionOff+int64(wordOffs[i]-1), wordsSectSize-(wordOffs[i]-1))
		if err != nil {
			return err
		}
		entries = append(entries, wordindex.Entry{Key: key, DefOffset: defOffs[i] - 1})
	}
	if uint32(len(entries)) != numWords {
		return fmt.Errorf("%w: %s: index table entry count mismatch", ErrCorrupt, f.path)
	}
	if wordindex.SortAndCheck(entries) {
		return fmt.Errorf("%w: %s: duplicate word", ErrCorrupt, f.path)
	}

	f.reservedWords = reservedWords
	f.wordsSectSize = wordsSectSize
	f.idx = wordindex.New(entries)
	f.store = defstore.New(f.f)
	f.dedup = dedup.New()

	if f.doDedup || f.verifyDefs {
		for _, e := range entries {
			abs := defsOff + int64(e.DefOffset)
			size, hash, err := f.store.ReadHeader(abs)
			if err != nil {
				return fmt.Errorf("%w: %s: reading def header: %v", ErrCorrupt, f.path, err)
			}
			if f.verifyDefs {
				_, matches, err := f.store.StreamHash(abs, size)
				if err != nil {
					return fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
				}
				if !matches {
					return fmt.Errorf("%w: %s: definition hash does not match", ErrCorrupt, f.path)
				}
			}
			if f.doDedup {
				f.dedup.Add(size, hash, e.DefOffset)
			}
		}
	}
	return nil
}

func readUint32Table(r io.ReaderAt, offset int64, out []uint32) error {
	raw := make([]byte, len(out)*4)
	if _, err := io.ReadFull(io.NewSectionReader(r, offset, int64(len(raw))), raw); err != nil {
		return fmt.Errorf("%w: reading index table: %v", ErrCorrupt, err)
	}
	for i := range out {
		out[i] = layout.Uint32(raw[i*4:])
	}
	return nil
}

// readCString reads a NUL-terminated string of at most limit bytes
// starting at offset.
func readCString(r io.ReaderAt, offset int64, limit uint32) ([]byte, error) {
	buf := make([]byte, limit)
	n, err := r.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: reading word: %v", ErrCorrupt, err)
	}
	idx := bytes.IndexByte(buf[:n], 0)
	if idx < 0 {
		return nil, fmt.Errorf("%w: unterminated word", ErrCorrupt)
	}
	return append([]byte(nil), buf[:idx]...), nil
}

// CreatedFile reports whether Open created a new file rather than opening
// an existing one.
func (f *File) CreatedFile() bool {
	return f.createdFile
}

// Path returns the filesystem path this File was opened from.
func (f *File) Path() string {
	return f.path
}

// NumWords returns the total number of words currently stored.
func (f *File) NumWords() (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	return f.idx.Len(), nil
}

// Contains reports whether key is present.
func (f *File) Contains(key []byte) (bool, error) {
	if f.closed {
		return false, ErrClosed
	}
	_, found := f.idx.Find(key)
	return found, nil
}

// Find returns the definition payload for key. The second return value is
// false if key is not present. If verify is true, the payload's hash is
// recomputed and checked before returning.
func (f *File) Find(key []byte, verify bool) ([]byte, bool, error) {
	if f.closed {
		return nil, false, ErrClosed
	}
	defOffset, found := f.idx.Find(key)
	if !found {
		return nil, false, nil
	}
	abs := f.defsSectionOffset() + int64(defOffset)
	payload, err := f.store.ReadFull(abs, verify)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	return payload, true, nil
}

// AddWord inserts key with definition payload def, returning false without
// error if key is already present. By default it flushes immediately;
// batch callers should pass WithFlush(false) and call Flush once at the
// end of the batch.
func (f *File) AddWord(key, def []byte, opts ...AddWordOption) (bool, error) {
	if f.closed {
		return false, ErrClosed
	}
	if len(key) == 0 || bytes.IndexByte(key, 0) >= 0 {
		return false, ErrEmptyKey
	}
	if len(def) == 0 {
		return false, ErrEmptyDef
	}

	cfg := defaultAddWordConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if !cfg.skipDupCheck {
		if _, found := f.idx.Find(key); found {
			return false, nil
		}
	}

	defOffset, err := f.writeDef(def)
	if err != nil {
		return false, err
	}
	f.idx.Append(key, defOffset)

	if cfg.flush {
		if _, err := f.Flush(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// writeDef writes def to the end of the defs section, reusing an existing
// record via the dedup index when possible, and returns its (relative to
// the defs section) offset.
func (f *File) writeDef(def []byte) (uint32, error) {
	hash := defstore.Hash(def)

	if f.doDedup {
		for _, cand := range f.dedup.Lookup(uint32(len(def)), hash) {
			abs := f.defsSectionOffset() + int64(cand)
			size, storedHash, err := f.store.ReadHeader(abs)
			if err != nil {
				return 0, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
			}
			if size == uint32(len(def)) && storedHash == hash {
				return cand, nil
			}
		}
	}

	end, err := f.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("sdict: seeking to end: %w", err)
	}
	relOffset := end - f.defsSectionOffset()
	if relOffset < 0 {
		return 0, fmt.Errorf("%w: %s: file shorter than defs section", ErrCorrupt, f.path)
	}

	if _, err := defstore.WriteRecord(f.f, def); err != nil {
		return 0, fmt.Errorf("sdict: writing definition: %w", err)
	}

	if f.doDedup {
		f.dedup.Add(uint32(len(def)), hash, uint32(relOffset))
	}
	return uint32(relOffset), nil
}

func (f *File) defsSectionOffset() int64 {
	return layout.DefsSectionOffset(f.reservedWords, f.wordsSectSize)
}

// Flush writes any words appended since the last Flush to disk, growing
// and compacting the file if the reserved index or words capacity has
// been exceeded. It reports whether anything was written.
func (f *File) Flush() (bool, error) {
	if f.closed {
		return false, ErrClosed
	}
	if f.idx.FirstNewWord == wordindex.None {
		return false, nil
	}

	var curWordsLen, newWordsLen int64
	for _, e := range f.idx.Entries[:f.idx.FirstNewWord] {
		curWordsLen += int64(len(e.Key)) + 1
	}
	for _, e := range f.idx.Entries[f.idx.FirstNewWord:] {
		newWordsLen += int64(len(e.Key)) + 1
	}
	total := curWordsLen + newWordsLen

	numWordsTotal := uint32(f.idx.Len())
	oldReservedWords := f.reservedWords
	oldWordsSectSize := f.wordsSectSize

	newWordsSectSize := f.wordsSectSize
	for int64(newWordsSectSize) < total {
		newWordsSectSize *= 2
	}
	newReservedWords := f.reservedWords
	if numWordsTotal > newReservedWords {
		newReservedWords = layout.NextPow2(numWordsTotal)
	}

	if newWordsSectSize != f.wordsSectSize || newReservedWords != f.reservedWords {
		if err := f.idx.Finalize(); err != nil {
			return false, fmt.Errorf("sdict: %w", err)
		}
		f.reservedWords = newReservedWords
		f.wordsSectSize = newWordsSectSize
		if err := f.rewriteFile(oldReservedWords, oldWordsSectSize); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := f.flushInPlace(curWordsLen); err != nil {
		return false, err
	}
	return true, nil
}

// flushInPlace appends the new-word tail to the words section and both
// index tables without relocating any existing data, then updates the
// numWords header field.
func (f *File) flushInPlace(curWordsLen int64) error {
	firstNew := f.idx.FirstNewWord
	tail := f.idx.Entries[firstNew:]

	wordsSectionOff := layout.WordsSectionOffset(f.reservedWords)
	wordIndOff := layout.IndsSectionOffset() + int64(firstNew)*4
	defIndOff := layout.DefIndexOffset(f.reservedWords) + int64(firstNew)*4

	pos := curWordsLen
	for i, e := range tail {
		if _, err := f.f.WriteAt(append(append([]byte(nil), e.Key...), 0), wordsSectionOff+pos); err != nil {
			return fmt.Errorf("sdict: writing word bytes: %w", err)
		}

		wordBuf := make([]byte, 4)
		layout.PutUint32(wordBuf, uint32(pos)+1)
		if _, err := f.f.WriteAt(wordBuf, wordIndOff+int64(i)*4); err != nil {
			return fmt.Errorf("sdict: writing word index entry: %w", err)
		}

		defBuf := make([]byte, 4)
		layout.PutUint32(defBuf, e.DefOffset+1)
		if _, err := f.f.WriteAt(defBuf, defIndOff+int64(i)*4); err != nil {
			return fmt.Errorf("sdict: writing def index entry: %w", err)
		}

		pos += int64(len(e.Key)) + 1
	}

	numWordsBuf := make([]byte, 4)
	layout.PutUint32(numWordsBuf, uint32(f.idx.Len()))
	if _, err := f.f.WriteAt(numWordsBuf, int64(len(layout.Magic))+8); err != nil {
		return fmt.Errorf("sdict: writing numWords header: %w", err)
	}

	return f.idx.Finalize()
}

// rewriteFile compacts the whole file into a temporary file at the new
// (already-grown) reservedWords/wordsSectSize, then atomically replaces
// the original. oldReservedWords and oldWordsSectSize locate existing
// definition records, which have not moved.
func (f *File) rewriteFile(oldReservedWords, oldWordsSectSize uint32) error {
	tmpPath := f.path + ".tmp"
	file2, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("sdict: creating %s: %w", tmpPath, err)
	}
	succeeded := false
	defer func() {
		file2.Close()
		if !succeeded {
			os.Remove(tmpPath)
		}
	}()

	entries := f.idx.Entries

	if _, err := file2.Write(layout.Magic[:]); err != nil {
		return fmt.Errorf("sdict: writing magic: %w", err)
	}
	hdr := make([]byte, layout.HeaderSize)
	layout.PutUint32(hdr[0:4], f.reservedWords)
	layout.PutUint32(hdr[4:8], f.wordsSectSize)
	layout.PutUint32(hdr[8:12], uint32(len(entries)))
	if _, err := file2.Write(hdr); err != nil {
		return fmt.Errorf("sdict: writing header: %w", err)
	}

	var bytesWritten uint32
	wordIdxBuf := make([]byte, 4)
	for _, e := range entries {
		layout.PutUint32(wordIdxBuf, bytesWritten+1)
		if _, err := file2.Write(wordIdxBuf); err != nil {
			return fmt.Errorf("sdict: writing word index table: %w", err)
		}
		bytesWritten += uint32(len(e.Key)) + 1
	}
	if _, err := file2.Write(make([]byte, 4*(f.reservedWords-uint32(len(entries))))); err != nil {
		return fmt.Errorf("sdict: padding word index table: %w", err)
	}

	if _, err := file2.Write(make([]byte, 4*f.reservedWords)); err != nil {
		return fmt.Errorf("sdict: reserving def index table: %w", err)
	}

	for _, e := range entries {
		if _, err := file2.Write(append(append([]byte(nil), e.Key...), 0)); err != nil {
			return fmt.Errorf("sdict: writing word bytes: %w", err)
		}
	}
	if _, err := file2.Write(make([]byte, f.wordsSectSize-bytesWritten)); err != nil {
		return fmt.Errorf("sdict: padding words section: %w", err)
	}

	newDefOffsets, err := f.copyDefs(file2, entries, oldReservedWords, oldWordsSectSize)
	if err != nil {
		return err
	}

	defIdxOff := layout.DefIndexOffset(f.reservedWords)
	defIdxBuf := make([]byte, 4)
	for i, off := range newDefOffsets {
		layout.PutUint32(defIdxBuf, off+1)
		if _, err := file2.WriteAt(defIdxBuf, defIdxOff+int64(i)*4); err != nil {
			return fmt.Errorf("sdict: writing def index table: %w", err)
		}
	}

	for i := range entries {
		entries[i].DefOffset = newDefOffsets[i]
	}

	if err := file2.Sync(); err != nil {
		return fmt.Errorf("sdict: syncing %s: %w", tmpPath, err)
	}
	if err := f.f.Close(); err != nil {
		return fmt.Errorf("sdict: closing %s: %w", f.path, err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("sdict: renaming %s to %s: %w", tmpPath, f.path, err)
	}
	succeeded = true

	reopened, err := os.OpenFile(f.path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("sdict: reopening %s: %w", f.path, err)
	}
	f.f = reopened
	f.store = defstore.New(f.f)
	return nil
}

// copyDefs migrates each entry's definition record from the old file into
// file2, reusing an already-migrated record when the dedup index reports
// a size/hash/payload match, and returns the new (relative) def offset
// for each entry in order.
func (f *File) copyDefs(file2 *os.File, entries []wordindex.Entry, oldReservedWords, oldWordsSectSize uint32) ([]uint32, error) {
	oldDefsOff := layout.DefsSectionOffset(oldReservedWords, oldWordsSectSize)
	newDefsOff := layout.DefsSectionOffset(f.reservedWords, f.wordsSectSize)
	oldStore := defstore.New(f.f)
	newStore := defstore.New(file2)

	if f.doDedup {
		f.dedup.Reset()
	}

	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		oldAbs := oldDefsOff + int64(e.DefOffset)
		size, hash, err := oldStore.ReadHeader(oldAbs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: reading old definition: %v", ErrCorrupt, f.path, err)
		}

		newOffset := int64(-1)
		if f.doDedup {
			for _, cand := range f.dedup.Lookup(size, hash) {
				candAbs := newDefsOff + int64(cand)
				cSize, cHash, herr := newStore.ReadHeader(candAbs)
				if herr != nil || cSize != size || cHash != hash {
					continue
				}
				eq, eerr := oldStore.PayloadEqual(oldAbs, newStore, candAbs, size)
				if eerr != nil {
					return nil, fmt.Errorf("sdict: comparing payloads during compaction: %w", eerr)
				}
				if eq {
					newOffset = int64(cand)
					break
				}
			}
		}

		if newOffset == -1 {
			pos, err := file2.Seek(0, io.SeekEnd)
			if err != nil {
				return nil, fmt.Errorf("sdict: seeking %s: %w", file2.Name(), err)
			}
			rel := uint32(pos - newDefsOff)

			hdrBuf := make([]byte, 12)
			layout.PutUint32(hdrBuf[0:4], size)
			layout.PutUint64(hdrBuf[4:12], hash)
			if _, err := file2.Write(hdrBuf); err != nil {
				return nil, fmt.Errorf("sdict: writing definition header: %w", err)
			}

			h := fnv.New64a()
			src := io.NewSectionReader(f.f, oldAbs+12, int64(size))
			mw := io.MultiWriter(file2, h)
			if _, err := io.CopyN(mw, src, int64(size)); err != nil {
				return nil, fmt.Errorf("sdict: copying definition payload: %w", err)
			}
			if h.Sum64() != hash {
				if _, err := file2.WriteAt(le64(h.Sum64()), pos+4); err != nil {
					return nil, fmt.Errorf("sdict: patching definition hash: %w", err)
				}
			}

			if f.doDedup {
				f.dedup.Add(size, hash, rel)
			}
			newOffset = int64(rel)
		}
		offsets[i] = uint32(newOffset)
	}
	return offsets, nil
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	layout.PutUint64(b, v)
	return b
}

// Walk calls fn for every word in key-sorted order, passing its definition
// payload unverified. Any pending in-memory inserts are flushed first so
// the walk sees a consistent, fully sorted view. Walk stops and returns
// fn's error as soon as fn returns a non-nil error.
func Walk(f *File, fn func(word, def []byte) error) error {
	if f.closed {
		return ErrClosed
	}
	if _, err := f.Flush(); err != nil {
		return err
	}
	for _, e := range f.idx.Entries {
		abs := f.defsSectionOffset() + int64(e.DefOffset)
		payload, err := f.store.ReadFull(abs, false)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
		}
		if err := fn(e.Key, payload); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes any pending changes and closes the underlying file
// handle. Calling Close more than once returns ErrClosed.
func (f *File) Close() error {
	if f.closed {
		return ErrClosed
	}
	_, flushErr := f.Flush()
	closeErr := f.f.Close()
	f.closed = true
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return fmt.Errorf("sdict: closing %s: %w", f.path, closeErr)
	}
	return nil
}
