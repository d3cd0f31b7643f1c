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

package sdict_test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdictio/sdict"
)

func TestAddWordAndFindBasic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.sdict")
	f, err := sdict.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !f.CreatedFile() {
		t.Errorf("CreatedFile() = false, want true for a new path")
	}
	defer f.Close()

	// 33 words sharing only 6 distinct definitions, exercising both the
	// sorted-prefix growth path and dedup sharing.
	defs := []string{"definition1", "definition2", "definition3", "definition4", "definition5", "definition6"}
	// word1..word6 get definition1, word7..word12 definition2, and so on up
	// to word31..word33 with definition6.
	for i := 1; i <= 33; i++ {
		word := fmt.Sprintf("word%d", i)
		def := defs[(i-1)/6]
		ok, err := f.AddWord([]byte(word), []byte(def), sdict.WithFlush(false))
		if err != nil {
			t.Fatalf("AddWord(%s): %v", word, err)
		}
		if !ok {
			t.Fatalf("AddWord(%s) = false, want true", word)
		}
	}
	if _, err := f.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	n, err := f.NumWords()
	if err != nil {
		t.Fatalf("NumWords: %v", err)
	}
	if n != 33 {
		t.Errorf("NumWords() = %d, want 33", n)
	}

	cases := []struct {
		word string
		want string
	}{
		{"word30", "definition5"},
		{"word32", "definition6"},
		{"word5", "definition1"},
	}
	for _, c := range cases {
		got, found, err := f.Find([]byte(c.word), false)
		if err != nil {
			t.Fatalf("Find(%s): %v", c.word, err)
		}
		if !found {
			t.Fatalf("Find(%s) not found", c.word)
		}
		if string(got) != c.want {
			t.Errorf("Find(%s) = %q, want %q", c.word, got, c.want)
		}
	}
}

func TestAddWordDuplicateReturnsFalse(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.sdict")
	f, err := sdict.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, err := f.AddWord([]byte("hello"), []byte("greeting")); err != nil {
		t.Fatalf("AddWord: %v", err)
	}
	ok, err := f.AddWord([]byte("hello"), []byte("something else"))
	if err != nil {
		t.Fatalf("AddWord duplicate: %v", err)
	}
	if ok {
		t.Errorf("AddWord duplicate = true, want false")
	}

	got, found, err := f.Find([]byte("hello"), false)
	if err != nil || !found {
		t.Fatalf("Find(hello) = %v, %v, %v", got, found, err)
	}
	if string(got) != "greeting" {
		t.Errorf("Find(hello) = %q, want original definition preserved", got)
	}
}

func TestManyInsertsNoDedupRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.sdict")
	f, err := sdict.Open(path, sdict.WithDeduplicate(false))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	const count = 65536
	seen := make(map[string]string, count)
	r := rand.New(rand.NewSource(1))
	for len(seen) < count {
		key := fmt.Sprintf("k%d", r.Int63())
		if _, ok := seen[key]; ok {
			continue
		}
		def := fmt.Sprintf("def-%d-%d", r.Int63(), r.Int63())
		seen[key] = def
		if _, err := f.AddWord([]byte(key), []byte(def), sdict.WithFlush(false), sdict.WithSkipDupCheck(true)); err != nil {
			t.Fatalf("AddWord(%s): %v", key, err)
		}
	}
	if _, err := f.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f2, err := sdict.Open(path, sdict.WithCreateIfMissing(false), sdict.WithDeduplicate(false))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f2.Close()

	n, err := f2.NumWords()
	if err != nil {
		t.Fatalf("NumWords: %v", err)
	}
	if n != count {
		t.Errorf("NumWords() = %d, want %d", n, count)
	}

	i := 0
	for key, def := range seen {
		got, found, err := f2.Find([]byte(key), true)
		if err != nil {
			t.Fatalf("Find(%s): %v", key, err)
		}
		if !found {
			t.Fatalf("Find(%s) not found after reopen", key)
		}
		if string(got) != def {
			t.Fatalf("Find(%s) = %q, want %q", key, got, def)
		}
		i++
		if i > 200 {
			break // spot-check a subset; the round trip above already confirms the count
		}
	}
}

func TestDedupSharesDefinitionStorage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.sdict")
	f, err := sdict.Open(path, sdict.WithDeduplicate(true))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	shared := []byte("a shared definition body used by many words")
	const count = 16384
	for i := 0; i < count; i++ {
		key := fmt.Sprintf("w%d", i)
		if _, err := f.AddWord([]byte(key), shared, sdict.WithFlush(false)); err != nil {
			t.Fatalf("AddWord(%s): %v", key, err)
		}
	}
	if _, err := f.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// With dedup, the defs section (everything after the magic, header,
	// both index tables and the words section) holds one copy of `shared`
	// plus its 12-byte header, not count copies.
	reservedWords := binary.LittleEndian.Uint32(raw[7:11])
	wordsSectSize := binary.LittleEndian.Uint32(raw[11:15])
	defsSize := int64(len(raw)) - (19 + int64(reservedWords)*8 + int64(wordsSectSize))
	maxExpected := int64(len(shared)) + 12
	if defsSize > maxExpected {
		t.Errorf("defs section size %d suspiciously large for deduplicated defs (bound %d)", defsSize, maxExpected)
	}

	f2, err := sdict.Open(path, sdict.WithCreateIfMissing(false))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f2.Close()
	got, found, err := f2.Find([]byte("w100"), true)
	if err != nil || !found || string(got) != string(shared) {
		t.Fatalf("Find(w100) = %q, %v, %v", got, found, err)
	}
}

func TestFindMissingWord(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.sdict")
	f, err := sdict.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	_, found, err := f.Find([]byte("nope"), false)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found {
		t.Errorf("Find(nope) found = true, want false")
	}
}

func TestVerifyDefsDetectsCorruption(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.sdict")
	f, err := sdict.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := f.AddWord([]byte("testword1"), []byte("the first test definition")); err != nil {
		t.Fatalf("AddWord: %v", err)
	}
	if _, err := f.AddWord([]byte("testword2"), []byte("the second test definition")); err != nil {
		t.Fatalf("AddWord: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw[len(raw)-1] ^= 0xff // flip a byte inside the last definition's payload
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f2, err := sdict.Open(path, sdict.WithCreateIfMissing(false), sdict.WithVerifyDefs(true))
	if err == nil {
		f2.Close()
		t.Fatalf("Open with corrupted payload succeeded, want error")
	}
	if !errors.Is(err, sdict.ErrCorrupt) {
		t.Errorf("Open err = %v, want ErrCorrupt", err)
	}
}

func TestOpenRejectsBadMagicVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.sdict")
	raw := append([]byte("SDICT\x02\x00"), make([]byte, 12+32*4*2+256)...)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := sdict.Open(path, sdict.WithCreateIfMissing(false))
	if !errors.Is(err, sdict.ErrCorrupt) {
		t.Errorf("Open err = %v, want ErrCorrupt", err)
	}
}

func TestOpenMissingFileWithoutCreate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does-not-exist.sdict")
	_, err := sdict.Open(path, sdict.WithCreateIfMissing(false))
	if !errors.Is(err, sdict.ErrNotExist) {
		t.Errorf("Open err = %v, want ErrNotExist", err)
	}
}

func TestOpenRejectsDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := sdict.Open(dir)
	if !errors.Is(err, sdict.ErrNotRegularFile) {
		t.Errorf("Open err = %v, want ErrNotRegularFile", err)
	}
}

func TestOpenRejectsZeroByteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.sdict")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := sdict.Open(path, sdict.WithCreateIfMissing(false))
	if !errors.Is(err, sdict.ErrCorrupt) {
		t.Errorf("Open err = %v, want ErrCorrupt", err)
	}
}

func TestAddWordRejectsEmptyDef(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.sdict")
	f, err := sdict.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, err := f.AddWord([]byte("word"), nil); !errors.Is(err, sdict.ErrEmptyDef) {
		t.Errorf("AddWord(empty def) err = %v, want ErrEmptyDef", err)
	}
}

func TestAddWordRejectsEmptyKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.sdict")
	f, err := sdict.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, err := f.AddWord(nil, []byte("def")); !errors.Is(err, sdict.ErrEmptyKey) {
		t.Errorf("AddWord(empty key) err = %v, want ErrEmptyKey", err)
	}
}

func TestLargeKeyTriggersGrowth(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.sdict")
	f, err := sdict.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	bigKey := make([]byte, 4096)
	for i := range bigKey {
		bigKey[i] = byte('a' + i%26)
	}
	if _, err := f.AddWord(bigKey, []byte("a definition for a very long key")); err != nil {
		t.Fatalf("AddWord: %v", err)
	}

	got, found, err := f.Find(bigKey, true)
	if err != nil || !found {
		t.Fatalf("Find(bigKey) = %v, %v, %v", got, found, err)
	}
	if string(got) != "a definition for a very long key" {
		t.Errorf("Find(bigKey) = %q", got)
	}
}

func TestLargeDefinitionStoredCorrectly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dict.sdict")
	f, err := sdict.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	bigDef := make([]byte, 50000)
	for i := range bigDef {
		bigDef[i] = byte(i % 251)
	}
	if _, err := f.AddWord([]byte("bigdef"), bigDef); err != nil {
		t.Fatalf("AddWord: %v", err)
	}

	got, found, err := f.Find([]byte("bigdef"), true)
	if err != nil || !found {
		t.Fatalf("Find(bigdef) = %v, %v, %v", found, err, got)
	}
	if len(got) != len(bigDef) {
		t.Fatalf("Find(bigdef) len = %d, want %d", len(got), len(bigDef))
	}
	for i := range got {
		if got[i] != bigDef[i] {
			t.Fatalf("Find(bigdef)[%d] = %d, want %d", i, got[i], bigDef[i])
		}
	}
}
