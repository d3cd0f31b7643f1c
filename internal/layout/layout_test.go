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

package layout_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sdictio/sdict/internal/layout"
)

func TestOffsets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		reservedWords uint32
		wordsSectSize uint32
		wantInds      int64
		wantDefIndex  int64
		wantWords     int64
		wantDefs      int64
	}{
		{
			name:          "initial sizes",
			reservedWords: layout.InitReservedWords,
			wordsSectSize: layout.InitWordsSectSize,
			wantInds:      19,
			wantDefIndex:  19 + 32*4,
			wantWords:     19 + 32*8,
			wantDefs:      19 + 32*8 + 256,
		},
		{
			name:          "zero reserved",
			reservedWords: 0,
			wordsSectSize: 0,
			wantInds:      19,
			wantDefIndex:  19,
			wantWords:     19,
			wantDefs:      19,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(test.wantInds, layout.IndsSectionOffset()); diff != "" {
				t.Errorf("IndsSectionOffset (-want, +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.wantDefIndex, layout.DefIndexOffset(test.reservedWords)); diff != "" {
				t.Errorf("DefIndexOffset (-want, +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.wantWords, layout.WordsSectionOffset(test.reservedWords)); diff != "" {
				t.Errorf("WordsSectionOffset (-want, +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.wantDefs, layout.DefsSectionOffset(test.reservedWords, test.wordsSectSize)); diff != "" {
				t.Errorf("DefsSectionOffset (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestNextPow2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   uint32
		want uint32
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{32, 32},
		{33, 64},
		{65536, 65536},
		{65537, 131072},
	}

	for _, test := range tests {
		if got := layout.NextPow2(test.in); got != test.want {
			t.Errorf("NextPow2(%d) = %d, want %d", test.in, got, test.want)
		}
	}
}

func TestUint32RoundTrip(t *testing.T) {
	t.Parallel()

	b := make([]byte, 4)
	layout.PutUint32(b, 0xdeadbeef)
	if got := layout.Uint32(b); got != 0xdeadbeef {
		t.Errorf("Uint32 = %#x, want %#x", got, 0xdeadbeef)
	}
}

func TestUint64RoundTrip(t *testing.T) {
	t.Parallel()

	b := make([]byte, 8)
	layout.PutUint64(b, 0xcbf29ce484222325)
	if got := layout.Uint64(b); got != 0xcbf29ce484222325 {
		t.Errorf("Uint64 = %#x, want %#x", got, uint64(0xcbf29ce484222325))
	}
}
