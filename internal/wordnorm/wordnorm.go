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

// Package wordnorm normalizes headwords before they are stored or looked
// up: lowercasing and folding any run of whitespace (including leading and
// trailing) down to single interior spaces, so "Apple", "apple", and
// " apple " all land on the same index slot.
package wordnorm

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Key returns the normalized form of word, suitable for use as a key in
// the word index.
func Key(word []byte) ([]byte, error) {
	t := transform.Chain(&whitespaceFolder{}, runes.Map(unicode.ToLower))
	out, _, err := transform.Bytes(t, word)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// whitespaceFolder removes leading and trailing whitespace and collapses
// any internal run of whitespace to a single ASCII space. Adapted from the
// whitespace folding transformer used elsewhere in this ecosystem for
// rendering definition text, here applied to headwords instead.
type whitespaceFolder struct {
	notStart bool
	wsSpan   bool
}

// Transform implements transform.Transformer.
func (w *whitespaceFolder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c, size := utf8.DecodeRune(src[nSrc:])
		if c == utf8.RuneError && size == 1 && !atEOF {
			return nDst, nSrc, transform.ErrShortSrc
		}

		if unicode.IsSpace(c) {
			nSrc += size
			if !w.notStart {
				continue
			}
			w.wsSpan = true
			continue
		}

		if w.wsSpan {
			if nDst+1 > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = ' '
			nDst++
			w.wsSpan = false
		}
		w.notStart = true

		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		copy(dst[nDst:], src[nSrc:nSrc+size])
		nDst += size
		nSrc += size
	}
	return nDst, nSrc, nil
}

// Reset implements transform.Transformer.
func (w *whitespaceFolder) Reset() {
	*w = whitespaceFolder{}
}
