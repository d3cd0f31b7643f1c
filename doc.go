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

// Package sdict implements a self-describing, content-addressed binary
// container that maps words to opaque definition blobs.
//
// An .sdict file has five sections, in order:
//
//  1. A 7-byte magic ("SDICT" followed by a version byte and a zero byte).
//  2. A 12-byte header: reserved word slots, words section size, word count.
//  3. Two fixed-size index tables (word offsets, then definition offsets).
//  4. A words section of packed, NUL-terminated keys.
//  5. A defs section of concatenated {size, hash, payload} records.
//
// All multi-byte integers are little-endian. Definitions are opaque;
// callers decide the payload format. Identical payloads may be
// deduplicated so that multiple words share one definition record.
//
// The package is not safe for concurrent use: callers must serialize all
// calls to a *File, and must not open the same path from two *File
// instances at once.
package sdict
