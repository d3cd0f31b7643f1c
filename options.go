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

// openConfig holds Open's defaultable arguments. The C++ original spells
// these as default parameters (create_if_not_exists = true, deduplicate =
// true, check_defs = true); Go has no default arguments, so functional
// options fill the same role.
type openConfig struct {
	createIfMissing bool
	deduplicate     bool
	verifyDefs      bool
}

func defaultOpenConfig() openConfig {
	return openConfig{
		createIfMissing: true,
		deduplicate:     true,
		verifyDefs:      true,
	}
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

// WithCreateIfMissing controls whether Open creates a fresh file when the
// given path does not exist. Defaults to true.
func WithCreateIfMissing(v bool) OpenOption {
	return func(c *openConfig) { c.createIfMissing = v }
}

// WithDeduplicate controls whether identical definition payloads are
// stored once and shared by multiple words. Defaults to true.
func WithDeduplicate(v bool) OpenOption {
	return func(c *openConfig) { c.deduplicate = v }
}

// WithVerifyDefs controls whether every definition's stored hash is
// recomputed and checked against its payload on Open. This is an O(total
// defs size) operation. Defaults to true.
func WithVerifyDefs(v bool) OpenOption {
	return func(c *openConfig) { c.verifyDefs = v }
}

// addWordConfig holds AddWord's defaultable arguments.
type addWordConfig struct {
	flush        bool
	skipDupCheck bool
}

func defaultAddWordConfig() addWordConfig {
	return addWordConfig{
		flush:        true,
		skipDupCheck: false,
	}
}

// AddWordOption configures AddWord.
type AddWordOption func(*addWordConfig)

// WithFlush controls whether AddWord calls Flush immediately after
// writing. Batch callers that insert many words typically pass
// WithFlush(false) and call Flush once at the end. Defaults to true.
func WithFlush(v bool) AddWordOption {
	return func(c *addWordConfig) { c.flush = v }
}

// WithSkipDupCheck skips the Contains check before inserting. Flushing is
// significantly more expensive than the dup check it would skip, so this
// is only worth setting alongside WithFlush(false) in a tight insert loop
// that already guarantees unique keys upstream.
func WithSkipDupCheck(v bool) AddWordOption {
	return func(c *addWordConfig) { c.skipDupCheck = v }
}
