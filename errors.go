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

import "errors"

// ErrSdict is the package's root error value. The other sentinels below,
// and the errors returned by this package, do not wrap it.
var ErrSdict = errors.New("sdict")

// ErrNotExist indicates the file does not exist and create-if-missing was
// disabled.
var ErrNotExist = errors.New("sdict: file does not exist")

// ErrNotRegularFile indicates the path exists but is not a regular file.
var ErrNotRegularFile = errors.New("sdict: exists but is not a regular file")

// ErrClosed indicates an operation was attempted on a closed or
// never-opened File.
var ErrClosed = errors.New("sdict: no associated file")

// ErrCorrupt indicates the on-disk file failed a structural or integrity
// check. File may be corrupted.
var ErrCorrupt = errors.New("sdict: file may be corrupted")

// ErrEmptyKey indicates a key was empty or contained a NUL byte.
var ErrEmptyKey = errors.New("sdict: invalid key")

// ErrEmptyDef indicates a definition payload was empty; defs must be
// non-empty.
var ErrEmptyDef = errors.New("sdict: definition must not be empty")
