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

package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/ianlewis/go-dictzip"
	"github.com/urfave/cli/v2"

	"github.com/sdictio/sdict"
)

// exportCommand writes a StarDict-compatible .idx + .dict.dz pair from an
// .sdict file, so existing StarDict-reading tools can browse it. Export is
// one-way: the .sdict file remains the source of truth.
var exportCommand = &cli.Command{
	Name:      "export",
	Usage:     "export an .sdict file as a StarDict-compatible .idx + .dict.dz pair",
	ArgsUsage: "SDICT_PATH OUT_PREFIX",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return fmt.Errorf("%w: export requires SDICT_PATH and OUT_PREFIX", ErrFlagParse)
		}
		src := c.Args().Get(0)
		outPrefix := c.Args().Get(1)

		f, err := sdict.Open(src, sdict.WithCreateIfMissing(false))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSdictUtil, err)
		}
		defer f.Close()

		return exportStardict(f, outPrefix)
	},
}

func exportStardict(f *sdict.File, outPrefix string) error {
	idxFile, err := os.Create(outPrefix + ".idx")
	if err != nil {
		return fmt.Errorf("%w: creating idx file: %v", ErrSdictUtil, err)
	}
	defer idxFile.Close()

	dictFile, err := os.Create(outPrefix + ".dict.dz")
	if err != nil {
		return fmt.Errorf("%w: creating dict file: %v", ErrSdictUtil, err)
	}
	defer dictFile.Close()

	z, err := dictzip.NewWriter(dictFile)
	if err != nil {
		return fmt.Errorf("%w: creating dictzip writer: %v", ErrSdictUtil, err)
	}

	var offset uint64
	var idxBuf strings.Builder
	off32 := make([]byte, 4)
	size32 := make([]byte, 4)

	err = sdict.Walk(f, func(word, def []byte) error {
		n, werr := z.Write(def)
		if werr != nil {
			return fmt.Errorf("writing dict payload for %q: %w", word, werr)
		}

		idxBuf.Write(word)
		idxBuf.WriteByte(0)
		binary.BigEndian.PutUint32(off32, uint32(offset))
		binary.BigEndian.PutUint32(size32, uint32(n))
		idxBuf.Write(off32)
		idxBuf.Write(size32)

		offset += uint64(n)
		return nil
	})
	if err != nil {
		z.Close()
		return fmt.Errorf("%w: %v", ErrSdictUtil, err)
	}

	if err := z.Close(); err != nil {
		return fmt.Errorf("%w: closing dictzip writer: %v", ErrSdictUtil, err)
	}
	if _, err := idxFile.WriteString(idxBuf.String()); err != nil {
		return fmt.Errorf("%w: writing idx file: %v", ErrSdictUtil, err)
	}
	return nil
}
