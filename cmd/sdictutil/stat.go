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
	"fmt"
	"os"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"
)

var statCommand = &cli.Command{
	Name:      "stat",
	Usage:     "print summary statistics for one or more .sdict files or directories",
	ArgsUsage: "PATH [PATH...]",
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return fmt.Errorf("%w: stat requires at least one path", ErrFlagParse)
		}

		files, errs := openFiles(c.Args().Slice())
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, err)
		}
		defer func() {
			for _, f := range files {
				f.Close()
			}
		}()

		tbl := table.New("File", "Words", "Created")
		for _, f := range files {
			n, err := f.NumWords()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			tbl.AddRow(f.Path(), n, f.CreatedFile())
		}
		tbl.Print()

		if len(errs) > 0 {
			return cli.Exit("", ExitCodeUnknownError)
		}
		return nil
	},
}
