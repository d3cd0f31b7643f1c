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

	"github.com/k3a/html2text"
	"github.com/urfave/cli/v2"

	"github.com/sdictio/sdict/internal/wordnorm"
)

var lookupCommand = &cli.Command{
	Name:      "lookup",
	Usage:     "look up a word across one or more .sdict files",
	ArgsUsage: "WORD PATH [PATH...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "html",
			Usage: "render stored definitions that are HTML as plain text",
		},
		&cli.BoolFlag{
			Name:  "verify",
			Usage: "verify the definition's stored hash before printing it",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 {
			return fmt.Errorf("%w: lookup requires a word and at least one path", ErrFlagParse)
		}
		word, err := wordnorm.Key([]byte(c.Args().First()))
		if err != nil {
			return fmt.Errorf("%w: normalizing lookup word: %v", ErrSdictUtil, err)
		}

		files, errs := openFiles(c.Args().Tail())
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, err)
		}
		defer func() {
			for _, f := range files {
				f.Close()
			}
		}()

		found := false
		for _, f := range files {
			def, ok, err := f.Find(word, c.Bool("verify"))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if !ok {
				continue
			}
			found = true
			text := string(def)
			if c.Bool("html") {
				text = html2text.HTML2Text(text)
			}
			fmt.Printf("%s:\n%s\n\n", f.Path(), text)
		}

		if !found {
			return cli.Exit(fmt.Sprintf("%q not found", c.Args().First()), ExitCodeUnknownError)
		}
		return nil
	},
}
