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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"sigs.k8s.io/release-utils/version"

	"github.com/sdictio/sdict"
)

const (
	// ExitCodeSuccess is the successful exit code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError
)

// ErrSdictUtil is a parent error for all command errors.
var ErrSdictUtil = errors.New("sdictutil")

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = fmt.Errorf("%w: parsing flags", ErrSdictUtil)

var copyrightNames = []string{
	"2025 The sdict Authors",
}

//nolint:gochecknoinits // init needed for the global HelpFlag override.
func init() {
	// Use an unguessable name for the auto-registered help flag so urfave/cli
	// never treats "--help" as a subcommand name.
	// See: github.com/urfave/cli/issues/1809
	cli.HelpFlag = &cli.BoolFlag{
		Name:               "d41d8cd98f00b204e980",
		DisableDefaultText: true,
	}
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}

// openFiles opens every .sdict file found by walking paths, returning the
// opened files alongside any errors encountered along the way. Inspired by
// the directory-walking OpenAll idiom used for multi-file dictionary
// directories.
func openFiles(paths []string) ([]*sdict.File, []error) {
	var files []*sdict.File
	var errs []error

	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			if d.IsDir() || filepath.Ext(path) != ".sdict" {
				return nil
			}
			f, err := sdict.Open(path, sdict.WithCreateIfMissing(false))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				return nil
			}
			files = append(files, f)
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return files, errs
}

func printVersion(c *cli.Context) error {
	info := version.GetVersionInfo()
	fmt.Fprintln(c.App.Writer, info.String())
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  filepath.Base(os.Args[0]),
		Usage: "Inspect and query sdict dictionary files.",
		Description: strings.Join([]string{
			"sdictutil is a command line tool for working with .sdict dictionary files.",
		}, "\n"),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:               "help",
				Usage:              "print this help text and exit",
				Aliases:            []string{"h"},
				DisableDefaultText: true,
			},
			&cli.BoolFlag{
				Name:               "version",
				Usage:              "print version information and exit",
				Aliases:            []string{"V"},
				DisableDefaultText: true,
			},
		},
		Copyright:       strings.Join(copyrightNames, "\n"),
		HideHelp:        true,
		HideHelpCommand: true,
		Action: func(c *cli.Context) error {
			if c.Bool("version") {
				return printVersion(c)
			}
			check(cli.ShowAppHelp(c))
			return nil
		},
		Commands: []*cli.Command{
			statCommand,
			lookupCommand,
			exportCommand,
			versionCommand,
		},
	}
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "print version information",
	Action: func(c *cli.Context) error {
		return printVersion(c)
	},
}
