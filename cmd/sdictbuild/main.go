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

// Command sdictbuild batch-builds an .sdict file from a word list against
// the Merriam-Webster Collegiate Dictionary API: one file-read producer,
// a configurable pool of concurrent HTTP fetch workers, and a single
// consumer that writes each fetched definition into the dictionary file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"sigs.k8s.io/release-utils/version"

	"github.com/sdictio/sdict"
	"github.com/sdictio/sdict/internal/pipeline"
	"github.com/sdictio/sdict/internal/wordnorm"
)

// ErrSdictBuild is a parent error for all command errors.
var ErrSdictBuild = errors.New("sdictbuild")

const apiBaseURL = "https://www.dictionaryapi.com/api/v3/references/collegiate/json/"

func main() {
	app := &cli.App{
		Name:  "sdictbuild",
		Usage: "build an .sdict file from a word list against a dictionary API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-key-file", Value: "api_key.txt", Usage: "file containing the dictionary API key"},
			&cli.StringFlag{Name: "words-file", Value: "words.txt", Usage: "newline-separated word list; must contain no duplicates"},
			&cli.StringFlag{Name: "output", Value: "data.sdict", Usage: "path of the .sdict file to (re)create"},
			&cli.IntFlag{Name: "workers", Value: pipeline.DefaultWorkers, Usage: "number of concurrent fetch workers"},
			&cli.BoolFlag{Name: "version", Usage: "print version information and exit"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("version") {
		info := version.GetVersionInfo()
		fmt.Println(info.String())
		return nil
	}

	apiKeyRaw, err := os.ReadFile(c.String("api-key-file"))
	if err != nil {
		return fmt.Errorf("%w: reading api key file: %v", ErrSdictBuild, err)
	}
	apiKey := strings.TrimSpace(string(apiKeyRaw))

	wordsFile, err := os.Open(c.String("words-file"))
	if err != nil {
		return fmt.Errorf("%w: opening word list: %v", ErrSdictBuild, err)
	}
	defer wordsFile.Close()

	outPath := c.String("output")
	if _, err := os.Stat(outPath); err == nil {
		if err := os.Remove(outPath); err != nil {
			return fmt.Errorf("%w: removing existing %s: %v", ErrSdictBuild, outPath, err)
		}
	}

	dict, err := sdict.Open(outPath)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrSdictBuild, outPath, err)
	}
	defer dict.Close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	fetcher := &httpFetcher{
		client:  &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: apiBaseURL,
	}

	words := pipeline.Words(ctx, wordsFile)
	results := pipeline.Run(ctx, words, fetcher, c.Int("workers"))

	var num int
	for r := range results {
		if r.Err != nil {
			cancel()
			return fmt.Errorf("%w: fetching %q: %v", ErrSdictBuild, r.Word, r.Err)
		}

		key, err := wordnorm.Key([]byte(r.Word))
		if err != nil {
			cancel()
			return fmt.Errorf("%w: normalizing %q: %v", ErrSdictBuild, r.Word, err)
		}
		if _, err := dict.AddWord(key, r.Def, sdict.WithFlush(false), sdict.WithSkipDupCheck(true)); err != nil {
			cancel()
			return fmt.Errorf("%w: adding %q: %v", ErrSdictBuild, r.Word, err)
		}

		num++
		if num%10 == 0 {
			fmt.Println(num)
		}
	}

	if _, err := dict.Flush(); err != nil {
		return fmt.Errorf("%w: flushing %s: %v", ErrSdictBuild, outPath, err)
	}
	return nil
}

// httpFetcher fetches a word's definition JSON from a Merriam-Webster
// style collegiate dictionary API and stores the raw response body as the
// definition payload; sdict treats definitions as opaque bytes, so no
// further parsing happens here.
type httpFetcher struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

func (f *httpFetcher) Fetch(ctx context.Context, word string) ([]byte, error) {
	u := f.baseURL + url.PathEscape(word) + "?key=" + url.QueryEscape(f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting definition: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %q", resp.StatusCode, word)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
