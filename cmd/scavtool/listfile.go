// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// readListFile parses a UTF-8 text file naming one input path per
// line. A byte-order mark on the first line is stripped, trailing
// whitespace is trimmed, and blank lines are ignored.
func readListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening list file %q", path)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading list file %q", path)
	}
	return paths, nil
}
