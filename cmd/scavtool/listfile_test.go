// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReadListFile(t *testing.T) {
	t.Parallel()

	Convey("readListFile", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "list.txt")

		write := func(content string) {
			So(os.WriteFile(path, []byte(content), 0666), ShouldBeNil)
		}

		Convey("plain lines", func() {
			write("a.bin\nb.bin\nc.bin\n")
			paths, err := readListFile(path)
			So(err, ShouldBeNil)
			So(paths, ShouldResemble, []string{"a.bin", "b.bin", "c.bin"})
		})

		Convey("BOM stripped from the first line only", func() {
			write("\ufeffa.bin\nb.bin\n")
			paths, err := readListFile(path)
			So(err, ShouldBeNil)
			So(paths, ShouldResemble, []string{"a.bin", "b.bin"})
		})

		Convey("trailing whitespace and CRLF trimmed", func() {
			write("a.bin  \r\nb.bin\t\r\n")
			paths, err := readListFile(path)
			So(err, ShouldBeNil)
			So(paths, ShouldResemble, []string{"a.bin", "b.bin"})
		})

		Convey("blank lines skipped", func() {
			write("\na.bin\n\n   \nb.bin\n\n")
			paths, err := readListFile(path)
			So(err, ShouldBeNil)
			So(paths, ShouldResemble, []string{"a.bin", "b.bin"})
		})

		Convey("empty file", func() {
			write("")
			paths, err := readListFile(path)
			So(err, ShouldBeNil)
			So(paths, ShouldBeEmpty)
		})

		Convey("missing file", func() {
			_, err := readListFile(filepath.Join(dir, "nope.txt"))
			So(err, ShouldNotBeNil)
		})
	})
}
