// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// The scavtool CLI builds, inspects, and extracts Scavenger archives.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/canidlogic/scavenger/scav"
)

// copyChunk bounds how much object data is held in memory during
// transfers.
const copyChunk = 16 * 1024

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	app := &cli.App{
		Name:  "scavtool",
		Usage: "build, inspect, and extract Scavenger archives",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "stat",
				Usage:     "print an archive's signatures and object count",
				ArgsUsage: "<file>",
				Action:    statAction,
			},
			{
				Name:      "get",
				Usage:     "extract one object byte-for-byte",
				ArgsUsage: "<file> <index> <out>",
				Action:    getAction,
			},
			{
				Name:      "build",
				Usage:     "create an archive with one object per listed file",
				ArgsUsage: "<file> <primary> <secondary> <list>",
				Action:    buildAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func statAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: scavtool stat <file>")
	}

	dec, err := scav.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer dec.Close()

	fmt.Printf("size:      %d\n", dec.Size())
	fmt.Printf("primary:   %s\n", dec.Primary())
	fmt.Printf("secondary: %s\n", dec.Secondary())
	if ascii, ok := dec.SecondaryASCII(); ok {
		fmt.Printf("secondary-ascii: %s\n", ascii)
	}
	fmt.Printf("count:     %d\n", dec.Count())
	return nil
}

func getAction(c *cli.Context) error {
	if c.NArg() != 3 {
		return errors.New("usage: scavtool get <file> <index> <out>")
	}

	index, err := strconv.ParseUint(c.Args().Get(1), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "parsing object index %q", c.Args().Get(1))
	}

	dec, err := scav.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer dec.Close()

	r, err := dec.ObjectReader(index)
	if err != nil {
		return err
	}

	outPath := c.Args().Get(2)
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "creating output file %q", outPath)
	}
	n, err := io.CopyBuffer(out, r, make([]byte, copyChunk))
	if err == nil {
		err = out.Close()
	} else {
		out.Close()
	}
	if err != nil {
		os.Remove(outPath)
		return errors.Wrapf(err, "extracting object %d", index)
	}

	logrus.Debugf("extracted object %d (%d bytes) to %s", index, n, outPath)
	return nil
}

func buildAction(c *cli.Context) error {
	if c.NArg() != 4 {
		return errors.New("usage: scavtool build <file> <primary> <secondary> <list>")
	}
	outPath := c.Args().Get(0)

	paths, err := readListFile(c.Args().Get(3))
	if err != nil {
		return err
	}
	// reject empty inputs before the destination exists, for a message
	// that names the offending file
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return errors.Wrapf(err, "statting input %q", p)
		}
		if st.Size() == 0 {
			return errors.Errorf("input file %q is empty", p)
		}
	}

	enc, err := scav.Create(outPath, c.Args().Get(1), c.Args().Get(2))
	if err != nil {
		return err
	}
	defer enc.Close()

	buf := make([]byte, copyChunk)
	for i, p := range paths {
		if err := enc.BeginObject(); err != nil {
			return err
		}
		if err := appendFile(enc, p, buf); err != nil {
			return errors.Wrapf(err, "packing input %q", p)
		}
		logrus.Debugf("packed object %d from %s", i, p)
	}
	if err := enc.Complete(); err != nil {
		return err
	}

	logrus.Infof("wrote %d objects to %s", len(paths), outPath)
	return nil
}

// appendFile streams path into the encoder's open object.
func appendFile(enc *scav.Encoder, path string, buf []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for {
		n, err := f.Read(buf)
		if n > 0 {
			if werr := enc.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
