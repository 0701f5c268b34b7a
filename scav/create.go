// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scav

import (
	"io"
	"os"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/iotools"

	"github.com/canidlogic/scavenger/scav/scavdata"
)

// indexSpillBlock is the block size used when streaming the scratch
// index back into the destination at completion.
const indexSpillBlock = 16 * 1024

// padBytes supplies the 0-3 alignment bytes written before the index.
var padBytes = [3]byte{0x20, 0x20, 0x20}

// headerSizeOffset is where the header's split 48-bit size field
// starts: after the 4-byte primary and 6-byte secondary signatures.
const headerSizeOffset = 10

type encoderState int

const (
	stateOpen encoderState = iota
	stateCompleted
	stateErrored
)

// Encoder streams objects into a new Scavenger archive.
//
// The encoder owns the destination file: until Complete succeeds, Close
// removes the partial file, so an interrupted encoding never leaves
// a valid-looking archive behind. Callers should defer Close
// immediately after Create.
//
// Any failure of BeginObject, Write, or Complete on an open encoder
// latches it into an errored state, except Write's ErrNoObjectOpen;
// every later call fails with the latched error, which Err also
// exposes.
//
// An Encoder must not be used from multiple goroutines concurrently.
type Encoder struct {
	state encoderState
	err   error

	path string
	dest *os.File
	out  *iotools.CountingWriter

	// scratch accumulates packed index records so that archives with
	// huge object counts never hold their index in memory.
	scratch *os.File

	count uint64 // objects begun so far
	bytes uint64 // payload bytes committed before the open object
	local uint64 // payload bytes written into the open object
	open  bool
}

// Create creates the archive at path and writes its header. The primary
// signature must be 8 hex digits; the secondary must be 12 hex digits
// or 6 printable ASCII characters.
//
// The header's size field is written as zero and patched during
// Complete.
func Create(path, primary, secondary string) (*Encoder, error) {
	p, err := scavdata.ParsePrimary(primary)
	if err != nil {
		return nil, err
	}
	s, err := scavdata.ParseSecondary(secondary)
	if err != nil {
		return nil, err
	}

	dest, err := os.Create(path)
	if err != nil {
		return nil, errors.Annotate(err, "creating archive %q", path).Err()
	}
	scratch, err := os.CreateTemp("", "scavenger-index-*")
	if err != nil {
		dest.Close()
		os.Remove(path)
		return nil, errors.Annotate(err, "creating index scratch file").Err()
	}

	e := &Encoder{
		path:    path,
		dest:    dest,
		out:     &iotools.CountingWriter{Writer: dest},
		scratch: scratch,
	}
	hdr := scavdata.Header{Primary: p, Secondary: s}
	if err := hdr.Write(e.out); err != nil {
		e.discard()
		return nil, errors.Annotate(err, "writing archive header").Err()
	}
	return e, nil
}

// Err returns the latched error, or nil if the encoder is open or
// completed.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) fail(err error) error {
	e.state = stateErrored
	e.err = err
	return err
}

func (e *Encoder) check() error {
	switch e.state {
	case stateCompleted:
		return ErrFinished
	case stateErrored:
		return e.err
	}
	return nil
}

// projected is the final file size if recs index records end up in the
// index and pending more payload bytes are written, assuming worst-case
// padding.
func (e *Encoder) projected(pending, recs uint64) uint64 {
	return scavdata.HeaderLen + e.bytes + e.local + pending + 3 +
		recs*scavdata.IndexRecordLen + scavdata.CountLen
}

// finishObject rolls the open object into the scratch index.
func (e *Encoder) finishObject() error {
	if e.local == 0 {
		return e.fail(errors.Annotate(ErrEmptyObject,
			"object %d has no data", e.count-1).Err())
	}
	rec := scavdata.IndexRecord{
		Offset: scavdata.HeaderLen + e.bytes,
		Size:   e.local,
	}
	var buf [scavdata.IndexRecordLen]byte
	if err := rec.Pack(buf[:]); err != nil {
		return e.fail(err)
	}
	if _, err := e.scratch.Write(buf[:]); err != nil {
		return e.fail(errors.Annotate(err,
			"spilling index record %d", e.count-1).Err())
	}
	e.bytes += e.local
	e.local = 0
	e.open = false
	return nil
}

// BeginObject starts the next object. If an object is already open it
// is finalized first, which fails with ErrEmptyObject if that object
// never received any bytes.
//
// After BeginObject the destination file cursor is at end-of-file;
// subsequent Write calls append to the new object.
func (e *Encoder) BeginObject() error {
	if err := e.check(); err != nil {
		return err
	}
	if e.open {
		if err := e.finishObject(); err != nil {
			return err
		}
	}
	if e.projected(0, e.count+1) > scavdata.MaxUint48 {
		return e.fail(errors.Annotate(ErrFileTooLarge,
			"beginning object %d", e.count).Err())
	}
	e.count++
	e.open = true
	return nil
}

// Write appends p to the open object. A zero-length chunk is a no-op.
// Writing before any BeginObject fails with ErrNoObjectOpen without
// latching the encoder.
func (e *Encoder) Write(p []byte) error {
	if err := e.check(); err != nil {
		return err
	}
	if !e.open {
		return errors.Annotate(ErrNoObjectOpen,
			"write of %d bytes before BeginObject", len(p)).Err()
	}
	if len(p) == 0 {
		return nil
	}
	if e.projected(uint64(len(p)), e.count) > scavdata.MaxUint48 {
		return e.fail(errors.Annotate(ErrFileTooLarge,
			"writing %d bytes to object %d", len(p), e.count-1).Err())
	}
	if _, err := e.out.Write(p); err != nil {
		return e.fail(errors.Annotate(err, "writing object %d", e.count-1).Err())
	}
	e.local += uint64(len(p))
	return nil
}

// Complete finalizes the open object (if any), writes the padding,
// index, and count trailer, patches the header's size field, and closes
// the destination. After a successful Complete the archive on disk is
// final and Close leaves it alone.
func (e *Encoder) Complete() error {
	if err := e.check(); err != nil {
		return err
	}
	if e.open {
		if err := e.finishObject(); err != nil {
			return err
		}
	}

	if pad := (4 - e.bytes%4) % 4; pad > 0 {
		if _, err := e.out.Write(padBytes[:pad]); err != nil {
			return e.fail(errors.Annotate(err, "writing padding").Err())
		}
	}

	if _, err := e.scratch.Seek(0, io.SeekStart); err != nil {
		return e.fail(errors.Annotate(err, "rewinding index scratch file").Err())
	}
	if _, err := io.CopyBuffer(e.out, e.scratch, make([]byte, indexSpillBlock)); err != nil {
		return e.fail(errors.Annotate(err, "copying index").Err())
	}
	if err := scavdata.WriteCount(e.out, e.count); err != nil {
		return e.fail(errors.Annotate(err, "writing count trailer").Err())
	}

	// The size bound held at every write, so the total fits 48 bits.
	var szBuf [scavdata.CountLen]byte
	scavdata.PutUint48(szBuf[:], uint64(e.out.Count))
	if _, err := e.dest.WriteAt(szBuf[:], headerSizeOffset); err != nil {
		return e.fail(errors.Annotate(err, "patching header size field").Err())
	}

	if err := e.dest.Sync(); err != nil {
		return e.fail(errors.Annotate(err, "syncing archive").Err())
	}
	if err := e.dest.Close(); err != nil {
		return e.fail(errors.Annotate(err, "closing archive").Err())
	}
	e.dest = nil
	e.state = stateCompleted

	e.scratch.Close()
	os.Remove(e.scratch.Name())
	e.scratch = nil
	return nil
}

// discard closes and unlinks whatever the encoder still owns.
func (e *Encoder) discard() {
	if e.dest != nil {
		e.dest.Close()
		os.Remove(e.path)
		e.dest = nil
	}
	if e.scratch != nil {
		e.scratch.Close()
		os.Remove(e.scratch.Name())
		e.scratch = nil
	}
}

// Close releases the encoder. Unless Complete has succeeded, the
// partial destination file and the scratch index are removed, whether
// the encoder is open or errored. Close is idempotent and safe to
// defer alongside Complete.
func (e *Encoder) Close() error {
	if e.state == stateCompleted {
		return nil
	}
	e.discard()
	if e.state != stateErrored {
		e.fail(errors.Annotate(ErrFinished, "closed before completion").Err())
	}
	return nil
}
