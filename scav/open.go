// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scav

import (
	"io"
	"os"
	"unicode/utf8"

	"go.chromium.org/luci/common/errors"

	"github.com/canidlogic/scavenger/scav/scavdata"
)

// Decoder serves random-access reads against an existing archive.
//
// Open validates the global structure of the file; individual index
// records are only validated when the object they describe is
// accessed. Decoder operations are transactional: errors surface to
// the immediate caller and do not poison the instance.
//
// A Decoder must not be used from multiple goroutines concurrently
// without external serialization. Multiple Decoders on the same file
// are fine as long as nothing is writing it.
type Decoder struct {
	f   *os.File
	hdr scavdata.Header

	size     uint64
	count    uint64
	indexOff uint64
}

// Open opens the archive at path read-only and validates its global
// structure: minimum length, 48-bit ceiling, mod-4 alignment, header
// size field, and the count trailer's bound on the index.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "opening archive").Err()
	}
	d, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, errors.Annotate(err, "archive %q", path).Err()
	}
	return d, nil
}

func newDecoder(f *os.File) (*Decoder, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, errors.Annotate(err, "statting").Err()
	}

	rawSize := st.Size()
	if rawSize < scavdata.MinFileSize {
		return nil, errors.Annotate(ErrFileTooSmall,
			"%d bytes, want at least %d", rawSize, scavdata.MinFileSize).Err()
	}
	size := uint64(rawSize)
	if size > scavdata.MaxUint48 {
		return nil, errors.Annotate(ErrMalformed,
			"%d bytes exceeds the 48-bit limit", size).Err()
	}
	if size%4 != 2 {
		return nil, errors.Annotate(ErrFileNotAligned,
			"length %d is %d mod 4, want 2", size, size%4).Err()
	}

	d := &Decoder{f: f, size: size}
	if err := d.hdr.Read(io.NewSectionReader(f, 0, scavdata.HeaderLen)); err != nil {
		return nil, errors.Annotate(err, "reading header").Err()
	}
	if d.hdr.Size != size {
		return nil, errors.Annotate(ErrSizeMismatch,
			"header says %d, file is %d", d.hdr.Size, size).Err()
	}

	count, err := scavdata.ReadCount(
		io.NewSectionReader(f, rawSize-scavdata.CountLen, scavdata.CountLen))
	if err != nil {
		return nil, errors.Annotate(err, "reading count trailer").Err()
	}
	if max := (size - scavdata.MinFileSize) / scavdata.IndexRecordLen; count > max {
		return nil, errors.Annotate(ErrMalformed,
			"count %d exceeds index capacity %d", count, max).Err()
	}
	d.count = count
	d.indexOff = size - scavdata.CountLen - count*scavdata.IndexRecordLen
	if d.indexOff < scavdata.HeaderLen {
		return nil, errors.Annotate(ErrMalformed,
			"index would start at %d, inside the header", d.indexOff).Err()
	}
	return d, nil
}

// Close closes the underlying file handle.
func (d *Decoder) Close() error {
	return d.f.Close()
}

// Size returns the total file length in bytes.
func (d *Decoder) Size() uint64 {
	return d.size
}

// Primary returns the primary signature as 8 lowercase hex digits.
func (d *Decoder) Primary() string {
	return d.hdr.Primary.Hex()
}

// Secondary returns the secondary signature as 12 lowercase hex digits.
func (d *Decoder) Secondary() string {
	return d.hdr.Secondary.Hex()
}

// SecondaryASCII returns the secondary signature as 6 ASCII characters
// if every byte is printable.
func (d *Decoder) SecondaryASCII() (string, bool) {
	return d.hdr.Secondary.ASCII()
}

// Matches reports whether the archive's signatures equal the given
// pair, accepted in the same forms as Create. Hex comparison is
// case-insensitive.
func (d *Decoder) Matches(primary, secondary string) (bool, error) {
	p, err := scavdata.ParsePrimary(primary)
	if err != nil {
		return false, err
	}
	s, err := scavdata.ParseSecondary(secondary)
	if err != nil {
		return false, err
	}
	return p == d.hdr.Primary && s == d.hdr.Secondary, nil
}

// Count returns the number of objects in the archive.
func (d *Decoder) Count() uint64 {
	return d.count
}

// record reads and validates the index record for object i.
func (d *Decoder) record(i uint64) (rec scavdata.IndexRecord, err error) {
	if i >= d.count {
		err = errors.Annotate(ErrOutOfRange,
			"object %d of %d", i, d.count).Err()
		return
	}
	var buf [scavdata.IndexRecordLen]byte
	if _, err = d.f.ReadAt(buf[:], int64(d.indexOff+i*scavdata.IndexRecordLen)); err != nil {
		err = errors.Annotate(err, "reading index record %d", i).Err()
		return
	}
	rec.Unpack(buf[:])

	switch {
	case rec.Size == 0:
		err = errors.Annotate(ErrMalformed, "index record %d: zero size", i).Err()
	case rec.Offset >= d.size:
		err = errors.Annotate(ErrMalformed,
			"index record %d: offset %d beyond file end %d", i, rec.Offset, d.size).Err()
	case rec.Size > d.size-rec.Offset:
		err = errors.Annotate(ErrMalformed,
			"index record %d: %d bytes at %d overruns file end %d",
			i, rec.Size, rec.Offset, d.size).Err()
	}
	return
}

// Measure returns the size in bytes of object i.
func (d *Decoder) Measure(i uint64) (uint64, error) {
	rec, err := d.record(i)
	if err != nil {
		return 0, err
	}
	return rec.Size, nil
}

// Read returns n bytes of object i starting at byte off within the
// object. off must lie inside the object and n must be positive and
// reach no further than the object's end.
func (d *Decoder) Read(i, off, n uint64) ([]byte, error) {
	rec, err := d.record(i)
	if err != nil {
		return nil, err
	}
	if off >= rec.Size {
		return nil, errors.Annotate(ErrOutOfRange,
			"offset %d in object %d of size %d", off, i, rec.Size).Err()
	}
	if n == 0 || n > rec.Size-off {
		return nil, errors.Annotate(ErrOutOfRange,
			"%d bytes at offset %d in object %d of size %d", n, off, i, rec.Size).Err()
	}
	buf := make([]byte, n)
	if _, err := d.f.ReadAt(buf, int64(rec.Offset+off)); err != nil {
		return nil, errors.Annotate(err, "reading object %d", i).Err()
	}
	return buf, nil
}

// ReadFull returns the entire payload of object i.
func (d *Decoder) ReadFull(i uint64) ([]byte, error) {
	rec, err := d.record(i)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, rec.Size)
	if _, err := d.f.ReadAt(buf, int64(rec.Offset)); err != nil {
		return nil, errors.Annotate(err, "reading object %d", i).Err()
	}
	return buf, nil
}

// ReadText returns the payload of object i as a string, failing with
// ErrEncoding if it is not valid UTF-8.
func (d *Decoder) ReadText(i uint64) (string, error) {
	buf, err := d.ReadFull(i)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", errors.Annotate(ErrEncoding, "object %d", i).Err()
	}
	return string(buf), nil
}

// ObjectReader returns a read cursor positioned at the start of object
// i and bounded to its payload. The cursor shares the decoder's file
// handle but keeps its own position.
func (d *Decoder) ObjectReader(i uint64) (*io.SectionReader, error) {
	rec, err := d.record(i)
	if err != nil {
		return nil, err
	}
	return io.NewSectionReader(d.f, int64(rec.Offset), int64(rec.Size)), nil
}
