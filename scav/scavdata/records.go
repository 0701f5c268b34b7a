// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scavdata

import (
	"encoding/binary"
	"io"

	"go.chromium.org/luci/common/errors"
)

// Fixed sizes of the format's framing regions, in bytes.
const (
	// HeaderLen is the size of the file header.
	HeaderLen = 16

	// IndexRecordLen is the size of one index record.
	IndexRecordLen = 12

	// CountLen is the size of the count trailer.
	CountLen = 6

	// MinFileSize is the length of an archive holding no objects:
	// a header immediately followed by a count trailer.
	MinFileSize = HeaderLen + CountLen
)

// Header is the 16-byte record at the start of every archive.
type Header struct {
	Primary   Primary
	Secondary Secondary

	// Size is the total length of the file, header included. The
	// encoder writes it as zero first and patches it at completion.
	Size uint64
}

// Write emits the packed header to w.
func (h Header) Write(w io.Writer) error {
	var buf [HeaderLen]byte
	copy(buf[0:4], h.Primary[:])
	copy(buf[4:10], h.Secondary[:])
	if h.Size > MaxUint48 {
		return errors.Annotate(ErrValueOutOfRange, "header size %d", h.Size).Err()
	}
	PutUint48(buf[10:16], h.Size)
	_, err := w.Write(buf[:])
	return err
}

// Read parses a packed header from r.
func (h *Header) Read(r io.Reader) error {
	var buf [HeaderLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	copy(h.Primary[:], buf[0:4])
	copy(h.Secondary[:], buf[4:10])
	h.Size = Uint48(buf[10:16])
	return nil
}

// IndexRecord locates one object's byte range within the file.
type IndexRecord struct {
	Offset uint64
	Size   uint64
}

// Pack stores the record into b[0:12]. The layout interleaves the split
// halves: offset-low, size-low, offset-high, size-high.
func (rec IndexRecord) Pack(b []byte) error {
	offLo, offHi, err := Split48(rec.Offset)
	if err != nil {
		return errors.Annotate(err, "index record offset").Err()
	}
	szLo, szHi, err := Split48(rec.Size)
	if err != nil {
		return errors.Annotate(err, "index record size").Err()
	}
	binary.BigEndian.PutUint32(b[0:4], offLo)
	binary.BigEndian.PutUint32(b[4:8], szLo)
	binary.BigEndian.PutUint16(b[8:10], offHi)
	binary.BigEndian.PutUint16(b[10:12], szHi)
	return nil
}

// Unpack parses the record stored in b[0:12].
func (rec *IndexRecord) Unpack(b []byte) {
	rec.Offset = Join48(binary.BigEndian.Uint32(b[0:4]), binary.BigEndian.Uint16(b[8:10]))
	rec.Size = Join48(binary.BigEndian.Uint32(b[4:8]), binary.BigEndian.Uint16(b[10:12]))
}

// WriteCount emits the 6-byte count trailer to w.
func WriteCount(w io.Writer, n uint64) error {
	if n > MaxUint48 {
		return errors.Annotate(ErrValueOutOfRange, "object count %d", n).Err()
	}
	var buf [CountLen]byte
	PutUint48(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

// ReadCount parses the 6-byte count trailer from r.
func ReadCount(r io.Reader) (uint64, error) {
	var buf [CountLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return Uint48(buf[:]), nil
}
