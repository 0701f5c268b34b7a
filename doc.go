// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scavenger implements a minimalist binary archive container.
// A single file holds an ordered list of arbitrary binary blobs
// ("objects"), addressable by zero-based index, with up to 256 TiB of
// aggregate payload reachable through an index table placed at the end
// of the file. Each archive carries two opaque signatures (a 4-byte
// primary and a 6-byte secondary) so that higher layers can tag
// a particular schema of contents.
//
// It has a fairly basic format:
//   - 16-byte header: primary(4) + secondary(6) + total file size as
//     a split 48-bit integer
//   - object payload: every object's bytes, concatenated, each object
//     at least one byte long
//   - 0-3 bytes of padding so the index starts on a 4-byte boundary
//   - index: one 12-byte record per object, locating that object's
//     byte range within the file
//   - 6-byte count trailer: the number of objects as a split 48-bit
//     integer
//
// All multibyte integers are big-endian and unsigned. 48-bit
// quantities are stored split: the low 32 bits and the high 16 bits as
// separate fields. In the header and count trailer the two halves are
// adjacent; in an index record both low halves precede both high
// halves.
//
// The count trailer at a fixed distance from the end of the file
// allows a reader to locate the index simply by seeking from the end,
// without parsing the payload.
//
// Encoding and decoding live in the scav package; the low-level wire
// codec lives in scav/scavdata. The scavtool command under cmd/ builds,
// inspects, and extracts archives.
package scavenger
