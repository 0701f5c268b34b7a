// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scavdata

import (
	"encoding/binary"

	"go.chromium.org/luci/common/errors"
)

// MaxUint48 is the largest value representable as a split 48-bit
// integer, and therefore the largest legal Scavenger file size.
const MaxUint48 = 1<<48 - 1

// ErrValueOutOfRange is returned when a value does not fit in 48 bits.
var ErrValueOutOfRange = errors.New("value out of 48-bit range")

// Split48 splits v into its low 32 bits and high 16 bits.
func Split48(v uint64) (lo uint32, hi uint16, err error) {
	if v > MaxUint48 {
		err = errors.Annotate(ErrValueOutOfRange, "%d exceeds 48 bits", v).Err()
		return
	}
	return uint32(v), uint16(v >> 32), nil
}

// Join48 reassembles a split 48-bit integer from its two halves.
func Join48(lo uint32, hi uint16) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}

// PutUint48 stores v into b[0:6] as a big-endian low half followed by
// a big-endian high half. This is the adjacent-halves form used by the
// header size field and the count trailer; index records interleave
// their halves instead.
//
// Panics if v exceeds MaxUint48, matching encoding/binary's treatment
// of a short buffer.
func PutUint48(b []byte, v uint64) {
	if v > MaxUint48 {
		panic("scavdata: PutUint48 value exceeds 48 bits")
	}
	binary.BigEndian.PutUint32(b[0:4], uint32(v))
	binary.BigEndian.PutUint16(b[4:6], uint16(v>>32))
}

// Uint48 decodes the adjacent-halves split integer stored in b[0:6].
func Uint48(b []byte) uint64 {
	return Join48(binary.BigEndian.Uint32(b[0:4]), binary.BigEndian.Uint16(b[4:6]))
}
