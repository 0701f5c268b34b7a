// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scavdata

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	. "go.chromium.org/luci/common/testing/assertions"
)

func TestSplit48(t *testing.T) {
	t.Parallel()

	Convey("Split48/Join48", t, func() {
		Convey("round trips", func() {
			for _, v := range []uint64{
				0, 1, 0x27, 0xffffffff, 0x100000000, 0xdeadbeefcafe, MaxUint48,
			} {
				lo, hi, err := Split48(v)
				So(err, ShouldBeNil)
				So(Join48(lo, hi), ShouldEqual, v)
			}
		})

		Convey("splits across the halves", func() {
			lo, hi, err := Split48(0xdeadbeefcafe)
			So(err, ShouldBeNil)
			So(lo, ShouldEqual, uint32(0xbeefcafe))
			So(hi, ShouldEqual, uint16(0xdead))
		})

		Convey("out of range", func() {
			_, _, err := Split48(MaxUint48 + 1)
			So(err, ShouldErrLike, "value out of 48-bit range")
			_, _, err = Split48(1 << 63)
			So(err, ShouldErrLike, "value out of 48-bit range")
		})
	})
}

func TestUint48(t *testing.T) {
	t.Parallel()

	Convey("PutUint48/Uint48", t, func() {
		Convey("big-endian adjacent halves", func() {
			buf := make([]byte, 6)
			PutUint48(buf, 0xdeadbeefcafe)
			So(buf, ShouldResemble, []byte{
				0xbe, 0xef, 0xca, 0xfe, // low half
				0xde, 0xad, // high half
			})
			So(Uint48(buf), ShouldEqual, uint64(0xdeadbeefcafe))
		})

		Convey("small value", func() {
			buf := make([]byte, 6)
			PutUint48(buf, 38)
			So(buf, ShouldResemble, []byte{0, 0, 0, 0x26, 0, 0})
		})

		Convey("panics above 48 bits", func() {
			So(func() { PutUint48(make([]byte, 6), MaxUint48+1) }, ShouldPanic)
		})
	})
}
