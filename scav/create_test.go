// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scav

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	. "go.chromium.org/luci/common/testing/assertions"
)

// buildArchive encodes one object per element of objects.
func buildArchive(path, primary, secondary string, objects ...[]byte) error {
	enc, err := Create(path, primary, secondary)
	if err != nil {
		return err
	}
	defer enc.Close()
	for _, obj := range objects {
		if err := enc.BeginObject(); err != nil {
			return err
		}
		if err := enc.Write(obj); err != nil {
			return err
		}
	}
	return enc.Complete()
}

func TestEncoder(t *testing.T) {
	t.Parallel()

	Convey("Encoder", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.scavenger")

		Convey("zero objects", func() {
			So(buildArchive(path, "01020304", "exampl"), ShouldBeNil)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(len(data), ShouldEqual, 22)
			So(len(data)%4, ShouldEqual, 2)
			So(data, ShouldResemble, []byte{
				0x01, 0x02, 0x03, 0x04, // primary
				'e', 'x', 'a', 'm', 'p', 'l', // secondary
				0x00, 0x00, 0x00, 0x16, 0x00, 0x00, // size = 22
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // count = 0
			})
		})

		Convey("single two-byte object", func() {
			So(buildArchive(path, "01020304", "exampl", []byte("Hi")), ShouldBeNil)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(len(data), ShouldEqual, 38)
			So(len(data)%4, ShouldEqual, 2)
			So(data, ShouldResemble, []byte{
				0x01, 0x02, 0x03, 0x04, // primary
				'e', 'x', 'a', 'm', 'p', 'l', // secondary
				0x00, 0x00, 0x00, 0x26, 0x00, 0x00, // size = 38
				'H', 'i', // object 0
				0x20, 0x20, // padding
				0x00, 0x00, 0x00, 0x10, // record 0 offset low = 16
				0x00, 0x00, 0x00, 0x02, // record 0 size low = 2
				0x00, 0x00, 0x00, 0x00, // record 0 high halves
				0x00, 0x00, 0x00, 0x01, 0x00, 0x00, // count = 1
			})
		})

		Convey("three objects", func() {
			So(buildArchive(path, "01020304", "exampl",
				[]byte("aaaaa"), []byte("b"), []byte("ccccccc")), ShouldBeNil)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(len(data), ShouldEqual, 74)
			So(len(data)%4, ShouldEqual, 2)

			dec, err := Open(path)
			So(err, ShouldBeNil)
			defer dec.Close()
			So(dec.Count(), ShouldEqual, 3)
			for i, want := range []struct{ off, size uint64 }{
				{16, 5}, {21, 1}, {22, 7},
			} {
				rec, err := dec.record(uint64(i))
				So(err, ShouldBeNil)
				So(rec.Offset, ShouldEqual, want.off)
				So(rec.Size, ShouldEqual, want.size)
			}
		})

		Convey("padding by payload length mod 4", func() {
			for payloadLen, wantPad := range map[int]int{4: 0, 1: 3, 2: 2, 3: 1} {
				obj := bytes.Repeat([]byte{0xAB}, payloadLen)
				So(buildArchive(path, "01020304", "exampl", obj), ShouldBeNil)

				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(len(data), ShouldEqual, 16+payloadLen+wantPad+12+6)
				for i := 0; i < wantPad; i++ {
					So(data[16+payloadLen+i], ShouldEqual, byte(0x20))
				}
			}
		})

		Convey("signature validation", func() {
			_, err := Create(path, "0102030", "exampl")
			So(err, ShouldErrLike, ErrInvalidSignature)
			_, err = Create(path, "01020304", "seven!!")
			So(err, ShouldErrLike, ErrInvalidSignature)

			// validation happens before the destination is touched
			_, err = os.Stat(path)
			So(os.IsNotExist(err), ShouldBeTrue)
		})

		Convey("empty object", func() {
			enc, err := Create(path, "01020304", "exampl")
			So(err, ShouldBeNil)
			defer enc.Close()

			Convey("detected by the next BeginObject", func() {
				So(enc.BeginObject(), ShouldBeNil)
				So(enc.BeginObject(), ShouldErrLike, ErrEmptyObject)

				Convey("and latches", func() {
					So(enc.Err(), ShouldErrLike, ErrEmptyObject)
					So(enc.Write([]byte("x")), ShouldErrLike, ErrEmptyObject)
					So(enc.Complete(), ShouldErrLike, ErrEmptyObject)
				})
			})

			Convey("detected by Complete", func() {
				So(enc.BeginObject(), ShouldBeNil)
				So(enc.Complete(), ShouldErrLike, ErrEmptyObject)
			})
		})

		Convey("write before BeginObject", func() {
			enc, err := Create(path, "01020304", "exampl")
			So(err, ShouldBeNil)
			defer enc.Close()

			So(enc.Write([]byte("x")), ShouldErrLike, ErrNoObjectOpen)

			// does not latch
			So(enc.Err(), ShouldBeNil)
			So(enc.BeginObject(), ShouldBeNil)
			So(enc.Write([]byte("x")), ShouldBeNil)
			So(enc.Complete(), ShouldBeNil)
		})

		Convey("zero-length writes are no-ops", func() {
			enc, err := Create(path, "01020304", "exampl")
			So(err, ShouldBeNil)
			defer enc.Close()

			So(enc.BeginObject(), ShouldBeNil)
			So(enc.Write(nil), ShouldBeNil)
			So(enc.Write([]byte{}), ShouldBeNil)
			So(enc.Write([]byte("x")), ShouldBeNil)
			So(enc.Complete(), ShouldBeNil)

			dec, err := Open(path)
			So(err, ShouldBeNil)
			defer dec.Close()
			size, err := dec.Measure(0)
			So(err, ShouldBeNil)
			So(size, ShouldEqual, 1)
		})

		Convey("Complete is not repeatable", func() {
			enc, err := Create(path, "01020304", "exampl")
			So(err, ShouldBeNil)
			defer enc.Close()

			So(enc.BeginObject(), ShouldBeNil)
			So(enc.Write([]byte("x")), ShouldBeNil)
			So(enc.Complete(), ShouldBeNil)
			So(enc.Complete(), ShouldErrLike, ErrFinished)
			So(enc.BeginObject(), ShouldErrLike, ErrFinished)
		})

		Convey("Close before Complete removes the partial file", func() {
			enc, err := Create(path, "01020304", "exampl")
			So(err, ShouldBeNil)
			So(enc.BeginObject(), ShouldBeNil)
			So(enc.Write([]byte("partial")), ShouldBeNil)

			So(enc.Close(), ShouldBeNil)
			_, err = os.Stat(path)
			So(os.IsNotExist(err), ShouldBeTrue)

			// fails fast afterwards
			So(enc.Write([]byte("x")), ShouldErrLike, ErrFinished)
		})

		Convey("Close after an error removes the partial file", func() {
			enc, err := Create(path, "01020304", "exampl")
			So(err, ShouldBeNil)
			So(enc.BeginObject(), ShouldBeNil)
			So(enc.BeginObject(), ShouldErrLike, ErrEmptyObject)

			So(enc.Close(), ShouldBeNil)
			_, err = os.Stat(path)
			So(os.IsNotExist(err), ShouldBeTrue)
		})

		Convey("Close after Complete leaves the archive alone", func() {
			enc, err := Create(path, "01020304", "exampl")
			So(err, ShouldBeNil)
			So(enc.BeginObject(), ShouldBeNil)
			So(enc.Write([]byte("kept")), ShouldBeNil)
			So(enc.Complete(), ShouldBeNil)

			So(enc.Close(), ShouldBeNil)
			So(enc.Close(), ShouldBeNil)

			st, err := os.Stat(path)
			So(err, ShouldBeNil)
			So(st.Size(), ShouldEqual, 38)
		})
	})
}
