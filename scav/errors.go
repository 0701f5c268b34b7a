// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scav

import (
	"go.chromium.org/luci/common/errors"

	"github.com/canidlogic/scavenger/scav/scavdata"
)

// Sentinel errors for the structural failure modes of the format.
// Returned errors wrap one of these; match with errors.Is. Underlying
// I/O failures are not wrapped in a sentinel and propagate the OS error
// annotated with the failing operation.
var (
	// ErrFileTooSmall means the file is shorter than the smallest
	// legal archive (header plus count trailer).
	ErrFileTooSmall = errors.New("file too small")

	// ErrFileNotAligned means the file length is not congruent to
	// 2 mod 4.
	ErrFileNotAligned = errors.New("file length misaligned")

	// ErrSizeMismatch means the header's total-size field disagrees
	// with the observed file length.
	ErrSizeMismatch = errors.New("header size field disagrees with file length")

	// ErrMalformed covers the remaining structural violations: an
	// impossible object count, an index placed inside the header, or
	// an invalid index record discovered on access.
	ErrMalformed = errors.New("malformed archive")

	// ErrOutOfRange means a caller-supplied object index, offset, or
	// length lies outside its allowed bounds.
	ErrOutOfRange = errors.New("out of range")

	// ErrEmptyObject means an object was begun but never received any
	// bytes.
	ErrEmptyObject = errors.New("empty object")

	// ErrFileTooLarge means the projected archive size would exceed
	// the 48-bit limit.
	ErrFileTooLarge = errors.New("archive would exceed 48-bit size limit")

	// ErrNoObjectOpen means Write was called before any BeginObject.
	ErrNoObjectOpen = errors.New("no object open")

	// ErrFinished means an operation was attempted on an encoder that
	// has already completed or been closed.
	ErrFinished = errors.New("encoder is finished")

	// ErrEncoding means a text convenience read found bytes that are
	// not valid UTF-8.
	ErrEncoding = errors.New("object is not valid UTF-8")

	// ErrInvalidSignature is scavdata's signature format error,
	// re-exported for callers matching decode failures.
	ErrInvalidSignature = scavdata.ErrInvalidSignature
)
