// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scavdata

import (
	"encoding/hex"

	"go.chromium.org/luci/common/errors"
)

// ErrInvalidSignature is returned when a supplied primary or secondary
// signature fails its format check.
var ErrInvalidSignature = errors.New("invalid signature")

// Primary is the 4-byte primary signature identifying the vendor or
// family of formats stored in an archive.
type Primary [4]byte

// Secondary is the 6-byte secondary signature identifying the specific
// schema within a family.
type Secondary [6]byte

// ParsePrimary parses a primary signature from its 8-hex-digit form.
// Hex parsing is case-insensitive.
func ParsePrimary(s string) (p Primary, err error) {
	if len(s) != 8 {
		err = errors.Annotate(ErrInvalidSignature,
			"primary %q: want 8 hex digits, got %d characters", s, len(s)).Err()
		return
	}
	raw, derr := hex.DecodeString(s)
	if derr != nil {
		err = errors.Annotate(ErrInvalidSignature, "primary %q is not hex", s).Err()
		return
	}
	copy(p[:], raw)
	return
}

// ParseSecondary parses a secondary signature from either its
// 12-hex-digit form or its 6-character printable-ASCII form. Hex
// parsing is case-insensitive; printable means every byte lies in
// [0x20, 0x7e].
func ParseSecondary(s string) (sec Secondary, err error) {
	switch len(s) {
	case 12:
		raw, derr := hex.DecodeString(s)
		if derr != nil {
			err = errors.Annotate(ErrInvalidSignature, "secondary %q is not hex", s).Err()
			return
		}
		copy(sec[:], raw)
		return

	case 6:
		for i := 0; i < len(s); i++ {
			if s[i] < 0x20 || s[i] > 0x7e {
				err = errors.Annotate(ErrInvalidSignature,
					"secondary %q: byte %d is not printable ASCII", s, i).Err()
				return
			}
		}
		copy(sec[:], s)
		return
	}
	err = errors.Annotate(ErrInvalidSignature,
		"secondary %q: want 12 hex digits or 6 printable ASCII characters, got %d bytes",
		s, len(s)).Err()
	return
}

// Hex renders the primary signature as 8 lowercase hex digits.
func (p Primary) Hex() string {
	return hex.EncodeToString(p[:])
}

// Hex renders the secondary signature as 12 lowercase hex digits.
func (s Secondary) Hex() string {
	return hex.EncodeToString(s[:])
}

// ASCII renders the secondary signature as 6 ASCII characters. The
// bool is false, and the string empty, unless every byte lies in
// [0x20, 0x7e].
func (s Secondary) ASCII() (string, bool) {
	for _, b := range s {
		if b < 0x20 || b > 0x7e {
			return "", false
		}
	}
	return string(s[:]), true
}
