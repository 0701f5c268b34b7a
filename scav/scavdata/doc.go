// Copyright 2024 Canidlogic. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scavdata implements the wire codec for the pieces of the
// Scavenger format: split 48-bit integers, the 16-byte file header, the
// 12-byte index record, the 6-byte count trailer, and the two file
// signatures.
package scavdata
