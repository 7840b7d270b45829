// Ruzgate - Caching Gateway for the RUZ Timetable API
// Copyright 2026 ruz-tools
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ruz-tools/ruzgate

// Package stableid derives deterministic numeric identifiers from display
// names. The upstream timetable API does not expose stable ids for
// disciplines, locations, or most lecturers, so the gateway derives one
// from the name: the MD5 digest of the UTF-8 bytes interpreted as a big
// unsigned integer, reduced modulo 10^8.
//
// The algorithm is a compatibility contract with existing clients; ids are
// persisted in client-side bookmarks and filter selections. Changing the
// hash or the modulus invalidates all of them. Collisions inside the
// 10^8 space are tolerated: for the realistic name population they are
// vanishingly rare, and a collision only merges two filter options.
package stableid

import (
	//nolint:gosec // md5 is used as a stable non-cryptographic id hash
	"crypto/md5"
	"math/big"
)

// modulus bounds ids to 8 decimal digits.
var modulus = big.NewInt(100_000_000)

// FromName returns the stable id for a display name.
// Equal names always produce equal ids.
func FromName(name string) int64 {
	sum := md5.Sum([]byte(name)) //nolint:gosec
	n := new(big.Int).SetBytes(sum[:])
	return n.Mod(n, modulus).Int64()
}
