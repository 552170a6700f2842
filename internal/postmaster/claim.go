// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package postmaster

import "sync/atomic"

var claimed atomic.Pointer[Bus]

// Claim marks b as the authoritative bus of the process. Hosts call it once
// at startup so a second wiring path fails loudly instead of splitting
// subscribers across two registries. Claiming the same bus twice is allowed.
func Claim(b *Bus) error {
	if b == nil {
		return ErrInvalidArgument
	}
	if claimed.CompareAndSwap(nil, b) || claimed.Load() == b {
		return nil
	}
	return ErrDuplicateInstance
}

// Unclaim releases the process-wide slot if b holds it.
func Unclaim(b *Bus) {
	claimed.CompareAndSwap(b, nil)
}
