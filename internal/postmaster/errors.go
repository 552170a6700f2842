// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package postmaster

import "errors"

var (
	// ErrInvalidArgument is returned by SendAs when the payload is nil or not
	// assignable to the declared message type.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateInstance is returned by Claim when another bus already owns
	// the process-wide slot.
	ErrDuplicateInstance = errors.New("postmaster instance already claimed")
)
