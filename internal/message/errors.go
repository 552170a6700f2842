// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package message

import "errors"

var (
	// ErrInvalidTag is returned when a variant is registered with an empty tag.
	ErrInvalidTag = errors.New("invalid message tag")

	// ErrDuplicateTag is returned when a tag is registered twice in one catalog.
	ErrDuplicateTag = errors.New("duplicate message tag")

	// ErrAbstractType is returned for interface variants, which have no
	// concrete zero value to dispatch.
	ErrAbstractType = errors.New("message variant must be a concrete type")
)
