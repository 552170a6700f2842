// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package inspect

import "errors"

// ErrUnknownMessage is returned when a tag is not present in the catalog.
var ErrUnknownMessage = errors.New("unknown message")
