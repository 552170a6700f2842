// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package message

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Entry describes one registered message variant.
type Entry struct {
	Tag      Tag
	Metadata Metadata
	// Type is the Go type the variant is sent and subscribed as.
	Type reflect.Type
	// New returns a zero-valued instance of the variant.
	New func() Message
}

// DisplayName returns the friendly name, falling back to the Go type name.
func (e Entry) DisplayName() string {
	if name := strings.TrimSpace(e.Metadata.Name); name != "" {
		return name
	}
	if e.Type == nil {
		return string(e.Tag)
	}
	name := e.Type.Name()
	if e.Type.Kind() == reflect.Pointer {
		name = e.Type.Elem().Name()
	}
	if name == "" {
		return e.Type.String()
	}
	return name
}

// Catalog is a startup-time table of message variants keyed by tag.
// It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	entries map[Tag]Entry
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[Tag]Entry)}
}

// Default is the process-wide catalog populated by variants' init functions.
var Default = NewCatalog()

// Register records T under tag in c. The zero value of T is used as the
// factory, so pointer variants are allocated with new. Interface types are
// rejected with ErrAbstractType.
func Register[T Message](c *Catalog, tag Tag, md Metadata) error {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Interface {
		return fmt.Errorf("register %s as %q: %w", t, tag, ErrAbstractType)
	}
	factory := func() Message {
		var zero T
		return zero
	}
	if t.Kind() == reflect.Pointer {
		elem := t.Elem()
		factory = func() Message {
			return reflect.New(elem).Interface()
		}
	}
	return c.add(Entry{Tag: tag, Metadata: md, Type: t, New: factory})
}

// MustRegister registers T in the Default catalog and panics on failure.
// Intended for init functions.
func MustRegister[T Message](tag Tag, md Metadata) {
	if err := Register[T](Default, tag, md); err != nil {
		panic(err)
	}
}

func (c *Catalog) add(e Entry) error {
	if strings.TrimSpace(string(e.Tag)) == "" {
		return fmt.Errorf("register %s: %w", e.Type, ErrInvalidTag)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[e.Tag]; ok {
		return fmt.Errorf("register %s as %q (already %s): %w", e.Type, e.Tag, existing.Type, ErrDuplicateTag)
	}
	c.entries[e.Tag] = e
	return nil
}

// Lookup returns the entry registered under tag.
func (c *Catalog) Lookup(tag Tag) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[tag]
	return e, ok
}

// Entries returns all entries sorted by tag.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// Visible returns entries not marked Hidden, sorted by tag.
func (c *Catalog) Visible() []Entry {
	all := c.Entries()
	out := all[:0]
	for _, e := range all {
		if !e.Metadata.Hidden {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of registered variants.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
