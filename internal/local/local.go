// Package local provides on-device key/value persistence for the crate.
//
// A Store maps slot names to raw bytes. Slot wraps a Store with a JSON codec
// for a single typed value. Reading a slot that was never written returns
// (nil, nil); reading a slot whose bytes no longer decode returns ErrCorrupt.
package local

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorrupt is returned when a stored value can no longer be decoded.
var ErrCorrupt = errors.New("corrupt local value")

// Store persists raw values by slot name.
type Store interface {
	// Get returns the stored bytes, or (nil, nil) if the slot is empty.
	Get(name string) ([]byte, error)
	Set(name string, data []byte) error
	// Remove empties a slot. Removing an empty slot is not an error.
	Remove(name string) error
}

// Slot is a typed, JSON-encoded value held in one Store slot.
type Slot[T any] struct {
	store Store
	name  string
}

// NewSlot returns the slot called name in store.
func NewSlot[T any](store Store, name string) *Slot[T] {
	return &Slot[T]{store: store, name: name}
}

// Load reads and decodes the slot.
// Returns the zero value and a nil error if the slot is empty.
func (s *Slot[T]) Load() (T, error) {
	var value T

	data, err := s.store.Get(s.name)
	if err != nil {
		return value, fmt.Errorf("reading slot %s: %w", s.name, err)
	}
	if data == nil {
		return value, nil
	}

	if err := json.Unmarshal(data, &value); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: slot %s: %w", ErrCorrupt, s.name, err)
	}
	return value, nil
}

// Save encodes and writes the slot.
func (s *Slot[T]) Save(value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding slot %s: %w", s.name, err)
	}
	if err := s.store.Set(s.name, data); err != nil {
		return fmt.Errorf("writing slot %s: %w", s.name, err)
	}
	return nil
}

// Clear empties the slot.
func (s *Slot[T]) Clear() error {
	if err := s.store.Remove(s.name); err != nil {
		return fmt.Errorf("clearing slot %s: %w", s.name, err)
	}
	return nil
}
