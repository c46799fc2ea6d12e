package stdbscan

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every parameter validation failure.
	ErrConfiguration = errors.New("stdbscan: invalid configuration")
	// ErrData is matched by every per-point validation failure.
	ErrData = errors.New("stdbscan: invalid point data")
	// ErrUnknownIndex is returned for an unrecognised neighbour index kind.
	ErrUnknownIndex = fmt.Errorf("%w: unknown neighbor index", ErrConfiguration)
)

// ConfigError describes an invalid clustering parameter.
type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("stdbscan: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// DataError describes a malformed input point. Duplicate holds the index of
// the first point sharing the same ID when Field is "id".
type DataError struct {
	Index     int
	ID        int64
	Field     string
	Value     float64
	Duplicate int
}

func (e *DataError) Error() string {
	if e.Field == "id" {
		return fmt.Sprintf("stdbscan: point %d: duplicate id %d (first seen at index %d)", e.Index, e.ID, e.Duplicate)
	}
	return fmt.Sprintf("stdbscan: point %d (id %d): non-finite %s %v", e.Index, e.ID, e.Field, e.Value)
}

func (e *DataError) Unwrap() error { return ErrData }
