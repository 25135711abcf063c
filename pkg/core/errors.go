// pkg/core/errors.go
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRoute is matched by every *NoRouteError.
	ErrNoRoute = errors.New("no route")
	// ErrOutOfBounds is matched by every *OutOfBoundsError, and by a
	// *NoRouteError whose endpoint lies outside the dataset.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrProjection is matched by every *ProjectionError.
	ErrProjection = errors.New("projection failed")
	// ErrInvalidArgument is returned for non-finite or negative parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)

// NoRouteReason describes why a route could not be found.
type NoRouteReason string

const (
	ReasonEndpointOutside NoRouteReason = "endpoint outside dataset"
	ReasonEndpointBlocked NoRouteReason = "endpoint not traversable"
	ReasonDisconnected    NoRouteReason = "endpoints not connected"
	ReasonSearchExhausted NoRouteReason = "search exhausted"
)

// NoRouteError is returned when two cells cannot be connected.
type NoRouteError struct {
	From   Cell
	To     Cell
	Reason NoRouteReason
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route from (%d,%d) to (%d,%d): %s",
		e.From.Col, e.From.Row, e.To.Col, e.To.Row, e.Reason)
}

// Unwrap lets errors.Is match ErrNoRoute, and ErrOutOfBounds for
// endpoints outside the dataset.
func (e *NoRouteError) Unwrap() []error {
	if e.Reason == ReasonEndpointOutside {
		return []error{ErrNoRoute, ErrOutOfBounds}
	}
	return []error{ErrNoRoute}
}

// OutOfBoundsError is returned when a cell lies outside the dataset or has
// no elevation.
type OutOfBoundsError struct {
	Cell   Cell
	Reason string
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("cell (%d,%d) out of bounds: %s", e.Cell.Col, e.Cell.Row, e.Reason)
}

func (e *OutOfBoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// ProjectionError wraps a failure of the geographic/planar projection.
type ProjectionError struct {
	Op  string
	X   float64
	Y   float64
	Err error
}

func (e *ProjectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("projection %s (%g, %g): %v", e.Op, e.X, e.Y, e.Err)
	}
	return fmt.Sprintf("projection %s (%g, %g) failed", e.Op, e.X, e.Y)
}

func (e *ProjectionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrProjection, e.Err}
	}
	return []error{ErrProjection}
}
