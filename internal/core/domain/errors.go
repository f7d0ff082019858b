package domain

import "errors"

var (
	// ErrInvalidPoint marks a record that failed the coordinate check.
	ErrInvalidPoint = errors.New("invalid point")
	// ErrCapabilityLoad is returned when the density renderer could not be acquired.
	ErrCapabilityLoad = errors.New("density capability unavailable")
	// ErrLayerConstruction covers building or attaching a density layer.
	ErrLayerConstruction = errors.New("density layer construction failed")
	// ErrDetach is a failed best-effort layer removal.
	ErrDetach = errors.New("layer detach failed")
	// ErrBoundsComputation is a failed viewport fit.
	ErrBoundsComputation = errors.New("bounds computation failed")
	// ErrMapNotFound is returned for unknown map view IDs.
	ErrMapNotFound = errors.New("map not found")
	// ErrInvalidInput is returned for malformed point sets.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoActiveLayer is returned when a raster is requested but no layer is attached.
	ErrNoActiveLayer = errors.New("no active density layer")
)
